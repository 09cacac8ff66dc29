package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/participa/api/handler"
	"github.com/use-agent/participa/api/middleware"
	"github.com/use-agent/participa/cache"
	"github.com/use-agent/participa/config"
	"github.com/use-agent/participa/extract"
	"github.com/use-agent/participa/web"
	"github.com/use-agent/participa/webhook"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit (run endpoints only)
//
// The page and the health endpoint stay outside auth so browsers and
// monitoring probes always work.
func NewRouter(r handler.Runner, cfg *config.Config, cc *cache.Cache, startTime time.Time) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r = handler.WithNotifier(r, webhook.New(cfg.Webhook))

	e := gin.New()
	e.Use(gin.Recovery())
	e.Use(gin.Logger())
	e.SetHTMLTemplate(tmpl)

	limit := middleware.RateLimit(cfg.RateLimit)

	// Web page.
	e.GET("/", handler.Index(r))
	e.POST("/run", limit, handler.RunPage(r, cc))

	v1 := e.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(r, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}

	protected.POST("/run", limit, handler.RunAPI(r, cc))
	protected.GET("/result", handler.Result(r, cc, extract.NewRenderer()))
	protected.GET("/log", handler.Log(r))

	return e, nil
}
