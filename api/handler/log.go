package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/participa/browserlog"
	"github.com/use-agent/participa/models"
)

// Log returns a handler for GET /api/v1/log. A missing log file is a normal
// 200 response with found=false and a warning.
func Log(r Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := browserlog.Show(r.LogPath())
		if err != nil {
			abortWith(c, models.AsScrapeError(err))
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
