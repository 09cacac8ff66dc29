package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/participa/cache"
	"github.com/use-agent/participa/extract"
	"github.com/use-agent/participa/models"
)

// Result returns a handler for GET /api/v1/result.
//
// Query parameters:
//
//	format   "json" (default) or "markdown"
//	max_age  maximum result age in milliseconds; 0 or absent accepts any age
func Result(r Runner, cc *cache.Cache, md *extract.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.DefaultQuery("format", "json")
		if format != "json" && format != "markdown" {
			abortWith(c, models.NewScrapeError(models.ErrCodeInvalidInput, "format must be json or markdown", nil))
			return
		}

		maxAgeMs, err := strconv.Atoi(c.DefaultQuery("max_age", "0"))
		if err != nil || maxAgeMs < 0 {
			abortWith(c, models.NewScrapeError(models.ErrCodeInvalidInput, "max_age must be a non-negative integer", nil))
			return
		}

		resp, storedAt, hit := cc.Get(resultKey(r), time.Duration(maxAgeMs)*time.Millisecond)
		if !hit {
			abortWith(c, models.NewScrapeError(models.ErrCodeNotFound, "no recent result; start a run first", nil))
			return
		}
		resp.CacheStatus = "hit"
		c.Header("Last-Modified", storedAt.UTC().Format(http.TimeFormat))

		if format == "markdown" {
			out, err := md.Markdown(resp.Table)
			if err != nil {
				abortWith(c, models.NewScrapeError(models.ErrCodeInternal, "markdown conversion failed", err))
				return
			}
			c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(out))
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// abortWith writes a structured JSON error response for err.
func abortWith(c *gin.Context, err *models.ScrapeError) {
	c.AbortWithStatusJSON(mapErrorToStatus(err), models.RunResponse{
		Success: false,
		Error:   err.ToDetail(),
	})
}
