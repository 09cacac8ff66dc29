package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/participa/cache"
	"github.com/use-agent/participa/models"
)

// pageTitle is the heading of the web page.
const pageTitle = "Headless browser on a Go service"

// statusMessage is one colored message box on the page.
type statusMessage struct {
	Kind string // "info", "warning" or "error"
	Text string
}

// pageView is the data the index template renders.
type pageView struct {
	PageTitle string
	TargetURL string
	Status    []statusMessage
	Headers   [4]string
	Rows      []models.Row
	Log       *models.LogView
}

func newPageView(r Runner) pageView {
	return pageView{
		PageTitle: pageTitle,
		TargetURL: r.TargetURL(),
		Headers:   models.TableHeaders,
	}
}

// Index returns a handler for GET /: the static page with the run button.
func Index(r Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", newPageView(r))
	}
}

// RunPage returns a handler for POST /run. It blocks until the run is over and
// renders the table and the browser log, or the typed error in place of the
// table.
func RunPage(r Runner, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := newPageView(r)

		resp, err := execute(c.Request.Context(), r, cc)
		view.Log = resp.Log

		status := http.StatusOK
		if err != nil {
			status = mapErrorToStatus(err)
			view.Status = append(view.Status, statusMessage{
				Kind: "error",
				Text: fmt.Sprintf("Run failed (%s): %s", err.Code, err.Message),
			})
		} else {
			view.Rows = resp.Rows
			view.Status = append(view.Status,
				statusMessage{
					Kind: "info",
					Text: fmt.Sprintf("Result -> %d rows from %s in %d ms", len(resp.Rows), resp.SourceURL, resp.Timing.TotalMs),
				},
				statusMessage{
					Kind: "info",
					Text: "Successfully finished. The browser log file is shown below...",
				},
			)
			if d := resp.Drift; d != nil && !d.Baseline {
				switch {
				case d.StructureChanged:
					view.Status = append(view.Status, statusMessage{
						Kind: "warning",
						Text: "The table layout changed since the previous run; check the columns.",
					})
				case d.Changed:
					view.Status = append(view.Status, statusMessage{
						Kind: "info",
						Text: "The table content changed since the previous run.",
					})
				}
			}
		}

		c.HTML(status, "index.html", view)
	}
}
