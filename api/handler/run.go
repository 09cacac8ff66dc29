package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/participa/browserlog"
	"github.com/use-agent/participa/cache"
	"github.com/use-agent/participa/extract"
	"github.com/use-agent/participa/models"
)

// execute runs the orchestrator once and assembles the full response,
// including the browser log captured during the run. Successful responses
// are stored in cc. The returned error is nil on success.
//
// Orchestration flow:
//  1. Runner.Run      → table + navigation/extraction timing
//  2. browserlog.Show → log view (also on failure; it explains most failures)
//  3. Fill Timing, compare with the cached previous run, cache on success.
func execute(ctx context.Context, r Runner, cc *cache.Cache) (*models.RunResponse, *models.ScrapeError) {
	totalStart := time.Now()

	// ── 1. Run ──────────────────────────────────────────────────────
	result, runErr := r.Run(ctx)

	// ── 2. Log ──────────────────────────────────────────────────────
	// A busy rejection leaves the log to the run still writing it.
	resp := &models.RunResponse{SourceURL: r.TargetURL()}
	if !isBusy(runErr) {
		logView, logErr := browserlog.Show(r.LogPath())
		if logErr != nil {
			slog.Warn("reading browser log failed", "path", r.LogPath(), "error", logErr)
		}
		resp.Log = logView
	}

	if runErr != nil {
		scrapeErr := models.AsScrapeError(runErr)
		resp.Error = scrapeErr.ToDetail()
		resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
		return resp, scrapeErr
	}

	// ── 3. Fill result + timing ─────────────────────────────────────
	resp.Success = true
	resp.Title = result.Title
	resp.SourceURL = result.FinalURL
	resp.Table = result.Table
	resp.Rows = result.Table.Rows()
	resp.FetchMethod = result.FetchMethod
	resp.Timing = result.Timing
	resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()

	var prev *models.DriftInfo
	if cc != nil {
		if last, _, ok := cc.Get(resultKey(r), 0); ok {
			prev = last.Drift
		}
	}
	resp.Drift = extract.Drift(prev, result.Fingerprint)
	if resp.Drift.StructureChanged {
		slog.Warn("table layout changed since the previous run",
			"distance", resp.Drift.StructureDistance,
			"rows", len(resp.Rows),
		)
	}

	if cc != nil {
		cc.Set(resultKey(r), resp)
	}
	return resp, nil
}

// RunAPI returns a handler for POST /api/v1/run.
//
// The run is synchronous: the request blocks for the whole browser session.
func RunAPI(r Runner, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := execute(c.Request.Context(), r, cc)
		if err != nil {
			c.JSON(mapErrorToStatus(err), resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func isBusy(err error) bool {
	return err != nil && models.AsScrapeError(err).Code == models.ErrCodeBusy
}
