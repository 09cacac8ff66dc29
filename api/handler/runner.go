package handler

import (
	"context"

	"github.com/use-agent/participa/cache"
	"github.com/use-agent/participa/models"
	"github.com/use-agent/participa/scraper"
	"github.com/use-agent/participa/webhook"
)

// Runner is the scrape orchestrator as seen by the HTTP layer.
// *scraper.Scraper implements it.
type Runner interface {
	Run(ctx context.Context) (*scraper.RunResult, error)
	Stats() models.SessionStats
	LogPath() string
	TargetURL() string
}

// resultKey is the cache key of the runner's last result.
func resultKey(r Runner) string {
	return cache.Key(r.TargetURL())
}

// runSummary is the webhook payload of one run.
type runSummary struct {
	TargetURL   string              `json:"target_url"`
	Rows        int                 `json:"rows"`
	FetchMethod string              `json:"fetch_method,omitempty"`
	Timing      *models.TimingInfo  `json:"timing,omitempty"`
	Error       *models.ErrorDetail `json:"error,omitempty"`
}

type notifyingRunner struct {
	Runner
	notifier *webhook.Notifier
}

// WithNotifier wraps r so that every finished run is posted to n.
// A nil n returns r unchanged.
func WithNotifier(r Runner, n *webhook.Notifier) Runner {
	if n == nil {
		return r
	}
	return &notifyingRunner{Runner: r, notifier: n}
}

func (nr *notifyingRunner) Run(ctx context.Context) (*scraper.RunResult, error) {
	result, err := nr.Runner.Run(ctx)

	summary := runSummary{TargetURL: nr.TargetURL()}
	if err != nil {
		// A rejected concurrent run never touched the browser.
		if se := models.AsScrapeError(err); se.Code != models.ErrCodeBusy {
			summary.Error = se.ToDetail()
			nr.notifier.Notify(webhook.NewEvent(webhook.EventRunFailed, summary))
		}
		return nil, err
	}

	summary.Rows = result.Table.Len()
	summary.FetchMethod = result.FetchMethod
	summary.Timing = &result.Timing
	nr.notifier.Notify(webhook.NewEvent(webhook.EventRunCompleted, summary))
	return result, nil
}
