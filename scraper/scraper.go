package scraper

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/andybalholm/cascadia"
	"github.com/use-agent/participa/config"
	"github.com/use-agent/participa/extract"
	"github.com/use-agent/participa/models"
)

// Fetch modes.
const (
	FetchBrowser = "browser"
	FetchHTTP    = "http"
)

// Scraper owns the single browser session slot. Runs are exclusive: while
// one is in flight, others fail fast with BUSY. It is safe for concurrent use.
type Scraper struct {
	browserCfg  config.BrowserConfig
	scraperCfg  config.ScraperConfig
	opts        LaunchOptions
	browserPath string
	tableSel    cascadia.Selector
	blocked     blockList
	httpFetcher *httpFetcher

	mu       sync.Mutex
	running  atomic.Bool
	runs     atomic.Int64
	failures atomic.Int64
}

// New validates the configuration and resolves the browser once. A missing
// browser is not fatal here; browser-mode runs report DRIVER_NOT_FOUND.
func New(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*Scraper, error) {
	switch scraperCfg.FetchMode {
	case FetchBrowser, FetchHTTP:
	default:
		return nil, models.NewScrapeError(
			models.ErrCodeInvalidInput,
			"unknown fetch mode "+scraperCfg.FetchMode,
			nil,
		)
	}

	sel, err := extract.CompileSelector(scraperCfg.TableSelector)
	if err != nil {
		return nil, err
	}

	path, found := LocateBrowser(browserCfg.BrowserBin)
	if found {
		slog.Info("browser located", "path", path)
	} else if scraperCfg.FetchMode == FetchBrowser {
		slog.Warn("no Chromium executable found on PATH; runs will fail until one is installed")
	}

	opts := NewLaunchOptions(browserCfg)
	slog.Debug("launch options", "args", opts.Args())

	return &Scraper{
		browserCfg:  browserCfg,
		scraperCfg:  scraperCfg,
		opts:        opts,
		browserPath: path,
		tableSel:    sel,
		blocked:     newBlockList(scraperCfg.BlockedResourceTypes),
		httpFetcher: newHTTPFetcher(scraperCfg.AcceptLanguage),
	}, nil
}

// LogPath is the absolute path of the browser log file.
func (s *Scraper) LogPath() string {
	return s.browserCfg.LogPath
}

// TargetURL is the page every run scrapes.
func (s *Scraper) TargetURL() string {
	return s.scraperCfg.TargetURL
}

// Stats returns a snapshot of the session slot.
func (s *Scraper) Stats() models.SessionStats {
	return models.SessionStats{
		BrowserPath:  s.browserPath,
		BrowserFound: s.browserPath != "",
		Running:      s.running.Load(),
		Runs:         s.runs.Load(),
		Failures:     s.failures.Load(),
		FetchMode:    s.scraperCfg.FetchMode,
	}
}
