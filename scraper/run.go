package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/participa/browserlog"
	"github.com/use-agent/participa/extract"
	"github.com/use-agent/participa/models"
	"github.com/ysmood/gson"
)

// settleTimeout bounds the best-effort DOM-stable wait after the table shows up.
const settleTimeout = 5 * time.Second

// Run performs one scrape of the target page and returns the extracted table.
//
// Only one run may hold the session at a time; a concurrent call returns a
// BUSY error immediately instead of queueing. The previous browser log is
// removed before the run starts. Every failure is a *models.ScrapeError.
func (s *Scraper) Run(ctx context.Context) (*RunResult, error) {
	if !s.mu.TryLock() {
		return nil, models.NewScrapeError(models.ErrCodeBusy, "a run is already in progress", nil)
	}
	defer s.mu.Unlock()

	s.running.Store(true)
	defer s.running.Store(false)
	s.runs.Add(1)

	ctx, cancel := context.WithTimeout(ctx, s.scraperCfg.RunTimeout)
	defer cancel()

	result, err := s.run(ctx)
	if err != nil {
		s.failures.Add(1)
		slog.Error("run failed", "url", s.scraperCfg.TargetURL, "error", err)
		return nil, err
	}
	slog.Info("run finished",
		"url", s.scraperCfg.TargetURL,
		"rows", result.Table.Len(),
		"method", result.FetchMethod,
	)
	return result, nil
}

func (s *Scraper) run(ctx context.Context) (*RunResult, error) {
	if err := browserlog.Delete(s.browserCfg.LogPath); err != nil {
		return nil, err
	}

	if s.scraperCfg.FetchMode == FetchHTTP {
		return s.runHTTP(ctx)
	}
	return s.runBrowser(ctx)
}

// runBrowser is the rendered-page path.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Locate      – fail with DRIVER_NOT_FOUND before touching anything
//  2. Session     – launch Chromium with the launch options, log → log file
//  3. DEFER       – close page, browser, process, profile dir and log file
//  4. Page setup  – stealth, resource blocking, extra headers (before navigation!)
//  5. Navigate    – bounded by NavigationTimeout
//  6. Wait        – poll for the table, bounded by WaitTimeout, then settle
//  7. Extract     – page.HTML() → extract.TableMatch
func (s *Scraper) runBrowser(ctx context.Context) (*RunResult, error) {
	navStart := time.Now()

	// ── 1. Locate browser ────────────────────────────────────────────
	if s.browserPath == "" {
		return nil, models.NewScrapeError(
			models.ErrCodeDriverNotFound,
			"no Chromium executable found on PATH",
			nil,
		)
	}

	// ── 2. Acquire session ───────────────────────────────────────────
	sess, err := openSession(ctx, s.opts, s.browserPath, s.browserCfg.LogPath)
	if err != nil {
		return nil, err
	}
	// ── 3. Release on every exit path ────────────────────────────────
	defer sess.Close()

	page, err := s.newPage(sess.browser)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Debug("page close failed", "error", closeErr)
		}
	}()

	// ── 4. Page setup ────────────────────────────────────────────────
	stopHijack := s.blocked.install(page)
	defer stopHijack()
	if s.scraperCfg.AcceptLanguage != "" {
		err := proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{
				"Accept-Language": s.scraperCfg.AcceptLanguage,
			}),
		}.Call(page)
		if err != nil {
			slog.Warn("setting Accept-Language header failed", "error", err)
		}
	}

	// ── 5. Navigate ──────────────────────────────────────────────────
	navCtx, navCancel := context.WithTimeout(ctx, s.scraperCfg.NavigationTimeout)
	navErr := page.Context(navCtx).Navigate(s.scraperCfg.TargetURL)
	navCancel()
	if navErr != nil {
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}
	slog.Debug("navigated", "url", s.scraperCfg.TargetURL)

	// ── 6. Wait for the table ────────────────────────────────────────
	if err := s.waitForTable(ctx, page); err != nil {
		return nil, err
	}
	navigationMs := time.Since(navStart).Milliseconds()

	// ── 7. Extract ───────────────────────────────────────────────────
	p := page.Context(ctx)
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to read page HTML")
	}
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = s.scraperCfg.TargetURL
	}

	return s.extract(rawHTML, finalURL, FetchBrowser, navigationMs)
}

// newPage opens a blank tab, with automation fingerprints masked when stealth
// is enabled.
func (s *Scraper) newPage(browser *rod.Browser) (*rod.Page, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to open page",
			err,
		)
	}
	if s.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}
	return page, nil
}

// waitForTable polls the DOM until the table selector matches or WaitTimeout
// elapses, then waits briefly for the DOM to stop changing so all rows are in.
func (s *Scraper) waitForTable(ctx context.Context, page *rod.Page) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.scraperCfg.WaitTimeout)
	defer cancel()

	if _, err := page.Context(waitCtx).Element(s.scraperCfg.TableSelector); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return models.NewScrapeError(
				models.ErrCodeTimeout,
				fmt.Sprintf("table %q did not appear within %s", s.scraperCfg.TableSelector, s.scraperCfg.WaitTimeout),
				err,
			)
		}
		return categorizeError(err, "waiting for table failed")
	}

	settleCtx, settleCancel := context.WithTimeout(ctx, settleTimeout)
	defer settleCancel()
	if err := page.Context(settleCtx).WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err,
		)
	}
	return nil
}

// runHTTP fetches the page without a browser and extracts from the raw body.
func (s *Scraper) runHTTP(ctx context.Context) (*RunResult, error) {
	navStart := time.Now()
	body, finalURL, err := s.httpFetcher.fetch(ctx, s.scraperCfg.TargetURL)
	if err != nil {
		return nil, categorizeError(err, "http fetch failed")
	}
	navigationMs := time.Since(navStart).Milliseconds()

	result, err := s.extract(body, finalURL, FetchHTTP, navigationMs)
	if err != nil {
		var se *models.ScrapeError
		if errors.As(err, &se) && se.Code == models.ErrCodeTableNotFound && needsBrowser([]byte(body)) {
			se.Message += "; the page looks script-rendered, try fetch mode \"browser\""
		}
		return nil, err
	}
	return result, nil
}

func (s *Scraper) extract(rawHTML, finalURL, method string, navigationMs int64) (*RunResult, error) {
	extractStart := time.Now()
	table, err := extract.TableMatch(rawHTML, s.scraperCfg.TableSelector, s.tableSel)
	if err != nil {
		return nil, err
	}
	return &RunResult{
		Table:       table,
		Title:       extract.Title(rawHTML),
		Fingerprint: extract.TableFingerprint(rawHTML, s.tableSel, table),
		FinalURL:    finalURL,
		FetchMethod: method,
		Timing: models.TimingInfo{
			NavigationMs: navigationMs,
			ExtractionMs: time.Since(extractStart).Milliseconds(),
		},
	}, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "run canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
