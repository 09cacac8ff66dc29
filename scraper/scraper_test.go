package scraper

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/use-agent/participa/browserlog"
	"github.com/use-agent/participa/config"
	"github.com/use-agent/participa/models"
)

const portalPage = `<html><head><title>Participação Social</title></head><body>
<table id="tableContent">
<tr><th>Número</th><th>Meio</th><th>Objeto</th><th>Período</th></tr>
<tr><td> 1 </td><td>Web</td><td>Rule X</td><td>Jan-Feb</td></tr>
<tr><td>2</td><td>Presencial</td><td>Rule Y</td><td>Mar-Abr</td></tr>
</table></body></html>`

func testConfig(t *testing.T, targetURL, mode string) (config.BrowserConfig, config.ScraperConfig) {
	t.Helper()
	return config.BrowserConfig{
			Headless:   true,
			NoSandbox:  true,
			WindowSize: "1920,1080",
			LogPath:    filepath.Join(t.TempDir(), "selenium.log"),
		}, config.ScraperConfig{
			TargetURL:         targetURL,
			TableSelector:     "table#tableContent",
			FetchMode:         mode,
			RunTimeout:        10 * time.Second,
			NavigationTimeout: 5 * time.Second,
			WaitTimeout:       5 * time.Second,
			AcceptLanguage:    "pt-BR",
		}
}

func newTestScraper(t *testing.T, targetURL, mode string) *Scraper {
	t.Helper()
	bc, sc := testConfig(t, targetURL, mode)
	s, err := New(bc, sc)
	require.NoError(t, err)
	return s
}

func requireCode(t *testing.T, err error, code string) *models.ScrapeError {
	t.Helper()
	var se *models.ScrapeError
	require.True(t, errors.As(err, &se), "want *models.ScrapeError, got %T: %v", err, err)
	require.Equal(t, code, se.Code)
	return se
}

func TestRun_HTTPModeExtractsTable(t *testing.T) {
	langs := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		langs <- r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, portalPage)
	}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL, FetchHTTP)
	require.NoError(t, os.WriteFile(s.LogPath(), []byte("stale log"), 0o644))

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, FetchHTTP, res.FetchMethod)
	require.Equal(t, "pt-BR", <-langs)
	require.Equal(t, "Participação Social", res.Title)
	require.Equal(t, []models.Row{
		{Number: "1", Channel: "Web", Subject: "Rule X", Period: "Jan-Feb"},
		{Number: "2", Channel: "Presencial", Subject: "Rule Y", Period: "Mar-Abr"},
	}, res.Table.Rows())

	view, err := browserlog.Show(s.LogPath())
	require.NoError(t, err)
	require.False(t, view.Found, "log from a previous run must be removed")

	stats := s.Stats()
	require.EqualValues(t, 1, stats.Runs)
	require.EqualValues(t, 0, stats.Failures)
	require.False(t, stats.Running)
}

func TestRun_HTTPModeTableMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div id="app"></div><script src="/app.js"></script></body></html>`)
	}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL, FetchHTTP)
	_, err := s.Run(context.Background())
	se := requireCode(t, err, models.ErrCodeTableNotFound)
	require.Contains(t, se.Message, "script-rendered")
	require.EqualValues(t, 1, s.Stats().Failures)
}

func TestRun_HTTPModeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL, FetchHTTP)
	_, err := s.Run(context.Background())
	requireCode(t, err, models.ErrCodeNavigation)
}

func TestRun_HTTPModeRowMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<table id="tableContent"><tr><th>h</th></tr><tr><td>1</td><td>Web</td></tr></table>`)
	}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL, FetchHTTP)
	_, err := s.Run(context.Background())
	requireCode(t, err, models.ErrCodeStructureMismatch)
}

func TestHTTPFetcher_TLSHandshakePerConnection(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, portalPage)
	}))
	defer srv.Close()

	roots := x509.NewCertPool()
	roots.AddCert(srv.Certificate())

	f := newHTTPFetcher("pt-BR")
	f.rootCAs = roots
	for i := 0; i < 3; i++ {
		body, _, err := f.fetch(context.Background(), srv.URL)
		require.NoError(t, err, "fetch %d", i+1)
		require.Contains(t, body, "tableContent")
		f.client.CloseIdleConnections()
	}

	other := newHTTPFetcher("pt-BR")
	other.rootCAs = roots
	_, _, err := other.fetch(context.Background(), srv.URL)
	require.NoError(t, err)
}

func TestRun_ConcurrentRunIsBusy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		fmt.Fprint(w, portalPage)
	}))
	defer srv.Close()

	s := newTestScraper(t, srv.URL, FetchHTTP)

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		done <- err
	}()

	<-entered
	require.True(t, s.Stats().Running)
	_, err := s.Run(context.Background())
	requireCode(t, err, models.ErrCodeBusy)

	close(release)
	require.NoError(t, <-done)
	require.False(t, s.Stats().Running)
}

func TestRun_RunTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	bc, sc := testConfig(t, srv.URL, FetchHTTP)
	sc.RunTimeout = 100 * time.Millisecond
	s, err := New(bc, sc)
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	requireCode(t, err, models.ErrCodeTimeout)
}

func TestRun_BrowserModeWithoutBrowser(t *testing.T) {
	s := newTestScraper(t, "https://example.invalid/", FetchBrowser)
	s.browserPath = ""

	_, err := s.Run(context.Background())
	requireCode(t, err, models.ErrCodeDriverNotFound)
	require.False(t, s.Stats().BrowserFound)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	bc, sc := testConfig(t, "https://example.invalid/", "carrier-pigeon")
	_, err := New(bc, sc)
	requireCode(t, err, models.ErrCodeInvalidInput)

	bc, sc = testConfig(t, "https://example.invalid/", FetchHTTP)
	sc.TableSelector = "table[id="
	_, err = New(bc, sc)
	requireCode(t, err, models.ErrCodeInvalidInput)
}

func TestCategorizeError(t *testing.T) {
	require.Equal(t, models.ErrCodeTimeout, categorizeError(context.DeadlineExceeded, "x").Code)
	require.Equal(t, models.ErrCodeTimeout, categorizeError(fmt.Errorf("wrapped: %w", context.Canceled), "x").Code)
	require.Equal(t, models.ErrCodeNavigation, categorizeError(errors.New("net::ERR_NAME_NOT_RESOLVED"), "x").Code)

	typed := models.NewScrapeError(models.ErrCodeBrowserCrash, "gone", nil)
	require.Same(t, typed, categorizeError(typed, "x"))
}

func TestNeedsBrowser(t *testing.T) {
	require.True(t, needsBrowser([]byte(`<html><body><div id="root"></div></body></html>`)))
	require.True(t, needsBrowser([]byte(`<noscript>Please enable JavaScript</noscript>`)))

	long := "<html><body><p>"
	for i := 0; i < 40; i++ {
		long += "conteúdo estático da página "
	}
	long += "</p></body></html>"
	require.False(t, needsBrowser([]byte(long)))
}
