package scraper

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/use-agent/participa/browserlog"
	"github.com/use-agent/participa/models"
)

// session is one exclusively owned browser process plus the log file it
// writes to. Close releases everything that was acquired, in reverse order.
type session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	logFile  *os.File
}

// openSession launches Chromium at bin with opts, forwarding its output into
// a freshly created log file at logPath, and connects to it.
// On failure everything acquired so far is released before returning.
func openSession(ctx context.Context, opts LaunchOptions, bin, logPath string) (*session, error) {
	logFile, err := browserlog.Create(logPath)
	if err != nil {
		return nil, err
	}
	s := &session{logFile: logFile}

	l := launcher.New().
		Context(ctx).
		Bin(bin).
		Logger(logFile)
	s.launcher = opts.Apply(l)

	controlURL, err := s.launcher.Launch()
	if err != nil {
		s.Close()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "bin", bin, "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		s.Close()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}
	s.browser = browser
	return s, nil
}

// Close shuts the browser down, waits for the process to exit, removes its
// profile directory and closes the log file. Safe on a partially opened
// session.
func (s *session) Close() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			slog.Debug("browser close failed", "error", err)
		}
	}
	// Cleanup blocks until the process exits, so only call it once a
	// process was actually started.
	if s.launcher != nil && s.launcher.PID() != 0 {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	if s.logFile != nil {
		if err := s.logFile.Close(); err != nil {
			slog.Warn("closing browser log failed", "path", s.logFile.Name(), "error", err)
		}
	}
	slog.Info("browser session released")
}
