package scraper

import (
	"log/slog"
	"os"

	"github.com/go-rod/rod/lib/launcher"
)

// LocateBrowser finds the Chromium executable used for a run.
//
// A non-empty override must point at an existing file; otherwise rod's
// lookup searches PATH and the usual Chrome/Chromium install locations.
// The second result is false when nothing was found.
func LocateBrowser(override string) (string, bool) {
	if override != "" {
		info, err := os.Stat(override)
		if err != nil || info.IsDir() {
			slog.Warn("configured browser binary not usable", "path", override, "error", err)
			return "", false
		}
		return override, true
	}
	return launcher.LookPath()
}
