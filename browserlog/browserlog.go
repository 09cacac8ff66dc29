// Package browserlog manages the log file the browser process writes to
// during a run: removed before each run, recreated by the browser, read once
// afterwards for display.
package browserlog

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/use-agent/participa/models"
)

// MissingWarning is shown when no log file exists at the expected path.
const MissingWarning = "No log file found!"

// Delete removes the log file at path. A missing file is not an error.
func Delete(path string) error {
	err := os.Remove(path)
	if err == nil {
		slog.Debug("browser log removed", "path", path)
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return models.NewScrapeError(models.ErrCodeLogUnavailable, "failed to remove browser log", err)
}

// Create opens the log file for writing, truncating any previous content.
// The caller owns the returned file and must close it.
func Create(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeLogUnavailable, "failed to create browser log", err)
	}
	return f, nil
}

// Show reads the whole log file into a LogView. A missing file yields a view
// with Found=false and the MissingWarning, never an error.
func Show(path string) (*models.LogView, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &models.LogView{Path: path, Warning: MissingWarning}, nil
		}
		return nil, models.NewScrapeError(models.ErrCodeLogUnavailable, "failed to read browser log", err)
	}

	content := string(data)
	return &models.LogView{
		Path:    path,
		Found:   true,
		Content: content,
		Lines:   Lines(content),
	}, nil
}

// Lines splits content into 1-based numbered lines. Joining the Text fields
// with "\n" reproduces content exactly. Empty content has no lines; content
// ending in "\n" gets a final empty line.
func Lines(content string) []models.LogLine {
	if content == "" {
		return nil
	}
	parts := strings.Split(content, "\n")
	lines := make([]models.LogLine, len(parts))
	for i, p := range parts {
		lines[i] = models.LogLine{Number: i + 1, Text: p}
	}
	return lines
}
