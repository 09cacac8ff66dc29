package scraper

import (
	"github.com/use-agent/participa/extract"
	"github.com/use-agent/participa/models"
)

// RunResult is the output of one successful run.
type RunResult struct {
	// Table is the extracted participation table.
	Table *models.Table

	// Title is the document title of the scraped page.
	Title string

	// FinalURL is the URL after redirects.
	FinalURL string

	// FetchMethod records how the page was fetched: "browser" or "http".
	FetchMethod string

	// Fingerprint summarizes the table for drift detection across runs.
	Fingerprint extract.Fingerprint

	// Timing breaks down the run; TotalMs is left to the caller.
	Timing models.TimingInfo
}
