package models

// RunResponse is the response for POST /api/v1/run and GET /api/v1/result.
type RunResponse struct {
	// Success indicates whether the run completed without errors.
	Success bool `json:"success"`

	// SourceURL is the page the table was scraped from.
	SourceURL string `json:"source_url,omitempty"`

	// Title is the document title of the scraped page.
	Title string `json:"title,omitempty"`

	// Table is the extracted participation table.
	Table *Table `json:"table,omitempty"`

	// Rows is Table zipped into row records, for clients that prefer rows.
	Rows []Row `json:"rows,omitempty"`

	// Drift compares the table with the previous successful run.
	Drift *DriftInfo `json:"drift,omitempty"`

	// Log is the browser log captured during the run.
	Log *LogView `json:"log,omitempty"`

	// FetchMethod records how the page was fetched: "browser" or "http".
	FetchMethod string `json:"fetch_method,omitempty"`

	// Timing provides duration breakdowns for the run.
	Timing TimingInfo `json:"timing"`

	// CacheStatus is "hit" when served from the result cache.
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// LogView is a rendered snapshot of the browser log file.
type LogView struct {
	// Path is the absolute log file location.
	Path string `json:"path"`

	// Found is false when no log file exists at Path.
	Found bool `json:"found"`

	// Content is the whole file, unmodified.
	Content string `json:"content,omitempty"`

	// Lines is Content split into numbered lines for display.
	Lines []LogLine `json:"lines,omitempty"`

	// Warning is a user-facing message set when Found is false.
	Warning string `json:"warning,omitempty"`
}

// LogLine is one numbered line of the log.
type LogLine struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// NavigationMs covers browser launch, navigation and the readiness wait.
	NavigationMs int64 `json:"navigation_ms"`

	// ExtractionMs is the time spent parsing the table.
	ExtractionMs int64 `json:"extraction_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	SessionStats SessionStats `json:"session_stats"`
	Version      string       `json:"version"`
}

// SessionStats reports the state of the browser session slot.
type SessionStats struct {
	BrowserPath  string `json:"browser_path,omitempty"`
	BrowserFound bool   `json:"browser_found"`
	Running      bool   `json:"running"`
	Runs         int64  `json:"runs"`
	Failures     int64  `json:"failures"`
	FetchMode    string `json:"fetch_mode"`
}

// DriftInfo compares a run's table with the previous successful run.
type DriftInfo struct {
	// Fingerprint is the hex SimHash of the table cells.
	Fingerprint string `json:"fingerprint"`

	// StructureFingerprint is the hex SimHash of the table's tag layout.
	StructureFingerprint string `json:"structure_fingerprint"`

	// ContentDigest is the hex sha256 of the table cells; it decides Changed.
	ContentDigest string `json:"content_digest,omitempty"`

	// Baseline is true when there was no previous run to compare with.
	Baseline bool `json:"baseline"`

	// ContentDistance and StructureDistance are Hamming distances to the
	// previous run's fingerprints.
	ContentDistance   int `json:"content_distance"`
	StructureDistance int `json:"structure_distance"`

	// Changed is true when any cell differs from the previous run.
	Changed bool `json:"changed"`

	// StructureChanged is true when the table layout moved noticeably,
	// e.g. a column was added or removed.
	StructureChanged bool `json:"structure_changed"`
}
