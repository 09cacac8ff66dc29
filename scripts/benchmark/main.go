// Command benchmark runs the scrape sequentially against a running server
// and reports latency per phase.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "participa API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 5, "Number of sequential runs")
	pause  = flag.Duration("pause", 2*time.Second, "Pause between runs")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// --- Response types (mirrors models package) ---

type runResponse struct {
	Success     bool         `json:"success"`
	Rows        []struct{}   `json:"rows"`
	FetchMethod string       `json:"fetch_method"`
	Timing      timingInfo   `json:"timing"`
	Log         *logView     `json:"log"`
	Error       *errorDetail `json:"error,omitempty"`
}

type timingInfo struct {
	TotalMs      int64 `json:"total_ms"`
	NavigationMs int64 `json:"navigation_ms"`
	ExtractionMs int64 `json:"extraction_ms"`
}

type logView struct {
	Found   bool   `json:"found"`
	Content string `json:"content"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run          int    `json:"run"`
	HTTPStatus   int    `json:"http_status"`
	WallMs       int64  `json:"wall_ms"`
	TotalMs      int64  `json:"total_ms"`
	NavigationMs int64  `json:"navigation_ms"`
	ExtractionMs int64  `json:"extraction_ms"`
	Rows         int    `json:"rows"`
	LogBytes     int    `json:"log_bytes"`
	FetchMethod  string `json:"fetch_method,omitempty"`
	Success      bool   `json:"success"`
	ErrorCode    string `json:"error_code,omitempty"`
	Error        string `json:"error,omitempty"`
}

type summary struct {
	Successes    int            `json:"successes"`
	Failures     map[string]int `json:"failures,omitempty"`
	AvgTotalMs   float64        `json:"avg_total_ms"`
	P50TotalMs   int64          `json:"p50_total_ms"`
	MaxTotalMs   int64          `json:"max_total_ms"`
	AvgNavMs     float64        `json:"avg_navigation_ms"`
	AvgExtractMs float64        `json:"avg_extraction_ms"`
}

type benchmarkReport struct {
	Timestamp string      `json:"timestamp"`
	APIURL    string      `json:"api_url"`
	Runs      []runResult `json:"runs"`
	Summary   summary     `json:"summary"`
}

func main() {
	flag.Parse()

	fmt.Println("=== participa benchmark ===")
	fmt.Printf("API URL:  %s\n", *apiURL)
	fmt.Printf("Runs:     %d\n", *runs)
	fmt.Printf("Output:   %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		APIURL:    *apiURL,
	}

	client := &http.Client{Timeout: 3 * time.Minute}
	for i := 1; i <= *runs; i++ {
		fmt.Printf("Run %d/%d ... ", i, *runs)
		rr := benchmarkRun(client, i)
		if rr.Success {
			fmt.Printf("OK  %d rows  %dms\n", rr.Rows, rr.TotalMs)
		} else {
			fmt.Printf("FAILED: [%s] %s\n", rr.ErrorCode, rr.Error)
		}
		report.Runs = append(report.Runs, rr)
		if i < *runs {
			time.Sleep(*pause)
		}
	}

	report.Summary = summarize(report.Runs)
	printTable(report.Runs, report.Summary)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkRun(client *http.Client, run int) runResult {
	rr := runResult{Run: run}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/run", nil)
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.HTTPStatus = resp.StatusCode

	var sr runResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	rr.WallMs = time.Since(start).Milliseconds()

	rr.Success = sr.Success
	rr.TotalMs = sr.Timing.TotalMs
	rr.NavigationMs = sr.Timing.NavigationMs
	rr.ExtractionMs = sr.Timing.ExtractionMs
	rr.Rows = len(sr.Rows)
	rr.FetchMethod = sr.FetchMethod
	if sr.Log != nil {
		rr.LogBytes = len(sr.Log.Content)
	}
	if sr.Error != nil {
		rr.ErrorCode = sr.Error.Code
		rr.Error = sr.Error.Message
	}
	return rr
}

func summarize(runs []runResult) summary {
	var s summary
	var totals []int64
	for _, r := range runs {
		if !r.Success {
			if s.Failures == nil {
				s.Failures = map[string]int{}
			}
			code := r.ErrorCode
			if code == "" {
				code = "TRANSPORT"
			}
			s.Failures[code]++
			continue
		}
		s.Successes++
		totals = append(totals, r.TotalMs)
		s.AvgTotalMs += float64(r.TotalMs)
		s.AvgNavMs += float64(r.NavigationMs)
		s.AvgExtractMs += float64(r.ExtractionMs)
	}
	if s.Successes == 0 {
		return s
	}

	n := float64(s.Successes)
	s.AvgTotalMs /= n
	s.AvgNavMs /= n
	s.AvgExtractMs /= n

	sort.Slice(totals, func(i, j int) bool { return totals[i] < totals[j] })
	s.P50TotalMs = totals[len(totals)/2]
	s.MaxTotalMs = totals[len(totals)-1]
	return s
}

func printTable(runs []runResult, s summary) {
	fmt.Println(strings.Repeat("─", 72))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Run\tStatus\tTotal\tNavigation\tExtraction\tRows\tLog\n")
	fmt.Fprintf(w, "───\t──────\t─────\t──────────\t──────────\t────\t───\n")
	for _, r := range runs {
		if !r.Success {
			fmt.Fprintf(w, "%d\t%d\tFAILED (%s)\t-\t-\t-\t%s\n", r.Run, r.HTTPStatus, r.ErrorCode, formatBytes(r.LogBytes))
			continue
		}
		fmt.Fprintf(w, "%d\t%d\t%dms\t%dms\t%dms\t%d\t%s\n",
			r.Run, r.HTTPStatus, r.TotalMs, r.NavigationMs, r.ExtractionMs, r.Rows, formatBytes(r.LogBytes))
	}
	w.Flush()
	fmt.Println(strings.Repeat("─", 72))
	fmt.Printf("ok %d/%d  avg %.0fms  p50 %dms  max %dms  nav %.0fms  extract %.0fms\n",
		s.Successes, len(runs), s.AvgTotalMs, s.P50TotalMs, s.MaxTotalMs, s.AvgNavMs, s.AvgExtractMs)
	for code, n := range s.Failures {
		fmt.Printf("  %s: %d\n", code, n)
	}
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
