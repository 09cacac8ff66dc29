package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// errorDetail mirrors the participa API error model.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// logView mirrors the participa API log model.
type logView struct {
	Path    string       `json:"path"`
	Found   bool         `json:"found"`
	Content string       `json:"content"`
	Warning string       `json:"warning"`
	Error   *errorDetail `json:"error"`
}

// row mirrors one participation table row.
type row struct {
	Number  string `json:"number"`
	Channel string `json:"channel"`
	Subject string `json:"subject"`
	Period  string `json:"period"`
}

// runResponse mirrors the participa run response.
type runResponse struct {
	Success     bool     `json:"success"`
	SourceURL   string   `json:"source_url"`
	Title       string   `json:"title"`
	Rows        []row    `json:"rows"`
	Log         *logView `json:"log"`
	FetchMethod string   `json:"fetch_method"`
	Timing      struct {
		TotalMs int64 `json:"total_ms"`
	} `json:"timing"`
	Error *errorDetail `json:"error"`
}

func main() {
	apiURL := os.Getenv("PARTICIPA_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("PARTICIPA_API_KEY")

	s := server.NewMCPServer(
		"participa",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	runScrapeTool := mcp.NewTool("run_scrape",
		mcp.WithDescription("Launch a headless browser, load the ANA public participation portal and return its participation table (number, channel, subject, contribution period). Takes up to a minute."),
		mcp.WithBoolean("include_log",
			mcp.Description("Append the browser log captured during the run (default: false)"),
		),
	)
	s.AddTool(runScrapeTool, handleRunScrape(apiURL, apiKey))

	showLogTool := mcp.NewTool("show_log",
		mcp.WithDescription("Return the browser log file of the most recent run."),
	)
	s.AddTool(showLogTool, handleShowLog(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiCall sends a request to the participa API and returns the response body.
// Non-2xx responses still carry a JSON body with the error detail.
func apiCall(ctx context.Context, client *http.Client, method, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleRunScrape(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		includeLog := request.GetBool("include_log", false)

		body, err := apiCall(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/run")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var runResp runResponse
		if err := json.Unmarshal(body, &runResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !runResp.Success {
			errMsg := "run failed"
			if runResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", runResp.Error.Code, runResp.Error.Message)
			}
			if includeLog && runResp.Log != nil {
				errMsg += "\n\n" + formatLog(runResp.Log)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		result := formatRun(&runResp)
		if includeLog && runResp.Log != nil {
			result += "\n\n" + formatLog(runResp.Log)
		}
		return mcp.NewToolResultText(result), nil
	}
}

func handleShowLog(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, err := apiCall(ctx, client, http.MethodGet, apiURL, apiKey, "/api/v1/log")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var view logView
		if err := json.Unmarshal(body, &view); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if view.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", view.Error.Code, view.Error.Message)), nil
		}
		return mcp.NewToolResultText(formatLog(&view)), nil
	}
}

// formatRun renders the run as a header plus one tab-separated line per row.
func formatRun(r *runResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nSource: %s\nRows: %d (%s, %d ms)\n\n",
		r.Title, r.SourceURL, len(r.Rows), r.FetchMethod, r.Timing.TotalMs)
	sb.WriteString("Número\tMeio de Participação\tObjeto\tPeríodo de Contribuição\n")
	for _, rw := range r.Rows {
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\n", rw.Number, rw.Channel, rw.Subject, rw.Period)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatLog(v *logView) string {
	if !v.Found {
		if v.Warning != "" {
			return v.Warning
		}
		return "No log file found!"
	}
	return fmt.Sprintf("--- %s ---\n%s", v.Path, v.Content)
}
