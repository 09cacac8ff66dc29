package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/use-agent/participa/browserlog"
	"github.com/use-agent/participa/models"
	"github.com/use-agent/participa/scraper"
)

var flagShowLog bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape once and print the table to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := scraper.New(cfg.Browser, cfg.Scraper)
		if err != nil {
			return err
		}
		return runOnce(cmd.Context(), sc, os.Stdout, flagShowLog)
	},
}

func init() {
	runCmd.Flags().BoolVar(&flagShowLog, "log", true, "print the browser log after the table")
}

// onceRunner is the part of *scraper.Scraper the run command needs.
type onceRunner interface {
	Run(ctx context.Context) (*scraper.RunResult, error)
	LogPath() string
}

// runOnce performs one run and writes the table, then the browser log.
// The log is printed on failure as well, since it usually explains it.
func runOnce(ctx context.Context, r onceRunner, w io.Writer, showLog bool) error {
	result, runErr := r.Run(ctx)

	if runErr == nil {
		fmt.Fprintf(w, "%s (%s)\n", result.Title, result.FinalURL)
		renderTable(w, result.Table)
		fmt.Fprintf(w, "%d rows via %s, navigation %d ms, extraction %d ms\n",
			result.Table.Len(), result.FetchMethod, result.Timing.NavigationMs, result.Timing.ExtractionMs)
	}

	if showLog {
		view, err := browserlog.Show(r.LogPath())
		switch {
		case err != nil:
			fmt.Fprintf(w, "\nbrowser log unavailable: %v\n", err)
		case !view.Found:
			fmt.Fprintf(w, "\n%s\n", view.Warning)
		default:
			fmt.Fprintf(w, "\n--- %s ---\n", view.Path)
			for _, l := range view.Lines {
				fmt.Fprintf(w, "%5d  %s\n", l.Number, l.Text)
			}
		}
	}
	return runErr
}

func renderTable(w io.Writer, t *models.Table) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	h := models.TableHeaders
	tw.AppendHeader(table.Row{h[0], h[1], h[2], h[3]})
	for _, r := range t.Rows() {
		tw.AppendRow(table.Row{r.Number, r.Channel, r.Subject, r.Period})
	}
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.Render()
}
