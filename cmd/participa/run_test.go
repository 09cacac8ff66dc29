package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/use-agent/participa/models"
	"github.com/use-agent/participa/scraper"
)

type cannedRunner struct {
	logPath string
	result  *scraper.RunResult
	err     error
}

func (c *cannedRunner) Run(ctx context.Context) (*scraper.RunResult, error) { return c.result, c.err }
func (c *cannedRunner) LogPath() string { return c.logPath }

func TestRunOnce_PrintsTableAndLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "browser.log")
	require.NoError(t, os.WriteFile(logPath, []byte("first\nsecond"), 0o644))

	tbl := &models.Table{}
	tbl.Append(models.Row{Number: "7", Channel: "Web", Subject: "Rule X", Period: "Jan-Feb"})
	r := &cannedRunner{logPath: logPath, result: &scraper.RunResult{
		Table:       tbl,
		Title:       "Participação",
		FinalURL:    "https://example.test/",
		FetchMethod: scraper.FetchHTTP,
	}}

	var out bytes.Buffer
	require.NoError(t, runOnce(context.Background(), r, &out, true))

	s := out.String()
	require.Contains(t, s, "Participação (https://example.test/)")
	require.Contains(t, s, "Meio de Participação")
	require.Contains(t, s, "Rule X")
	require.Contains(t, s, "1 rows via http")
	require.Contains(t, s, "    1  first")
	require.Contains(t, s, "    2  second")
}

func TestRunOnce_FailureStillShowsLogWarning(t *testing.T) {
	wantErr := models.NewScrapeError(models.ErrCodeDriverNotFound, "no browser", nil)
	r := &cannedRunner{logPath: filepath.Join(t.TempDir(), "browser.log"), err: wantErr}

	var out bytes.Buffer
	err := runOnce(context.Background(), r, &out, true)
	require.ErrorIs(t, err, wantErr)
	require.Contains(t, out.String(), "No log file found!")
	require.NotContains(t, out.String(), "rows via")
}

func TestRunOnce_NoLog(t *testing.T) {
	r := &cannedRunner{logPath: filepath.Join(t.TempDir(), "browser.log"), result: &scraper.RunResult{Table: &models.Table{}}}

	var out bytes.Buffer
	require.NoError(t, runOnce(context.Background(), r, &out, false))
	require.NotContains(t, out.String(), "No log file found!")
}

func TestLoadEnv(t *testing.T) {
	require.NoError(t, loadEnv(""))
	require.NoError(t, loadEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PARTICIPA_ENV_TEST_VALUE=from-file\n"), 0o644))
	t.Setenv("PARTICIPA_ENV_TEST_VALUE", "")
	os.Unsetenv("PARTICIPA_ENV_TEST_VALUE")

	require.NoError(t, loadEnv(path))
	require.Equal(t, "from-file", os.Getenv("PARTICIPA_ENV_TEST_VALUE"))
}
