package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, DefaultTargetURL, cfg.Scraper.TargetURL)
	require.Equal(t, "table#tableContent", cfg.Scraper.TableSelector)
	require.Equal(t, "browser", cfg.Scraper.FetchMode)
	require.Equal(t, 20*time.Second, cfg.Scraper.WaitTimeout)
	require.True(t, cfg.Browser.Headless)
	require.True(t, cfg.Browser.NoSandbox)
	require.Equal(t, "1920,1080", cfg.Browser.WindowSize)
	require.False(t, cfg.Auth.Enabled)
}

func TestLoad_LogPathStable(t *testing.T) {
	first := Load().Browser.LogPath
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Load().Browser.LogPath)
	}

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(first))
	require.Equal(t, filepath.Join(cwd, DefaultLogFile), first)
}

func TestResolveLogPath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "chrome.log")
	require.Equal(t, abs, ResolveLogPath(abs))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cwd, "logs", "run.log"), ResolveLogPath("logs/run.log"))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PARTICIPA_PORT", "9090")
	t.Setenv("PARTICIPA_WAIT_TIMEOUT", "3s")
	t.Setenv("PARTICIPA_BLOCKED_RESOURCES", "Image, ,Stylesheet")
	t.Setenv("PARTICIPA_HEADLESS", "not-a-bool")

	cfg := Load()
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 3*time.Second, cfg.Scraper.WaitTimeout)
	require.Equal(t, []string{"Image", "Stylesheet"}, cfg.Scraper.BlockedResourceTypes)
	require.True(t, cfg.Browser.Headless)
}

func TestLoad_Webhook(t *testing.T) {
	require.Empty(t, Load().Webhook.URL)

	t.Setenv("PARTICIPA_WEBHOOK_URL", "https://hooks.example.test/run")
	t.Setenv("PARTICIPA_WEBHOOK_SECRET", "s")
	cfg := Load()
	require.Equal(t, "https://hooks.example.test/run", cfg.Webhook.URL)
	require.Equal(t, "s", cfg.Webhook.Secret)
	require.Equal(t, 10*time.Second, cfg.Webhook.Timeout)
}
