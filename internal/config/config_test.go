package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "webpify.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Zero(t, cfg.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Timeout.Duration)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.False(t, cfg.KeepOriginals)
	assert.NoError(t, cfg.Validate())
}

func TestLoadExplicitFile(t *testing.T) {
	path := writeConfig(t, `
workers = 3
timeout = "45s"
log_level = "DEBUG"
log_format = "json"
keep_originals = true
`)

	cfg, resolved, exists, err := Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 45*time.Second, cfg.Timeout.Duration)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.KeepOriginals)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	cfg, _, _, err := Load(writeConfig(t, "workers = 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Timeout.Duration)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"negative workers": "workers = -1\n",
		"bad duration":     "timeout = \"soon\"\n",
		"bad level":        "log_level = \"loud\"\n",
		"bad format":       "log_format = \"xml\"\n",
		"unknown key":      "quality = 70\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadExpandsLogFile(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg, _, _, err := Load(writeConfig(t, "log_file = \"~/logs/webpify.log\"\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs", "webpify.log"), cfg.LogFile)
}
