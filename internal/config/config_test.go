package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p := cfg.RetryPolicy()
	assert.Equal(t, 300*time.Second, p.Timeout)
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.Backoff)
	assert.Equal(t, 500, p.OutputLimit)
	assert.Equal(t, "common.txt", cfg.CommandOptions().Wordlist)
	assert.Equal(t, "security_scan_results.json", cfg.Storage.ResultsPath)
	assert.Equal(t, "security_scan_results.log", cfg.Storage.LogPath)
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
server:
  port: 9090
scanner:
  wordlist: /usr/share/wordlists/dirb/common.txt
  timeout: 90s
  maxAttempts: 5
  binaries:
    nmap: /opt/nmap/bin/nmap
storage:
  resultsPath: out/results.json
`)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Scanner.Timeout)
	assert.Equal(t, 5, cfg.Scanner.MaxAttempts)
	// yang tidak diset tetap default
	assert.Equal(t, 2*time.Second, cfg.Scanner.Backoff)
	assert.Equal(t, "security_scan_results.log", cfg.Storage.LogPath)

	opts := cfg.CommandOptions()
	assert.Equal(t, "/usr/share/wordlists/dirb/common.txt", opts.Wordlist)
	assert.Equal(t, "/opt/nmap/bin/nmap", opts.Binaries[domain.ToolNmap])
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"zero attempts":   "scanner:\n  maxAttempts: 0\n",
		"zero timeout":    "scanner:\n  timeout: 0s\n",
		"output too long": "scanner:\n  outputLimit: 100000\n",
		"zero output":     "scanner:\n  outputLimit: 0\n",
		"unknown tool":    "scanner:\n  binaries:\n    nikto: /bin/nikto\n",
		"bad driver":      "storage:\n  driver: sqlite\n",
		"db without host": "storage:\n  driver: mysql\n",
		"minio no bucket": "minio:\n  enabled: true\n  endpoint: localhost:9000\n",
		"bad yaml":        "server: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestHTTPWriteTimeoutCoversWorstCaseRun(t *testing.T) {
	cfg := Default()
	// 4 tool x (3 x 300s + 2 x 2s) + 1m
	assert.Equal(t, 4*904*time.Second+time.Minute, cfg.HTTPWriteTimeout())

	cfg.Scanner.Timeout = time.Minute
	cfg.Scanner.MaxAttempts = 1
	assert.Equal(t, 5*time.Minute, cfg.HTTPWriteTimeout())

	cfg.Server.WriteTimeout = 30 * time.Second
	assert.Equal(t, 30*time.Second, cfg.HTTPWriteTimeout())
}

func TestUnknownBinaryIsUnknownToolError(t *testing.T) {
	cfg := Default()
	cfg.Scanner.Binaries = map[string]string{"nikto": "nikto"}
	assert.True(t, errors.Is(cfg.Validate(), domain.ErrUnknownTool))
}

func TestResolveFallsBackToDefaultsWhenImplicitFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestResolveExplicitMissingFileFails(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	_, err := Resolve(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestResolveUsesEnvPath(t *testing.T) {
	p := writeConfig(t, "server:\n  port: 7070\n")
	t.Setenv("CONFIG_PATH", p)

	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestEnvSecretsOverrideFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	p := writeConfig(t, "openai:\n  apiKey: sk-file\n")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
}

func TestDSNs(t *testing.T) {
	cfg := Default()
	cfg.Database.Host = "db"
	cfg.Database.User = "scanner"
	cfg.Database.Password = "p@ss"
	cfg.Database.Name = "scans"

	assert.Equal(t, "scanner:p@ss@tcp(db:3306)/scans?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
	assert.Equal(t, "postgres://scanner:p%40ss@db:5432/scans?sslmode=disable", cfg.PostgresDSN())
}
