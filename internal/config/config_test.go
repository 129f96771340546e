package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points config discovery at an empty directory and clears key variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("JOBMATCH_AI_APIKEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	return dir
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	isolate(t)

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI API key is required")
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("JOBMATCH_AI_APIKEY", "test-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.AI.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Nil(t, cfg.AI.Temperature)
	assert.Equal(t, 60*time.Second, cfg.Fetcher.BrowserTimeout)
	assert.Equal(t, 30*time.Second, cfg.Fetcher.HTTPTimeout)
	assert.Equal(t, DefaultUserAgent, cfg.Fetcher.UserAgent)
	assert.Equal(t, "data/jobs_snapshot.json", cfg.Snapshot.Path)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "8000", cfg.Server.Port)
}

func TestLoadConfigGeminiKeyFallbackAndDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=dotenv-key\n"), 0600))
	// godotenv never overrides variables that are already set
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))
	t.Cleanup(func() { _ = os.Unsetenv("GEMINI_API_KEY") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.AI.APIKey)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := isolate(t)
	content := `
ai:
  apiKey: file-key
  temperature: 0.2
fetcher:
  browserEnabled: false
scrape:
  urls:
    - https://example.com/jobs/1
    - https://example.com/jobs/2
snapshot:
  path: /tmp/jobmatch/snapshot.json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.AI.APIKey)
	require.NotNil(t, cfg.AI.Temperature)
	assert.InDelta(t, 0.2, *cfg.AI.Temperature, 0.0001)
	assert.False(t, cfg.Fetcher.BrowserEnabled)
	assert.Len(t, cfg.Scrape.URLs, 2)
	assert.Equal(t, "/tmp/jobmatch/snapshot.json", cfg.Snapshot.Path)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			AI:       AIConfig{Provider: "gemini", APIKey: "k", Timeout: time.Minute},
			Fetcher:  FetcherConfig{BrowserTimeout: time.Minute, HTTPTimeout: time.Second, MaxBodyBytes: 1024},
			Snapshot: SnapshotConfig{Path: "snap.json"},
			Server:   ServerConfig{Port: "8000", TLS: TLSConfig{Mode: "disabled"}},
			App:      AppConfig{DefaultFormat: "json", SupportedFormats: []string{"json"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing key", func(c *Config) { c.AI.APIKey = "" }, "API key is required"},
		{"unknown provider", func(c *Config) { c.AI.Provider = "openai" }, "unsupported AI provider"},
		{"zero fetch timeout", func(c *Config) { c.Fetcher.HTTPTimeout = 0 }, "fetcher timeouts"},
		{"blank snapshot path", func(c *Config) { c.Snapshot.Path = " " }, "snapshot path"},
		{"s3 without bucket", func(c *Config) { c.Snapshot.S3.Enabled = true }, "s3 bucket"},
		{"amqp without url", func(c *Config) { c.Snapshot.AMQP.Enabled = true }, "amqp url"},
		{"bad format", func(c *Config) { c.App.DefaultFormat = "xml" }, "invalid default format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
