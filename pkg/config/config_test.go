package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func isolateXDG(t *testing.T, dir string) {
	t.Helper()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", dir)
	xdg.Reload()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)

	assert.Equal(t, "https://api.twitter.com", cfg.Twitter.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Twitter.Timeout)

	assert.Equal(t, "output2.txt", cfg.Crawl.OutputFile)
	assert.Equal(t, 15*time.Minute, cfg.Crawl.Cooldown)
	assert.Zero(t, cfg.Crawl.MaxExpansions)
	assert.True(t, cfg.Crawl.Checkpoint)

	// Pacing is off unless configured
	assert.Zero(t, cfg.RateLimit.FollowerRequests)
	assert.Zero(t, cfg.RateLimit.LookupRequests)

	assert.False(t, cfg.Notifications.Enabled)
	assert.Empty(t, cfg.Metrics.ListenAddr)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TWCRAWLER_BASE_URL", "http://localhost:8080")
	t.Setenv("TWCRAWLER_ACCOUNT", "research")
	t.Setenv("TWCRAWLER_OUTPUT_FILE", "/tmp/followers.txt")
	t.Setenv("TWCRAWLER_COOLDOWN", "90s")
	t.Setenv("TWCRAWLER_MAX_EXPANSIONS", "25")
	t.Setenv("TWCRAWLER_METRICS_ADDR", ":9100")
	t.Setenv("TWCRAWLER_NOTIFICATIONS_ENABLED", "true")
	t.Setenv("TWCRAWLER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Twitter.BaseURL)
	assert.Equal(t, "research", cfg.Twitter.Account)
	assert.Equal(t, "/tmp/followers.txt", cfg.Crawl.OutputFile)
	assert.Equal(t, 90*time.Second, cfg.Crawl.Cooldown)
	assert.Equal(t, 25, cfg.Crawl.MaxExpansions)
	assert.Equal(t, ":9100", cfg.Metrics.ListenAddr)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("TWCRAWLER_COOLDOWN", "soon")
	t.Setenv("TWCRAWLER_MAX_EXPANSIONS", "many")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TWCRAWLER_COOLDOWN")
	assert.Contains(t, err.Error(), "TWCRAWLER_MAX_EXPANSIONS")

	// Defaults survive a bad value
	assert.Equal(t, 15*time.Minute, cfg.Crawl.Cooldown)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
twitter:
  base_url: http://127.0.0.1:9999
  timeout: 5s
crawl:
  output_file: crawl.txt
  cooldown: 1m
  max_expansions: 10
rate_limit:
  follower_requests: 15
  window: 15m
logging:
  level: warn
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(configPath))

		assert.Equal(t, "http://127.0.0.1:9999", cfg.Twitter.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.Twitter.Timeout)
		assert.Equal(t, "crawl.txt", cfg.Crawl.OutputFile)
		assert.Equal(t, time.Minute, cfg.Crawl.Cooldown)
		assert.Equal(t, 10, cfg.Crawl.MaxExpansions)
		assert.Equal(t, 15, cfg.RateLimit.FollowerRequests)
		assert.Equal(t, "warn", cfg.Logging.Level)
		// Untouched keys keep defaults
		assert.True(t, cfg.Crawl.Checkpoint)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("crawl: [unclosed"), 0644))

		cfg := DefaultConfig()
		err := cfg.LoadFromFile(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds config in current directory", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(tempDir))

		require.NoError(t, os.WriteFile(".twcrawler.yaml", []byte("crawl: {}"), 0644))

		cfg := DefaultConfig()
		assert.Equal(t, ".twcrawler.yaml", cfg.findConfigFile())
	})

	t.Run("no config file found", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(tempDir))
		isolateXDG(t, tempDir)

		cfg := DefaultConfig()
		assert.Empty(t, cfg.findConfigFile())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty base url", func(c *Config) { c.Twitter.BaseURL = "" }, "base URL"},
		{"zero timeout", func(c *Config) { c.Twitter.Timeout = 0 }, "timeout"},
		{"empty output", func(c *Config) { c.Crawl.OutputFile = "" }, "output file"},
		{"zero cooldown", func(c *Config) { c.Crawl.Cooldown = 0 }, "cooldown"},
		{"negative max expansions", func(c *Config) { c.Crawl.MaxExpansions = -1 }, "max expansions"},
		{"pacing without window", func(c *Config) {
			c.RateLimit.LookupRequests = 300
			c.RateLimit.Window = 0
		}, "window"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Crawl.OutputFile = "saved.txt"
	cfg.Crawl.Cooldown = 2 * time.Minute
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "saved.txt", loaded.Crawl.OutputFile)
	assert.Equal(t, 2*time.Minute, loaded.Crawl.Cooldown)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":         "flag.txt",
		"account":        "alt",
		"cooldown":       time.Minute,
		"max-expansions": 3,
		"metrics-addr":   ":2112",
		"log-level":      "error",
	})

	assert.Equal(t, "flag.txt", cfg.Crawl.OutputFile)
	assert.Equal(t, "alt", cfg.Twitter.Account)
	assert.Equal(t, time.Minute, cfg.Crawl.Cooldown)
	assert.Equal(t, 3, cfg.Crawl.MaxExpansions)
	assert.Equal(t, ":2112", cfg.Metrics.ListenAddr)
	assert.Equal(t, "error", cfg.Logging.Level)

	t.Run("zero values do not override", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MergeCommandLineFlags(map[string]interface{}{
			"output":         "",
			"cooldown":       time.Duration(0),
			"max-expansions": 0,
		})
		assert.Equal(t, "output2.txt", cfg.Crawl.OutputFile)
		assert.Equal(t, 15*time.Minute, cfg.Crawl.Cooldown)
	})
}

func TestLoad(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
twitter:
  account: file_account
crawl:
  output_file: file.txt
  max_expansions: 7
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		t.Setenv("TWCRAWLER_OUTPUT_FILE", "env.txt")
		t.Setenv("TWCRAWLER_ACCOUNT", "env_account")

		cfg, err := Load(configPath, map[string]interface{}{
			"account": "flag_account",
		})
		require.NoError(t, err)

		assert.Equal(t, "flag_account", cfg.Twitter.Account) // flag
		assert.Equal(t, "env.txt", cfg.Crawl.OutputFile)     // env
		assert.Equal(t, 7, cfg.Crawl.MaxExpansions)          // file
	})

	t.Run("validation failure", func(t *testing.T) {
		t.Setenv("TWCRAWLER_LOG_LEVEL", "loud")

		configPath := filepath.Join(t.TempDir(), "empty.yaml")
		require.NoError(t, os.WriteFile(configPath, nil, 0644))

		cfg, err := Load(configPath, nil)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("loads .env file", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(tempDir))
		isolateXDG(t, tempDir)

		os.Unsetenv("TWCRAWLER_COOLDOWN")
		t.Cleanup(func() { os.Unsetenv("TWCRAWLER_COOLDOWN") })
		require.NoError(t, os.WriteFile(".env", []byte("TWCRAWLER_COOLDOWN=45s\n"), 0644))

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, 45*time.Second, cfg.Crawl.Cooldown)
	})
}

func TestDurationParsing(t *testing.T) {
	content := `
twitter:
  timeout: 500ms
crawl:
  cooldown: 1m30s
rate_limit:
  window: 15m
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(content), &cfg))

	assert.Equal(t, 500*time.Millisecond, cfg.Twitter.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Crawl.Cooldown)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
}

func BenchmarkValidate(b *testing.B) {
	cfg := DefaultConfig()
	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}
