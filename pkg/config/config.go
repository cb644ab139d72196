package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is used for config file names, XDG directories and the keyring service
	AppName = "twcrawler"

	// EnvPrefix prefixes every environment variable read by the crawler
	EnvPrefix = "TWCRAWLER_"
)

// Config holds all configuration options for the follower crawler
type Config struct {
	// Twitter API access
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Crawl behaviour
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Proactive request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Prometheus listener
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds provider-specific configuration. Secrets never live here;
// they come from the credential manager.
type TwitterConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	Account   string        `yaml:"account" json:"account"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
}

// CrawlConfig holds crawl loop configuration
type CrawlConfig struct {
	OutputFile    string        `yaml:"output_file" json:"output_file"`
	Cooldown      time.Duration `yaml:"cooldown" json:"cooldown"`
	MaxExpansions int           `yaml:"max_expansions" json:"max_expansions"`
	Checkpoint    bool          `yaml:"checkpoint" json:"checkpoint"`
	WriteSummary  bool          `yaml:"write_summary" json:"write_summary"`
}

// RateLimitConfig holds proactive pacing. A zero request count disables pacing for
// that endpoint, leaving only the reactive cooldown.
type RateLimitConfig struct {
	Strategy         string        `yaml:"strategy" json:"strategy"`
	FollowerRequests int           `yaml:"follower_requests" json:"follower_requests"`
	LookupRequests   int           `yaml:"lookup_requests" json:"lookup_requests"`
	Window           time.Duration `yaml:"window" json:"window"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled     bool `yaml:"enabled" json:"enabled"`
	OnRateLimit bool `yaml:"on_rate_limit" json:"on_rate_limit"`
	OnComplete  bool `yaml:"on_complete" json:"on_complete"`
}

// MetricsConfig holds the prometheus listener address; empty disables it
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL: "https://api.twitter.com",
			Timeout: 30 * time.Second,
		},
		Crawl: CrawlConfig{
			OutputFile:    "output2.txt",
			Cooldown:      15 * time.Minute,
			MaxExpansions: 0,
			Checkpoint:    true,
			WriteSummary:  true,
		},
		RateLimit: RateLimitConfig{
			Strategy:         "sliding",
			FollowerRequests: 0,
			LookupRequests:   0,
			Window:           15 * time.Minute,
		},
		Notifications: NotificationConfig{
			Enabled:     false,
			OnRateLimit: true,
			OnComplete:  true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(EnvPrefix + "BASE_URL"); v != "" {
		c.Twitter.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "ACCOUNT"); v != "" {
		c.Twitter.Account = v
	}
	if v := os.Getenv(EnvPrefix + "USER_AGENT"); v != "" {
		c.Twitter.UserAgent = v
	}
	if v := os.Getenv(EnvPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err))
		} else {
			c.Twitter.Timeout = d
		}
	}

	if v := os.Getenv(EnvPrefix + "OUTPUT_FILE"); v != "" {
		c.Crawl.OutputFile = v
	}
	if v := os.Getenv(EnvPrefix + "COOLDOWN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCOOLDOWN: %w", EnvPrefix, err))
		} else {
			c.Crawl.Cooldown = d
		}
	}
	if v := os.Getenv(EnvPrefix + "MAX_EXPANSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_EXPANSIONS: %w", EnvPrefix, err))
		} else {
			c.Crawl.MaxExpansions = n
		}
	}

	if v := os.Getenv(EnvPrefix + "NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv(EnvPrefix + "METRICS_ADDR"); v != "" {
		c.Metrics.ListenAddr = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		"." + AppName + ".yaml",
		"." + AppName + ".yml",
		filepath.Join(xdg.ConfigHome, AppName, "config.yaml"),
		filepath.Join(xdg.ConfigHome, AppName, "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// DefaultConfigPath returns the XDG location used by `config init` when no path is given
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Twitter.BaseURL == "" {
		errs = append(errs, errors.New("twitter base URL is required"))
	}
	if c.Twitter.Timeout <= 0 {
		errs = append(errs, errors.New("twitter timeout must be positive"))
	}

	if c.Crawl.OutputFile == "" {
		errs = append(errs, errors.New("output file is required"))
	}
	if c.Crawl.Cooldown <= 0 {
		errs = append(errs, errors.New("cooldown must be positive"))
	}
	if c.Crawl.MaxExpansions < 0 {
		errs = append(errs, errors.New("max expansions cannot be negative"))
	}

	if c.RateLimit.FollowerRequests < 0 || c.RateLimit.LookupRequests < 0 {
		errs = append(errs, errors.New("rate limit request counts cannot be negative"))
	}
	if (c.RateLimit.FollowerRequests > 0 || c.RateLimit.LookupRequests > 0) && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive when pacing is enabled"))
	}

	switch c.RateLimit.Strategy {
	case "", "sliding", "fixed":
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit strategy %q", c.RateLimit.Strategy))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Crawl.OutputFile = output
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.Twitter.Account = account
	}
	if cooldown, ok := flags["cooldown"].(time.Duration); ok && cooldown > 0 {
		c.Crawl.Cooldown = cooldown
	}
	if maxExpansions, ok := flags["max-expansions"].(int); ok && maxExpansions > 0 {
		c.Crawl.MaxExpansions = maxExpansions
	}
	if addr, ok := flags["metrics-addr"].(string); ok && addr != "" {
		c.Metrics.ListenAddr = addr
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(xdg.ConfigHome, AppName, AppName+".env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
