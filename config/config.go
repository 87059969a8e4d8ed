package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/nstehr/towerbot/rules"
	"gopkg.in/yaml.v3"
)

// Config holds all tower bot configuration. It is loaded once at start-up
// and treated as read-only afterwards.
type Config struct {
	Bot     BotConfig     `yaml:"bot"`
	Server  ServerConfig  `yaml:"server"`
	Advisor AdvisorConfig `yaml:"advisor"`
	Journal JournalConfig `yaml:"journal"`
	Logging LoggingConfig `yaml:"logging"`

	// Fallback tier tuning
	Doctrine rules.Doctrine `yaml:"doctrine"`
}

// BotConfig is the metadata reported by GET /info and the request banner.
type BotConfig struct {
	Name     string `yaml:"name"`
	Strategy string `yaml:"strategy"`
	Version  string `yaml:"version"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	SocketPath     string `yaml:"socket_path"` // empty disables the unix socket listener
	RequestTimeout string `yaml:"request_timeout"`
}

// AdvisorConfig configures the AI tier.
type AdvisorConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Provider        string  `yaml:"provider"` // gemini, vertex
	APIKey          string  `yaml:"api_key"`
	Project         string  `yaml:"project"`
	Region          string  `yaml:"region"`
	PrimaryModel    string  `yaml:"primary_model"`
	FallbackModel   string  `yaml:"fallback_model"`
	Timeout         string  `yaml:"timeout"`
	AttemptTimeout  string  `yaml:"attempt_timeout"`
	Backoff         string  `yaml:"backoff"`
	MaxAttempts     int     `yaml:"max_attempts"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// JournalConfig configures the decision journal. An empty path disables it.
type JournalConfig struct {
	Path      string `yaml:"path"`
	QueueSize int    `yaml:"queue_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Name:     "Mega ogudor",
			Strategy: "AI-trapped-strategy",
			Version:  "1.0",
		},
		Server: ServerConfig{
			Addr:           ":3000",
			RequestTimeout: "1s",
		},
		Advisor: AdvisorConfig{
			Enabled:         true,
			Provider:        "gemini",
			Region:          "europe-north1",
			PrimaryModel:    "gemini-2.5-flash",
			FallbackModel:   "gemini-2.0-flash-lite",
			Timeout:         "800ms",
			AttemptTimeout:  "400ms",
			Backoff:         "100ms",
			MaxAttempts:     3,
			Temperature:     0.7,
			MaxOutputTokens: 2000,
		},
		Journal: JournalConfig{
			QueueSize: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Doctrine: rules.DefaultDoctrine(),
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.Doctrine.Validate()
	return cfg, nil
}

// fileHeader opens every file written by Save.
const fileHeader = "# tower bot configuration. Environment variables override these values.\n"

// Save writes the configuration as YAML, creating parent directories.
// Unless overwrite is set, an existing file is left untouched.
func (c *Config) Save(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(fileHeader), data...), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}

	// API key from environment, GEMINI_API_KEY wins
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Advisor.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Advisor.APIKey = key
	}

	// Vertex AI project and region
	if project := os.Getenv("GOOGLE_CLOUD_PROJECT"); project != "" {
		c.Advisor.Project = project
		if c.Advisor.APIKey == "" {
			c.Advisor.Provider = "vertex"
		}
	}
	if region := os.Getenv("GOOGLE_CLOUD_LOCATION"); region != "" {
		c.Advisor.Region = region
	}

	if level := os.Getenv("TOWER_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if path := os.Getenv("TOWER_JOURNAL"); path != "" {
		c.Journal.Path = path
	}
}

// GetRequestTimeout returns the per-request deadline as a duration.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil {
		return time.Second
	}
	return d
}

// GetAdvisorTimeout returns the total time budget of the AI tier.
func (c *Config) GetAdvisorTimeout() time.Duration {
	d, err := time.ParseDuration(c.Advisor.Timeout)
	if err != nil {
		return 800 * time.Millisecond
	}
	return d
}

// GetAttemptTimeout returns the upper bound of a single advisor call.
func (c *Config) GetAttemptTimeout() time.Duration {
	d, err := time.ParseDuration(c.Advisor.AttemptTimeout)
	if err != nil {
		return 400 * time.Millisecond
	}
	return d
}

// GetBackoff returns the base delay between advisor attempts.
func (c *Config) GetBackoff() time.Duration {
	d, err := time.ParseDuration(c.Advisor.Backoff)
	if err != nil {
		return 100 * time.Millisecond
	}
	return d
}

// ValidProviders lists all supported advisor providers.
var ValidProviders = []string{"gemini", "vertex"}

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" && c.Server.SocketPath == "" {
		return fmt.Errorf("no listener configured: set server.addr or server.socket_path")
	}
	if c.GetAdvisorTimeout() >= c.GetRequestTimeout() {
		return fmt.Errorf("advisor timeout %s must be below request timeout %s",
			c.GetAdvisorTimeout(), c.GetRequestTimeout())
	}
	if !slices.Contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	if !c.Advisor.Enabled {
		return nil
	}
	if !slices.Contains(ValidProviders, c.Advisor.Provider) {
		return fmt.Errorf("invalid advisor provider: %s (valid: %v)", c.Advisor.Provider, ValidProviders)
	}
	if c.Advisor.MaxAttempts < 1 {
		return fmt.Errorf("advisor max_attempts must be positive, got %d", c.Advisor.MaxAttempts)
	}
	if c.Advisor.PrimaryModel == "" {
		return fmt.Errorf("advisor primary_model not configured")
	}
	return nil
}

// HasAdvisorCredentials reports whether the selected provider can be reached.
// Without credentials the service runs on the fallback tier alone.
func (c *Config) HasAdvisorCredentials() bool {
	switch c.Advisor.Provider {
	case "gemini":
		return c.Advisor.APIKey != ""
	case "vertex":
		return c.Advisor.Project != "" && c.Advisor.Region != ""
	}
	return false
}

// IsAdvisorEnabled returns whether the AI tier should be consulted.
func (c *Config) IsAdvisorEnabled() bool {
	return c.Advisor.Enabled && c.HasAdvisorCredentials()
}

// IsJournalEnabled returns whether decisions are recorded to sqlite.
func (c *Config) IsJournalEnabled() bool {
	return c.Journal.Path != ""
}

// ModelSequence is the order in which advisor models are tried: the primary
// model for every attempt but the last, which uses the fallback model.
func (c *Config) ModelSequence() []string {
	n := max(c.Advisor.MaxAttempts, 1)
	seq := make([]string, n)
	for i := range seq {
		seq[i] = c.Advisor.PrimaryModel
	}
	if n > 1 && c.Advisor.FallbackModel != "" {
		seq[n-1] = c.Advisor.FallbackModel
	}
	return seq
}
