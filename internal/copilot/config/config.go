// Package config loads the application configuration: defaults, then an
// optional YAML file, then environment overrides, then validation. The API
// key is environment-only so it never lands in a config file on disk.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mstiles/copilot/common/environment"
)

// Environment variable names. Each overrides the corresponding file value.
const (
	EnvAPIKey        = "COPILOT_OPENAI_API_KEY"
	EnvOracleBaseURL = "COPILOT_ORACLE_BASE_URL"
	EnvOracleModel   = "COPILOT_ORACLE_MODEL"
	EnvOracleTimeout = "COPILOT_ORACLE_TIMEOUT"
	EnvDatabasePath  = "COPILOT_DB_PATH"
	EnvGateTTL       = "COPILOT_GATE_TTL"
	EnvLogLevel      = "COPILOT_LOG_LEVEL"
	EnvLogFormat     = "COPILOT_LOG_FORMAT"
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// ("30s", "5m") as well as bare nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Std returns the standard library form.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full application configuration.
type Config struct {
	Oracle   Oracle   `yaml:"oracle"`
	Database Database `yaml:"database"`
	Gate     Gate     `yaml:"gate"`
	Log      Log      `yaml:"log"`
}

// Oracle configures the language oracle provider.
type Oracle struct {
	// APIKey authenticates against the provider. Environment-only.
	APIKey string `yaml:"-"`
	// BaseURL is the OpenAI-compatible endpoint root.
	BaseURL string `yaml:"base_url"`
	// Model is the model identifier sent with each completion.
	Model string `yaml:"model"`
	// Timeout bounds one completion call.
	Timeout Duration `yaml:"timeout"`
}

// Database configures conversation persistence.
type Database struct {
	// Path is the SQLite database file. Empty selects the in-memory store.
	Path string `yaml:"path"`
}

// Gate configures the pending-action gate.
type Gate struct {
	// TTL is how long a pending action stays live. Zero selects the default;
	// negative disables expiry.
	TTL Duration `yaml:"ttl"`
}

// Log configures slog output.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// defaults returns the baseline configuration before file and environment
// are applied.
func defaults() Config {
	return Config{
		Oracle: Oracle{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: Duration(30 * time.Second),
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips the file layer entirely.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvironment(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvironment overlays environment values on cfg.
func applyEnvironment(cfg *Config) {
	cfg.Oracle.APIKey = environment.StringOr(EnvAPIKey, cfg.Oracle.APIKey)
	cfg.Oracle.BaseURL = environment.StringOr(EnvOracleBaseURL, cfg.Oracle.BaseURL)
	cfg.Oracle.Model = environment.StringOr(EnvOracleModel, cfg.Oracle.Model)
	cfg.Oracle.Timeout = Duration(environment.DurationOr(EnvOracleTimeout, cfg.Oracle.Timeout.Std()))
	cfg.Database.Path = environment.StringOr(EnvDatabasePath, cfg.Database.Path)
	cfg.Gate.TTL = Duration(environment.DurationOr(EnvGateTTL, cfg.Gate.TTL.Std()))
	cfg.Log.Level = environment.StringOr(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Format = environment.StringOr(EnvLogFormat, cfg.Log.Format)
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: invalid log format %q", c.Log.Format)
	}
	if c.Oracle.Model == "" {
		return fmt.Errorf("config: oracle model must not be empty")
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("config: oracle timeout must be positive")
	}
	return nil
}
