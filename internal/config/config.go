package config

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vango-dev/lazystate/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "lazystate.json"

	// EnvFileName is the dotenv file read next to the configuration file.
	EnvFileName = ".env"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "LAZYSTATE_"

	// DefaultAddr is the default listen address of the serve command.
	DefaultAddr = "localhost:7070"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "lazystate"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log handler.
	DefaultLogFormat = "text"
)

// Config represents the complete lazystate.json configuration.
type Config struct {
	// Serve contains HTTP server configuration.
	Serve ServeConfig `json:"serve,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Debug enables hook order validation during replay.
	Debug bool `json:"debug,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServeConfig contains settings for the serve command.
type ServeConfig struct {
	// Addr is the address to listen on.
	Addr string `json:"addr,omitempty"`

	// MaxBodyBytes caps the size of a posted scenario.
	MaxBodyBytes int64 `json:"maxBodyBytes,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace is the metric name prefix.
	Namespace string `json:"namespace,omitempty"`

	// Subsystem is an optional second prefix.
	Subsystem string `json:"subsystem,omitempty"`
}

// LogConfig contains slog settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is either text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Serve: ServeConfig{
			Addr:         DefaultAddr,
			MaxBodyBytes: 1 << 20,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads configuration from the specified directory.
// A missing lazystate.json yields the defaults. A .env file in dir is
// loaded first, then LAZYSTATE_* variables are applied on top.
func Load(dir string) (*Config, error) {
	if err := loadEnvFile(filepath.Join(dir, EnvFileName)); err != nil {
		return nil, err
	}

	cfg, err := LoadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		if !errors.Is(err, "E103") {
			return nil, err
		}
		cfg = New()
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFromWorkingDir loads configuration from the current directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Newf(errors.CategoryConfig, "cannot determine working directory").Wrap(err)
	}
	return Load(wd)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E103").
				WithSource(path).
				WithSuggestion("Create lazystate.json or rely on LAZYSTATE_* environment variables")
		}
		return nil, errors.New("E100").WithSource(path).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E100").
			WithSource(path).
			WithDetail("Failed to parse lazystate.json: " + err.Error()).
			WithSuggestion("Check that lazystate.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); stderrors.Is(err, os.ErrNotExist) {
		return nil
	}
	// godotenv never overrides variables already present in the environment.
	if err := godotenv.Load(path); err != nil {
		return errors.New("E101").WithSource(path).Wrap(err)
	}
	return nil
}

// ApplyEnv overrides fields from LAZYSTATE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvPrefix + "ADDR"); ok {
		c.Serve.Addr = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "METRICS_NAMESPACE"); ok {
		c.Metrics.Namespace = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("E101").
				WithSource(EnvPrefix + "DEBUG").
				WithSuggestion("Use true or false").
				Wrap(err)
		}
		c.Debug = b
	}
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.MaxBodyBytes <= 0 {
		c.Serve.MaxBodyBytes = 1 << 20
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.Newf(errors.CategoryConfig, "unknown log format %q", c.Log.Format).
			WithSuggestion("Use text or json")
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, errors.New("E102").WithSource(c.Log.Level).Wrap(err)
	}
	return lvl, nil
}

// Logger builds a slog.Logger writing to w with the configured handler.
// Debug mode forces the debug level so gate decisions are logged.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.SlogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	if c.Debug {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
