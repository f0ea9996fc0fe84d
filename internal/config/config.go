package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/benchdoc/internal/formatter"
	"github.com/harrison/benchdoc/internal/logger"
)

// DirName is the per-project configuration directory
const DirName = ".benchdoc"

// FormatterConfig describes the external table formatter
type FormatterConfig struct {
	// Path is the formatter executable, relative to the project directory
	Path string `yaml:"path"`

	// Args are passed to the formatter verbatim, without a shell
	Args []string `yaml:"args"`
}

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every successful generation
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`

	// Keep is the number of runs kept in the database (0 = all)
	Keep int `yaml:"keep"`
}

// Config represents benchdoc configuration options
type Config struct {
	// Dir is the project directory holding the <target>.txt inputs
	Dir string `yaml:"dir"`

	// Output is the README path; empty writes the document to stdout
	Output string `yaml:"output"`

	// Formatter is the table formatter invocation
	Formatter FormatterConfig `yaml:"formatter"`

	// Timeout bounds a single formatter invocation (0 = no timeout)
	Timeout time.Duration `yaml:"timeout"`

	// Parallel is the number of concurrent formatter invocations (1 = sequential)
	Parallel int `yaml:"parallel"`

	// LockTimeout bounds the wait for the output file lock (0 = wait forever)
	LockTimeout time.Duration `yaml:"lock_timeout"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir enables per-run log files when set
	LogDir string `yaml:"log_dir"`

	// Manifest replaces the built-in AutoBenchmark manifest when set
	Manifest string `yaml:"manifest"`

	// Template replaces the built-in README template when set
	Template string `yaml:"template"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Dir:         ".",
		Formatter:   FormatterConfig{Path: formatter.DefaultPath},
		Timeout:     0,
		Parallel:    1,
		LockTimeout: 30 * time.Second,
		LogLevel:    "warn",
		History: HistoryConfig{
			Enabled: false,
			DBPath:  filepath.Join(DirName, "history.db"),
			Keep:    100,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are strings in YAML ("30s"), parsed below
	type yamlConfig struct {
		Dir         string          `yaml:"dir"`
		Output      string          `yaml:"output"`
		Formatter   FormatterConfig `yaml:"formatter"`
		Timeout     string          `yaml:"timeout"`
		Parallel    int             `yaml:"parallel"`
		LockTimeout string          `yaml:"lock_timeout"`
		LogLevel    string          `yaml:"log_level"`
		LogDir      string          `yaml:"log_dir"`
		Manifest    string          `yaml:"manifest"`
		Template    string          `yaml:"template"`
		History     HistoryConfig   `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.Dir != "" {
		cfg.Dir = yamlCfg.Dir
	}
	if yamlCfg.Output != "" {
		cfg.Output = yamlCfg.Output
	}
	if yamlCfg.Formatter.Path != "" {
		cfg.Formatter.Path = yamlCfg.Formatter.Path
	}
	if len(yamlCfg.Formatter.Args) > 0 {
		cfg.Formatter.Args = yamlCfg.Formatter.Args
	}
	if yamlCfg.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", yamlCfg.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if yamlCfg.Parallel != 0 {
		cfg.Parallel = yamlCfg.Parallel
	}
	if yamlCfg.LockTimeout != "" {
		lockTimeout, err := time.ParseDuration(yamlCfg.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid lock_timeout format %q: %w", yamlCfg.LockTimeout, err)
		}
		cfg.LockTimeout = lockTimeout
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.Manifest != "" {
		cfg.Manifest = yamlCfg.Manifest
	}
	if yamlCfg.Template != "" {
		cfg.Template = yamlCfg.Template
	}

	// Only keys present in the history section override defaults, so
	// "enabled: false" and an empty db_path are honoured
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, ok := rawMap["history"].(map[string]interface{}); ok {
			history := yamlCfg.History
			if _, exists := section["enabled"]; exists {
				cfg.History.Enabled = history.Enabled
			}
			if _, exists := section["db_path"]; exists {
				cfg.History.DBPath = history.DBPath
			}
			if _, exists := section["keep"]; exists {
				cfg.History.Keep = history.Keep
			}
		}
	}

	return cfg, nil
}

// Path returns the config file location for a project directory
func Path(dir string) string {
	return filepath.Join(dir, DirName, "config.yaml")
}

// LoadConfigFromDir loads configuration from .benchdoc/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error.
// A relative dir in the file is taken relative to the directory it was loaded from.
func LoadConfigFromDir(dir string) (*Config, error) {
	cfg, err := LoadConfig(Path(dir))
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Dir) {
		cfg.Dir = filepath.Join(dir, cfg.Dir)
	}
	return cfg, nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(dir *string, output *string, formatterPath *string, timeout *time.Duration, parallel *int, logLevel *string) {
	if dir != nil {
		c.Dir = *dir
	}
	if output != nil {
		c.Output = *output
	}
	if formatterPath != nil {
		c.Formatter.Path = *formatterPath
	}
	if timeout != nil {
		c.Timeout = *timeout
	}
	if parallel != nil {
		c.Parallel = *parallel
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
}

// Resolve returns p relative to the project directory unless it is absolute.
// Empty stays empty.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir cannot be empty")
	}

	if c.Formatter.Path == "" {
		return fmt.Errorf("formatter.path cannot be empty")
	}

	// Timeouts can be 0 (none) or positive, negative is invalid
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("lock_timeout must be >= 0, got %v", c.LockTimeout)
	}

	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be >= 1, got %d", c.Parallel)
	}

	if !logger.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.History.Enabled {
		if c.History.DBPath == "" {
			return fmt.Errorf("history.db_path cannot be empty when history is enabled")
		}
		if c.History.Keep < 0 {
			return fmt.Errorf("history.keep must be >= 0, got %d", c.History.Keep)
		}
	}

	return nil
}
