package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/conduit-lang/typecache/internal/bundle"
	"github.com/conduit-lang/typecache/internal/manifest"
)

// FileName is the config file base name, without extension
const FileName = "typecache"

// EnvPrefix prefixes environment overrides, e.g. TYPECACHE_WORKERS
const EnvPrefix = "TYPECACHE"

// Config represents the typecache configuration
type Config struct {
	// Root is the module whose bundle is built. Empty builds every
	// discovered module.
	Root      string            `mapstructure:"root" yaml:"root,omitempty"`
	Sources   []manifest.Source `mapstructure:"sources" yaml:"sources"`
	Inclusion string            `mapstructure:"inclusion" yaml:"inclusion"`
	Workers   int               `mapstructure:"workers" yaml:"workers,omitempty"`
	Log       LogConfig         `mapstructure:"log" yaml:"log"`
	Output    OutputConfig      `mapstructure:"output" yaml:"output"`
	Server    ServerConfig      `mapstructure:"server" yaml:"server"`

	// File is the config file that was read, empty when defaults were used
	File string `mapstructure:"-" yaml:"-"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// OutputConfig represents report output configuration
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

// ServerConfig represents the read-only HTTP server configuration
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Policy returns the parsed inclusion policy
func (c *Config) Policy() bundle.InclusionPolicy {
	p, _ := bundle.ParsePolicy(c.Inclusion)
	return p
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("root", "")
	v.SetDefault("sources", []map[string]any{{"name": "local", "path": "."}})
	v.SetDefault("inclusion", "referenced")
	v.SetDefault("workers", 0)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("output.format", "tree")
	v.SetDefault("server.addr", "127.0.0.1:8089")
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Sources:   []manifest.Source{{Name: "local", Path: "."}},
		Inclusion: "referenced",
		Log:       LogConfig{Level: "warn", Format: "console"},
		Output:    OutputConfig{Format: "tree"},
		Server:    ServerConfig{Addr: "127.0.0.1:8089"},
	}
}

// Save validates c and writes it to path as YAML
func (c *Config) Save(path string) error {
	if err := validateConfig(c); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load loads the configuration from typecache.yml or typecache.yaml in the
// working directory
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads the configuration from path, or searches the working
// directory when path is empty
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InProject checks if the current directory holds a typecache config
func InProject() bool {
	for _, ext := range []string{".yml", ".yaml"} {
		if _, err := os.Stat(FileName + ext); err == nil {
			return true
		}
	}
	return false
}

// GetProjectRoot tries to find the project root by looking for
// typecache.yml upwards from the working directory
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, ext := range []string{".yml", ".yaml"} {
			if _, err := os.Stat(filepath.Join(dir, FileName+ext)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a typecache project (no %s.yml found)", FileName)
		}
		dir = parent
	}
}

// resolvePaths makes source paths relative to the config file's directory
func (c *Config) resolvePaths() error {
	if c.File == "" {
		return nil
	}
	base := filepath.Dir(c.File)
	for i, s := range c.Sources {
		if s.Path != "" && !filepath.IsAbs(s.Path) {
			c.Sources[i].Path = filepath.Join(base, s.Path)
		}
	}
	return nil
}

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"console", "json"}
	outputFormats = []string{"tree", "json"}
)

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	names := make(map[string]bool)
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if s.Path == "" {
			return fmt.Errorf("source %s: path is required", s.Name)
		}
		if names[s.Name] {
			return fmt.Errorf("source %s: defined more than once", s.Name)
		}
		names[s.Name] = true
	}
	if _, err := bundle.ParsePolicy(cfg.Inclusion); err != nil {
		return fmt.Errorf("inclusion: %w", err)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got: %d", cfg.Workers)
	}
	if err := oneOf("log.level", cfg.Log.Level, logLevels); err != nil {
		return err
	}
	if err := oneOf("log.format", cfg.Log.Format, logFormats); err != nil {
		return err
	}
	if err := oneOf("output.format", cfg.Output.Format, outputFormats); err != nil {
		return err
	}
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}

func oneOf(key, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got: %s", key, strings.Join(allowed, ", "), value)
}
