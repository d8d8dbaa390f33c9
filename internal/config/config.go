// Package config provides configuration loading and validation for docmeta.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/docmeta/internal/lang"
	"github.com/phobologic/docmeta/internal/render"
	"github.com/phobologic/docmeta/internal/richtext"
)

// Sentinel validation errors.
var (
	ErrUnknownLanguage    = errors.New("unknown language")
	ErrInvalidMaxFileSize = errors.New("max file size must be positive")
	ErrInvalidMaxRecords  = errors.New("max records must not be negative")
	ErrInvalidFormat      = errors.New("invalid output format")
	ErrInvalidWordChars   = errors.New("word characters must be punctuation or symbols")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
)

// FileName is the config file looked up in the repository root.
const FileName = ".docmeta.yaml"

// Default configuration values.
const (
	DefaultMaxFileSize   = 1_000_000 // 1 MB
	DefaultMaxRecords    = 0
	DefaultFormat        = render.FormatTOON
	DefaultLogLevel      = "warn"
	DefaultLogFormat     = "text"
	DefaultCaseSensitive = false
	DefaultSkipTests     = true
	DefaultWordChars     = richtext.WordPunctuation
)

const envPrefix = "DOCMETA"

// Config holds all configuration for docmeta.
type Config struct {
	Languages      []string      `mapstructure:"languages" yaml:"languages"`
	Exclude        []string      `mapstructure:"exclude" yaml:"exclude"`
	SkipTests      bool          `mapstructure:"skip_tests" yaml:"skip_tests"`
	MaxFileSize    int           `mapstructure:"max_file_size" yaml:"max_file_size"`
	MaxRecords     int           `mapstructure:"max_records" yaml:"max_records"`
	Format         string        `mapstructure:"format" yaml:"format"`
	IncludePrivate bool          `mapstructure:"include_private" yaml:"include_private"`
	Doc            DocConfig     `mapstructure:"doc" yaml:"doc"`
	Logging        LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// DocConfig controls docstring tokenizing and classification.
type DocConfig struct {
	CaseSensitive bool `mapstructure:"case_sensitive" yaml:"case_sensitive"`
	// WordChars are the non-alphanumeric characters that belong to words.
	WordChars string `mapstructure:"word_chars" yaml:"word_chars"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Languages:   []string{},
		Exclude:     []string{},
		SkipTests:   DefaultSkipTests,
		MaxFileSize: DefaultMaxFileSize,
		MaxRecords:  DefaultMaxRecords,
		Format:      DefaultFormat,
		Doc: DocConfig{
			CaseSensitive: DefaultCaseSensitive,
			WordChars:     DefaultWordChars,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// LoadConfig loads configuration from a file and DOCMETA_* environment
// variables. An explicit configPath must exist; otherwise FileName is looked
// up in searchDir and may be absent.
func LoadConfig(configPath, searchDir string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(searchDir)
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	d := Default()

	viperCfg.SetDefault("languages", d.Languages)
	viperCfg.SetDefault("exclude", d.Exclude)
	viperCfg.SetDefault("skip_tests", d.SkipTests)
	viperCfg.SetDefault("max_file_size", d.MaxFileSize)
	viperCfg.SetDefault("max_records", d.MaxRecords)
	viperCfg.SetDefault("format", d.Format)
	viperCfg.SetDefault("include_private", d.IncludePrivate)

	viperCfg.SetDefault("doc.case_sensitive", d.Doc.CaseSensitive)
	viperCfg.SetDefault("doc.word_chars", d.Doc.WordChars)

	viperCfg.SetDefault("logging.level", d.Logging.Level)
	viperCfg.SetDefault("logging.format", d.Logging.Format)
}

// Validate checks every field and returns the first violation found.
func (c *Config) Validate() error {
	for _, name := range c.Languages {
		if _, ok := lang.Languages[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
		}
	}

	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxFileSize, c.MaxFileSize)
	}

	if c.MaxRecords < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxRecords, c.MaxRecords)
	}

	if err := render.Validate(c.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	for _, r := range c.Doc.WordChars {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return fmt.Errorf("%w: %q", ErrInvalidWordChars, r)
		}
	}

	if _, err := c.Logging.level(); err != nil {
		return err
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	return nil
}

// Splitter returns the docstring splitter for the configured word characters.
func (c *Config) Splitter() *richtext.Splitter {
	if c.Doc.WordChars == DefaultWordChars {
		return richtext.DefaultSplitter()
	}
	return richtext.WordSplitter(c.Doc.WordChars)
}

// YAML encodes the configuration as a config file.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config to YAML: %w", err)
	}
	return data, nil
}

func (l LoggingConfig) level() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
}

// NewLogger returns a logger writing to w with the configured handler and
// level. An invalid level falls back to warn.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
