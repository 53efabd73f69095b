// Package config provides configuration loading and validation for foliage.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidFormat    = errors.New("invalid output format")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidSize      = errors.New("invalid size")
	ErrEmptyFileTag     = errors.New("file tag must not be empty")
	ErrInvalidRatio     = errors.New("sample ratio must be within [0, 1]")
)

// Output formats.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// EnvPrefix is the prefix of environment variables read by LoadConfig.
const EnvPrefix = "FOLIAGE"

// Config holds all configuration for foliage.
type Config struct {
	Coverage  CoverageConfig  `mapstructure:"coverage"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// CoverageConfig holds coverage session configuration.
type CoverageConfig struct {
	FileTag         string `mapstructure:"file_tag"`
	MaxFileSize     string `mapstructure:"max_file_size"`
	FailOnUncovered bool   `mapstructure:"fail_on_uncovered"`
	ParseCacheSize  string `mapstructure:"parse_cache_size"`
	LanguageCheck   bool   `mapstructure:"language_check"`
}

// OutputConfig holds report output configuration.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches for foliage.yaml in the usual places; a
// missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("foliage")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/foliage")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
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

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("coverage.file_tag", DefaultFileTag)
	viperCfg.SetDefault("coverage.max_file_size", DefaultMaxFileSize)
	viperCfg.SetDefault("coverage.fail_on_uncovered", DefaultFailOnUncovered)
	viperCfg.SetDefault("coverage.parse_cache_size", DefaultParseCacheSize)
	viperCfg.SetDefault("coverage.language_check", DefaultLanguageCheck)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.color", DefaultOutputColor)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
}

func validateConfig(config *Config) error {
	if config.Coverage.FileTag == "" {
		return ErrEmptyFileTag
	}

	if _, err := config.Coverage.MaxFileSizeBytes(); err != nil {
		return err
	}

	if _, err := config.Coverage.ParseCacheSizeBytes(); err != nil {
		return err
	}

	switch config.Output.Format {
	case FormatText, FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, config.Output.Format)
	}

	if _, err := config.Logging.SlogLevel(); err != nil {
		return err
	}

	switch config.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if ratio := config.Telemetry.SampleRatio; ratio < 0 || ratio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidRatio, ratio)
	}

	return nil
}

// MaxFileSizeBytes parses MaxFileSize ("1MB", "512KiB"). Zero disables the limit.
func (cc CoverageConfig) MaxFileSizeBytes() (int64, error) {
	return parseSize(cc.MaxFileSize)
}

// ParseCacheSizeBytes parses ParseCacheSize. Zero selects the cache default.
func (cc CoverageConfig) ParseCacheSizeBytes() (int64, error) {
	return parseSize(cc.ParseCacheSize)
}

func parseSize(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "0" {
		return 0, nil
	}

	parsed, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}

	if parsed > math.MaxInt64 {
		return math.MaxInt64, nil
	}

	return int64(parsed), nil
}

// SlogLevel maps Level to an slog level.
func (lc LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, lc.Level)
	}

	return level, nil
}
