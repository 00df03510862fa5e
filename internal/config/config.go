// Package config holds the settings shared by the sebatch commands.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"

	"github.com/deepxi/sebatch/internal/audio"
	"github.com/deepxi/sebatch/internal/cache"
	"github.com/deepxi/sebatch/internal/dataset"
	"github.com/deepxi/sebatch/utils"
)

// Config contains the options read from the config file and flags.
type Config struct {
	// Catalog cache
	CacheDir         string `yaml:"cache_dir"`
	Store            string `yaml:"store"`
	CompressionLevel int    `yaml:"compression_level"`

	// Discovery
	Extensions []string `yaml:"extensions"`
	Recursive  bool     `yaml:"recursive"`

	// Batch assembly
	SNRLevels []int `yaml:"snr_levels"`

	// Playback
	SampleRate int     `yaml:"sample_rate"`
	Volume     float64 `yaml:"volume"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheDir:         "data",
		Store:            cache.KindFile,
		CompressionLevel: 3,
		Extensions:       slices.Clone(dataset.DefaultExtensions),
		SampleRate:       16000,
		Volume:           1.0,
	}
}

// Validate checks the configuration and normalizes extensions and the
// store kind to lower case.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir cannot be empty")
	}

	validStores := []string{cache.KindFile, cache.KindSQLite, cache.KindMemory}
	c.Store = strings.ToLower(c.Store)
	if !slices.Contains(validStores, c.Store) {
		return fmt.Errorf("invalid store '%s': must be one of %v", c.Store, validStores)
	}

	if c.CompressionLevel < 0 || c.CompressionLevel > 22 {
		return fmt.Errorf("compression_level must be between 0 and 22, got %d", c.CompressionLevel)
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions cannot be empty")
	}
	codecs := audio.DefaultRegistry()
	for i, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if !codecs.Supports(ext) {
			return fmt.Errorf("unsupported extension '%s': must be one of %v", ext, codecs.Extensions())
		}
		c.Extensions[i] = ext
	}

	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000, got %d", c.SampleRate)
	}

	if c.Volume < 0.0 || c.Volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", c.Volume)
	}

	return nil
}

// LoadFromViper builds a Config from v, keeping defaults for unset keys.
// The cache directory has ~ and environment variables expanded.
func LoadFromViper(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v.IsSet("cache_dir") {
		cfg.CacheDir = v.GetString("cache_dir")
	}
	if v.IsSet("store") {
		cfg.Store = v.GetString("store")
	}
	if v.IsSet("compression_level") {
		cfg.CompressionLevel = v.GetInt("compression_level")
	}
	if v.IsSet("extensions") {
		cfg.Extensions = v.GetStringSlice("extensions")
	}
	if v.IsSet("recursive") {
		cfg.Recursive = v.GetBool("recursive")
	}
	if v.IsSet("snr_levels") {
		cfg.SNRLevels = v.GetIntSlice("snr_levels")
	}
	if v.IsSet("sample_rate") {
		cfg.SampleRate = v.GetInt("sample_rate")
	}
	if v.IsSet("volume") {
		cfg.Volume = v.GetFloat64("volume")
	}

	cfg.CacheDir = utils.ExpandPath(cfg.CacheDir)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Env holds options that are only read from the environment.
type Env struct {
	Debug   bool   `env:"SEBATCH_DEBUG"`
	LogFile string `env:"SEBATCH_LOG_FILE"`
}

// ParseEnv reads Env from the process environment.
func ParseEnv() (Env, error) {
	cfg, err := env.ParseAs[Env]()
	if err != nil {
		return Env{}, fmt.Errorf("error parsing environment: %w", err)
	}
	return cfg, nil
}
