package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
	if cfg.CacheDir != "data" {
		t.Errorf("Default cache dir should be data, got %s", cfg.CacheDir)
	}
	if cfg.Store != "file" {
		t.Errorf("Default store should be file, got %s", cfg.Store)
	}
	if strings.Join(cfg.Extensions, ",") != "wav,flac,mp3" {
		t.Errorf("Unexpected default extensions: %v", cfg.Extensions)
	}
}

func TestDefaultConfigDoesNotAlias(t *testing.T) {
	a := DefaultConfig()
	a.Extensions[0] = "mp3"
	if b := DefaultConfig(); b.Extensions[0] != "wav" {
		t.Error("DefaultConfig shares its extension slice")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:    "empty cache dir",
			modify:  func(c *Config) { c.CacheDir = "" },
			wantErr: true,
			errMsg:  "cache_dir cannot be empty",
		},
		{
			name:    "invalid store",
			modify:  func(c *Config) { c.Store = "redis" },
			wantErr: true,
			errMsg:  "invalid store",
		},
		{
			name:   "store case-insensitive",
			modify: func(c *Config) { c.Store = "SQLite" },
		},
		{
			name:    "compression too high",
			modify:  func(c *Config) { c.CompressionLevel = 23 },
			wantErr: true,
			errMsg:  "compression_level must be between",
		},
		{
			name:    "no extensions",
			modify:  func(c *Config) { c.Extensions = nil },
			wantErr: true,
			errMsg:  "extensions cannot be empty",
		},
		{
			name:    "unsupported extension",
			modify:  func(c *Config) { c.Extensions = []string{"wav", "ogg"} },
			wantErr: true,
			errMsg:  "unsupported extension 'ogg'",
		},
		{
			name:   "extension with dot",
			modify: func(c *Config) { c.Extensions = []string{".WAV"} },
		},
		{
			name:    "sample rate too low",
			modify:  func(c *Config) { c.SampleRate = 100 },
			wantErr: true,
			errMsg:  "sample_rate must be between",
		},
		{
			name:    "volume too high",
			modify:  func(c *Config) { c.Volume = 1.5 },
			wantErr: true,
			errMsg:  "volume must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store = "SQLITE"
	cfg.Extensions = []string{".WAV", "Flac"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Store != "sqlite" {
		t.Errorf("Store = %s, want sqlite", cfg.Store)
	}
	if strings.Join(cfg.Extensions, ",") != "wav,flac" {
		t.Errorf("Extensions = %v, want [wav flac]", cfg.Extensions)
	}
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	v.Set("cache_dir", "~/sebatch-cache")
	v.Set("store", "sqlite")
	v.Set("compression_level", 0)
	v.Set("extensions", []string{"flac"})
	v.Set("recursive", true)
	v.Set("snr_levels", []int{0, 5})
	v.Set("sample_rate", 48000)

	cfg, err := LoadFromViper(v)
	if err != nil {
		t.Fatalf("LoadFromViper failed: %v", err)
	}

	home, err := homedir.Dir()
	if err == nil && cfg.CacheDir != filepath.Join(home, "sebatch-cache") {
		t.Errorf("CacheDir = %s, want expanded home path", cfg.CacheDir)
	}
	if cfg.Store != "sqlite" || cfg.CompressionLevel != 0 || !cfg.Recursive {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if len(cfg.Extensions) != 1 || cfg.Extensions[0] != "flac" {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
	if len(cfg.SNRLevels) != 2 || cfg.SNRLevels[1] != 5 {
		t.Errorf("SNRLevels = %v", cfg.SNRLevels)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %d", cfg.SampleRate)
	}
	// unset keys keep their defaults
	if cfg.Volume != 1.0 {
		t.Errorf("Volume = %v, want default 1.0", cfg.Volume)
	}
}

func TestLoadFromViperInvalid(t *testing.T) {
	v := viper.New()
	v.Set("store", "redis")

	if _, err := LoadFromViper(v); err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("expected invalid configuration error, got %v", err)
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("SEBATCH_DEBUG", "true")
	t.Setenv("SEBATCH_LOG_FILE", "/tmp/sebatch.log")

	e, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv failed: %v", err)
	}
	if !e.Debug || e.LogFile != "/tmp/sebatch.log" {
		t.Errorf("Unexpected env: %+v", e)
	}
}

func TestParseEnvInvalid(t *testing.T) {
	t.Setenv("SEBATCH_DEBUG", "maybe")

	if _, err := ParseEnv(); err == nil {
		t.Error("expected error for non-boolean SEBATCH_DEBUG")
	}
}

func TestParseEnvUnset(t *testing.T) {
	t.Setenv("SEBATCH_DEBUG", "")
	t.Setenv("SEBATCH_LOG_FILE", "")

	e, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv failed: %v", err)
	}
	if e != (Env{}) {
		t.Errorf("expected zero Env, got %+v", e)
	}
}
