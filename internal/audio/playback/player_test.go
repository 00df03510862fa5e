package playback

import (
	"encoding/binary"
	"testing"
	"time"
)

// TestPlayerConfig tests the player configuration validation.
func TestPlayerConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    PlayerConfig
		expectErr bool
	}{
		{
			name:      "valid config 16000Hz",
			config:    PlayerConfig{SampleRate: 16000, BufferSize: 4096, Volume: 1.0},
			expectErr: false,
		},
		{
			name:      "valid config 48000Hz",
			config:    PlayerConfig{SampleRate: 48000, BufferSize: 8192, Volume: 0.5},
			expectErr: false,
		},
		{
			name:      "sample rate too low",
			config:    PlayerConfig{SampleRate: 4000, BufferSize: 4096, Volume: 1.0},
			expectErr: true,
		},
		{
			name:      "invalid buffer size",
			config:    PlayerConfig{SampleRate: 16000, BufferSize: 0, Volume: 1.0},
			expectErr: true,
		},
		{
			name:      "volume too high",
			config:    PlayerConfig{SampleRate: 16000, BufferSize: 4096, Volume: 1.5},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePlayerConfig(tt.config)
			if tt.expectErr && err == nil {
				t.Errorf("validatePlayerConfig() expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("validatePlayerConfig() unexpected error: %v", err)
			}
		})
	}
}

// TestDefaultPlayerConfig tests the default configuration.
func TestDefaultPlayerConfig(t *testing.T) {
	config := DefaultPlayerConfig()

	if config.SampleRate != 16000 {
		t.Errorf("expected sample rate 16000, got %d", config.SampleRate)
	}

	if err := validatePlayerConfig(config); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestSamplesToBytes(t *testing.T) {
	b := samplesToBytes([]int16{1, -1, 32767})
	if len(b) != 6 {
		t.Fatalf("expected 6 bytes, got %d", len(b))
	}
	if got := int16(binary.LittleEndian.Uint16(b[2:])); got != -1 {
		t.Errorf("second sample = %d, want -1", got)
	}
}

func TestPlayerDuration(t *testing.T) {
	p := &Player{sampleRate: 16000}
	if d := p.Duration(8000); d != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", d)
	}
}
