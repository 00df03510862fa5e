package playback

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned by NewPlayer in builds without audio output.
var ErrUnavailable = errors.New("audio not available in nocgo build")

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int     // Output rate; match the file being played
	BufferSize int     // Device buffer in bytes
	Volume     float64 // 0.0 to 1.0
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 16000,
		BufferSize: 4096,
		Volume:     1.0,
	}
}

func validatePlayerConfig(config PlayerConfig) error {
	if config.SampleRate < 8000 || config.SampleRate > 192000 {
		return fmt.Errorf("sample rate must be between 8000 and 192000 Hz, got %d", config.SampleRate)
	}
	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	if config.Volume < 0 || config.Volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %.2f", config.Volume)
	}
	return nil
}

// Duration returns how long n samples play at the player's rate.
func (p *Player) Duration(n int) time.Duration {
	return time.Duration(n) * time.Second / time.Duration(p.sampleRate)
}

func samplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
