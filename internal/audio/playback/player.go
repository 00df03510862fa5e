//go:build !nocgo
// +build !nocgo

package playback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// pollInterval is how often PlayWait checks whether playback finished.
const pollInterval = 20 * time.Millisecond

// Player plays mono int16 waveforms on the default output device.
// oto allows a single context per process, so create one Player and reuse it.
type Player struct {
	context *oto.Context

	// Keeps the PCM bytes alive while oto reads them.
	mu     sync.Mutex
	player *oto.Player
	data   []byte

	sampleRate int
	volume     float64
}

// NewPlayer creates a new audio player with the specified configuration.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validatePlayerConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(config.BufferSize) * time.Second / time.Duration(config.SampleRate*2),
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	return &Player{
		context:    ctx,
		sampleRate: config.SampleRate,
		volume:     config.Volume,
	}, nil
}

// Play starts playback of samples, stopping anything already playing.
func (p *Player) Play(samples []int16) error {
	if len(samples) == 0 {
		return errors.New("audio data is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.stopLocked(); err != nil {
		return fmt.Errorf("failed to stop current playback: %w", err)
	}

	p.data = samplesToBytes(samples)
	p.player = p.context.NewPlayer(bytes.NewReader(p.data))
	p.player.SetVolume(p.volume)
	p.player.Play()
	return nil
}

// PlayWait plays samples and blocks until they finish or ctx is done.
func (p *Player) PlayWait(ctx context.Context, samples []int16) error {
	if err := p.Play(samples); err != nil {
		return err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-ticker.C:
			if !p.IsPlaying() {
				return nil
			}
		}
	}
}

// IsPlaying reports whether audio is still being played.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.player != nil && p.player.IsPlaying()
}

// Stop halts playback and releases the current stream.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Player) stopLocked() error {
	if p.player == nil {
		return nil
	}
	p.player.Pause()
	err := p.player.Close()
	p.player = nil
	p.data = nil
	return err
}
