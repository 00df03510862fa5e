//go:build nocgo
// +build nocgo

package playback

import (
	"context"
	"fmt"
)

// Player is a stub for builds without audio output.
type Player struct {
	sampleRate int
}

// NewPlayer validates config and returns ErrUnavailable.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validatePlayerConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return nil, ErrUnavailable
}

func (p *Player) Play([]int16) error { return ErrUnavailable }

func (p *Player) PlayWait(context.Context, []int16) error { return ErrUnavailable }

func (p *Player) IsPlaying() bool { return false }

func (p *Player) Stop() error { return nil }
