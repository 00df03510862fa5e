package audio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mewkiz/flac"
)

// FLACCodec reads native FLAC streams.
type FLACCodec struct{}

// Probe returns the total sample count from the STREAMINFO block. Encoders
// may leave it at zero, in which case the frames are walked and counted.
func (FLACCodec) Probe(path string) (int, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close() //nolint:errcheck

	if n := stream.Info.NSamples; n > 0 {
		return int(n), nil
	}

	total := 0
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return 0, fmt.Errorf("parse flac frame: %w", err)
		}
		if len(frame.Subframes) > 0 {
			total += frame.Subframes[0].NSamples
		}
	}
}

// Decode reads every frame.
func (FLACCodec) Decode(path string) (*Waveform, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close() //nolint:errcheck

	channels := int(stream.Info.NChannels)
	if channels == 0 {
		return nil, errors.New("flac stream has no channels")
	}
	scale := math.Pow(2, float64(16-int(stream.Info.BitsPerSample)))

	samples := make([]float64, 0, int(stream.Info.NSamples))
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse flac frame: %w", err)
		}
		if len(frame.Subframes) == 0 {
			continue
		}

		n := frame.Subframes[0].NSamples
		for i := 0; i < n; i++ {
			var sum float64
			for _, sub := range frame.Subframes {
				sum += float64(sub.Samples[i])
			}
			samples = append(samples, sum/float64(len(frame.Subframes))*scale)
		}
	}

	return &Waveform{
		Samples:    samples,
		SampleRate: int(stream.Info.SampleRate),
		Channels:   channels,
	}, nil
}
