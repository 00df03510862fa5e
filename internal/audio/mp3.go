package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	mp3Channels  = 2
	mp3FrameSize = 4
)

// MP3Codec reads MPEG-1/2 Layer III files.
type MP3Codec struct{}

// Probe returns the frame count. The decoder computes the length by
// scanning frame headers, not by decoding them.
func (MP3Codec) Probe(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, fmt.Errorf("parse mp3: %w", err)
	}
	n := d.Length()
	if n < 0 {
		return 0, errors.New("mp3 length unknown")
	}
	return int(n / mp3FrameSize), nil
}

// Decode reads every frame.
func (MP3Codec) Decode(path string) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("parse mp3: %w", err)
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	interleaved := make([]float64, len(raw)/2)
	for i := range interleaved {
		interleaved[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}

	return &Waveform{
		Samples:    downmix(interleaved, mp3Channels),
		SampleRate: d.SampleRate(),
		Channels:   mp3Channels,
	}, nil
}
