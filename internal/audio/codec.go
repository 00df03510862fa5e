package audio

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNoCodec is returned when no codec is registered for a file extension.
var ErrNoCodec = errors.New("no codec registered for extension")

// Codec reads one audio container format.
type Codec interface {
	// Probe returns the number of frames (samples per channel) in the file
	// without decoding the audio payload.
	Probe(path string) (int, error)

	// Decode reads the whole file into a mono waveform.
	Decode(path string) (*Waveform, error)
}

// Waveform is a decoded mono signal. Samples are on the int16 amplitude
// scale; multi-channel sources are averaged down to one channel.
type Waveform struct {
	Samples    []float64
	SampleRate int
	Channels   int // channel count of the source file
}

// Len returns the number of samples.
func (w *Waveform) Len() int {
	return len(w.Samples)
}

// FirstNonFinite returns the index of the first NaN or Inf sample, or -1.
func (w *Waveform) FirstNonFinite() int {
	for i, s := range w.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return i
		}
	}
	return -1
}

// Int16 converts the samples to int16, rounding and saturating. Call it only
// after FirstNonFinite reports -1.
func (w *Waveform) Int16() []int16 {
	out := make([]int16, len(w.Samples))
	for i, s := range w.Samples {
		out[i] = toInt16(s)
	}
	return out
}

func toInt16(s float64) int16 {
	s = math.Round(s)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}

// downmix averages interleaved frames into a mono signal.
func downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// Registry maps lower-case file extensions (without the dot) to codecs.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// DefaultRegistry returns a registry with the WAV, FLAC and MP3 codecs.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("wav", WAVCodec{})
	r.Register("flac", FLACCodec{})
	r.Register("mp3", MP3Codec{})
	return r
}

// Register sets the codec for ext, replacing any previous one.
func (r *Registry) Register(ext string, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[normalizeExt(ext)] = c
}

// Lookup returns the codec for the extension of path.
func (r *Registry) Lookup(path string) (Codec, error) {
	ext := normalizeExt(filepath.Ext(path))

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.codecs[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoCodec, ext)
	}
	return c, nil
}

// Supports reports whether a codec is registered for ext.
func (r *Registry) Supports(ext string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.codecs[normalizeExt(ext)]
	return ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Probe returns the frame count of path using its codec.
func (r *Registry) Probe(path string) (int, error) {
	c, err := r.Lookup(path)
	if err != nil {
		return 0, err
	}
	return c.Probe(path)
}

// Decode decodes path using its codec.
func (r *Registry) Decode(path string) (*Waveform, error) {
	c, err := r.Lookup(path)
	if err != nil {
		return nil, err
	}
	return c.Decode(path)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
