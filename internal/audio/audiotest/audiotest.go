// Package audiotest writes audio fixtures and provides a fake codec for tests
// of packages that sit on top of the codec registry.
package audiotest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"github.com/deepxi/sebatch/internal/audio"
)

// WriteWAV writes interleaved integer PCM samples to path.
func WriteWAV(path string, sampleRate, channels, bitDepth int, samples []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("close encoder: %w", err)
	}
	return f.Close()
}

// WriteMonoWAV writes 16-bit mono samples at 16 kHz.
func WriteMonoWAV(path string, samples []int) error {
	return WriteWAV(path, 16000, 1, 16, samples)
}

// Ramp returns n samples counting up from 1, wrapping inside the int16 range.
func Ramp(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = (i % 30000) + 1
	}
	return out
}

// WriteFloatWAV writes 32-bit IEEE float mono samples. The encoder in
// go-audio only writes integer PCM, so the header is built by hand.
func WriteFloatWAV(path string, sampleRate int, samples []float32) error {
	le := binary.LittleEndian
	fmtChunk := make([]byte, 0, 16)
	fmtChunk = le.AppendUint16(fmtChunk, 3) // IEEE float
	fmtChunk = le.AppendUint16(fmtChunk, 1)
	fmtChunk = le.AppendUint32(fmtChunk, uint32(sampleRate))
	fmtChunk = le.AppendUint32(fmtChunk, uint32(sampleRate*4))
	fmtChunk = le.AppendUint16(fmtChunk, 4)
	fmtChunk = le.AppendUint16(fmtChunk, 32)
	return writeRIFF(path, fmtChunk, Float32LE(samples))
}

// subFormatGUIDTail follows the two-byte format code in a
// KSDATAFORMAT_SUBTYPE GUID.
var subFormatGUIDTail = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// WriteExtensibleWAV writes a WAVE_FORMAT_EXTENSIBLE file whose subformat
// GUID carries subFormat (1 for PCM, 3 for IEEE float). data is written to
// the data chunk as is.
func WriteExtensibleWAV(path string, sampleRate, channels, bitDepth int, subFormat uint16, data []byte) error {
	le := binary.LittleEndian
	blockAlign := channels * bitDepth / 8
	fmtChunk := make([]byte, 0, 40)
	fmtChunk = le.AppendUint16(fmtChunk, 0xFFFE)
	fmtChunk = le.AppendUint16(fmtChunk, uint16(channels))
	fmtChunk = le.AppendUint32(fmtChunk, uint32(sampleRate))
	fmtChunk = le.AppendUint32(fmtChunk, uint32(sampleRate*blockAlign))
	fmtChunk = le.AppendUint16(fmtChunk, uint16(blockAlign))
	fmtChunk = le.AppendUint16(fmtChunk, uint16(bitDepth))
	fmtChunk = le.AppendUint16(fmtChunk, 22) // cbSize
	fmtChunk = le.AppendUint16(fmtChunk, uint16(bitDepth))
	fmtChunk = le.AppendUint32(fmtChunk, 4) // front center
	fmtChunk = le.AppendUint16(fmtChunk, subFormat)
	fmtChunk = append(fmtChunk, subFormatGUIDTail...)
	return writeRIFF(path, fmtChunk, data)
}

// Float32LE packs samples as little-endian IEEE float32.
func Float32LE(samples []float32) []byte {
	buf := make([]byte, 0, len(samples)*4)
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(s))
	}
	return buf
}

// Int16LE packs samples as little-endian int16.
func Int16LE(samples []int16) []byte {
	buf := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
	}
	return buf
}

func writeRIFF(path string, fmtChunk, data []byte) error {
	le := binary.LittleEndian
	buf := make([]byte, 0, 28+len(fmtChunk)+len(data))
	buf = append(buf, "RIFF"...)
	buf = le.AppendUint32(buf, uint32(20+len(fmtChunk)+len(data)))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = le.AppendUint32(buf, uint32(len(fmtChunk)))
	buf = append(buf, fmtChunk...)

	buf = append(buf, "data"...)
	buf = le.AppendUint32(buf, uint32(len(data)))
	buf = append(buf, data...)

	return os.WriteFile(path, buf, 0o644)
}

// flacBlockSize is the largest block EncodeFLAC writes.
const flacBlockSize = 4096

// EncodeFLAC writes one or two channels of integer samples to w as a FLAC
// stream of verbatim subframes. STREAMINFO carries the sample count only when
// w is an io.WriteSeeker; otherwise it is left at zero.
func EncodeFLAC(w io.Writer, sampleRate, bitDepth int, channels [][]int32) error {
	var layout frame.Channels
	switch len(channels) {
	case 1:
		layout = frame.ChannelsMono
	case 2:
		layout = frame.ChannelsLR
		if len(channels[0]) != len(channels[1]) {
			return errors.New("flac channels differ in length")
		}
	default:
		return fmt.Errorf("unsupported flac channel count %d", len(channels))
	}
	n := len(channels[0])
	if n < 16 {
		return fmt.Errorf("flac needs at least 16 samples per channel, got %d", n)
	}

	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  flacBlockSize + 15,
		SampleRate:    uint32(sampleRate),
		NChannels:     uint8(len(channels)),
		BitsPerSample: uint8(bitDepth),
	}
	enc, err := flac.NewEncoder(w, info)
	if err != nil {
		return fmt.Errorf("flac encoder: %w", err)
	}

	for start := 0; start < n; {
		end := start + flacBlockSize
		// a trailing block under 16 samples would make STREAMINFO invalid
		if end > n || n-end < 16 {
			end = n
		}
		f := &frame.Frame{
			Header: frame.Header{
				BlockSize:     uint16(end - start),
				SampleRate:    uint32(sampleRate),
				Channels:      layout,
				BitsPerSample: uint8(bitDepth),
			},
		}
		for _, ch := range channels {
			f.Subframes = append(f.Subframes, &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   ch[start:end],
				NSamples:  end - start,
			})
		}
		if err := enc.WriteFrame(f); err != nil {
			_ = enc.Close()
			return fmt.Errorf("write flac frame: %w", err)
		}
		start = end
	}
	return enc.Close()
}

// WriteFLAC writes a FLAC file with the sample count filled in.
func WriteFLAC(path string, sampleRate, bitDepth int, channels [][]int32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	// the encoder closes f
	return EncodeFLAC(f, sampleRate, bitDepth, channels)
}

// WriteRaw writes samples in the format FakeCodec reads: little-endian
// float64 values with no header.
func WriteRaw(path string, samples []float64) error {
	buf := make([]byte, 0, len(samples)*8)
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(s))
	}
	return os.WriteFile(path, buf, 0o644)
}

// ErrFakeFormat is returned by FakeCodec for files not written by WriteRaw.
var ErrFakeFormat = errors.New("not a raw float64 file")

// FakeCodec decodes files written by WriteRaw and counts its calls. Register
// it for "flac" or "mp3" to exercise those extension groups without real
// encoders.
type FakeCodec struct {
	mu          sync.Mutex
	probeCalls  int
	decodeCalls int
}

// Probe returns the number of samples from the file size.
func (c *FakeCodec) Probe(path string) (int, error) {
	c.mu.Lock()
	c.probeCalls++
	c.mu.Unlock()

	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if st.Size()%8 != 0 {
		return 0, ErrFakeFormat
	}
	return int(st.Size() / 8), nil
}

// Decode reads the samples back.
func (c *FakeCodec) Decode(path string) (*audio.Waveform, error) {
	c.mu.Lock()
	c.decodeCalls++
	c.mu.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw)%8 != 0 {
		return nil, ErrFakeFormat
	}
	samples := make([]float64, len(raw)/8)
	for i := range samples {
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return &audio.Waveform{Samples: samples, SampleRate: 16000, Channels: 1}, nil
}

// ProbeCalls returns how many times Probe ran.
func (c *FakeCodec) ProbeCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.probeCalls
}

// DecodeCalls returns how many times Decode ran.
func (c *FakeCodec) DecodeCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decodeCalls
}

// Registry returns a registry with the real WAV codec and fake for both
// "flac" and "mp3".
func Registry(fake *FakeCodec) *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", audio.WAVCodec{})
	r.Register("flac", fake)
	r.Register("mp3", fake)
	return r
}
