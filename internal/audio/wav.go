package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// ErrInvalidWAV is returned for WAV files whose header cannot be used.
var ErrInvalidWAV = errors.New("invalid WAV file")

// WAVCodec reads RIFF/WAVE files: 8, 16, 24 and 32-bit integer PCM and
// 32 or 64-bit IEEE float, either plain or wrapped in WAVE_FORMAT_EXTENSIBLE.
type WAVCodec struct{}

// Probe returns the frame count from the data chunk size.
func (WAVCodec) Probe(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck

	d := wav.NewDecoder(f)
	if err := d.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if _, err := sampleFormat(f, d.WavAudioFormat); err != nil {
		return 0, err
	}
	frameSize := int(d.NumChans) * int(d.BitDepth) / 8
	if frameSize == 0 {
		return 0, fmt.Errorf("%w: %d channels, %d-bit", ErrInvalidWAV, d.NumChans, d.BitDepth)
	}
	return d.PCMSize / frameSize, nil
}

// Decode reads all samples.
func (WAVCodec) Decode(path string) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	d := wav.NewDecoder(f)
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	channels := int(d.NumChans)
	if channels == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidWAV)
	}

	format, err := sampleFormat(f, d.WavAudioFormat)
	if err != nil {
		return nil, err
	}

	var interleaved []float64
	switch format {
	case wavFormatFloat:
		if d.PCMChunk == nil {
			return nil, fmt.Errorf("%w: missing data chunk", ErrInvalidWAV)
		}
		interleaved, err = readFloatPCM(d.PCMChunk, d.PCMSize, int(d.BitDepth))
	case wavFormatPCM:
		interleaved, err = readIntPCM(d)
	}
	if err != nil {
		return nil, err
	}

	return &Waveform{
		Samples:    downmix(interleaved, channels),
		SampleRate: int(d.SampleRate),
		Channels:   channels,
	}, nil
}

// sampleFormat resolves the fmt chunk's format tag to PCM or float. For
// WAVE_FORMAT_EXTENSIBLE the decoder discards the extension, so the fmt chunk
// is read again through a section reader that leaves f's offset alone.
func sampleFormat(f *os.File, tag uint16) (uint16, error) {
	switch tag {
	case wavFormatPCM, wavFormatFloat:
		return tag, nil
	case wavFormatExtensible:
	default:
		return 0, fmt.Errorf("%w: audio format %d", ErrInvalidWAV, tag)
	}

	p := riff.New(io.NewSectionReader(f, 0, math.MaxInt64))
	if err := p.ParseHeaders(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("%w: fmt chunk: %v", ErrInvalidWAV, err)
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		// 16 bytes of WAVEFORMAT, cbSize, valid bits, channel mask, then
		// the subformat GUID whose first two bytes are the format code.
		if ch.Size < 26 {
			return 0, fmt.Errorf("%w: extensible fmt chunk of %d bytes", ErrInvalidWAV, ch.Size)
		}
		ext := make([]byte, 26)
		if _, err := io.ReadFull(ch, ext); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		switch sub := binary.LittleEndian.Uint16(ext[24:]); sub {
		case wavFormatPCM, wavFormatFloat:
			return sub, nil
		default:
			return 0, fmt.Errorf("%w: extensible subformat %d", ErrInvalidWAV, sub)
		}
	}
}

func readIntPCM(d *wav.Decoder) ([]float64, error) {
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}

	bitDepth := int(d.BitDepth)
	if bitDepth != 8 && bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, bitDepth)
	}
	scale := math.Pow(2, float64(16-bitDepth))

	out := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		if bitDepth == 8 {
			// 8-bit WAV is unsigned.
			v -= 128
		}
		out[i] = float64(v) * scale
	}
	return out, nil
}

// readFloatPCM reads IEEE float samples straight from the data chunk so
// that NaN and Inf values survive decoding.
func readFloatPCM(r io.Reader, size, bitDepth int) ([]float64, error) {
	width := bitDepth / 8
	if width != 4 && width != 8 {
		return nil, fmt.Errorf("%w: unsupported float width %d", ErrInvalidWAV, bitDepth)
	}

	raw := make([]byte, size-size%width)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}

	out := make([]float64, len(raw)/width)
	for i := range out {
		var v float64
		if width == 4 {
			v = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		} else {
			v = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		out[i] = v * math.MaxInt16
	}
	return out, nil
}
