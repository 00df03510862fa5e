// Package batch decodes every audio file in a directory into a zero-padded
// int16 matrix with per-row lengths, SNR labels and base names.
package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/deepxi/sebatch/internal/audio"
	"github.com/deepxi/sebatch/internal/dataset"
)

// SNRLabel is the SNR tag found in a file name. Valid is false when the name
// carries none of the requested levels. Matches counts every requested level
// whose tag appeared; Value is the first of them in request order.
type SNRLabel struct {
	Value   int
	Valid   bool
	Matches int
}

// Batch is a rectangular block of waveforms. Row i holds the file named
// Names[i]; samples at or after Lengths[i] are zero.
type Batch struct {
	Rows      int
	Cols      int
	Waveforms []int16 // row-major, Rows*Cols
	Lengths   []int32
	Names     []string
	SNR       []SNRLabel

	// every (file, level) match in discovery order
	matches []int32
}

// Shape returns the matrix dimensions.
func (b *Batch) Shape() (rows, cols int) {
	return b.Rows, b.Cols
}

// Row returns row i, padding included. The slice aliases the batch.
func (b *Batch) Row(i int) []int16 {
	return b.Waveforms[i*b.Cols : (i+1)*b.Cols]
}

// Trimmed returns row i cut to its true length.
func (b *Batch) Trimmed(i int) []int16 {
	return b.Row(i)[:b.Lengths[i]]
}

// SNRLabels returns one label per (file, level) match, in discovery order and
// in request order within a file. Files without a tag contribute nothing and
// files with several tags contribute several labels, so the result is not
// aligned with the rows. Use SNR for a per-row label.
func (b *Batch) SNRLabels() []int32 {
	out := make([]int32, len(b.matches))
	copy(out, b.matches)
	return out
}

// Assembler builds batches from directories.
type Assembler struct {
	codecs     *audio.Registry
	extensions []string
	recursive  bool
	logger     *log.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithExtensions sets the extension groups to scan, in order.
func WithExtensions(exts ...string) Option {
	return func(a *Assembler) {
		a.extensions = make([]string, 0, len(exts))
		for _, ext := range exts {
			a.extensions = append(a.extensions, strings.ToLower(strings.TrimPrefix(ext, ".")))
		}
	}
}

// WithRecursive makes Assemble walk subdirectories.
func WithRecursive(recursive bool) Option {
	return func(a *Assembler) {
		a.recursive = recursive
	}
}

// WithLogger sets the logger used for status messages.
func WithLogger(logger *log.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// NewAssembler creates an Assembler decoding files with codecs.
func NewAssembler(codecs *audio.Registry, opts ...Option) *Assembler {
	a := &Assembler{
		codecs:     codecs,
		extensions: dataset.DefaultExtensions,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble decodes every audio file in directory and pads them into one
// batch. snrLevels are the levels to look for as "_<level>dB" in each base
// file name. Any failing file aborts the whole call.
func (a *Assembler) Assemble(directory string, snrLevels []int) (*Batch, error) {
	dir, err := filepath.Abs(directory)
	if err != nil {
		return nil, dataset.FileSystemError(directory, "unable to resolve directory", err)
	}

	paths, err := dataset.Discover(dir, a.extensions, a.recursive)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, dataset.EmptyInputError(dir)
	}

	tags := snrTags(snrLevels)
	b := &Batch{
		Rows:    len(paths),
		Lengths: make([]int32, len(paths)),
		Names:   make([]string, len(paths)),
		SNR:     make([]SNRLabel, len(paths)),
	}
	waves := make([][]int16, len(paths))

	for i, p := range paths {
		name := dataset.BaseName(p)

		label := SNRLabel{}
		for j, tag := range tags {
			if !strings.Contains(name, tag) {
				continue
			}
			b.matches = append(b.matches, int32(snrLevels[j]))
			if !label.Valid {
				label.Value = snrLevels[j]
				label.Valid = true
			}
			label.Matches++
		}

		w, err := a.codecs.Decode(p)
		if err != nil {
			return nil, dataset.UnsupportedFormatError(p, err)
		}
		if idx := w.FirstNonFinite(); idx >= 0 {
			return nil, dataset.DataIntegrityError(p, fmt.Sprintf("non-finite sample at index %d", idx))
		}

		waves[i] = w.Int16()
		b.Lengths[i] = int32(len(waves[i]))
		b.Names[i] = name
		b.SNR[i] = label
		b.Cols = max(b.Cols, len(waves[i]))

		a.logger.Debug("Decoded file", "file", p, "samples", len(waves[i]), "snr", label.Value, "snr_valid", label.Valid)
	}

	b.Waveforms = make([]int16, b.Rows*b.Cols)
	for i, w := range waves {
		copy(b.Waveforms[i*b.Cols:], w)
	}

	a.logger.Info("Batch assembled", "dir", dir, "rows", b.Rows, "cols", b.Cols, "snr_labels", len(b.matches))
	return b, nil
}

func snrTags(levels []int) []string {
	tags := make([]string, len(levels))
	for i, l := range levels {
		tags[i] = fmt.Sprintf("_%ddB", l)
	}
	return tags
}
