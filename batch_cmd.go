package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/deepxi/sebatch/internal/audio"
	"github.com/deepxi/sebatch/internal/batch"
	"github.com/deepxi/sebatch/utils"
)

var (
	snrFlag string
	maxRows int

	batchCmd = &cobra.Command{
		Use:   "batch DIR",
		Short: "Decode a directory into a zero-padded batch",
		Long: paragraph(fmt.Sprintf("\n%s every audio file in DIR, pad the waveforms to a common length and "+
			"print the batch layout. SNR labels are read from \"_<level>dB\" tags in file names.", keyword("Decode"))),
		Example: paragraph("sebatch batch ./test --snr 0,5,10\nsebatch batch ./test --snr=-5,0 --rows 10"),
		Args:    cobra.ExactArgs(1),
		RunE:    runBatch,
	}
)

func init() {
	batchCmd.Flags().StringVar(&snrFlag, "snr", "", "comma-separated SNR levels (default: snr_levels from config)")
	batchCmd.Flags().IntVar(&maxRows, "rows", 0, "print at most this many rows (0 for all)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(utils.ExpandPath(args[0]))
	if err != nil {
		return fmt.Errorf("unable to get absolute path: %w", err)
	}

	levels := cfg.SNRLevels
	if cmd.Flags().Changed("snr") {
		levels, err = utils.ParseInts(snrFlag)
		if err != nil {
			return fmt.Errorf("invalid --snr value %q: %w", snrFlag, err)
		}
	}

	a := batch.NewAssembler(audio.DefaultRegistry(),
		batch.WithExtensions(cfg.Extensions...),
		batch.WithRecursive(cfg.Recursive),
		batch.WithLogger(log.Default()),
	)
	b, err := a.Assemble(dir, levels)
	if err != nil {
		return err
	}
	return printBatch(cmd.OutOrStdout(), b, maxRows, isTerminal())
}

func printBatch(w io.Writer, b *batch.Batch, limit int, styled bool) error {
	rows, cols := b.Shape()
	header := fmt.Sprintf("shape (%d, %d), %s", rows, cols, humanize.Bytes(uint64(len(b.Waveforms))*2))
	if styled {
		header = keyword(header)
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}

	n := rows
	if limit > 0 && limit < n {
		n = limit
	}
	for i := 0; i < n; i++ {
		snr := "-"
		if l := b.SNR[i]; l.Valid {
			snr = strconv.Itoa(l.Value)
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", i, b.Names[i], b.Lengths[i], snr); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	if n < rows {
		more := fmt.Sprintf("... %d more rows", rows-n)
		if styled {
			more = faint(more)
		}
		if _, err := fmt.Fprintln(w, more); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}

	if _, err := fmt.Fprintf(w, "snr labels %v\n", b.SNRLabels()); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}
