package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/deepxi/sebatch/internal/audio"
	"github.com/deepxi/sebatch/internal/audio/playback"
	"github.com/deepxi/sebatch/internal/dataset"
	"github.com/deepxi/sebatch/utils"
)

var listenCmd = &cobra.Command{
	Use:     "listen FILE",
	Short:   "Play an audio file as the batch assembler decodes it",
	Long:    paragraph(fmt.Sprintf("\n%s FILE after mono downmix and int16 conversion. Press Ctrl+C to stop.", keyword("Play"))),
	Example: paragraph("sebatch listen ./test/speechA_0dB.wav"),
	Args:    cobra.ExactArgs(1),
	RunE:    runListen,
}

func runListen(cmd *cobra.Command, args []string) error {
	path := utils.ExpandPath(args[0])

	w, err := audio.DefaultRegistry().Decode(path)
	if err != nil {
		return dataset.UnsupportedFormatError(path, err)
	}
	if idx := w.FirstNonFinite(); idx >= 0 {
		return dataset.DataIntegrityError(path, fmt.Sprintf("non-finite sample at index %d", idx))
	}
	if w.Len() == 0 {
		return fmt.Errorf("%s has no samples", path)
	}

	pc := playback.DefaultPlayerConfig()
	pc.SampleRate = w.SampleRate
	pc.Volume = cfg.Volume
	if pc.SampleRate < 8000 || pc.SampleRate > 192000 {
		log.Warn("Unusual sample rate, using configured rate", "file_rate", w.SampleRate, "rate", cfg.SampleRate)
		pc.SampleRate = cfg.SampleRate
	}

	player, err := playback.NewPlayer(pc)
	if err != nil {
		return fmt.Errorf("unable to open audio device: %w", err)
	}

	samples := w.Int16()
	log.Info("Playing", "file", path, "duration", player.Duration(len(samples)), "rate", pc.SampleRate)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if err := player.PlayWait(ctx, samples); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}
