package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"drumviz/internal/config"
	"drumviz/internal/export"
	"drumviz/internal/logging"
	"drumviz/internal/pianoroll"
)

func newPianoRollCommand(ctx *commandContext) *cobra.Command {
	var (
		output string
		rate   float64
		height int
	)
	defaults := pianoroll.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "pianoroll MIDI_FILE",
		Short: "Draw the notes of a MIDI file as a scrolling PNG strip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.runLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			target, err := outputPath(cfg, output, "piano_roll_midi.png")
			if err != nil {
				return err
			}

			song, err := pianoroll.ReadFile(source)
			if err != nil {
				return err
			}
			opts := pianoroll.DefaultOptions()
			opts.PixelsPerSecond = rate
			opts.Height = height
			res, err := pianoroll.Render(song, opts)
			if err != nil {
				return err
			}
			if err := export.WritePNG(target, res.Image); err != nil {
				return err
			}
			logger.Info("piano roll written",
				logging.String(logging.FieldEventType, "pianoroll_written"),
				logging.String("source", source),
				logging.Int("notes", len(song.Notes)),
				logging.String("output", target),
			)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", target)
			fmt.Fprintf(out, "  %d notes over %.2fs, pitch %d-%d, %dpx wide\n",
				len(song.Notes), res.Duration, res.Range.Low, res.Range.High, res.Image.Bounds().Dx())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PNG path (default piano_roll_midi.png under paths.output_dir)")
	cmd.Flags().Float64Var(&rate, "pixels-per-second", defaults.PixelsPerSecond, "Horizontal scale")
	cmd.Flags().IntVar(&height, "height", defaults.Height, "Image height in pixels")
	return cmd
}
