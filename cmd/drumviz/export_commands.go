package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"drumviz/internal/config"
	"drumviz/internal/export"
	"drumviz/internal/logging"
	"drumviz/internal/pipeline"
	"drumviz/internal/services"
)

func newSpectrogramCommand(ctx *commandContext) *cobra.Command {
	var (
		output   string
		duration float64
		width    int
		height   int
		linear   bool
	)
	defaults := export.DefaultSpectrogramOptions(0)

	cmd := &cobra.Command{
		Use:   "spectrogram SOURCE",
		Short: "Write a compact spectrogram PNG of the middle of a source",
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
			target, err := outputPath(cfg, output, stem(source)+"_spectrogram.png")
			if err != nil {
				return err
			}

			opts := export.DefaultSpectrogramOptions(cfg.Audio.SampleRate)
			opts.Duration = duration
			opts.Width, opts.Height = width, height
			opts.Colormap = cfg.Video.Colormap
			if linear {
				opts.FrequencyScale = "linear"
			}
			img, err := export.Spectrogram(cmd.Context(), pipeline.DecoderFor(cfg, logger), source, opts)
			if err != nil {
				return err
			}
			if err := export.WritePNG(target, img); err != nil {
				return err
			}
			logger.Info("spectrogram written",
				logging.String(logging.FieldEventType, "spectrogram_written"),
				logging.String("source", source),
				logging.String("output", target),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d)\n", target, width, height)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PNG path (default <source>_spectrogram.png under paths.output_dir)")
	cmd.Flags().Float64Var(&duration, "duration", defaults.Duration, "Seconds taken from the middle of the source")
	cmd.Flags().IntVar(&width, "width", defaults.Width, "Image width in pixels")
	cmd.Flags().IntVar(&height, "height", defaults.Height, "Image height in pixels")
	cmd.Flags().BoolVar(&linear, "linear", false, "Use a linear frequency axis")
	return cmd
}

func newGridCommand(ctx *commandContext) *cobra.Command {
	var (
		output    string
		titles    []string
		cols      int
		rows      int
		start     float64
		end       float64
		sharedRef bool
	)
	defaults := export.DefaultGridOptions(0)

	cmd := &cobra.Command{
		Use:   "grid [SOURCE...]",
		Short: "Write a titled grid of spectrograms over a shared time range",
		Long: `Grid renders one panel per source over the same --start/--end range.
Without arguments the configured segments are used and their labels become
the panel titles.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.runLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			panels, err := gridPanels(cfg, args, titles)
			if err != nil {
				return err
			}
			target, err := outputPath(cfg, output, "cfg_comparison.png")
			if err != nil {
				return err
			}

			opts := export.DefaultGridOptions(cfg.Audio.SampleRate)
			opts.Cols, opts.Rows = cols, rows
			opts.Start, opts.End = start, end
			opts.SharedReference = sharedRef
			opts.Colormap = cfg.Video.Colormap
			opts.FrequencyScale = cfg.Video.FrequencyScale
			opts.Spectral = cfg.Spectral
			img, err := export.Grid(cmd.Context(), pipeline.DecoderFor(cfg, logger), panels, opts)
			if err != nil {
				return err
			}
			if err := export.WritePNG(target, img); err != nil {
				return err
			}
			logger.Info("grid written",
				logging.String(logging.FieldEventType, "grid_written"),
				logging.Int("panels", len(panels)),
				logging.String("output", target),
			)
			b := img.Bounds()
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d panels, %dx%d)\n", target, len(panels), b.Dx(), b.Dy())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PNG path (default cfg_comparison.png under paths.output_dir)")
	cmd.Flags().StringArrayVar(&titles, "title", nil, "Panel title for the matching SOURCE")
	cmd.Flags().IntVar(&cols, "cols", defaults.Cols, "Grid columns")
	cmd.Flags().IntVar(&rows, "rows", defaults.Rows, "Grid rows")
	cmd.Flags().Float64Var(&start, "start", defaults.Start, "Excerpt start in seconds")
	cmd.Flags().Float64Var(&end, "end", defaults.End, "Excerpt end in seconds")
	cmd.Flags().BoolVar(&sharedRef, "shared-ref", false, "Reference every panel to the loudest one")
	return cmd
}

func gridPanels(cfg *config.Config, sources, titles []string) ([]export.Panel, error) {
	if len(sources) == 0 {
		panels := make([]export.Panel, len(cfg.Segments))
		for i, seg := range cfg.Segments {
			panels[i] = export.Panel{Source: seg.Source, Title: seg.Label}
		}
		if len(titles) > 0 {
			return nil, services.Wrap(services.ErrValidation, "grid", "flags", "--title requires SOURCE arguments", nil)
		}
		return panels, nil
	}
	if len(titles) > 0 && len(titles) != len(sources) {
		return nil, services.Wrap(services.ErrValidation, "grid", "flags",
			fmt.Sprintf("%d sources but %d --title values", len(sources), len(titles)), nil)
	}
	panels := make([]export.Panel, len(sources))
	for i, src := range sources {
		path, err := config.ExpandPath(src)
		if err != nil {
			return nil, err
		}
		title := filepath.Base(path)
		if len(titles) > 0 {
			title = titles[i]
		}
		panels[i] = export.Panel{Source: path, Title: title}
	}
	return panels, nil
}
