package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"drumviz/internal/config"
	"drumviz/internal/pipeline"
	"drumviz/internal/services"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		sources       []string
		labels        []string
		output        string
		noHistory     bool
		skipPreflight bool
		noProgress    bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the composite spectrogram video",
		Long: `Render stitches one clip from every segment, draws a single spectrogram
across all of them, and encodes a video that highlights and labels each
section in turn while a playhead sweeps it.

Segments come from the [[segments]] list in the configuration file, or from
repeated --segment/--label pairs which replace it for this run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			run := *cfg
			if len(sources) > 0 || len(labels) > 0 {
				segments, err := segmentsFromFlags(sources, labels)
				if err != nil {
					return err
				}
				run.Segments = segments
				run.Audio.SegmentCount = len(segments)
			}
			if output != "" {
				resolved, err := config.ExpandPath(output)
				if err != nil {
					return services.Wrap(services.ErrConfiguration, "render", "output", output, err)
				}
				run.Video.Output = resolved
			}
			if err := run.Validate(); err != nil {
				return services.Wrap(services.ErrConfiguration, "render", "flags", "", err)
			}

			logger, err := ctx.runLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report, err := pipeline.Run(cmd.Context(), &run, pipeline.Options{
				ConfigPath:     ctx.configPath,
				Logger:         logger,
				DisableHistory: noHistory,
				SkipPreflight:  skipPreflight,
				Interactive:    !noProgress && isTerminal(cmd.ErrOrStderr()),
				ProgressOutput: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rendered %s\n", report.Output)
			fmt.Fprintf(out, "  %d frames, %.2fs, %s in %s\n",
				report.Frames, report.Duration, humanize.IBytes(uint64(max(report.SizeBytes, 0))), report.Elapsed.Round(time.Millisecond))
			for _, diag := range report.Diagnostics {
				fmt.Fprintf(out, "  warning: %s\n", diag)
			}
			fmt.Fprintf(out, "  run %s\n", report.RunID)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sources, "segment", nil, "Segment audio source (repeat in playlist order)")
	cmd.Flags().StringArrayVar(&labels, "label", nil, "Caption for the matching --segment")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output video path (default video.output under paths.output_dir)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history database")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory and dependency checks")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Log sampled progress instead of drawing a progress bar")
	return cmd
}

// segmentsFromFlags pairs --segment and --label values by position.
func segmentsFromFlags(sources, labels []string) ([]config.Segment, error) {
	if len(sources) != len(labels) {
		return nil, services.Wrap(services.ErrValidation, "render", "flags",
			fmt.Sprintf("%d --segment values but %d --label values", len(sources), len(labels)), nil)
	}
	segments := make([]config.Segment, len(sources))
	for i := range sources {
		source, err := config.ExpandPath(sources[i])
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "render", "flags", sources[i], err)
		}
		segments[i] = config.Segment{Source: source, Label: strings.TrimSpace(labels[i])}
	}
	return segments, nil
}
