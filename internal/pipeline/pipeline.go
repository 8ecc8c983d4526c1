package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"drumviz/internal/audio"
	"drumviz/internal/config"
	"drumviz/internal/cursor"
	"drumviz/internal/history"
	"drumviz/internal/logging"
	"drumviz/internal/preflight"
	"drumviz/internal/raster"
	"drumviz/internal/services"
	"drumviz/internal/services/ffmpeg"
	"drumviz/internal/spectral"
	"drumviz/internal/timeline"
)

// Options injects collaborators and presentation settings. Zero values
// select the production implementations.
type Options struct {
	ConfigPath string
	Logger     *slog.Logger

	Decoder  audio.Decoder
	Plotter  raster.Plotter
	Encoder  timeline.Encoder
	Verifier timeline.Verifier

	// History, when nil, is opened from the config unless DisableHistory.
	History        *history.Store
	DisableHistory bool

	SkipPreflight bool

	// Interactive renders an mpb progress bar on ProgressOutput instead of
	// sampled progress logs.
	Interactive    bool
	ProgressOutput io.Writer
}

// Report summarizes a completed render.
type Report struct {
	RunID       string
	Output      string
	Frames      int
	Duration    float64
	SizeBytes   int64
	Elapsed     time.Duration
	Diagnostics []audio.Diagnostic
}

// Run executes one render of cfg.
func Run(ctx context.Context, cfg *config.Config, opts Options) (report *Report, err error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "", "nil config", nil)
	}
	started := time.Now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	base := opts.Logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "pipeline"))

	segments, err := audio.SegmentsFromConfig(cfg.Segments)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "playlist", "no segments configured", nil)
	}
	if len(segments) != cfg.Audio.SegmentCount {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "playlist",
			fmt.Sprintf("%d segments configured but audio.segment_count is %d", len(segments), cfg.Audio.SegmentCount), nil)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "directories", "", err)
	}
	if !opts.SkipPreflight {
		if err := runPreflight(ctx, cfg, logger); err != nil {
			return nil, err
		}
	}

	output := cfg.OutputPath()
	lock, err := acquireOutputLock(cfg.OutputLockPath(), output)
	if err != nil {
		return nil, err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("failed to release output lock", logging.String("lock", lock.Path()), logging.Error(unlockErr))
		}
	}()

	store := opts.History
	if store == nil && !opts.DisableHistory {
		opened, openErr := history.Open(cfg.HistoryDBPath())
		if openErr != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_unavailable",
				logging.Error(openErr),
				logging.String(logging.FieldImpact, "this run will not appear in drumviz history"),
			)
		} else {
			store = opened
			defer store.Close()
		}
	}
	rec := newRecorder(store, logger)
	rec.start(ctx, runID, output, opts.ConfigPath, len(segments))

	logger.Info("render started",
		logging.String(logging.FieldEventType, "render_started"),
		logging.String("output", output),
		logging.Int(logging.FieldSegmentCount, len(segments)),
		logging.Float64("duration_seconds", cfg.TotalDuration()),
	)

	var stitched *audio.Stitched
	defer func() {
		outcome := history.Outcome{ErrorKind: services.Classify(err), Err: err}
		if stitched != nil {
			outcome.SubstitutedCount = stitched.SubstitutedCount()
		}
		if report != nil {
			outcome.FrameCount = report.Frames
			outcome.DurationSeconds = report.Duration
			outcome.OutputBytes = report.SizeBytes
		}
		rec.finish(context.WithoutCancel(ctx), outcome)
	}()

	stitched, err = stitch(ctx, cfg, opts, segments, base)
	if err != nil {
		return nil, err
	}
	for _, diag := range stitched.Diagnostics {
		rec.diagnostic(ctx, diag)
	}

	comp, err := compose(ctx, cfg, opts, segments, stitched, base)
	if err != nil {
		return nil, err
	}

	result, err := encode(ctx, cfg, opts, comp, output, base)
	if err != nil {
		return nil, err
	}

	report = &Report{
		RunID:       runID,
		Output:      result.Output,
		Frames:      result.Frames,
		Duration:    result.Duration,
		SizeBytes:   result.SizeBytes,
		Elapsed:     time.Since(started),
		Diagnostics: stitched.Diagnostics,
	}
	logger.Info("render complete",
		logging.String(logging.FieldEventType, "render_completed"),
		logging.String("output", report.Output),
		logging.Int("frames", report.Frames),
		logging.Int64("output_bytes", report.SizeBytes),
		logging.Int("substituted_segments", stitched.SubstitutedCount()),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		if !r.Passed && r.Advisory {
			logging.WarnWithContext(logger, "preflight check failed", "preflight_advisory",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
		}
	}
	blocking := preflight.Blocking(results)
	if len(blocking) == 0 {
		return nil
	}
	parts := make([]string, 0, len(blocking))
	for _, r := range blocking {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "", strings.Join(parts, "; "), nil)
}

// DecoderFor returns the decoder audio.decoder selects.
func DecoderFor(cfg *config.Config, logger *slog.Logger) audio.Decoder {
	if cfg.Audio.Decoder == config.DecoderWAV {
		return audio.WAVDecoder{}
	}
	return ffmpeg.NewDecoder(ffmpeg.WithBinary(cfg.FFmpegBinary()), ffmpeg.WithLogger(logger))
}

func stitch(ctx context.Context, cfg *config.Config, opts Options, segments []audio.Segment, logger *slog.Logger) (*audio.Stitched, error) {
	ctx = services.WithStage(ctx, "stitch")
	decoder := opts.Decoder
	if decoder == nil {
		decoder = DecoderFor(cfg, logging.WithContext(ctx, logger))
	}
	stitcher, err := audio.NewStitcher(decoder, cfg.Audio, logger)
	if err != nil {
		return nil, err
	}
	return stitcher.Stitch(ctx, segments)
}

func compose(ctx context.Context, cfg *config.Config, opts Options, segments []audio.Segment, stitched *audio.Stitched, logger *slog.Logger) (*timeline.Composition, error) {
	log := logging.WithContext(services.WithStage(ctx, "render"), logging.NewComponentLogger(logger, "pipeline"))

	engine, err := spectral.NewEngine(cfg.Spectral, stitched.SampleRate)
	if err != nil {
		return nil, err
	}
	matrix, err := engine.Transform(stitched.Waveform)
	if err != nil {
		return nil, err
	}
	log.Debug("spectrogram computed",
		logging.Int("bins", matrix.Bins),
		logging.Int("frames", matrix.Frames),
		logging.Float64("peak", matrix.Peak),
	)

	renderer, err := raster.NewRenderer(opts.Plotter, cfg.Video)
	if err != nil {
		return nil, err
	}
	base, err := renderer.Render(matrix)
	if err != nil {
		return nil, err
	}
	states, err := raster.HighlightAll(base, len(segments), cfg.Highlight.DimFactor)
	if err != nil {
		return nil, err
	}

	labeler, err := timeline.NewLabeler(cfg.Label)
	if err != nil {
		return nil, err
	}
	clipDuration := float64(len(stitched.Slices[0].Samples)) / float64(stitched.SampleRate)
	clips := make([]timeline.Clip, len(states))
	for i, state := range states {
		clip, err := timeline.NewClip(state, segments[i].Label, clipDuration, labeler)
		if err != nil {
			return nil, err
		}
		clips[i] = clip
	}
	tl, err := timeline.Concat(clips)
	if err != nil {
		return nil, err
	}

	animator, err := cursor.New(cfg.Video.Width, clipDuration, cfg.Cursor)
	if err != nil {
		return nil, err
	}
	comp, err := timeline.Compose(tl, stitched.Waveform, stitched.SampleRate, cfg.Video.FPS, animator)
	if err != nil {
		return nil, err
	}
	log.Info("timeline composed",
		logging.Int("clips", len(clips)),
		logging.Int("frames", comp.FrameCount()),
		logging.String("resolution", fmt.Sprintf("%dx%d", cfg.Video.Width, cfg.Video.Height)),
	)
	return comp, nil
}

func encode(ctx context.Context, cfg *config.Config, opts Options, comp *timeline.Composition, output string, logger *slog.Logger) (timeline.Result, error) {
	ctx = services.WithStage(ctx, "encode")
	log := logging.WithContext(ctx, logging.NewComponentLogger(logger, "pipeline"))

	encoder := opts.Encoder
	if encoder == nil {
		encoder = ffmpeg.NewEncoder(ffmpeg.WithBinary(cfg.FFmpegBinary()), ffmpeg.WithLogger(logging.WithContext(ctx, logger)))
	}
	verify := opts.Verifier
	if verify == nil && cfg.Video.VerifyOutput {
		verify = probeVerifier(cfg.FFprobeBinary())
	}

	progress := newEncodeProgress(log, opts.ProgressOutput, opts.Interactive, comp.FrameCount())
	publisher := &timeline.Publisher{
		Encoder:    encoder,
		Params:     timeline.ParamsFromConfig(cfg.Video),
		ScratchDir: cfg.Paths.ScratchDir,
		Verify:     verify,
		Progress:   progress.Update,
		Logger:     log,
	}
	result, err := publisher.Render(ctx, comp, output)
	progress.Finish(err == nil)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(log, "encode failed", "encode_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run drumviz check to confirm ffmpeg supports the configured codecs"),
			)
		}
		return timeline.Result{}, err
	}
	return result, nil
}
