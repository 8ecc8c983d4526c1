package audio

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"drumviz/internal/config"
	"drumviz/internal/logging"
	"drumviz/internal/services"
)

// Decoder resolves a source reference to mono samples at sampleRate.
type Decoder interface {
	Decode(ctx context.Context, source string, sampleRate int) ([]float64, error)
}

// Stitcher loads segments and concatenates their windows.
type Stitcher struct {
	decoder     Decoder
	sampleRate  int
	clipSamples int
	workers     int
	logger      *slog.Logger
}

// NewStitcher builds a Stitcher from the audio config section.
func NewStitcher(decoder Decoder, cfg config.Audio, logger *slog.Logger) (*Stitcher, error) {
	if decoder == nil {
		return nil, services.Wrap(services.ErrConfiguration, "stitch", "init", "decoder required", nil)
	}
	clip := cfg.SamplesPerClip()
	if cfg.SampleRate <= 0 || clip <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "stitch", "init",
			fmt.Sprintf("clip of %.4fs at %d Hz holds no samples", cfg.ClipDuration, cfg.SampleRate), nil)
	}
	workers := cfg.LoadWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Stitcher{
		decoder:     decoder,
		sampleRate:  cfg.SampleRate,
		clipSamples: clip,
		workers:     workers,
		logger:      logging.NewComponentLogger(logger, "audio"),
	}, nil
}

// ClipSamples is the exact length of every segment slice.
func (s *Stitcher) ClipSamples() int {
	return s.clipSamples
}

// Stitch loads every segment and returns the concatenated waveform. Load
// failures are recovered as silence and reported in Diagnostics; only context
// cancellation returns an error once the playlist itself is valid.
func (s *Stitcher) Stitch(ctx context.Context, segments []Segment) (*Stitched, error) {
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, "stitch", "playlist", "no segments", nil)
	}
	for i, seg := range segments {
		if seg.Index != i {
			return nil, services.Wrap(services.ErrValidation, "stitch", "playlist",
				fmt.Sprintf("segment at position %d has index %d", i, seg.Index), nil)
		}
	}

	slices := make([]SegmentSlice, len(segments))
	failures := make([]error, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, seg := range segments {
		g.Go(func() error {
			samples, err := s.decoder.Decode(gctx, seg.Source, s.sampleRate)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				failures[i] = err
				slices[i] = SegmentSlice{Segment: seg, Samples: make([]float64, s.clipSamples), Substituted: true}
				return nil
			}
			window, padded := extractWindow(samples, i*s.clipSamples, s.clipSamples)
			slices[i] = SegmentSlice{Segment: seg, Samples: window, Padded: padded}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("stitch: load segments: %w", err)
	}

	out := &Stitched{
		Waveform:   make([]float64, 0, len(segments)*s.clipSamples),
		Slices:     slices,
		SampleRate: s.sampleRate,
	}
	for i, slice := range slices {
		out.Waveform = append(out.Waveform, slice.Samples...)
		segCtx := services.WithSegment(ctx, i)
		log := logging.WithContext(segCtx, s.logger).With(logging.Int(logging.FieldSegmentCount, len(segments)))
		if err := failures[i]; err != nil {
			diag := Diagnostic{Segment: i, Source: slice.Source, Err: services.Wrap(services.ErrLoad, "stitch", "decode", slice.Source, err)}
			out.Diagnostics = append(out.Diagnostics, diag)
			logging.WarnWithContext(log, "segment source unreadable; substituting silence", "segment_load_failed",
				logging.String("source", slice.Source),
				logging.String("label", slice.Label),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the source path and format, or switch audio.decoder"),
				logging.String(logging.FieldImpact, "segment renders as silence"),
			)
			continue
		}
		attrs := []logging.Attr{
			logging.String("source", slice.Source),
			logging.Int("samples", len(slice.Samples)),
		}
		if slice.Padded > 0 {
			attrs = append(attrs, logging.Int("padded_samples", slice.Padded))
		}
		log.Debug("segment loaded", logging.Args(attrs...)...)
	}
	return out, nil
}

// extractWindow copies samples[start:start+n] into a new n-length slice,
// padding with zeros past the end of the source.
func extractWindow(samples []float64, start, n int) ([]float64, int) {
	window := make([]float64, n)
	if start >= len(samples) {
		return window, n
	}
	copied := copy(window, samples[start:])
	return window, n - copied
}
