package logging

import (
	"context"
	"log/slog"

	"drumviz/internal/services"
)

const (
	// FieldComponent names the emitting package or collaborator.
	FieldComponent = "component"
	// FieldRunID carries the render run identifier.
	FieldRunID = "run_id"
	// FieldStage carries the pipeline stage (stitch, transform, render, encode).
	FieldStage = "stage"
	// FieldSegment carries the zero-based segment ordinal.
	FieldSegment = "segment"
	// FieldSegmentCount carries the playlist length.
	FieldSegmentCount = "segment_count"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldProgressPercent carries encode progress in percent.
	FieldProgressPercent = "progress_percent"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if seg, ok := services.SegmentFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldSegment, seg))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
