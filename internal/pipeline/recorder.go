package pipeline

import (
	"context"
	"log/slog"

	"drumviz/internal/audio"
	"drumviz/internal/history"
	"drumviz/internal/logging"
)

// recorder writes run history. History is best effort: failures are logged
// and never fail the render.
type recorder struct {
	store  *history.Store
	logger *slog.Logger
	runID  string
}

func newRecorder(store *history.Store, logger *slog.Logger) *recorder {
	return &recorder{store: store, logger: logger}
}

func (r *recorder) start(ctx context.Context, runID, output, configPath string, segments int) {
	if r.store == nil {
		return
	}
	if _, err := r.store.StartRun(ctx, runID, output, configPath, segments); err != nil {
		r.warn("record run start", err)
		r.store = nil
		return
	}
	r.runID = runID
}

func (r *recorder) diagnostic(ctx context.Context, diag audio.Diagnostic) {
	if r.store == nil {
		return
	}
	if err := r.store.AddDiagnostic(ctx, r.runID, diag.Segment, diag.Source, diag.Err.Error()); err != nil {
		r.warn("record diagnostic", err)
	}
}

func (r *recorder) finish(ctx context.Context, outcome history.Outcome) {
	if r.store == nil {
		return
	}
	if err := r.store.FinishRun(ctx, r.runID, outcome); err != nil {
		r.warn("record run outcome", err)
	}
}

func (r *recorder) warn(op string, err error) {
	logging.WarnWithContext(r.logger, "run history write failed", "history_write_failed",
		logging.String("operation", op),
		logging.Error(err),
	)
}
