package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"drumviz/internal/audio"
	"drumviz/internal/fileutil"
	"drumviz/internal/logging"
	"drumviz/internal/services"
)

// Verifier inspects an encoded file before it is published.
type Verifier func(ctx context.Context, path string, comp *Composition) error

// Publisher encodes compositions and commits them to their final path.
type Publisher struct {
	Encoder    Encoder
	Params     EncodeParams
	ScratchDir string
	Verify     Verifier
	Progress   func(done, total int)
	Logger     *slog.Logger
}

// Result describes a published video.
type Result struct {
	Output    string
	Frames    int
	Duration  float64
	SizeBytes int64
}

// Render encodes comp to output. Scratch audio exists only for the duration
// of the encode, and nothing is left at output unless every step succeeds.
func (p *Publisher) Render(ctx context.Context, comp *Composition, output string) (Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if p.Encoder == nil {
		return Result{}, services.Wrap(services.ErrEncode, "encode", "init", "no encoder configured", nil)
	}
	if comp == nil {
		return Result{}, services.Wrap(services.ErrEncode, "encode", "init", "nil composition", nil)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrEncode, "encode", "prepare", "create output directory", err)
	}

	scratchDir := p.ScratchDir
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	scratch := filepath.Join(scratchDir, fmt.Sprintf("drumviz-%s.wav", uuid.NewString()))
	defer func() {
		if err := fileutil.RemoveIfExists(scratch); err != nil {
			logger.Warn("scratch audio cleanup failed",
				logging.String("path", scratch),
				logging.Error(err),
			)
		}
	}()
	if err := audio.WriteWAV(scratch, comp.Audio, comp.SampleRate); err != nil {
		return Result{}, services.Wrap(services.ErrEncode, "encode", "scratch audio", "", err)
	}

	tmp := fileutil.TempSibling(output)
	committed := false
	defer func() {
		if committed {
			return
		}
		if err := fileutil.RemoveIfExists(tmp); err != nil {
			logger.Warn("partial output cleanup failed",
				logging.String("path", tmp),
				logging.Error(err),
			)
		}
	}()

	b := comp.Timeline.Bounds
	job := EncodeJob{
		Output:    tmp,
		Width:     b.Dx(),
		Height:    b.Dy(),
		FPS:       comp.FPS,
		Frames:    comp,
		AudioPath: scratch,
		Params:    p.Params,
		Progress:  p.Progress,
	}
	logger.Info("encoding composite",
		logging.String(logging.FieldEventType, "encode_started"),
		logging.Int("frames", comp.FrameCount()),
		logging.String("params", job.Describe()),
	)
	if err := p.Encoder.Encode(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("encode: %w", err)
		}
		if errors.Is(err, services.ErrEncode) || errors.Is(err, services.ErrExternalTool) {
			return Result{}, err
		}
		return Result{}, services.Wrap(services.ErrEncode, "encode", "encode", job.Describe(), err)
	}

	if p.Verify != nil {
		if err := p.Verify(ctx, tmp, comp); err != nil {
			return Result{}, services.Wrap(services.ErrEncode, "encode", "verify", job.Describe(), err)
		}
	}

	info, err := os.Stat(tmp)
	if err != nil {
		return Result{}, services.Wrap(services.ErrEncode, "encode", "stat", "encoder produced no output", err)
	}
	if err := fileutil.Commit(tmp, output); err != nil {
		return Result{}, services.Wrap(services.ErrEncode, "encode", "commit", "", err)
	}
	committed = true

	return Result{
		Output:    output,
		Frames:    comp.FrameCount(),
		Duration:  comp.Duration(),
		SizeBytes: info.Size(),
	}, nil
}
