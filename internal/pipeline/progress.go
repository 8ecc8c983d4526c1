package pipeline

import (
	"io"
	"log/slog"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"drumviz/internal/logging"
)

// encodeProgress reports frames handed to the encoder, either as an mpb bar
// on an interactive terminal or as sampled log lines.
type encodeProgress struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	bars    *mpb.Progress
	bar     *mpb.Bar
}

func newEncodeProgress(logger *slog.Logger, out io.Writer, interactive bool, total int) *encodeProgress {
	p := &encodeProgress{logger: logger, sampler: logging.NewProgressSampler(10)}
	if interactive && out != nil && total > 0 {
		p.bars = mpb.New(mpb.WithOutput(out), mpb.WithWidth(64))
		p.bar = p.bars.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name("Encoding: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.AverageETA(decor.ET_STYLE_GO),
			),
		)
	}
	return p
}

func (p *encodeProgress) Update(done, total int) {
	if p.bar != nil {
		p.bar.SetCurrent(int64(done))
		return
	}
	percent := logging.Percent(done, total)
	if !p.sampler.ShouldLog(percent, "encode") {
		return
	}
	p.logger.Info("encode progress",
		logging.Float64(logging.FieldProgressPercent, percent),
		logging.Int("frames_done", done),
		logging.Int("frames_total", total),
	)
}

// Finish stops the bar. An incomplete bar is aborted so Wait returns.
func (p *encodeProgress) Finish(ok bool) {
	if p.bars == nil {
		return
	}
	if !ok {
		p.bar.Abort(false)
	}
	p.bars.Wait()
}
