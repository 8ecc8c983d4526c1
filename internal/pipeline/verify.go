package pipeline

import (
	"context"

	"drumviz/internal/media/ffprobe"
	"drumviz/internal/timeline"
)

// probeVerifier checks the encoded file's streams, resolution, frame rate
// and duration with ffprobe.
func probeVerifier(binary string) timeline.Verifier {
	return func(ctx context.Context, path string, comp *timeline.Composition) error {
		result, err := ffprobe.Inspect(ctx, binary, path)
		if err != nil {
			return err
		}
		b := comp.Timeline.Bounds
		return ffprobe.Verify(result, ffprobe.Expectation{
			Width:    b.Dx(),
			Height:   b.Dy(),
			FPS:      comp.FPS,
			Duration: comp.Duration(),
		})
	}
}
