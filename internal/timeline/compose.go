package timeline

import (
	"fmt"
	"image"
	"math"

	"drumviz/internal/cursor"
	"drumviz/internal/services"
)

// Composition is a timeline paired with its audio track and playhead.
type Composition struct {
	Timeline   *Timeline
	Audio      []float64
	SampleRate int
	FPS        int
	animator   *cursor.Animator
	frames     int
}

var _ FrameSource = (*Composition)(nil)

// Compose validates that the waveform spans the timeline and builds the
// frame source. The audio may differ from the visual duration by at most
// half a frame.
func Compose(tl *Timeline, waveform []float64, sampleRate, fps int, animator *cursor.Animator) (*Composition, error) {
	if tl == nil || len(tl.Clips) == 0 {
		return nil, services.Wrap(services.ErrRender, "compose", "", "empty timeline", nil)
	}
	if fps <= 0 {
		return nil, services.Wrap(services.ErrRender, "compose", "", fmt.Sprintf("fps %d must be positive", fps), nil)
	}
	if sampleRate <= 0 || len(waveform) == 0 {
		return nil, services.Wrap(services.ErrRender, "compose", "", "missing audio track", nil)
	}
	if animator == nil {
		return nil, services.Wrap(services.ErrRender, "compose", "", "missing cursor animator", nil)
	}
	audioDur := float64(len(waveform)) / float64(sampleRate)
	if math.Abs(audioDur-tl.Duration) > 0.5/float64(fps) {
		return nil, services.Wrap(services.ErrRender, "compose", "",
			fmt.Sprintf("audio lasts %.4fs but timeline lasts %.4fs", audioDur, tl.Duration), nil)
	}
	return &Composition{
		Timeline:   tl,
		Audio:      waveform,
		SampleRate: sampleRate,
		FPS:        fps,
		animator:   animator,
		frames:     int(math.Round(tl.Duration * float64(fps))),
	}, nil
}

// Duration returns the visual duration in seconds.
func (c *Composition) Duration() float64 { return c.Timeline.Duration }

// FrameCount implements FrameSource.
func (c *Composition) FrameCount() int { return c.frames }

// FrameTime returns the presentation time of frame n.
func (c *Composition) FrameTime(n int) float64 {
	return float64(n) / float64(c.FPS)
}

// RenderFrame implements FrameSource: the covering clip, then the cursor.
func (c *Composition) RenderFrame(n int, dst *image.RGBA) error {
	if n < 0 || n >= c.frames {
		return services.Wrap(services.ErrRender, "compose", "frame", fmt.Sprintf("frame %d outside [0, %d)", n, c.frames), nil)
	}
	if dst.Bounds() != c.Timeline.Bounds {
		return services.Wrap(services.ErrRender, "compose", "frame",
			fmt.Sprintf("destination %v does not match timeline %v", dst.Bounds(), c.Timeline.Bounds), nil)
	}
	t := c.FrameTime(n)
	clip := c.Timeline.ClipAt(t)
	copy(dst.Pix, clip.Image.Pix)
	c.animator.Draw(dst, t)
	return nil
}
