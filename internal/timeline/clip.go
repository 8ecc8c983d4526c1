package timeline

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"drumviz/internal/raster"
	"drumviz/internal/services"
)

// Clip is one segment's still frame shown for Duration seconds.
type Clip struct {
	Index    int
	Label    string
	Image    *image.RGBA
	Start    float64
	Duration float64
}

// End returns the time the clip stops covering.
func (c Clip) End() float64 { return c.Start + c.Duration }

// NewClip captions a copy of a highlighted section raster. state.Image is
// never modified.
func NewClip(state raster.SectionState, label string, duration float64, labeler *Labeler) (Clip, error) {
	if state.Image == nil {
		return Clip{}, services.Wrap(services.ErrRender, "clip", "", fmt.Sprintf("segment %d has no raster", state.Index), nil)
	}
	if !(duration > 0) || math.IsInf(duration, 0) {
		return Clip{}, services.Wrap(services.ErrRender, "clip", "", fmt.Sprintf("segment %d duration %v must be positive", state.Index, duration), nil)
	}
	img := state.Image
	if labeler != nil {
		b := img.Bounds()
		img = image.NewRGBA(b)
		draw.Draw(img, b, state.Image, b.Min, draw.Src)
		labeler.Draw(img, label)
	}
	return Clip{Index: state.Index, Label: label, Image: img, Duration: duration}, nil
}

// Timeline is a gapless sequence of clips sharing one resolution.
type Timeline struct {
	Clips    []Clip
	Bounds   image.Rectangle
	Duration float64
}

// Concat joins clips end to end, assigning each its cumulative start. Every
// clip must share the first clip's bounds.
func Concat(clips []Clip) (*Timeline, error) {
	if len(clips) == 0 {
		return nil, services.Wrap(services.ErrRender, "concat", "", "no clips", nil)
	}
	if clips[0].Image == nil {
		return nil, services.Wrap(services.ErrRender, "concat", "", fmt.Sprintf("segment %d has no raster", clips[0].Index), nil)
	}
	bounds := clips[0].Image.Bounds()
	out := make([]Clip, len(clips))
	var t float64
	for i, clip := range clips {
		if clip.Image == nil {
			return nil, services.Wrap(services.ErrRender, "concat", "", fmt.Sprintf("segment %d has no raster", clip.Index), nil)
		}
		if b := clip.Image.Bounds(); b != bounds {
			return nil, services.Wrap(services.ErrRender, "concat", "",
				fmt.Sprintf("segment %d is %dx%d, expected %dx%d", clip.Index, b.Dx(), b.Dy(), bounds.Dx(), bounds.Dy()), nil)
		}
		clip.Start = t
		t += clip.Duration
		out[i] = clip
	}
	return &Timeline{Clips: out, Bounds: bounds, Duration: t}, nil
}

// ClipAt returns the clip covering time t. Times past the end resolve to
// the last clip.
func (tl *Timeline) ClipAt(t float64) *Clip {
	for i := range tl.Clips {
		if t < tl.Clips[i].End() {
			return &tl.Clips[i]
		}
	}
	return &tl.Clips[len(tl.Clips)-1]
}
