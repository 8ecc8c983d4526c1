// Package cursor animates the vertical playhead line that sweeps the
// composite raster once per timeline period.
package cursor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"drumviz/internal/config"
	"drumviz/internal/services"
)

// Animator maps playback time to a column and paints the playhead.
type Animator struct {
	width  int
	period float64
	thick  int
	src    *image.Uniform
}

// New builds an Animator sweeping a raster width pixels wide once every
// period seconds.
func New(width int, period float64, cfg config.Cursor) (*Animator, error) {
	if width <= 0 {
		return nil, services.Wrap(services.ErrRender, "cursor", "init", fmt.Sprintf("width %d must be positive", width), nil)
	}
	if !(period > 0) || math.IsInf(period, 0) {
		return nil, services.Wrap(services.ErrRender, "cursor", "init", fmt.Sprintf("period %v must be positive", period), nil)
	}
	c, err := config.ParseColor(cfg.Color)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cursor", "init", "invalid cursor color", err)
	}
	if cfg.Alpha < 0 || cfg.Alpha > 255 {
		return nil, services.Wrap(services.ErrConfiguration, "cursor", "init", fmt.Sprintf("alpha %d outside 0..255", cfg.Alpha), nil)
	}
	thick := max(cfg.Width, 1)
	// image.Uniform expects premultiplied color. Alpha 0 leaves dst untouched.
	a := uint32(cfg.Alpha)
	premul := color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: uint8(a),
	}
	return &Animator{width: width, period: period, thick: thick, src: image.NewUniform(premul)}, nil
}

// Position returns the playhead column for time t. The sweep restarts at
// column 0 at every multiple of the period.
func (a *Animator) Position(t float64) int {
	if math.IsNaN(t) || t < 0 {
		return 0
	}
	phase := math.Mod(t, a.period) / a.period
	x := int(math.Floor(phase * float64(a.width)))
	return min(max(x, 0), a.width-1)
}

// Span returns the columns [start, end) covered by the line at time t,
// clipped to the raster.
func (a *Animator) Span(t float64) (int, int) {
	x := a.Position(t)
	start := x - a.thick/2
	end := start + a.thick
	return max(start, 0), min(end, a.width)
}

// Draw composites the playhead onto dst over the full height.
func (a *Animator) Draw(dst draw.Image, t float64) {
	b := dst.Bounds()
	start, end := a.Span(t)
	r := image.Rect(b.Min.X+start, b.Min.Y, b.Min.X+end, b.Max.Y).Intersect(b)
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, a.src, image.Point{}, draw.Over)
}
