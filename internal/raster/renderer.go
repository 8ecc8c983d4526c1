package raster

import (
	"fmt"
	"image"
	stddraw "image/draw"

	"golang.org/x/image/draw"

	"drumviz/internal/config"
	"drumviz/internal/services"
	"drumviz/internal/spectral"
)

// Renderer produces the base raster at exactly its configured size.
type Renderer struct {
	plotter Plotter
	params  PlotParams
}

// NewRenderer returns a Renderer for the video section. A nil plotter selects
// SpectrogramPlotter.
func NewRenderer(plotter Plotter, v config.Video) (*Renderer, error) {
	if plotter == nil {
		plotter = SpectrogramPlotter{}
	}
	if v.Width <= 0 || v.Height <= 0 {
		return nil, services.Wrap(services.ErrRender, "render", "init", fmt.Sprintf("invalid resolution %dx%d", v.Width, v.Height), nil)
	}
	return &Renderer{
		plotter: plotter,
		params: PlotParams{
			Width:          v.Width,
			Height:         v.Height,
			Colormap:       v.Colormap,
			FrequencyScale: v.FrequencyScale,
		},
	}, nil
}

// Params returns the target plot parameters.
func (r *Renderer) Params() PlotParams {
	return r.params
}

// Render plots m and forces the result to the configured resolution.
func (r *Renderer) Render(m *spectral.Matrix) (*image.RGBA, error) {
	raw, err := r.plotter.Plot(m, r.params)
	if err != nil {
		return nil, services.Wrap(services.ErrRender, "render", "plot", "", err)
	}
	if raw == nil || raw.Bounds().Empty() {
		return nil, services.Wrap(services.ErrRender, "render", "plot", "plotter returned an empty raster", nil)
	}
	out := Fit(raw, r.params.Width, r.params.Height)
	if b := out.Bounds(); b.Dx() != r.params.Width || b.Dy() != r.params.Height || b.Min != (image.Point{}) {
		return nil, services.Wrap(services.ErrRender, "render", "fit",
			fmt.Sprintf("raster is %v, want %dx%d", b, r.params.Width, r.params.Height), nil)
	}
	return out, nil
}

// Fit resamples src to exactly width x height with Catmull-Rom. A source that
// already has the target size is copied unchanged.
func Fit(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	sb := src.Bounds()
	if sb.Dx() == width && sb.Dy() == height {
		stddraw.Draw(dst, dst.Bounds(), src, sb.Min, stddraw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}
