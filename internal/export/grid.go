package export

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"drumviz/internal/audio"
	"drumviz/internal/config"
	"drumviz/internal/raster"
	"drumviz/internal/services"
	"drumviz/internal/spectral"
	"drumviz/internal/timeline"
)

// Panel is one titled cell of a grid.
type Panel struct {
	Source string
	Title  string
}

// GridOptions lays out a comparison figure.
type GridOptions struct {
	SampleRate int
	Cols       int
	Rows       int
	// Start and End bound the excerpt every panel shows, in seconds.
	Start float64
	End   float64

	PanelWidth  int
	PanelHeight int
	Margin      int
	Colormap    string
	// FrequencyScale is "log" or "linear".
	FrequencyScale string
	Spectral       config.Spectral
	// SharedReference anchors every panel to the loudest one instead of its
	// own peak.
	SharedReference bool

	TitleFont  string
	TitleSize  float64
	TitleColor string
	Background string
}

// DefaultGridOptions returns the 2x2 guidance-weight comparison layout.
func DefaultGridOptions(sampleRate int) GridOptions {
	return GridOptions{
		SampleRate:     sampleRate,
		Cols:           2,
		Rows:           2,
		Start:          0,
		End:            2,
		PanelWidth:     560,
		PanelHeight:    320,
		Margin:         16,
		Colormap:       "magma",
		FrequencyScale: "log",
		Spectral:       config.Spectral{FFTSize: 1024, HopLength: 256, TopDB: 80},
		TitleFont:      "gobold",
		TitleSize:      18,
		TitleColor:     "#000000",
		Background:     "#ffffff",
	}
}

func (o GridOptions) titleHeight() int {
	return int(o.TitleSize*1.5) + o.Margin/2
}

// Bounds returns the size of the full figure.
func (o GridOptions) Bounds() image.Rectangle {
	w := o.Cols*o.PanelWidth + (o.Cols+1)*o.Margin
	h := o.Rows*(o.titleHeight()+o.PanelHeight) + (o.Rows+1)*o.Margin
	return image.Rect(0, 0, w, h)
}

// PanelRect returns the spectrogram area of cell i in row-major order.
func (o GridOptions) PanelRect(i int) image.Rectangle {
	col, row := i%o.Cols, i/o.Cols
	x := o.Margin + col*(o.PanelWidth+o.Margin)
	y := o.Margin + row*(o.titleHeight()+o.PanelHeight+o.Margin) + o.titleHeight()
	return image.Rect(x, y, x+o.PanelWidth, y+o.PanelHeight)
}

func (o GridOptions) validate(panels int) error {
	switch {
	case o.Cols <= 0 || o.Rows <= 0:
		return fmt.Errorf("grid %dx%d must have positive dimensions", o.Cols, o.Rows)
	case panels == 0:
		return fmt.Errorf("no panels")
	case panels > o.Cols*o.Rows:
		return fmt.Errorf("%d panels do not fit a %dx%d grid", panels, o.Cols, o.Rows)
	case o.SampleRate <= 0:
		return fmt.Errorf("sample rate %d must be positive", o.SampleRate)
	case o.End <= o.Start || o.Start < 0:
		return fmt.Errorf("time range %.2f-%.2fs is empty", o.Start, o.End)
	case o.PanelWidth <= 0 || o.PanelHeight <= 0 || o.Margin < 0:
		return fmt.Errorf("panel %dx%d margin %d", o.PanelWidth, o.PanelHeight, o.Margin)
	}
	return nil
}

// Grid renders panels into a cols x rows figure with a title above each cell.
// Every panel covers the same [Start, End) excerpt.
func Grid(ctx context.Context, decoder audio.Decoder, panels []Panel, opts GridOptions) (*image.RGBA, error) {
	if err := opts.validate(len(panels)); err != nil {
		return nil, services.Wrap(services.ErrValidation, "export", "grid", "", err)
	}
	engine, err := spectral.NewEngine(opts.Spectral, opts.SampleRate)
	if err != nil {
		return nil, err
	}
	renderer, err := raster.NewRenderer(nil, config.Video{
		Width:          opts.PanelWidth,
		Height:         opts.PanelHeight,
		Colormap:       opts.Colormap,
		FrequencyScale: opts.FrequencyScale,
	})
	if err != nil {
		return nil, err
	}
	titles, err := timeline.NewLabeler(config.Label{
		Font:  opts.TitleFont,
		Size:  opts.TitleSize,
		Color: opts.TitleColor,
		Top:   opts.Margin / 4,
	})
	if err != nil {
		return nil, err
	}
	bg, err := config.ParseColor(opts.Background)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "grid", "background", err)
	}

	start := int(opts.Start * float64(opts.SampleRate))
	n := int((opts.End - opts.Start) * float64(opts.SampleRate))
	excerpts := make([][]float64, len(panels))
	for i, p := range panels {
		samples, err := decode(ctx, decoder, p.Source, opts.SampleRate)
		if err != nil {
			return nil, err
		}
		if start >= len(samples) {
			return nil, services.Wrap(services.ErrValidation, "export", "grid",
				fmt.Sprintf("%s is %s long, shorter than the %.2fs start", p.Source, seconds(len(samples), opts.SampleRate), opts.Start), nil)
		}
		excerpts[i] = window(samples, start, n)
	}

	ref := -1.0
	if opts.SharedReference {
		for _, ex := range excerpts {
			peak, err := engine.Peak(ex)
			if err != nil {
				return nil, err
			}
			ref = max(ref, peak)
		}
	}

	out := image.NewRGBA(opts.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	for i, ex := range excerpts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var m *spectral.Matrix
		if ref >= 0 {
			m, err = engine.TransformRef(ex, ref)
		} else {
			m, err = engine.Transform(ex)
		}
		if err != nil {
			return nil, err
		}
		img, err := renderer.Render(m)
		if err != nil {
			return nil, err
		}
		rect := opts.PanelRect(i)
		draw.Draw(out, rect, img, image.Point{}, draw.Src)
		strip := image.Rect(rect.Min.X, rect.Min.Y-opts.titleHeight(), rect.Max.X, rect.Min.Y)
		titles.Draw(out.SubImage(strip).(*image.RGBA), panels[i].Title)
	}
	return out, nil
}
