package raster

import (
	"fmt"
	"image"
	"math"

	"drumviz/internal/spectral"
)

// PlotParams describes the raster a Plotter should aim for.
type PlotParams struct {
	Width          int
	Height         int
	Colormap       string
	FrequencyScale string
}

// Plotter rasterizes a spectrogram. The result may be close to, but not
// exactly, the requested size; Renderer fixes the dimensions.
type Plotter interface {
	Plot(m *spectral.Matrix, params PlotParams) (*image.RGBA, error)
}

// SpectrogramPlotter draws one pixel column per STFT frame and params.Height
// rows, high frequencies at the top.
type SpectrogramPlotter struct{}

func (SpectrogramPlotter) Plot(m *spectral.Matrix, params PlotParams) (*image.RGBA, error) {
	if m == nil || m.Frames <= 0 || m.Bins <= 0 || len(m.Data) != m.Frames*m.Bins {
		return nil, fmt.Errorf("plot: malformed matrix")
	}
	if params.Height <= 0 {
		return nil, fmt.Errorf("plot: invalid height %d", params.Height)
	}
	cm, err := ColormapByName(params.Colormap)
	if err != nil {
		return nil, fmt.Errorf("plot: %w", err)
	}
	scale := params.FrequencyScale
	if scale != ScaleLinear {
		scale = ScaleLog
	}

	rowBins := make([]int, params.Height)
	binWidth := m.BinFrequency(1)
	for y := range rowBins {
		freq := rowFrequency(y, params.Height, m.Nyquist(), scale)
		bin := 0
		if binWidth > 0 {
			bin = int(math.Round(freq / binWidth))
		}
		rowBins[y] = min(max(bin, 0), m.Bins-1)
	}

	span := -m.FloorDB
	if span <= 0 {
		span = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, m.Frames, params.Height))
	for y, bin := range rowBins {
		row := m.Data[bin*m.Frames : (bin+1)*m.Frames]
		for x, db := range row {
			c := cm.At((db - m.FloorDB) / span)
			off := img.PixOffset(x, y)
			img.Pix[off] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = 255
		}
	}
	return img, nil
}
