package raster_test

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drumviz/internal/config"
	"drumviz/internal/raster"
	"drumviz/internal/services"
	"drumviz/internal/spectral"
)

func TestSectionsPartitionWidth(t *testing.T) {
	cases := []struct{ width, n int }{
		{1920, 4}, {1921, 4}, {1000, 3}, {7, 7}, {1080, 1}, {1919, 6},
	}
	for _, tc := range cases {
		sections, err := raster.Sections(tc.width, tc.n)
		require.NoError(t, err)
		require.Len(t, sections, tc.n)
		assert.Equal(t, 0, sections[0].Start)
		assert.Equal(t, tc.width, sections[tc.n-1].End)
		for i := 1; i < tc.n; i++ {
			assert.Equal(t, sections[i-1].End, sections[i].Start, "gap between %d and %d", i-1, i)
			assert.Equal(t, i*tc.width/tc.n, sections[i].Start)
		}
		for _, s := range sections {
			assert.Positive(t, s.Width())
		}
	}
}

func TestSectionsDefaultLayout(t *testing.T) {
	sections, err := raster.Sections(1920, 4)
	require.NoError(t, err)
	assert.Equal(t, []raster.Section{
		{Index: 0, Start: 0, End: 480},
		{Index: 1, Start: 480, End: 960},
		{Index: 2, Start: 960, End: 1440},
		{Index: 3, Start: 1440, End: 1920},
	}, sections)
}

func TestSectionsRejectsDegenerateInput(t *testing.T) {
	_, err := raster.Sections(100, 0)
	require.ErrorIs(t, err, services.ErrRender)
	_, err = raster.Sections(3, 4)
	require.ErrorIs(t, err, services.ErrRender)
}

func checkerboard(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8((x + y) * 3), A: 255})
		}
	}
	return img
}

func TestHighlightDimsOutsideActiveSection(t *testing.T) {
	base := checkerboard(40, 6)
	orig := append([]uint8(nil), base.Pix...)

	out, err := raster.Highlight(base, 1, 4, 0.35)
	require.NoError(t, err)
	assert.Equal(t, orig, base.Pix, "base must not be modified")
	assert.Equal(t, base.Bounds(), out.Bounds())

	for y := 0; y < 6; y++ {
		for x := 0; x < 40; x++ {
			src := base.RGBAAt(x, y)
			got := out.RGBAAt(x, y)
			if x >= 10 && x < 20 {
				assert.Equal(t, src, got, "active pixel (%d,%d)", x, y)
				continue
			}
			want := color.RGBA{
				R: uint8(float64(src.R) * 0.35),
				G: uint8(float64(src.G) * 0.35),
				B: uint8(float64(src.B) * 0.35),
				A: src.A,
			}
			assert.Equal(t, want, got, "dimmed pixel (%d,%d)", x, y)
		}
	}
}

func TestHighlightRejectsBadArguments(t *testing.T) {
	base := checkerboard(8, 2)
	_, err := raster.Highlight(base, 4, 4, 0.35)
	require.ErrorIs(t, err, services.ErrRender)
	_, err = raster.Highlight(base, -1, 4, 0.35)
	require.ErrorIs(t, err, services.ErrRender)
	_, err = raster.Highlight(base, 0, 4, 1)
	require.ErrorIs(t, err, services.ErrRender)
	_, err = raster.Highlight(nil, 0, 4, 0.5)
	require.ErrorIs(t, err, services.ErrRender)
}

func TestHighlightAllProducesOneStatePerSegment(t *testing.T) {
	base := checkerboard(20, 2)
	states, err := raster.HighlightAll(base, 4, 0.5)
	require.NoError(t, err)
	require.Len(t, states, 4)
	for k, st := range states {
		assert.Equal(t, k, st.Index)
		assert.Equal(t, base.RGBAAt(st.Start, 1), st.Image.RGBAAt(st.Start, 1))
		if st.Start > 0 {
			assert.NotEqual(t, base.RGBAAt(st.Start-1, 1), st.Image.RGBAAt(st.Start-1, 1))
		}
	}
}

func TestColormapEndpoints(t *testing.T) {
	cm, err := raster.ColormapByName("magma")
	require.NoError(t, err)
	low := cm.At(0)
	high := cm.At(1)
	assert.Equal(t, cm.At(-3), low)
	assert.Equal(t, cm.At(7), high)
	assert.Equal(t, low, cm.At(math.NaN()))
	assert.Greater(t, int(high.R)+int(high.G)+int(high.B), int(low.R)+int(low.G)+int(low.B))

	_, err = raster.ColormapByName("jet")
	require.Error(t, err)
}

// toneMatrix is silent except for a five-bin band centered on hotBin.
func toneMatrix(frames, bins, hotBin int) *spectral.Matrix {
	m := &spectral.Matrix{
		Bins: bins, Frames: frames, Data: make([]float64, bins*frames),
		FloorDB: -80, SampleRate: 16000, FFTSize: (bins - 1) * 2, HopLength: 256,
	}
	for i := range m.Data {
		m.Data[i] = -80
	}
	for bin := hotBin - 2; bin <= hotBin+2; bin++ {
		for f := 0; f < frames; f++ {
			m.Data[bin*frames+f] = 0
		}
	}
	return m
}

func TestSpectrogramPlotterDrawsHighFrequenciesAtTop(t *testing.T) {
	m := toneMatrix(10, 513, 400)
	img, err := raster.SpectrogramPlotter{}.Plot(m, raster.PlotParams{Height: 200, Colormap: "gray", FrequencyScale: raster.ScaleLinear})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 200), img.Bounds())

	brightest := brightestRow(img, 0)
	// 400/512 of Nyquist sits 22% from the top on a linear axis.
	assert.InDelta(t, 200*(1-400.0/512), brightest, 3)
}

func TestSpectrogramPlotterLogAxisExpandsLowFrequencies(t *testing.T) {
	m := toneMatrix(4, 513, 16) // 250 Hz
	lin, err := raster.SpectrogramPlotter{}.Plot(m, raster.PlotParams{Height: 400, Colormap: "gray", FrequencyScale: raster.ScaleLinear})
	require.NoError(t, err)
	logImg, err := raster.SpectrogramPlotter{}.Plot(m, raster.PlotParams{Height: 400, Colormap: "gray", FrequencyScale: raster.ScaleLog})
	require.NoError(t, err)
	assert.Less(t, brightestRow(logImg, 0), brightestRow(lin, 0))
}

func TestSpectrogramPlotterRejectsMalformedMatrix(t *testing.T) {
	_, err := raster.SpectrogramPlotter{}.Plot(&spectral.Matrix{Bins: 3, Frames: 2, Data: []float64{1}}, raster.PlotParams{Height: 10, Colormap: "magma"})
	require.Error(t, err)
}

type stubPlotter struct {
	width, height int
	row           int
	err           error
}

func (s stubPlotter) Plot(*spectral.Matrix, raster.PlotParams) (*image.RGBA, error) {
	if s.err != nil {
		return nil, s.err
	}
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	for x := 0; x < s.width; x++ {
		img.SetRGBA(x, s.row, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return img, nil
}

func brightestRow(img *image.RGBA, x int) int {
	best, bestY := -1, -1
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		c := img.RGBAAt(x, y)
		if v := int(c.R) + int(c.G) + int(c.B); v > best {
			best, bestY = v, y
		}
	}
	return bestY
}

func TestRendererFitsToExactResolution(t *testing.T) {
	video := config.Default().Video
	video.Width, video.Height = 320, 180

	cases := []struct {
		name          string
		width, height int
		row           int
	}{
		{"upscale", 100, 90, 30},
		{"downscale", 640, 360, 200},
		{"odd size", 333, 181, 90},
		{"exact", 320, 180, 77},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := raster.NewRenderer(stubPlotter{width: tc.width, height: tc.height, row: tc.row}, video)
			require.NoError(t, err)
			img, err := r.Render(&spectral.Matrix{})
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 320, 180), img.Bounds())

			want := (float64(tc.row)+0.5)*180/float64(tc.height) - 0.5
			got := brightestRow(img, 160)
			assert.LessOrEqual(t, math.Abs(float64(got)-want), 1.0, "row %d, want %.2f", got, want)
		})
	}
}

func TestRendererWrapsPlotFailures(t *testing.T) {
	video := config.Default().Video
	r, err := raster.NewRenderer(stubPlotter{err: errors.New("boom")}, video)
	require.NoError(t, err)
	_, err = r.Render(&spectral.Matrix{})
	require.ErrorIs(t, err, services.ErrRender)
	assert.Contains(t, err.Error(), "boom")
}

func TestRendererEndToEndWithEngine(t *testing.T) {
	engine, err := spectral.NewEngine(config.Spectral{FFTSize: 1024, HopLength: 256, TopDB: 80}, 16000)
	require.NoError(t, err)
	samples := make([]float64, 16000)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*1000*float64(i)/16000)
	}
	m, err := engine.Transform(samples)
	require.NoError(t, err)

	video := config.Default().Video
	video.Width, video.Height = 192, 108
	r, err := raster.NewRenderer(nil, video)
	require.NoError(t, err)
	img, err := r.Render(m)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 192, 108), img.Bounds())
	assert.NotEqual(t, img.RGBAAt(96, 0), img.RGBAAt(96, brightestRow(img, 96)))
}
