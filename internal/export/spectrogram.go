package export

import (
	"context"
	"fmt"
	"image"

	"drumviz/internal/audio"
	"drumviz/internal/config"
	"drumviz/internal/raster"
	"drumviz/internal/services"
	"drumviz/internal/spectral"
)

// SpectrogramOptions sizes a single-source still.
type SpectrogramOptions struct {
	SampleRate     int
	Duration       float64
	Width          int
	Height         int
	Colormap       string
	FrequencyScale string
	Spectral       config.Spectral
}

// DefaultSpectrogramOptions returns the 480x360 web figure settings.
func DefaultSpectrogramOptions(sampleRate int) SpectrogramOptions {
	return SpectrogramOptions{
		SampleRate:     sampleRate,
		Duration:       2.5,
		Width:          480,
		Height:         360,
		Colormap:       "magma",
		FrequencyScale: "log",
		Spectral:       config.Spectral{FFTSize: 2048, HopLength: 512, TopDB: 80},
	}
}

// Spectrogram renders the middle opts.Duration seconds of source, referenced
// to the excerpt's own peak. Shorter sources are padded with silence.
func Spectrogram(ctx context.Context, decoder audio.Decoder, source string, opts SpectrogramOptions) (*image.RGBA, error) {
	if opts.Duration <= 0 || opts.SampleRate <= 0 {
		return nil, services.Wrap(services.ErrValidation, "export", "spectrogram",
			fmt.Sprintf("duration %.3fs at %d Hz", opts.Duration, opts.SampleRate), nil)
	}
	n := int(opts.Duration * float64(opts.SampleRate))
	if n <= 0 {
		return nil, services.Wrap(services.ErrValidation, "export", "spectrogram",
			fmt.Sprintf("%.3fs holds no samples", opts.Duration), nil)
	}
	engine, err := spectral.NewEngine(opts.Spectral, opts.SampleRate)
	if err != nil {
		return nil, err
	}
	renderer, err := raster.NewRenderer(nil, config.Video{
		Width:          opts.Width,
		Height:         opts.Height,
		Colormap:       opts.Colormap,
		FrequencyScale: opts.FrequencyScale,
	})
	if err != nil {
		return nil, err
	}
	samples, err := decode(ctx, decoder, source, opts.SampleRate)
	if err != nil {
		return nil, err
	}
	m, err := engine.Transform(centered(samples, n))
	if err != nil {
		return nil, err
	}
	return renderer.Render(m)
}
