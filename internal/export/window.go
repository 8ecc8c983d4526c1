package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"drumviz/internal/audio"
	"drumviz/internal/fileutil"
	"drumviz/internal/services"
)

// window returns n samples starting at start, zero padded past the end.
func window(samples []float64, start, n int) []float64 {
	out := make([]float64, n)
	if start < 0 {
		start = 0
	}
	if start < len(samples) {
		copy(out, samples[start:])
	}
	return out
}

// centered returns the middle n samples, or the whole input padded to n.
func centered(samples []float64, n int) []float64 {
	start := 0
	if len(samples) > n {
		start = (len(samples) - n) / 2
	}
	return window(samples, start, n)
}

func decode(ctx context.Context, decoder audio.Decoder, source string, sampleRate int) ([]float64, error) {
	if decoder == nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "decode", "decoder required", nil)
	}
	samples, err := decoder.Decode(ctx, source, sampleRate)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrLoad, "export", "decode", source, err)
	}
	return samples, nil
}

// WritePNG encodes img and replaces path atomically.
func WritePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return services.Wrap(services.ErrEncode, "export", "png", path, err)
	}
	if err := fileutil.WriteAtomic(path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrEncode, "export", "write", path, err)
	}
	return nil
}

func seconds(n int, sampleRate int) string {
	return fmt.Sprintf("%.2fs", float64(n)/float64(sampleRate))
}
