package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decoder converts any source ffmpeg can read into mono float samples.
type Decoder struct {
	settings
}

// NewDecoder constructs a Decoder using defaults.
func NewDecoder(opts ...Option) *Decoder {
	return &Decoder{settings: newSettings(opts)}
}

// DecodeArgs builds the ffmpeg argument list for decoding source to
// little-endian float32 mono PCM on stdout.
func DecodeArgs(source string, sampleRate int) []string {
	return []string{
		"-hide_banner", "-nostdin", "-v", "error",
		"-i", source,
		"-vn", "-ac", "1", "-ar", strconv.Itoa(sampleRate),
		"-f", "f32le", "-acodec", "pcm_f32le",
		"pipe:1",
	}
}

// Decode runs ffmpeg against source and returns the resampled mono waveform.
func (d *Decoder) Decode(ctx context.Context, source string, sampleRate int) ([]float64, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("ffmpeg decode: empty source")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("ffmpeg decode: invalid sample rate %d", sampleRate)
	}

	var stdout, stderr bytes.Buffer
	cmd := commandContext(ctx, d.binary, DecodeArgs(source, sampleRate)...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("ffmpeg decode %s: %w: %s", source, err, tail(stderr.Bytes(), 3))
	}

	samples, err := parseFloat32LE(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", source, err)
	}
	d.logger.Debug("decoded audio source",
		"source", source,
		"sample_rate", sampleRate,
		"samples", len(samples),
	)
	return samples, nil
}

func parseFloat32LE(raw []byte) ([]float64, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("truncated f32le stream (%d bytes)", len(raw))
	}
	samples := make([]float64, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = float64(math.Float32frombits(bits))
	}
	return samples, nil
}
