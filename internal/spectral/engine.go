package spectral

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"drumviz/internal/config"
	"drumviz/internal/services"
)

// Amin is the magnitude below which values are treated as silence.
const Amin = 1e-5

// Engine holds the transform configuration. It is safe for concurrent use.
type Engine struct {
	fftSize    int
	hopLength  int
	topDB      float64
	sampleRate int
	window     []float64
}

// NewEngine validates the spectral parameters and precomputes the window.
func NewEngine(cfg config.Spectral, sampleRate int) (*Engine, error) {
	switch {
	case cfg.FFTSize <= 0 || cfg.HopLength <= 0:
		return nil, services.Wrap(services.ErrRender, "transform", "init",
			fmt.Sprintf("n_fft=%d hop_length=%d must be positive", cfg.FFTSize, cfg.HopLength), nil)
	case cfg.TopDB <= 0 || math.IsNaN(cfg.TopDB):
		return nil, services.Wrap(services.ErrRender, "transform", "init", fmt.Sprintf("top_db=%v must be positive", cfg.TopDB), nil)
	case sampleRate <= 0:
		return nil, services.Wrap(services.ErrRender, "transform", "init", fmt.Sprintf("sample rate %d must be positive", sampleRate), nil)
	}
	return &Engine{
		fftSize:    cfg.FFTSize,
		hopLength:  cfg.HopLength,
		topDB:      cfg.TopDB,
		sampleRate: sampleRate,
		window:     periodicHann(cfg.FFTSize),
	}, nil
}

// periodicHann returns the DFT-even Hann window of length n. gonum's Hann is
// symmetric over its input, so it is evaluated on n+1 points and truncated.
func periodicHann(n int) []float64 {
	w := make([]float64, n+1)
	for i := range w {
		w[i] = 1
	}
	return window.Hann(w)[:n]
}

// Transform computes the spectrogram referenced to its own peak magnitude.
func (e *Engine) Transform(samples []float64) (*Matrix, error) {
	return e.transform(samples, -1)
}

// TransformRef computes the spectrogram referenced to a caller-provided peak
// magnitude, so several inputs can share one 0 dB anchor.
func (e *Engine) TransformRef(samples []float64, ref float64) (*Matrix, error) {
	if math.IsNaN(ref) || math.IsInf(ref, 0) || ref < 0 {
		return nil, services.Wrap(services.ErrRender, "transform", "reference", fmt.Sprintf("invalid reference %v", ref), nil)
	}
	return e.transform(samples, ref)
}

// Peak returns the maximum STFT magnitude of samples.
func (e *Engine) Peak(samples []float64) (float64, error) {
	mags, _, err := e.magnitudes(samples)
	if err != nil {
		return 0, err
	}
	return maxOf(mags), nil
}

func (e *Engine) transform(samples []float64, ref float64) (*Matrix, error) {
	mags, frames, err := e.magnitudes(samples)
	if err != nil {
		return nil, err
	}
	bins := e.fftSize/2 + 1
	peak := maxOf(mags)
	if ref < 0 {
		ref = peak
	}

	m := &Matrix{
		Bins:       bins,
		Frames:     frames,
		Data:       mags,
		Peak:       ref,
		FloorDB:    -e.topDB,
		SampleRate: e.sampleRate,
		FFTSize:    e.fftSize,
		HopLength:  e.hopLength,
	}
	if ref < Amin {
		// Degenerate reference: nothing rises above silence.
		for i := range m.Data {
			m.Data[i] = m.FloorDB
		}
		return m, nil
	}
	refDB := 20 * math.Log10(ref)
	for i, mag := range m.Data {
		db := 20*math.Log10(math.Max(Amin, mag)) - refDB
		if db < m.FloorDB {
			db = m.FloorDB
		}
		m.Data[i] = db
	}
	return m, nil
}

// magnitudes returns |STFT| row-major by bin along with the frame count.
// Frames are centered: the signal is zero padded by n_fft/2 on both sides.
func (e *Engine) magnitudes(samples []float64) ([]float64, int, error) {
	if len(samples) == 0 {
		return nil, 0, services.Wrap(services.ErrRender, "transform", "stft", "empty waveform", nil)
	}
	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, 0, services.Wrap(services.ErrRender, "transform", "stft", fmt.Sprintf("non-finite sample %v at %d", s, i), nil)
		}
	}

	n := e.fftSize
	pad := n / 2
	frames := 1 + len(samples)/e.hopLength
	bins := n/2 + 1

	fft := fourier.NewFFT(n)
	buf := make([]float64, n)
	coeffs := make([]complex128, bins)
	out := make([]float64, bins*frames)

	for f := 0; f < frames; f++ {
		start := f*e.hopLength - pad
		for k := 0; k < n; k++ {
			idx := start + k
			if idx < 0 || idx >= len(samples) {
				buf[k] = 0
				continue
			}
			buf[k] = samples[idx] * e.window[k]
		}
		coeffs = fft.Coefficients(coeffs, buf)
		for b, c := range coeffs {
			out[b*frames+f] = cmplx.Abs(c)
		}
	}
	return out, frames, nil
}

func maxOf(values []float64) float64 {
	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	return peak
}
