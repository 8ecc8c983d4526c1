package spectral

// Matrix is a decibel spectrogram stored row-major by frequency bin: the value
// for bin b at frame f is Data[b*Frames+f]. Row 0 is DC.
type Matrix struct {
	Bins   int
	Frames int
	Data   []float64
	// Peak is the linear magnitude used as the 0 dB reference.
	Peak float64
	// FloorDB is the lowest value any cell can hold (negative top_db).
	FloorDB float64

	SampleRate int
	FFTSize    int
	HopLength  int
}

// At returns the decibel value of one cell.
func (m *Matrix) At(bin, frame int) float64 {
	return m.Data[bin*m.Frames+frame]
}

// Max returns the largest cell value.
func (m *Matrix) Max() float64 {
	if len(m.Data) == 0 {
		return m.FloorDB
	}
	hi := m.Data[0]
	for _, v := range m.Data[1:] {
		if v > hi {
			hi = v
		}
	}
	return hi
}

// BinFrequency returns the center frequency of bin in Hz.
func (m *Matrix) BinFrequency(bin int) float64 {
	if m.FFTSize == 0 {
		return 0
	}
	return float64(bin) * float64(m.SampleRate) / float64(m.FFTSize)
}

// FrameTime returns the center time of frame in seconds.
func (m *Matrix) FrameTime(frame int) float64 {
	if m.SampleRate == 0 {
		return 0
	}
	return float64(frame*m.HopLength) / float64(m.SampleRate)
}

// Nyquist returns half the sample rate.
func (m *Matrix) Nyquist() float64 {
	return float64(m.SampleRate) / 2
}
