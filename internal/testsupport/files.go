package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"drumviz/internal/audio"
)

// Tone returns a sine of the given frequency and duration at amplitude 0.5.
func Tone(freq, seconds float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// WriteToneWAV writes a 16-bit mono tone fixture to path.
func WriteToneWAV(t testing.TB, path string, freq, seconds float64, sampleRate int) {
	t.Helper()
	WriteWAV(t, path, Tone(freq, seconds, sampleRate), sampleRate)
}

// WriteWAV writes samples as a 16-bit mono WAV fixture.
func WriteWAV(t testing.TB, path string, samples []float64, sampleRate int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := audio.WriteWAV(path, samples, sampleRate); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}
