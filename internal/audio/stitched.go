package audio

import "fmt"

// SegmentSlice is the exact-length window a segment contributes.
type SegmentSlice struct {
	Segment
	Samples []float64
	// Substituted is set when the source failed to load and Samples is silence.
	Substituted bool
	// Padded counts trailing silence samples added because the source was short.
	Padded int
}

// Diagnostic records a recovered load failure.
type Diagnostic struct {
	Segment int
	Source  string
	Err     error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("segment %d (%s): %v", d.Segment, d.Source, d.Err)
}

// Stitched is the concatenation of every segment slice in playlist order.
type Stitched struct {
	Waveform    []float64
	Slices      []SegmentSlice
	Diagnostics []Diagnostic
	SampleRate  int
}

// Duration returns the waveform length in seconds.
func (s *Stitched) Duration() float64 {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Waveform)) / float64(s.SampleRate)
}

// SubstitutedCount reports how many segments were replaced by silence.
func (s *Stitched) SubstitutedCount() int {
	n := 0
	for _, slice := range s.Slices {
		if slice.Substituted {
			n++
		}
	}
	return n
}
