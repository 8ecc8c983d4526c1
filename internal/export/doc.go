// Package export writes still figures next to the composite video: a compact
// spectrogram of one source and a titled grid comparing several sources over
// the same time range. Both reuse the transform engine and the plotter that
// build the video frames, so a still and a frame of the same audio match.
package export
