// Package pianoroll draws the notes of a Standard MIDI File as a scrolling
// strip: time runs left to right at a fixed pixel rate and each pitch is one
// row, so the image can be panned in sync with playback of the same take.
package pianoroll
