// Package audio loads the playlist segments and stitches them into one
// continuous waveform at a fixed sample rate.
//
// Segment i always contributes exactly clip_duration x sample_rate samples
// taken from the window [i*clip, (i+1)*clip) of its own source. Short sources
// are padded with silence; unreadable sources become full silence plus a
// Diagnostic. Only cancellation aborts a stitch.
//
// The package also owns WAV I/O: WAVDecoder reads PCM WAV sources without
// ffmpeg and WriteWAV produces the 16-bit mono track handed to the encoder.
package audio
