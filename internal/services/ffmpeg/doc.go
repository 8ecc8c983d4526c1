// Package ffmpeg wraps the ffmpeg binary for the two jobs drumviz delegates to
// it: decoding arbitrary audio sources to mono float samples at a target rate,
// and encoding a raw RGB frame stream plus a WAV track into a video file.
//
// Both talk to ffmpeg over pipes; nothing is staged on disk besides the audio
// track the caller provides.
package ffmpeg
