// Package ffprobe inspects rendered containers with ffprobe and checks them
// against the expected resolution and duration.
//
// Inspect runs ffprobe and decodes its JSON report into Result. Verify
// compares a Result with an Expectation and reports the first mismatch.
package ffprobe
