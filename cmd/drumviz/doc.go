// Package main hosts the drumviz CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, builds the run logger,
// and hands work to the internal packages: render drives the video
// pipeline, spectrogram, grid, and pianoroll write still figures, history
// reads the run store, and check reports preflight results.
package main
