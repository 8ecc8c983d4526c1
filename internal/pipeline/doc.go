// Package pipeline runs a complete render: preflight, stitch, transform,
// rasterize, highlight, caption, compose, and encode.
//
// Run takes an exclusive lock on the output, stamps a run ID into the
// logging context, and records the run with its load diagnostics in the
// history store. Collaborators (decoder, plotter, encoder, verifier,
// history) are injectable through Options for tests.
package pipeline
