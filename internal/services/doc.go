// Package services defines shared utilities consumed by the pipeline stages and
// the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and segment ordinals for
//     logging.
//   - Structured error markers plus the Wrap helper, and Classify which turns a
//     failure into the short kind recorded in run history.
//
// Subpackages wrap external binaries (ffmpeg) behind small testable types.
package services
