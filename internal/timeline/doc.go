// Package timeline turns highlighted section rasters into labeled clips,
// concatenates them into a contiguous timeline, overlays the playhead, and
// drives an Encoder to publish the final video.
//
// Flow:
//   - NewLabeler loads the caption face; NewClip burns a label into a raster.
//   - Concat validates bounds and assigns cumulative start times.
//   - Compose pairs the timeline with the stitched waveform and a cursor
//     animator, producing a Composition that satisfies FrameSource.
//   - Publisher.Render writes scratch audio, encodes to a temporary sibling,
//     optionally verifies the result, and commits it atomically.
package timeline
