package timeline

import (
	"context"
	"fmt"
	"image"

	"drumviz/internal/config"
)

// FrameSource produces the frames handed to an Encoder, in order.
type FrameSource interface {
	FrameCount() int
	// RenderFrame draws frame n into dst, which has the job's exact bounds.
	RenderFrame(n int, dst *image.RGBA) error
}

// EncodeParams carries the codec settings forwarded to the encoder.
type EncodeParams struct {
	VideoCodec  string
	AudioCodec  string
	Bitrate     string
	Preset      string
	PixelFormat string
	Threads     int
}

// ParamsFromConfig copies encoder settings from the video config section.
func ParamsFromConfig(v config.Video) EncodeParams {
	return EncodeParams{
		VideoCodec:  v.VideoCodec,
		AudioCodec:  v.AudioCodec,
		Bitrate:     v.Bitrate,
		Preset:      v.Preset,
		PixelFormat: v.PixelFormat,
		Threads:     v.Threads,
	}
}

// EncodeJob is a single mux of a frame sequence with one audio track.
type EncodeJob struct {
	Output    string
	Width     int
	Height    int
	FPS       int
	Frames    FrameSource
	AudioPath string
	Params    EncodeParams
	// Progress, when set, is called after each frame is handed off.
	Progress func(done, total int)
}

// Describe summarizes the job parameters for error messages and logs.
func (j EncodeJob) Describe() string {
	return fmt.Sprintf("%dx%d @%dfps video=%s audio=%s bitrate=%s pix_fmt=%s",
		j.Width, j.Height, j.FPS, j.Params.VideoCodec, j.Params.AudioCodec, j.Params.Bitrate, j.Params.PixelFormat)
}

// Encoder muxes frames and audio into a playable container.
type Encoder interface {
	Encode(ctx context.Context, job EncodeJob) error
}
