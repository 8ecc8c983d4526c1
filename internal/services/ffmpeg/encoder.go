package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"drumviz/internal/services"
	"drumviz/internal/timeline"
)

// Encoder pipes rgb24 frames into ffmpeg and muxes them with a WAV track.
type Encoder struct {
	settings
}

// NewEncoder constructs an Encoder using defaults.
func NewEncoder(opts ...Option) *Encoder {
	return &Encoder{settings: newSettings(opts)}
}

// EncodeArgs builds the ffmpeg argument list for job. Frames arrive on stdin.
func EncodeArgs(job timeline.EncodeJob) []string {
	p := job.Params
	args := []string{
		"-y", "-hide_banner", "-v", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgb24",
		"-video_size", fmt.Sprintf("%dx%d", job.Width, job.Height),
		"-framerate", strconv.Itoa(job.FPS),
		"-i", "pipe:0",
		"-i", job.AudioPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", p.VideoCodec,
	}
	if p.Preset != "" {
		args = append(args, "-preset", p.Preset)
	}
	args = append(args, "-b:v", p.Bitrate)
	if p.PixelFormat != "" {
		args = append(args, "-pix_fmt", p.PixelFormat)
	}
	if p.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(p.Threads))
	}
	args = append(args, "-c:a", p.AudioCodec, "-movflags", "+faststart", job.Output)
	return args
}

func validateJob(job timeline.EncodeJob) error {
	switch {
	case strings.TrimSpace(job.Output) == "":
		return errors.New("output path required")
	case strings.TrimSpace(job.AudioPath) == "":
		return errors.New("audio path required")
	case job.Frames == nil:
		return errors.New("frame source required")
	case job.Width <= 0 || job.Height <= 0 || job.FPS <= 0:
		return fmt.Errorf("invalid geometry %dx%d @%dfps", job.Width, job.Height, job.FPS)
	case job.Params.VideoCodec == "" || job.Params.AudioCodec == "" || job.Params.Bitrate == "":
		return errors.New("video codec, audio codec, and bitrate required")
	}
	return nil
}

// Encode streams every frame of job.Frames to ffmpeg and waits for the mux to
// finish. A failure at any point carries the full parameter context.
func (e *Encoder) Encode(ctx context.Context, job timeline.EncodeJob) error {
	if err := validateJob(job); err != nil {
		return services.Wrap(services.ErrEncode, "encode", "validate job", job.Describe(), err)
	}

	var stderr bytes.Buffer
	cmd := commandContext(ctx, e.binary, EncodeArgs(job)...) //nolint:gosec
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return services.Wrap(services.ErrEncode, "encode", "stdin pipe", job.Describe(), err)
	}
	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("encode %s: %w", job.Describe(), ctxErr)
		}
		return services.Wrap(services.ErrExternalTool, "encode", "start ffmpeg", job.Describe(), err)
	}

	writeErr := e.writeFrames(ctx, stdin, job)
	closeErr := stdin.Close()
	waitErr := cmd.Wait()

	// A canceled encode carries no failure marker so it is reported as canceled.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("encode %s: %w", job.Describe(), ctxErr)
	}
	if waitErr != nil {
		detail := job.Describe()
		if msg := tail(stderr.Bytes(), 5); msg != "" {
			detail += ": " + msg
		}
		return services.Wrap(services.ErrEncode, "encode", "ffmpeg", detail, errors.Join(waitErr, services.ErrExternalTool))
	}
	if writeErr != nil {
		return services.Wrap(services.ErrEncode, "encode", "write frames", job.Describe(), writeErr)
	}
	if closeErr != nil {
		return services.Wrap(services.ErrEncode, "encode", "close stdin", job.Describe(), closeErr)
	}
	return nil
}

func (e *Encoder) writeFrames(ctx context.Context, w io.Writer, job timeline.EncodeJob) error {
	total := job.Frames.FrameCount()
	frame := image.NewRGBA(image.Rect(0, 0, job.Width, job.Height))
	row := make([]byte, job.Width*3)
	out := bufio.NewWriterSize(w, len(row)*64)

	for n := 0; n < total; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := job.Frames.RenderFrame(n, frame); err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if err := writeRGB24(out, frame, row); err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if job.Progress != nil {
			job.Progress(n+1, total)
		}
	}
	if err := out.Flush(); err != nil {
		return err
	}
	e.logger.Debug("frames written", "frames", total, "output", job.Output)
	return nil
}

// writeRGB24 drops the alpha channel of every pixel in frame.
func writeRGB24(w *bufio.Writer, frame *image.RGBA, row []byte) error {
	b := frame.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := frame.Pix[frame.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			row[x*3] = src[x*4]
			row[x*3+1] = src[x*4+1]
			row[x*3+2] = src[x*4+2]
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

var _ timeline.Encoder = (*Encoder)(nil)
