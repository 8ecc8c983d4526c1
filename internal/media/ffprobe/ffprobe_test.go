package ffprobe

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
	"testing"
)

const sampleReport = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080, "pix_fmt": "yuv420p", "r_frame_rate": "30/1"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "16000", "channels": 1}
  ],
  "format": {"filename": "out.mp4", "nb_streams": 2, "duration": "10.021000", "size": "2048000", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if os.Getenv("FFPROBE_HELPER_FAIL") == "1" {
		fmt.Fprint(os.Stderr, "out.mp4: Invalid data found when processing input")
		os.Exit(1)
	}
	fmt.Fprint(os.Stdout, sampleReport)
	os.Exit(0)
}

func stubCommand(t *testing.T, fail bool) *[]string {
	t.Helper()
	var captured []string
	orig := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string{name}, args...)
		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		env := append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		if fail {
			env = append(env, "FFPROBE_HELPER_FAIL=1")
		}
		cmd.Env = env
		return cmd
	}
	t.Cleanup(func() { commandContext = orig })
	return &captured
}

func TestInspectParsesReport(t *testing.T) {
	captured := stubCommand(t, false)
	result, err := Inspect(context.Background(), "", "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if got := strings.Join(*captured, " "); !strings.HasPrefix(got, "ffprobe ") || !strings.HasSuffix(got, "-- /tmp/out.mp4") {
		t.Fatalf("unexpected command %q", got)
	}
	video, ok := result.VideoStream()
	if !ok || video.Width != 1920 || video.Height != 1080 {
		t.Fatalf("unexpected video stream %+v", video)
	}
	if video.FramesPerSecond() != 30 {
		t.Fatalf("unexpected fps %v", video.FramesPerSecond())
	}
	if result.SizeBytes() != 2048000 {
		t.Fatalf("unexpected size %d", result.SizeBytes())
	}
	if err := Verify(result, Expectation{Width: 1920, Height: 1080, FPS: 30, Duration: 10}); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestInspectSurfacesStderr(t *testing.T) {
	stubCommand(t, true)
	_, err := Inspect(context.Background(), "ffprobe", "/tmp/out.mp4")
	if err == nil || !strings.Contains(err.Error(), "Invalid data") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestVerifyMismatches(t *testing.T) {
	base := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1920, Height: 1080, FrameRate: "30/1"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "10.0"},
	}
	want := Expectation{Width: 1920, Height: 1080, FPS: 30, Duration: 10}

	cases := []struct {
		name   string
		mutate func(*Result)
		substr string
	}{
		{"resolution", func(r *Result) { r.Streams[0].Width = 1280 }, "resolution"},
		{"fps", func(r *Result) { r.Streams[0].FrameRate = "25/1" }, "frame rate"},
		{"duration", func(r *Result) { r.Format.Duration = "7.5" }, "duration"},
		{"no audio", func(r *Result) { r.Streams = r.Streams[:1] }, "audio"},
		{"no video", func(r *Result) { r.Streams = r.Streams[1:] }, "video"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := base
			r.Streams = append([]Stream(nil), base.Streams...)
			tc.mutate(&r)
			err := Verify(r, want)
			if err == nil || !strings.Contains(err.Error(), tc.substr) {
				t.Fatalf("expected %q mismatch, got %v", tc.substr, err)
			}
		})
	}
	if err := Verify(base, want); err != nil {
		t.Fatalf("expected base to verify: %v", err)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if (Stream{FrameRate: "30000/1001"}).FramesPerSecond() < 29.9 {
		t.Fatal("expected NTSC rate to parse")
	}
	if (Stream{FrameRate: "0/0"}).FramesPerSecond() != 0 {
		t.Fatal("expected zero for undefined rate")
	}
}
