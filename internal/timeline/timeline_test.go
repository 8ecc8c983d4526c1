package timeline_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drumviz/internal/config"
	"drumviz/internal/cursor"
	"drumviz/internal/raster"
	"drumviz/internal/services"
	"drumviz/internal/timeline"
)

const (
	testWidth  = 64
	testHeight = 36
	testFPS    = 30
	testRate   = 1600
)

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, testWidth, testHeight))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

var palette = []color.RGBA{
	{R: 200, A: 255},
	{G: 200, A: 255},
	{B: 200, A: 255},
	{R: 200, G: 200, A: 255},
}

func buildTimeline(t *testing.T, n int, clipDur float64) *timeline.Timeline {
	t.Helper()
	clips := make([]timeline.Clip, n)
	for i := range clips {
		clip, err := timeline.NewClip(raster.SectionState{Section: raster.Section{Index: i}, Image: solid(palette[i%len(palette)])}, "", clipDur, nil)
		require.NoError(t, err)
		clips[i] = clip
	}
	tl, err := timeline.Concat(clips)
	require.NoError(t, err)
	return tl
}

func buildComposition(t *testing.T) *timeline.Composition {
	t.Helper()
	tl := buildTimeline(t, 4, 2.5)
	animator, err := cursor.New(testWidth, 2.5, config.Cursor{Color: "#ffffff", Width: 2, Alpha: 255})
	require.NoError(t, err)
	comp, err := timeline.Compose(tl, make([]float64, 4*int(2.5*testRate)), testRate, testFPS, animator)
	require.NoError(t, err)
	return comp
}

func TestConcatAssignsCumulativeStarts(t *testing.T) {
	tl := buildTimeline(t, 4, 2.5)
	require.Len(t, tl.Clips, 4)
	for i, clip := range tl.Clips {
		assert.InDelta(t, float64(i)*2.5, clip.Start, 1e-9)
		if i > 0 {
			assert.Equal(t, tl.Clips[i-1].End(), clip.Start, "gap before clip %d", i)
		}
	}
	assert.InDelta(t, 10.0, tl.Duration, 1e-9)
	assert.Equal(t, 0, tl.ClipAt(0).Index)
	assert.Equal(t, 1, tl.ClipAt(2.5).Index)
	assert.Equal(t, 3, tl.ClipAt(9.99).Index)
	assert.Equal(t, 3, tl.ClipAt(42).Index)
}

func TestConcatRejectsMismatchedBounds(t *testing.T) {
	a, err := timeline.NewClip(raster.SectionState{Image: solid(palette[0])}, "", 1, nil)
	require.NoError(t, err)
	odd := image.NewRGBA(image.Rect(0, 0, testWidth+2, testHeight))
	b, err := timeline.NewClip(raster.SectionState{Section: raster.Section{Index: 1}, Image: odd}, "", 1, nil)
	require.NoError(t, err)

	_, err = timeline.Concat([]timeline.Clip{a, b})
	require.ErrorIs(t, err, services.ErrRender)
	assert.Contains(t, err.Error(), "segment 1")

	_, err = timeline.Concat(nil)
	require.ErrorIs(t, err, services.ErrRender)
}

func TestNewClipRejectsBadDuration(t *testing.T) {
	_, err := timeline.NewClip(raster.SectionState{Image: solid(palette[0])}, "", 0, nil)
	require.ErrorIs(t, err, services.ErrRender)
}

func TestComposeFrameCountMatchesDuration(t *testing.T) {
	comp := buildComposition(t)
	assert.Equal(t, 300, comp.FrameCount())
	assert.InDelta(t, 10.0, comp.Duration(), 1e-9)
}

func TestComposeRejectsShortAudio(t *testing.T) {
	tl := buildTimeline(t, 4, 2.5)
	animator, err := cursor.New(testWidth, 2.5, config.Cursor{Color: "#ffffff", Width: 2})
	require.NoError(t, err)
	_, err = timeline.Compose(tl, make([]float64, 3*int(2.5*testRate)), testRate, testFPS, animator)
	require.ErrorIs(t, err, services.ErrRender)
}

func TestRenderFrameShowsActiveClipAndTopmostCursor(t *testing.T) {
	comp := buildComposition(t)
	dst := image.NewRGBA(image.Rect(0, 0, testWidth, testHeight))

	// Frame 80 is t=2.667s: clip 1, cursor at floor(0.1667/2.5*64)=4.
	require.NoError(t, comp.RenderFrame(80, dst))
	assert.Equal(t, palette[1], dst.RGBAAt(40, 20))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, dst.RGBAAt(4, 0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, dst.RGBAAt(4, testHeight-1))

	// Frame 75 starts clip 1 and the cursor resets to the left edge.
	require.NoError(t, comp.RenderFrame(75, dst))
	assert.Equal(t, palette[1], dst.RGBAAt(40, 20))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, dst.RGBAAt(0, 5))
	assert.Equal(t, palette[1], dst.RGBAAt(10, 5))

	require.NoError(t, comp.RenderFrame(299, dst))
	assert.Equal(t, palette[3], dst.RGBAAt(5, 20))

	require.ErrorIs(t, comp.RenderFrame(300, dst), services.ErrRender)
	require.ErrorIs(t, comp.RenderFrame(0, image.NewRGBA(image.Rect(0, 0, 2, 2))), services.ErrRender)
}

func TestLabelerCentersCaption(t *testing.T) {
	labeler, err := timeline.NewLabeler(config.Label{
		Font: "goregular", Size: 12, Color: "#ffffff", Background: "#000000", Top: 4, Padding: 2,
	})
	require.NoError(t, err)

	box := labeler.Box("CFG w=1.0", 200)
	assert.Equal(t, 2, box.Min.Y)
	left := box.Min.X
	right := 200 - box.Max.X
	assert.InDelta(t, left, right, 1)

	img := image.NewRGBA(image.Rect(0, 0, 200, 40))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
		img.Pix[i-3] = 90
	}
	state := raster.SectionState{Image: img}
	clip, err := timeline.NewClip(state, "CFG w=1.0", 2.5, labeler)
	require.NoError(t, err)

	corner := clip.Image.RGBAAt(box.Min.X, box.Min.Y)
	assert.Equal(t, color.RGBA{A: 255}, corner, "background box should be painted")
	assert.Equal(t, uint8(90), clip.Image.RGBAAt(0, 39).R, "pixels outside the box stay untouched")

	lit := 0
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if clip.Image.RGBAAt(x, y).G > 128 {
				lit++
			}
		}
	}
	assert.Positive(t, lit, "expected glyph pixels inside the box")
	assert.Equal(t, color.RGBA{R: 90, A: 255}, img.RGBAAt(box.Min.X, box.Min.Y), "section raster must not be captioned")
}

func TestLabelerRejectsMissingFont(t *testing.T) {
	_, err := timeline.NewLabeler(config.Label{Font: filepath.Join(t.TempDir(), "missing.ttf"), Size: 12, Color: "#ffffff"})
	require.ErrorIs(t, err, services.ErrConfiguration)
}

type stubEncoder struct {
	frames  int
	fail    error
	partial bool
	job     timeline.EncodeJob
}

func (s *stubEncoder) Encode(ctx context.Context, job timeline.EncodeJob) error {
	s.job = job
	if _, err := os.Stat(job.AudioPath); err != nil {
		return err
	}
	if s.partial {
		if err := os.WriteFile(job.Output, []byte("partial"), 0o644); err != nil {
			return err
		}
	}
	if s.fail != nil {
		return s.fail
	}
	dst := image.NewRGBA(image.Rect(0, 0, job.Width, job.Height))
	total := job.Frames.FrameCount()
	for n := 0; n < total; n++ {
		if err := job.Frames.RenderFrame(n, dst); err != nil {
			return err
		}
		s.frames++
		if job.Progress != nil {
			job.Progress(n+1, total)
		}
	}
	return os.WriteFile(job.Output, []byte("mp4"), 0o644)
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPublisherRenderCommitsOutput(t *testing.T) {
	outDir := t.TempDir()
	scratch := t.TempDir()
	output := filepath.Join(outDir, "composite.mp4")
	enc := &stubEncoder{}
	var progressed int
	pub := &timeline.Publisher{
		Encoder:    enc,
		Params:     timeline.ParamsFromConfig(config.Default().Video),
		ScratchDir: scratch,
		Progress:   func(done, total int) { progressed = done },
	}

	res, err := pub.Render(context.Background(), buildComposition(t), output)
	require.NoError(t, err)
	assert.Equal(t, 300, enc.frames)
	assert.Equal(t, 300, progressed)
	assert.Equal(t, output, res.Output)
	assert.Equal(t, int64(3), res.SizeBytes)
	assert.Equal(t, ".mp4", filepath.Ext(enc.job.Output))
	assert.NotEqual(t, output, enc.job.Output)
	assert.Equal(t, testWidth, enc.job.Width)
	assert.Equal(t, "libx264", enc.job.Params.VideoCodec)

	assert.Equal(t, []string{"composite.mp4"}, dirEntries(t, outDir))
	assert.Empty(t, dirEntries(t, scratch), "scratch audio must be removed")
}

func TestPublisherRenderCleansUpAfterEncoderFailure(t *testing.T) {
	outDir := t.TempDir()
	scratch := t.TempDir()
	output := filepath.Join(outDir, "composite.mp4")
	pub := &timeline.Publisher{
		Encoder:    &stubEncoder{partial: true, fail: errors.New("x264 exploded")},
		ScratchDir: scratch,
	}

	_, err := pub.Render(context.Background(), buildComposition(t), output)
	require.ErrorIs(t, err, services.ErrEncode)
	assert.Contains(t, err.Error(), "x264 exploded")
	assert.Contains(t, err.Error(), "@30fps")
	assert.Empty(t, dirEntries(t, outDir), "no partial output may remain")
	assert.Empty(t, dirEntries(t, scratch), "scratch audio must be removed")
}

func TestPublisherRenderCleansUpAfterVerifyFailure(t *testing.T) {
	outDir := t.TempDir()
	output := filepath.Join(outDir, "composite.mp4")
	pub := &timeline.Publisher{
		Encoder:    &stubEncoder{},
		ScratchDir: t.TempDir(),
		Verify: func(context.Context, string, *timeline.Composition) error {
			return errors.New("duration 7.5s, want 10s")
		},
	}
	_, err := pub.Render(context.Background(), buildComposition(t), output)
	require.ErrorIs(t, err, services.ErrEncode)
	assert.Empty(t, dirEntries(t, outDir))
}

func TestPublisherRenderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub := &timeline.Publisher{Encoder: &stubEncoder{}, ScratchDir: t.TempDir()}
	_, err := pub.Render(ctx, buildComposition(t), filepath.Join(t.TempDir(), "out.mp4"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "canceled", services.Classify(err))
}
