package pianoroll

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"drumviz/internal/config"
	"drumviz/internal/services"
	"drumviz/internal/timeline"
)

// Options controls the strip geometry and palette.
type Options struct {
	// PixelsPerSecond is the horizontal rate; the strip is never narrower
	// than MinDuration seconds at this rate.
	PixelsPerSecond float64
	MinDuration     float64
	Height          int
	// NoteHeight is the fraction of a pitch row a note fills.
	NoteHeight float64
	Background string
	Fill       string
	Edge       string
	Font       string
	FontSize   float64
}

// DefaultOptions matches the web strip: 2 in/s at 150 dpi, 2.85 in tall.
func DefaultOptions() Options {
	return Options{
		PixelsPerSecond: 300,
		MinDuration:     5,
		Height:          427,
		NoteHeight:      0.8,
		Background:      "#1a1a2e",
		Fill:            "#28a745",
		Edge:            "#20c997",
		Font:            "goregular",
		FontSize:        24,
	}
}

// Range is the inclusive pitch window shown on the vertical axis.
type Range struct {
	Low  int
	High int
}

// Span is the number of pitch rows between Low and High.
func (r Range) Span() int {
	return r.High - r.Low
}

// PitchRange pads the used pitches by two semitones each way, clamped to
// MIDI limits. With no notes it returns C2 to C6.
func PitchRange(notes []Note) Range {
	if len(notes) == 0 {
		return Range{Low: 36, High: 84}
	}
	lo, hi := 127, 0
	for _, n := range notes {
		lo = min(lo, int(n.Key))
		hi = max(hi, int(n.Key))
	}
	return Range{Low: max(0, lo-2), High: min(127, hi+2)}
}

// Result is a rendered strip plus the axes it was drawn against.
type Result struct {
	Image    *image.RGBA
	Range    Range
	Duration float64
	// PixelsPerSecond is the effective horizontal scale, which exceeds the
	// requested rate when a short song is stretched to the minimum width.
	PixelsPerSecond float64
}

// Layout maps notes onto image coordinates.
type Layout struct {
	Width, Height int
	Range         Range
	Duration      float64
	NoteHeight    float64
}

func (l Layout) xScale() float64 {
	return float64(l.Width) / l.Duration
}

func (l Layout) rowHeight() float64 {
	return float64(l.Height) / float64(max(1, l.Range.Span()))
}

// NoteRect returns the pixels n covers. Pitch Low sits on the bottom edge.
func (l Layout) NoteRect(n Note) image.Rectangle {
	x0 := int(math.Floor(n.Start * l.xScale()))
	x1 := int(math.Ceil(n.End * l.xScale()))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	row := l.rowHeight()
	base := float64(int(n.Key) - l.Range.Low)
	y0 := int(math.Round(float64(l.Height) - (base+l.NoteHeight)*row))
	y1 := int(math.Round(float64(l.Height) - base*row))
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1)
}

// NoteAlpha scales opacity from 0.4 at velocity 0 to 1.0 at 127.
func NoteAlpha(velocity uint8) uint8 {
	a := 0.4 + float64(min(velocity, 127))/127*0.6
	return uint8(math.Round(a * 255))
}

func withAlpha(c color.RGBA, a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

type palette struct {
	bg, fill, edge color.RGBA
}

func (o Options) palette() (palette, error) {
	var (
		p   palette
		err error
	)
	if p.bg, err = config.ParseColor(o.Background); err != nil {
		return p, fmt.Errorf("background: %w", err)
	}
	if p.fill, err = config.ParseColor(o.Fill); err != nil {
		return p, fmt.Errorf("fill: %w", err)
	}
	if p.edge, err = config.ParseColor(o.Edge); err != nil {
		return p, fmt.Errorf("edge: %w", err)
	}
	return p, nil
}

// Render draws song as a strip. Every note that starts or ends within the
// song is drawn; an empty song renders a captioned placeholder.
func Render(song *Song, opts Options) (*Result, error) {
	if song == nil {
		return nil, services.Wrap(services.ErrRender, "pianoroll", "render", "song required", nil)
	}
	if opts.PixelsPerSecond <= 0 || opts.Height <= 0 || opts.NoteHeight <= 0 || opts.NoteHeight > 1 {
		return nil, services.Wrap(services.ErrValidation, "pianoroll", "render",
			fmt.Sprintf("pixels_per_second=%v height=%d note_height=%v", opts.PixelsPerSecond, opts.Height, opts.NoteHeight), nil)
	}
	pal, err := opts.palette()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pianoroll", "palette", "", err)
	}

	duration := song.End
	width := int(math.Ceil(max(opts.MinDuration, duration) * opts.PixelsPerSecond))
	if duration <= 0 {
		duration = max(opts.MinDuration, 1)
	}
	layout := Layout{
		Width:      width,
		Height:     opts.Height,
		Range:      PitchRange(song.Notes),
		Duration:   duration,
		NoteHeight: opts.NoteHeight,
	}

	img := image.NewRGBA(image.Rect(0, 0, width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(pal.bg), image.Point{}, draw.Src)
	drawGrid(img, layout, pal.fill)

	for _, n := range song.Notes {
		rect := layout.NoteRect(n).Intersect(img.Bounds())
		if rect.Empty() {
			continue
		}
		a := NoteAlpha(n.Velocity)
		draw.Draw(img, rect, image.NewUniform(withAlpha(pal.fill, a)), image.Point{}, draw.Over)
		strokeRect(img, rect, image.NewUniform(withAlpha(pal.edge, a)))
	}
	strokeRect(img, img.Bounds(), image.NewUniform(withAlpha(pal.fill, 77)))

	if len(song.Notes) == 0 {
		if err := caption(img, opts, pal.fill, "No notes in this range"); err != nil {
			return nil, err
		}
	}
	return &Result{
		Image:           img,
		Range:           layout.Range,
		Duration:        song.End,
		PixelsPerSecond: layout.xScale(),
	}, nil
}

// drawGrid marks every second and every C at 10% opacity.
func drawGrid(img *image.RGBA, l Layout, c color.RGBA) {
	src := image.NewUniform(withAlpha(c, 26))
	b := img.Bounds()
	for s := 1.0; s < l.Duration; s++ {
		x := int(math.Round(s * l.xScale()))
		draw.Draw(img, image.Rect(x, b.Min.Y, x+1, b.Max.Y), src, image.Point{}, draw.Over)
	}
	for p := l.Range.Low + 1; p < l.Range.High; p++ {
		if p%12 != 0 {
			continue
		}
		y := int(math.Round(float64(l.Height) - float64(p-l.Range.Low)*l.rowHeight()))
		draw.Draw(img, image.Rect(b.Min.X, y, b.Max.X, y+1), src, image.Point{}, draw.Over)
	}
}

func strokeRect(img draw.Image, r image.Rectangle, src image.Image) {
	if r.Dx() <= 2 || r.Dy() <= 2 {
		return
	}
	edges := []image.Rectangle{
		{Min: r.Min, Max: image.Pt(r.Max.X, r.Min.Y+1)},
		{Min: image.Pt(r.Min.X, r.Max.Y-1), Max: r.Max},
		{Min: image.Pt(r.Min.X, r.Min.Y+1), Max: image.Pt(r.Min.X+1, r.Max.Y-1)},
		{Min: image.Pt(r.Max.X-1, r.Min.Y+1), Max: image.Pt(r.Max.X, r.Max.Y-1)},
	}
	for _, e := range edges {
		draw.Draw(img, e, src, image.Point{}, draw.Over)
	}
}

func caption(img *image.RGBA, opts Options, c color.RGBA, text string) error {
	face, err := timeline.LoadFace(opts.Font, opts.FontSize)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pianoroll", "font", "", err)
	}
	defer face.Close()
	b := img.Bounds()
	w := font.MeasureString(face, text)
	m := face.Metrics()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: (fixed.I(b.Dx()) - w) / 2,
			Y: (fixed.I(b.Dy()) + m.Ascent - m.Descent) / 2,
		},
	}
	d.DrawString(text)
	return nil
}
