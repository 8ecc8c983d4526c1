package timeline

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"drumviz/internal/config"
	"drumviz/internal/services"
)

var builtinFonts = map[string][]byte{
	"goregular": goregular.TTF,
	"gobold":    gobold.TTF,
	"gomono":    gomono.TTF,
}

// LoadFace opens a builtin Go font by name or a TTF/OTF file by path.
func LoadFace(name string, size float64) (font.Face, error) {
	data, ok := builtinFonts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		raw, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read font %q: %w", name, err)
		}
		data = raw
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %w", name, err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("load font %q: %w", name, err)
	}
	return face, nil
}

// Labeler burns captions into rasters.
type Labeler struct {
	face    font.Face
	fg      *image.Uniform
	bg      *image.Uniform
	top     int
	padding int
}

// NewLabeler builds a Labeler from the label config section.
func NewLabeler(cfg config.Label) (*Labeler, error) {
	face, err := LoadFace(cfg.Font, cfg.Size)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "label", "font", "", err)
	}
	fg, err := config.ParseColor(cfg.Color)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "label", "color", "", err)
	}
	l := &Labeler{face: face, fg: image.NewUniform(fg), top: cfg.Top, padding: cfg.Padding}
	if strings.TrimSpace(cfg.Background) != "" {
		bg, err := config.ParseColor(cfg.Background)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "label", "background", "", err)
		}
		l.bg = image.NewUniform(bg)
	}
	return l, nil
}

// Box returns the rectangle the background box for text occupies on a
// raster of the given width.
func (l *Labeler) Box(text string, width int) image.Rectangle {
	text = norm.NFC.String(text)
	metrics := l.face.Metrics()
	textW := font.MeasureString(l.face, text).Ceil()
	textH := (metrics.Ascent + metrics.Descent).Ceil()
	x := (width - textW) / 2
	return image.Rect(x-l.padding, l.top-l.padding, x+textW+l.padding, l.top+textH+l.padding)
}

// Draw renders text horizontally centered with its top edge at the
// configured offset.
func (l *Labeler) Draw(dst draw.Image, text string) {
	text = norm.NFC.String(text)
	if text == "" {
		return
	}
	b := dst.Bounds()
	box := l.Box(text, b.Dx()).Add(b.Min)
	if l.bg != nil {
		draw.Draw(dst, box.Intersect(b), l.bg, image.Point{}, draw.Over)
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  l.fg,
		Face: l.face,
		Dot: fixed.Point26_6{
			X: fixed.I(box.Min.X + l.padding),
			Y: fixed.I(b.Min.Y+l.top) + l.face.Metrics().Ascent,
		},
	}
	d.DrawString(text)
}
