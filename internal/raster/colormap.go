package raster

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Colormap maps a normalized value in [0, 1] to a color by linear
// interpolation between evenly spaced stops.
type Colormap struct {
	Name  string
	stops []color.RGBA
}

func hexStops(values ...uint32) []color.RGBA {
	out := make([]color.RGBA, len(values))
	for i, v := range values {
		out[i] = color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
	}
	return out
}

// Nine-stop samples of the perceptually uniform matplotlib maps.
var colormaps = map[string]Colormap{
	"magma": {Name: "magma", stops: hexStops(
		0x000004, 0x1c1044, 0x4f127b, 0x812581, 0xb5367a, 0xe55064, 0xfb8761, 0xfec287, 0xfcfdbf,
	)},
	"inferno": {Name: "inferno", stops: hexStops(
		0x000004, 0x1f0c48, 0x550f6d, 0x88226a, 0xba3655, 0xe35932, 0xf98c0a, 0xf9c932, 0xfcffa4,
	)},
	"viridis": {Name: "viridis", stops: hexStops(
		0x440154, 0x472d7b, 0x3b528b, 0x2c728e, 0x21918c, 0x28ae80, 0x5ec962, 0xaddc30, 0xfde725,
	)},
	"gray": {Name: "gray", stops: hexStops(0x000000, 0xffffff)},
}

// ColormapByName resolves a configured colormap.
func ColormapByName(name string) (Colormap, error) {
	cm, ok := colormaps[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Colormap{}, fmt.Errorf("unknown colormap %q", name)
	}
	return cm, nil
}

// At returns the color for v, clamping to [0, 1]. NaN maps to the low end.
func (c Colormap) At(v float64) color.RGBA {
	if len(c.stops) == 0 {
		return color.RGBA{A: 255}
	}
	if math.IsNaN(v) || v <= 0 {
		return c.stops[0]
	}
	if v >= 1 {
		return c.stops[len(c.stops)-1]
	}
	pos := v * float64(len(c.stops)-1)
	i := int(pos)
	frac := pos - float64(i)
	a, b := c.stops[i], c.stops[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*frac))
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}
