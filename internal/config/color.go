package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.RGBA{
	"white": {R: 255, G: 255, B: 255, A: 255},
	"black": {A: 255},
	"red":   {R: 255, A: 255},
	"green": {G: 128, A: 255},
	"cyan":  {G: 255, B: 255, A: 255},
}

// ParseColor accepts "#rrggbb", "#rrggbbaa", or a small set of color names.
func ParseColor(value string) (color.RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return color.RGBA{}, fmt.Errorf("empty color")
	}
	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(v, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", value)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", value, err)
	}
	if len(hex) == 6 {
		return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, nil
	}
	return color.RGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// MustColor parses a color already accepted by Validate.
func MustColor(value string) color.RGBA {
	c, err := ParseColor(value)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return c
}
