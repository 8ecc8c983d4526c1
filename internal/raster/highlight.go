package raster

import (
	"fmt"
	"image"

	"drumviz/internal/services"
)

// Highlight returns a copy of base with every pixel's RGB scaled by dim,
// except the columns of section k which keep their original values. Alpha
// is preserved and base is never modified.
func Highlight(base *image.RGBA, k, n int, dim float64) (*image.RGBA, error) {
	if base == nil {
		return nil, services.Wrap(services.ErrRender, "highlight", "", "nil base raster", nil)
	}
	if !(dim > 0 && dim < 1) {
		return nil, services.Wrap(services.ErrRender, "highlight", "", fmt.Sprintf("dim factor %v outside (0, 1)", dim), nil)
	}
	b := base.Bounds()
	sections, err := Sections(b.Dx(), n)
	if err != nil {
		return nil, err
	}
	if k < 0 || k >= n {
		return nil, services.Wrap(services.ErrRender, "highlight", "", fmt.Sprintf("active segment %d outside [0, %d)", k, n), nil)
	}
	active := sections[k]

	var lut [256]uint8
	for v := range lut {
		lut[v] = uint8(float64(v) * dim)
	}

	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := base.Pix[base.PixOffset(b.Min.X, y):]
		dst := out.Pix[out.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			i := x * 4
			if x >= active.Start && x < active.End {
				copy(dst[i:i+4], src[i:i+4])
				continue
			}
			dst[i] = lut[src[i]]
			dst[i+1] = lut[src[i+1]]
			dst[i+2] = lut[src[i+2]]
			dst[i+3] = src[i+3]
		}
	}
	return out, nil
}

// HighlightAll derives one SectionState per segment.
func HighlightAll(base *image.RGBA, n int, dim float64) ([]SectionState, error) {
	if base == nil {
		return nil, services.Wrap(services.ErrRender, "highlight", "", "nil base raster", nil)
	}
	sections, err := Sections(base.Bounds().Dx(), n)
	if err != nil {
		return nil, err
	}
	states := make([]SectionState, n)
	for k, sec := range sections {
		img, err := Highlight(base, k, n, dim)
		if err != nil {
			return nil, err
		}
		states[k] = SectionState{Section: sec, Image: img}
	}
	return states, nil
}
