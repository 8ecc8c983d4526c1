package raster

import (
	"fmt"
	"image"

	"drumviz/internal/services"
)

// Section is the pixel column range [Start, End) owned by one segment.
type Section struct {
	Index int
	Start int
	End   int
}

// Width returns the number of columns in the section.
func (s Section) Width() int { return s.End - s.Start }

// SectionState is a highlighted raster for one active segment.
type SectionState struct {
	Section
	Image *image.RGBA
}

// Sections partitions [0, width) into n ranges with b_i = floor(i*width/n)
// and the last boundary pinned to width.
func Sections(width, n int) ([]Section, error) {
	if n <= 0 {
		return nil, services.Wrap(services.ErrRender, "highlight", "sections", fmt.Sprintf("segment count %d must be positive", n), nil)
	}
	if width < n {
		return nil, services.Wrap(services.ErrRender, "highlight", "sections", fmt.Sprintf("width %d is narrower than %d segments", width, n), nil)
	}
	out := make([]Section, n)
	for i := range out {
		start := i * width / n
		end := (i + 1) * width / n
		if i == n-1 {
			end = width
		}
		out[i] = Section{Index: i, Start: start, End: end}
	}
	return out, nil
}
