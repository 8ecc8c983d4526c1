package audio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"drumviz/internal/config"
	"drumviz/internal/services"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Segment is one playlist entry: an independently sourced clip and its caption.
type Segment struct {
	Index  int    `validate:"gte=0"`
	Source string `validate:"required"`
	Label  string `validate:"required"`
}

// NewSegment trims and validates a playlist entry.
func NewSegment(index int, source, label string) (Segment, error) {
	seg := Segment{
		Index:  index,
		Source: strings.TrimSpace(source),
		Label:  strings.TrimSpace(label),
	}
	if err := validate.Struct(seg); err != nil {
		return Segment{}, services.Wrap(services.ErrValidation, "stitch", "segment", fmt.Sprintf("segment %d", index), describeValidation(err))
	}
	return seg, nil
}

// SegmentsFromConfig builds the ordered playlist from the [[segments]] table.
func SegmentsFromConfig(entries []config.Segment) ([]Segment, error) {
	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrValidation, "stitch", "segments", "playlist is empty", nil)
	}
	segments := make([]Segment, 0, len(entries))
	for i, entry := range entries {
		seg, err := NewSegment(i, entry.Source, entry.Label)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		case "gte":
			msgs = append(msgs, strings.ToLower(fe.Field())+" must be >= "+fe.Param())
		default:
			msgs = append(msgs, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
