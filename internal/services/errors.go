package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLoad marks a segment source that could not be decoded. It is
	// recovered by substituting silence and never aborts a run.
	ErrLoad = errors.New("load failure")
	// ErrRender marks a raster, timeline, or transform failure. Fatal.
	ErrRender = errors.New("render failure")
	// ErrEncode marks an encoder or mux failure. Fatal.
	ErrEncode        = errors.New("encode failure")
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrLocked        = errors.New("output locked")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrRender
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to the short failure kind stored with a run record.
// Cancellation wins over any marker. Otherwise the first matching marker
// wins, so an encode failure caused by a missing external tool still reports
// "encode".
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrLocked):
		return "locked"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrLoad):
		return "load"
	case errors.Is(err, ErrEncode):
		return "encode"
	case errors.Is(err, ErrRender):
		return "render"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "unknown"
	}
}

// IsFatal reports whether err must abort a run. Only load failures are
// recoverable.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrLoad)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
