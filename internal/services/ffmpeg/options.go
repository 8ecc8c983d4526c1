package ffmpeg

import (
	"log/slog"
	"os/exec"
	"strings"

	"drumviz/internal/logging"
)

var commandContext = exec.CommandContext

type settings struct {
	binary string
	logger *slog.Logger
}

// Option configures a Decoder or Encoder.
type Option func(*settings)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(s *settings) {
		if b := strings.TrimSpace(binary); b != "" {
			s.binary = b
		}
	}
}

// WithLogger attaches a logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{binary: "ffmpeg", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "ffmpeg")
	return s
}

// tail keeps the last lines of ffmpeg stderr for error messages.
func tail(output []byte, maxLines int) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.TrimSpace(strings.Join(lines, " | "))
}
