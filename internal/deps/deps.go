package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"drumviz/internal/config"
)

// Requirement defines an external dependency drumviz relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the configured pipeline executes.
func Requirements(cfg *config.Config) []Requirement {
	ffmpegUse := "Encodes the composite video"
	if cfg.Audio.Decoder == config.DecoderFFmpeg {
		ffmpegUse = "Decodes segment audio and encodes the composite video"
	}
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: ffmpegUse},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Verifies rendered output", Optional: !cfg.Video.VerifyOutput},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
