package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// CheckEncoders reports whether the ffmpeg build at binary provides each of
// the named encoders (e.g. libx264, aac).
func CheckEncoders(ctx context.Context, binary string, names ...string) Status {
	result := Status{
		Name:        "FFmpeg encoders",
		Command:     binary,
		Description: strings.Join(names, ", "),
	}
	out, err := commandContext(ctx, binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		result.Detail = fmt.Sprintf("list encoders: %v", err)
		return result
	}
	available := parseEncoders(out)
	var missing []string
	for _, name := range names {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		result.Detail = fmt.Sprintf("missing encoders: %s", strings.Join(missing, ", "))
		return result
	}
	result.Available = true
	return result
}

// parseEncoders reads `ffmpeg -encoders` output. Encoder lines start with a
// six-character capability field such as " V....D libx264 ...".
func parseEncoders(out []byte) map[string]struct{} {
	encoders := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(out))
	started := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !started {
			started = strings.HasPrefix(line, "------")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		encoders[fields[1]] = struct{}{}
	}
	return encoders
}
