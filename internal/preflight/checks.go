package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"drumviz/internal/config"
	"drumviz/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSourceReadable verifies a segment source exists and can be read.
// The result is advisory.
func CheckSourceReadable(name, path string) Result {
	res := Result{Name: name, Advisory: true}
	info, err := os.Stat(path)
	if err != nil {
		res.Detail = fmt.Sprintf("%s (will render as silence: %v)", filepath.Base(path), err)
		return res
	}
	if info.IsDir() {
		res.Detail = fmt.Sprintf("%s (will render as silence: is a directory)", filepath.Base(path))
		return res
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		res.Detail = fmt.Sprintf("%s (will render as silence: %v)", filepath.Base(path), err)
		return res
	}
	res.Passed = true
	res.Detail = filepath.Base(path)
	return res
}

// CheckSystemDeps evaluates the external binaries and ffmpeg encoders the
// configured pipeline will execute.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	for _, s := range statuses {
		if s.Name != "FFmpeg" || !s.Available {
			continue
		}
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		statuses = append(statuses, deps.CheckEncoders(checkCtx, s.Command, cfg.Video.VideoCodec, cfg.Video.AudioCodec))
		cancel()
		break
	}
	return statuses
}
