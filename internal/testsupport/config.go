package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"drumviz/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The defaults shrink the render to a small raster and a low sample rate so
// pipeline tests stay fast while keeping the four 2.5 s segment layout.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfgVal.Audio.SampleRate = 4000
	cfgVal.Audio.Decoder = config.DecoderWAV
	cfgVal.Spectral.FFTSize = 256
	cfgVal.Spectral.HopLength = 64
	cfgVal.Video.Width = 64
	cfgVal.Video.Height = 36
	cfgVal.Video.VerifyOutput = false
	cfgVal.Label.Size = 8
	cfgVal.Label.Top = 2
	cfgVal.Label.Padding = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithSegments writes one tone fixture per frequency under the base
// directory and points the config at them. Each fixture spans the whole
// timeline because segment i reads the window starting at i clip lengths.
// A frequency of 0 leaves the source path dangling so the segment fails to
// load.
func WithSegments(freqs ...float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Audio.SegmentCount = len(freqs)
		b.cfg.Segments = make([]config.Segment, len(freqs))
		seconds := float64(len(freqs)) * b.cfg.Audio.ClipDuration
		for i, f := range freqs {
			path := filepath.Join(b.baseDir, "audio", fileName(i))
			if f > 0 {
				WriteToneWAV(b.t, path, f, seconds, b.cfg.Audio.SampleRate)
			}
			b.cfg.Segments[i] = config.Segment{Source: path, Label: labelFor(i)}
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}

func fileName(i int) string {
	return "segment_" + string(rune('a'+i)) + ".wav"
}

func labelFor(i int) string {
	return "Segment " + string(rune('A'+i))
}
