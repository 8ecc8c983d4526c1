package config

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	LogDir     string `toml:"log_dir"`
	StateDir   string `toml:"state_dir"`
	ScratchDir string `toml:"scratch_dir"`
}

// Tools names the external binaries drumviz shells out to.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Audio contains decoding and segment timing configuration.
type Audio struct {
	SampleRate   int     `toml:"sample_rate"`
	ClipDuration float64 `toml:"clip_duration"`
	SegmentCount int     `toml:"segment_count"`
	Decoder      string  `toml:"decoder"`
	LoadWorkers  int     `toml:"load_workers"`
}

// Spectral contains short-time Fourier transform parameters.
type Spectral struct {
	FFTSize   int     `toml:"n_fft"`
	HopLength int     `toml:"hop_length"`
	TopDB     float64 `toml:"top_db"`
}

// Video contains output raster and encoder configuration.
type Video struct {
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
	FPS            int    `toml:"fps"`
	Colormap       string `toml:"colormap"`
	FrequencyScale string `toml:"frequency_scale"`
	VideoCodec     string `toml:"video_codec"`
	AudioCodec     string `toml:"audio_codec"`
	Bitrate        string `toml:"bitrate"`
	Preset         string `toml:"preset"`
	PixelFormat    string `toml:"pixel_format"`
	Threads        int    `toml:"threads"`
	VerifyOutput   bool   `toml:"verify_output"`
	Output         string `toml:"output"`
}

// Highlight contains section dimming configuration.
type Highlight struct {
	DimFactor float64 `toml:"dim_factor"`
}

// Cursor contains playhead overlay configuration.
type Cursor struct {
	Color string `toml:"color"`
	Width int    `toml:"width"`
	Alpha int    `toml:"alpha"`
}

// Label contains per-segment caption configuration.
type Label struct {
	Font       string  `toml:"font"`
	Size       float64 `toml:"size"`
	Color      string  `toml:"color"`
	Background string  `toml:"background"`
	Top        int     `toml:"top"`
	Padding    int     `toml:"padding"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Segment is one playlist entry as written in the configuration file.
type Segment struct {
	Source string `toml:"source"`
	Label  string `toml:"label"`
}

// Config encapsulates all configuration values for drumviz.
//
// Configuration sections by subsystem:
//   - Paths: output, log, state (history database), and scratch directories
//   - Tools: ffmpeg/ffprobe binaries
//   - Audio: sample rate, clip duration, segment count, decoder selection
//   - Spectral: STFT window, hop, and decibel floor
//   - Video: resolution, frame rate, colormap, encoder parameters
//   - Highlight: dim factor for inactive sections
//   - Cursor: playhead color, width, and opacity
//   - Label: caption font, size, and colors
//   - Logging: log format and level
//   - Segments: the ordered playlist
type Config struct {
	Paths     Paths     `toml:"paths"`
	Tools     Tools     `toml:"tools"`
	Audio     Audio     `toml:"audio"`
	Spectral  Spectral  `toml:"spectral"`
	Video     Video     `toml:"video"`
	Highlight Highlight `toml:"highlight"`
	Cursor    Cursor    `toml:"cursor"`
	Label     Label     `toml:"label"`
	Logging   Logging   `toml:"logging"`
	Segments  []Segment `toml:"segments"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/drumviz/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("drumviz.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a render run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.StateDir, c.Paths.ScratchDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for decoding and encoding.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.Tools.FFmpeg); v != "" {
		return v
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for output verification.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.Tools.FFprobe); v != "" {
		return v
	}
	return "ffprobe"
}

// SamplesPerClip is the exact number of samples every segment slice holds.
func (c *Config) SamplesPerClip() int {
	return c.Audio.SamplesPerClip()
}

// SamplesPerClip rounds sample_rate × clip_duration to the nearest sample so
// products like 48000 × 2.3 are not truncated by float error.
func (a Audio) SamplesPerClip() int {
	return int(math.Round(float64(a.SampleRate) * a.ClipDuration))
}

// ClipDurationTime returns the clip duration as a time.Duration.
func (c *Config) ClipDurationTime() time.Duration {
	return time.Duration(math.Round(c.Audio.ClipDuration * float64(time.Second)))
}

// TotalDuration is segment_count x clip_duration in seconds.
func (c *Config) TotalDuration() float64 {
	return float64(c.Audio.SegmentCount) * c.Audio.ClipDuration
}

// OutputPath resolves the configured output file against the output directory.
func (c *Config) OutputPath() string {
	out := strings.TrimSpace(c.Video.Output)
	if out == "" {
		out = defaultOutputName
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(c.Paths.OutputDir, out)
}

// HistoryDBPath returns the location of the run history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// OutputLockPath returns the advisory lock file guarding OutputPath. Locks
// live under the state directory, keyed by the absolute output path, so
// nothing is left beside rendered videos.
func (c *Config) OutputLockPath() string {
	out := c.OutputPath()
	if abs, err := filepath.Abs(out); err == nil {
		out = abs
	}
	sum := sha256.Sum256([]byte(out))
	name := filepath.Base(out) + "-" + hex.EncodeToString(sum[:6]) + ".lock"
	return filepath.Join(c.Paths.StateDir, "locks", name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	pathValue, err := expandHome(pathValue)
	if err != nil {
		return "", err
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

func expandHome(pathValue string) (string, error) {
	if !strings.HasPrefix(pathValue, "~") {
		return pathValue, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if pathValue == "~" {
		return home, nil
	}
	if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
		return filepath.Join(home, pathValue[2:]), nil
	}
	return pathValue, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
