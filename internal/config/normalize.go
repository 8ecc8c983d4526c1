package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeAudio()
	c.normalizeVideo()
	c.normalizeLabel()
	if err := c.normalizeSegments(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = os.TempDir()
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if value, ok := os.LookupEnv("DRUMVIZ_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Tools.FFmpeg = strings.TrimSpace(value)
	}
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if value, ok := os.LookupEnv("DRUMVIZ_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.Tools.FFprobe = strings.TrimSpace(value)
	}
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = "ffprobe"
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.Decoder = strings.ToLower(strings.TrimSpace(c.Audio.Decoder))
	if c.Audio.Decoder == "" {
		c.Audio.Decoder = defaultDecoder
	}
	if c.Audio.LoadWorkers <= 0 {
		c.Audio.LoadWorkers = defaultLoadWorkers
	}
}

func (c *Config) normalizeVideo() {
	c.Video.Colormap = strings.ToLower(strings.TrimSpace(c.Video.Colormap))
	if c.Video.Colormap == "" {
		c.Video.Colormap = defaultColormap
	}
	c.Video.FrequencyScale = strings.ToLower(strings.TrimSpace(c.Video.FrequencyScale))
	if c.Video.FrequencyScale == "" {
		c.Video.FrequencyScale = defaultFrequencyScale
	}
	c.Video.VideoCodec = strings.TrimSpace(c.Video.VideoCodec)
	c.Video.AudioCodec = strings.TrimSpace(c.Video.AudioCodec)
	c.Video.Bitrate = strings.TrimSpace(c.Video.Bitrate)
	c.Video.Preset = strings.TrimSpace(c.Video.Preset)
	c.Video.PixelFormat = strings.TrimSpace(c.Video.PixelFormat)
	if c.Video.PixelFormat == "" {
		c.Video.PixelFormat = defaultPixelFormat
	}
	c.Video.Output = strings.TrimSpace(c.Video.Output)
	if expanded, err := expandHome(c.Video.Output); err == nil {
		c.Video.Output = expanded
	}
}

func (c *Config) normalizeLabel() {
	c.Label.Font = strings.TrimSpace(c.Label.Font)
	if c.Label.Font == "" {
		c.Label.Font = defaultLabelFont
	}
	c.Label.Color = strings.TrimSpace(c.Label.Color)
	c.Label.Background = strings.TrimSpace(c.Label.Background)
	c.Cursor.Color = strings.TrimSpace(c.Cursor.Color)
}

func (c *Config) normalizeSegments() error {
	for i := range c.Segments {
		seg := &c.Segments[i]
		seg.Label = strings.TrimSpace(seg.Label)
		source, err := expandHome(strings.TrimSpace(seg.Source))
		if err != nil {
			return fmt.Errorf("segments[%d].source: %w", i, err)
		}
		seg.Source = source
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
