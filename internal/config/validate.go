package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateSpectral(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateOverlay(); err != nil {
		return err
	}
	if err := c.validateSegments(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	if err := ensurePositiveMap(map[string]int{
		"audio.sample_rate":   c.Audio.SampleRate,
		"audio.segment_count": c.Audio.SegmentCount,
		"audio.load_workers":  c.Audio.LoadWorkers,
	}); err != nil {
		return err
	}
	if c.Audio.ClipDuration <= 0 {
		return errors.New("audio.clip_duration must be positive (seconds)")
	}
	if c.SamplesPerClip() <= 0 {
		return fmt.Errorf("audio.clip_duration %.4fs holds no samples at %d Hz", c.Audio.ClipDuration, c.Audio.SampleRate)
	}
	switch c.Audio.Decoder {
	case DecoderFFmpeg, DecoderWAV:
	default:
		return fmt.Errorf("audio.decoder: unsupported value %q (use %q or %q)", c.Audio.Decoder, DecoderFFmpeg, DecoderWAV)
	}
	return nil
}

func (c *Config) validateSpectral() error {
	if err := ensurePositiveMap(map[string]int{
		"spectral.n_fft":      c.Spectral.FFTSize,
		"spectral.hop_length": c.Spectral.HopLength,
	}); err != nil {
		return err
	}
	if c.Spectral.HopLength > c.Spectral.FFTSize {
		return errors.New("spectral.hop_length must not exceed spectral.n_fft")
	}
	if c.Spectral.TopDB <= 0 {
		return errors.New("spectral.top_db must be positive")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if err := ensurePositiveMap(map[string]int{
		"video.width":  c.Video.Width,
		"video.height": c.Video.Height,
		"video.fps":    c.Video.FPS,
	}); err != nil {
		return err
	}
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return fmt.Errorf("video resolution %dx%d must use even dimensions for %s", c.Video.Width, c.Video.Height, c.Video.PixelFormat)
	}
	if c.Video.Width < c.Audio.SegmentCount {
		return fmt.Errorf("video.width %d is narrower than audio.segment_count %d", c.Video.Width, c.Audio.SegmentCount)
	}
	if !knownColormap(c.Video.Colormap) {
		return fmt.Errorf("video.colormap: unsupported value %q", c.Video.Colormap)
	}
	switch c.Video.FrequencyScale {
	case "log", "linear":
	default:
		return fmt.Errorf("video.frequency_scale: unsupported value %q (use log or linear)", c.Video.FrequencyScale)
	}
	if c.Video.VideoCodec == "" {
		return errors.New("video.video_codec must be set")
	}
	if c.Video.AudioCodec == "" {
		return errors.New("video.audio_codec must be set")
	}
	if c.Video.Bitrate == "" {
		return errors.New("video.bitrate must be set")
	}
	if c.Video.Threads < 0 {
		return errors.New("video.threads must be >= 0")
	}
	return nil
}

func (c *Config) validateOverlay() error {
	if c.Highlight.DimFactor <= 0 || c.Highlight.DimFactor >= 1 {
		return errors.New("highlight.dim_factor must be between 0 and 1 (exclusive)")
	}
	if c.Cursor.Width <= 0 {
		return errors.New("cursor.width must be positive")
	}
	if c.Cursor.Alpha < 0 || c.Cursor.Alpha > 255 {
		return errors.New("cursor.alpha must be between 0 and 255")
	}
	if _, err := ParseColor(c.Cursor.Color); err != nil {
		return fmt.Errorf("cursor.color: %w", err)
	}
	if c.Label.Size <= 0 {
		return errors.New("label.size must be positive")
	}
	if c.Label.Top < 0 || c.Label.Padding < 0 {
		return errors.New("label.top and label.padding must be >= 0")
	}
	if _, err := ParseColor(c.Label.Color); err != nil {
		return fmt.Errorf("label.color: %w", err)
	}
	if strings.TrimSpace(c.Label.Background) != "" {
		if _, err := ParseColor(c.Label.Background); err != nil {
			return fmt.Errorf("label.background: %w", err)
		}
	}
	return nil
}

func (c *Config) validateSegments() error {
	if len(c.Segments) == 0 {
		return nil
	}
	if len(c.Segments) != c.Audio.SegmentCount {
		return fmt.Errorf("segments lists %d entries but audio.segment_count is %d", len(c.Segments), c.Audio.SegmentCount)
	}
	for i, seg := range c.Segments {
		if seg.Source == "" {
			return fmt.Errorf("segments[%d].source must be set", i)
		}
		if seg.Label == "" {
			return fmt.Errorf("segments[%d].label must be set", i)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func knownColormap(name string) bool {
	switch name {
	case "magma", "inferno", "viridis", "gray":
		return true
	default:
		return false
	}
}
