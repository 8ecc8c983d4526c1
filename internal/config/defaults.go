package config

const (
	defaultOutputDir      = "."
	defaultLogDir         = "~/.local/share/drumviz/logs"
	defaultStateDir       = "~/.local/share/drumviz"
	defaultOutputName     = "cfg_composite_analysis_16k.mp4"
	defaultSampleRate     = 16000
	defaultClipDuration   = 2.5
	defaultSegmentCount   = 4
	defaultDecoder        = DecoderFFmpeg
	defaultLoadWorkers    = 1
	defaultFFTSize        = 1024
	defaultHopLength      = 256
	defaultTopDB          = 80.0
	defaultWidth          = 1920
	defaultHeight         = 1080
	defaultFPS            = 30
	defaultColormap       = "magma"
	defaultFrequencyScale = "log"
	defaultVideoCodec     = "libx264"
	defaultAudioCodec     = "aac"
	defaultBitrate        = "8000k"
	defaultPreset         = "medium"
	defaultPixelFormat    = "yuv420p"
	defaultThreads        = 4
	defaultDimFactor      = 0.35
	defaultCursorColor    = "#ffffff"
	defaultCursorWidth    = 4
	defaultCursorAlpha    = 200
	defaultLabelFont      = "goregular"
	defaultLabelSize      = 60
	defaultLabelColor     = "#ffffff"
	defaultLabelBG        = "#000000"
	defaultLabelTop       = 50
	defaultLabelPadding   = 8
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Decoder names accepted by audio.decoder.
const (
	DecoderFFmpeg = "ffmpeg"
	DecoderWAV    = "wav"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Audio: Audio{
			SampleRate:   defaultSampleRate,
			ClipDuration: defaultClipDuration,
			SegmentCount: defaultSegmentCount,
			Decoder:      defaultDecoder,
			LoadWorkers:  defaultLoadWorkers,
		},
		Spectral: Spectral{
			FFTSize:   defaultFFTSize,
			HopLength: defaultHopLength,
			TopDB:     defaultTopDB,
		},
		Video: Video{
			Width:          defaultWidth,
			Height:         defaultHeight,
			FPS:            defaultFPS,
			Colormap:       defaultColormap,
			FrequencyScale: defaultFrequencyScale,
			VideoCodec:     defaultVideoCodec,
			AudioCodec:     defaultAudioCodec,
			Bitrate:        defaultBitrate,
			Preset:         defaultPreset,
			PixelFormat:    defaultPixelFormat,
			Threads:        defaultThreads,
			VerifyOutput:   true,
			Output:         defaultOutputName,
		},
		Highlight: Highlight{
			DimFactor: defaultDimFactor,
		},
		Cursor: Cursor{
			Color: defaultCursorColor,
			Width: defaultCursorWidth,
			Alpha: defaultCursorAlpha,
		},
		Label: Label{
			Font:       defaultLabelFont,
			Size:       defaultLabelSize,
			Color:      defaultLabelColor,
			Background: defaultLabelBG,
			Top:        defaultLabelTop,
			Padding:    defaultLabelPadding,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
