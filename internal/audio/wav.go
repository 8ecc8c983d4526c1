package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WAVDecoder reads PCM WAV files directly. It does not resample: a source whose
// rate differs from the target is rejected.
type WAVDecoder struct{}

// Decode reads source and downmixes it to mono samples in [-1, 1].
func (WAVDecoder) Decode(ctx context.Context, source string, sampleRate int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid WAV file", source)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%s: unsupported WAV format %d (PCM only)", source, dec.WavAudioFormat)
	}
	if int(dec.SampleRate) != sampleRate {
		return nil, fmt.Errorf("%s: sample rate %d Hz does not match target %d Hz (use the ffmpeg decoder to resample)", source, dec.SampleRate, sampleRate)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: read PCM: %w", source, err)
	}
	channels := int(dec.NumChans)
	if channels <= 0 {
		return nil, fmt.Errorf("%s: no channels", source)
	}
	return downmix(buf.Data, channels, int(dec.BitDepth)), nil
}

func downmix(data []int, channels, bitDepth int) []float64 {
	scale := float64(goaudio.IntMaxSignedValue(bitDepth))
	if scale <= 0 {
		scale = 1
	}
	// 8-bit WAV is unsigned.
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	frames := len(data) / channels
	out := make([]float64, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += float64(data[i*channels+c] - offset)
		}
		out[i] = sum / float64(channels) / scale
	}
	return out
}

// WriteWAV writes samples as a 16-bit mono PCM WAV file. Values outside
// [-1, 1] are clipped.
func WriteWAV(path string, samples []float64, sampleRate int) (err error) {
	if sampleRate <= 0 {
		return fmt.Errorf("write wav: invalid sample rate %d", sampleRate)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("write wav: %w", cerr)
		}
	}()

	const bitDepth = 16
	peak := float64(goaudio.IntMaxSignedValue(bitDepth))
	data := make([]int, len(samples))
	for i, s := range samples {
		if math.IsNaN(s) {
			s = 0
		}
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * peak))
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return errors.Join(fmt.Errorf("write wav: %w", err), enc.Close())
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write wav: finalize: %w", err)
	}
	return nil
}
