// Package wavfile reads and writes single-channel 16-bit PCM WAV containers.
package wavfile

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth  = 16
	channels  = 1
	pcmFormat = 1
	maxPCM16  = math.MaxInt16
)

// ToPCM16 rescales normalized samples in [-1, 1] to the int16 range.
// Out-of-range input is clipped.
func ToPCM16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * maxPCM16)
		if v > maxPCM16 {
			v = maxPCM16
		} else if v < -maxPCM16 {
			v = -maxPCM16
		}
		out[i] = int(v)
	}
	return out
}

// FromPCM16 maps int16-range samples back to normalized floats.
func FromPCM16(samples []int) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / maxPCM16
	}
	return out
}

// Encode writes samples as a mono 16-bit PCM WAV stream.
func Encode(w io.WriteSeeker, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, pcmFormat)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           ToPCM16(samples),
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("writing samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}

// WriteFile encodes samples into the file at path, creating or truncating it.
func WriteFile(path string, samples []float32, sampleRate int) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("opening wav file: %w", err)
	}
	if err := Encode(f, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type Clip struct {
	SampleRate int
	Samples    []int
}

// Duration in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Decode reads a mono 16-bit PCM WAV stream.
func Decode(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, fmt.Errorf("invalid wav container")
	}
	if dec.NumChans != channels {
		return Clip{}, fmt.Errorf("unsupported channel count: %d (only mono is supported)", dec.NumChans)
	}
	if dec.BitDepth != bitDepth {
		return Clip{}, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("reading pcm data: %w", err)
	}

	return Clip{SampleRate: int(dec.SampleRate), Samples: buf.Data}, nil
}

func ReadFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("opening wav file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
