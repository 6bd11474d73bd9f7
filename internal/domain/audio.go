package domain

import "time"

// Frame is one capture callback's worth of mono samples, normalized to [-1, 1].
type Frame struct {
	Samples  []float32
	Captured time.Time
}

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func DefaultAudioFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}

// Concat joins frames in order into a single sample buffer.
func Concat(frames []Frame) []float32 {
	n := 0
	for _, f := range frames {
		n += len(f.Samples)
	}
	if n == 0 {
		return nil
	}
	out := make([]float32, 0, n)
	for _, f := range frames {
		out = append(out, f.Samples...)
	}
	return out
}

type Transcript struct {
	Text     string
	Language string
}
