package wavfile

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sineWave(n, rate int, freq float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.8 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestRoundTripWithinQuantization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	samples := sineWave(16000, 16000, 440)

	require.NoError(t, WriteFile(path, samples, 16000))

	clip, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 16000, clip.SampleRate)
	require.Len(t, clip.Samples, len(samples))
	require.InDelta(t, 1.0, clip.Duration(), 1e-9)

	back := FromPCM16(clip.Samples)
	for i := range samples {
		require.InDelta(t, samples[i], back[i], 1.0/maxPCM16, "sample %d", i)
	}
}

func TestHeaderIsMono16Bit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, WriteFile(path, []float32{0, 0.5, -0.5}, 16000))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "RIFF", string(data[0:4]))
	require.Equal(t, "WAVE", string(data[8:12]))
	require.Equal(t, uint16(1), uint16(data[22])|uint16(data[23])<<8)
	require.Equal(t, uint16(16), uint16(data[34])|uint16(data[35])<<8)
}

func TestToPCM16Clips(t *testing.T) {
	require.Equal(t, []int{32767, -32767, 0, 16384}, ToPCM16([]float32{1.5, -2, 0, 0.5}))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a riff container"), 0o600))

	_, err := ReadFile(path)
	require.Error(t, err)
}

func TestEncodeRejectsBadRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.Error(t, WriteFile(path, []float32{0}, 0))
}
