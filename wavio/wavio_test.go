package wavio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	const sampleRate = 16000
	const frames = 200
	channels := make([][]float32, 2)
	for c := range channels {
		channels[c] = make([]float32, frames)
		for i := range channels[c] {
			channels[c][i] = float32(i%100)/100 - 0.5
		}
	}

	require.NoError(t, Save(path, sampleRate, channels))

	rec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleRate, rec.SampleRate)
	assert.Equal(t, frames, rec.Frames())
	require.Len(t, rec.Channels, 2)

	for c := range channels {
		for i := range channels[c] {
			assert.InDelta(t, channels[c][i], rec.Channels[c][i], 1e-3)
		}
	}
}

func TestSaveRejectsEmptyChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	err := Save(path, 16000, nil)
	require.Error(t, err)
}

func TestSaveRejectsMismatchedChannelLengths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	err := Save(path, 16000, [][]float32{{0, 1}, {0}})
	require.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/does-not-exist.wav")
	require.Error(t, err)
}

func TestLoadRejectsNonWavFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notawav.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file at all"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
