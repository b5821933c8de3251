package sst

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaheux/pyodas2/signal"
)

func TestNewRejectsBadTrackCount(t *testing.T) {
	_, err := New(0, DefaultDsf())
	require.Error(t, err)
}

func unit(x, y, z float32) signal.Doa {
	return signal.Doa{Type: signal.Potential, X: x, Y: y, Z: z}.Normalized()
}

// TestBirthAndPersistence is scenario 5: over many frames a dominant
// potential persists while distractors drift noisily; the dominant one
// becomes TRACKED in slot 0, the others never reach new_threshold.
func TestBirthAndPersistence(t *testing.T) {
	s, err := New(4, DefaultDsf())
	require.NoError(t, err)

	target := unit(0.707, 0.707, 0)
	rng := rand.New(rand.NewSource(1))

	potentials, _ := signal.NewDoas("p", 4)
	tracked, _ := signal.NewDoas("t", 4)

	for frame := 0; frame < 20; frame++ {
		potentials.Clear()
		td := target
		td.Energy = 0.9
		potentials.Set(0, td)
		for k := 1; k < 4; k++ {
			jitter := func() float32 { return (rng.Float32() - 0.5) * 2 }
			d := unit(jitter(), jitter(), jitter())
			d.Energy = 0.1 + rng.Float32()*0.1
			potentials.Set(k, d)
		}
		require.NoError(t, s.Process(potentials, tracked))
	}

	slot0 := tracked.At(0)
	assert.Equal(t, signal.Tracked, slot0.Type)
	slot0Doa := signal.Doa{X: slot0.X, Y: slot0.Y, Z: slot0.Z}
	assert.Less(t, signal.AngleBetween(slot0Doa, target), float32(0.02))

	for k := 1; k < 4; k++ {
		assert.Equal(t, signal.Undefined, tracked.At(k).Type)
	}
}

func TestProcessRejectsOutLenMismatch(t *testing.T) {
	s, err := New(2, DefaultDsf())
	require.NoError(t, err)
	potentials, _ := signal.NewDoas("p", 3)
	out, _ := signal.NewDoas("out", 1)
	require.Error(t, s.Process(potentials, out))
}

func TestTrackDiesWhenObservationDisappears(t *testing.T) {
	s, err := New(1, DefaultDsf())
	require.NoError(t, err)

	potentials, _ := signal.NewDoas("p", 1)
	tracked, _ := signal.NewDoas("t", 1)

	target := unit(1, 0, 0)
	target.Energy = 0.9
	for i := 0; i < 10; i++ {
		potentials.Set(0, target)
		require.NoError(t, s.Process(potentials, tracked))
	}
	require.Equal(t, signal.Tracked, tracked.At(0).Type)

	potentials.Clear()
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Process(potentials, tracked))
	}
	assert.Equal(t, signal.Undefined, tracked.At(0).Type)
}

func TestLoadDsfDefaultsWhenFileMissing(t *testing.T) {
	_, err := LoadDsf("/nonexistent/path/dsf.yaml")
	require.Error(t, err)
}
