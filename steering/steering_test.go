package steering

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaheux/pyodas2/geometry"
	"github.com/mamaheux/pyodas2/signal"
)

func pairMics(t *testing.T, spacing float64) *geometry.Array {
	t.Helper()
	mics := []geometry.Mic{
		{Position: r3.Vector{X: -spacing / 2}},
		{Position: r3.Vector{X: spacing / 2}},
	}
	arr, err := geometry.NewArray(mics)
	require.NoError(t, err)
	return arr
}

func TestNewRejectsNilMics(t *testing.T) {
	_, err := New(nil, 16000, 343)
	require.Error(t, err)
}

func TestNewRejectsNonPositiveConstants(t *testing.T) {
	mics := pairMics(t, 0.1)
	_, err := New(mics, 0, 343)
	require.Error(t, err)
	_, err = New(mics, 16000, 0)
	require.Error(t, err)
}

// TestTDOABroadside is the standard sanity check: a direction orthogonal to
// the mic baseline arrives at both mics simultaneously.
func TestTDOABroadside(t *testing.T) {
	mics := pairMics(t, 0.1)
	s, err := New(mics, 16000, 343)
	require.NoError(t, err)

	broadside := geometry.Point{Y: 1}
	assert.InDelta(t, 0, s.TDOA(broadside, 0, 1), 1e-4)
}

// TestTDOAEndfire checks the endfire direction produces the full
// aperture/soundSpeed delay in samples, sign matching the pair order.
func TestTDOAEndfire(t *testing.T) {
	const spacing = 0.1
	const sampleRate = 16000
	const soundSpeed = 343
	mics := pairMics(t, spacing)
	s, err := New(mics, sampleRate, soundSpeed)
	require.NoError(t, err)

	endfire := geometry.Point{X: 1}
	want := float32(spacing) * sampleRate / soundSpeed
	assert.InDelta(t, want, s.TDOA(endfire, 0, 1), 1e-3)

	opposite := geometry.Point{X: -1}
	assert.InDelta(t, -want, s.TDOA(opposite, 0, 1), 1e-3)
}

func TestProcessRejectsSourceMismatch(t *testing.T) {
	mics := pairMics(t, 0.1)
	s, err := New(mics, 16000, 343)
	require.NoError(t, err)

	directions, _ := signal.NewDoas("d", 2)
	out, _ := signal.NewTdoas("out", 1, 2)
	require.Error(t, s.Process(directions, out))
}

func TestProcessUndefinedSlotIsZero(t *testing.T) {
	mics := pairMics(t, 0.1)
	s, err := New(mics, 16000, 343)
	require.NoError(t, err)

	directions, _ := signal.NewDoas("d", 1)
	out, _ := signal.NewTdoas("out", 1, 2)
	require.NoError(t, s.Process(directions, out))

	td, err := out.Pair(0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, signal.Tdoa{}, td)
}

func TestProcessMatchesDirectTDOA(t *testing.T) {
	mics := pairMics(t, 0.1)
	s, err := New(mics, 16000, 343)
	require.NoError(t, err)

	directions, _ := signal.NewDoas("d", 1)
	directions.Set(0, signal.Doa{Type: signal.Potential, X: 1, Y: 0, Z: 0})
	out, _ := signal.NewTdoas("out", 1, 2)
	require.NoError(t, s.Process(directions, out))

	td, err := out.Pair(0, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, s.TDOA(geometry.Point{X: 1}, 0, 1), td.Delay, 1e-5)
	assert.Equal(t, float32(1), td.Amplitude)
}
