package pcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mamaheux/pyodas2/signal"
)

func TestWidth(t *testing.T) {
	assert.Equal(t, 1, Int8.Width())
	assert.Equal(t, 1, Uint8.Width())
	assert.Equal(t, 2, Int16.Width())
	assert.Equal(t, 4, Int32.Width())
	assert.Equal(t, 4, Float32.Width())
	assert.Equal(t, 8, Int64.Width())
	assert.Equal(t, 8, Float64.Width())
	assert.Equal(t, 0, DType(99).Width())
}

func TestFromSampleWidth(t *testing.T) {
	dt, ok := FromSampleWidth(2)
	assert.True(t, ok)
	assert.Equal(t, Int16, dt)

	dt, ok = FromSampleWidth(4)
	assert.True(t, ok)
	assert.Equal(t, Int32, dt)

	_, ok = FromSampleWidth(3)
	assert.False(t, ok)
}

func TestDecodeRejectsUnsupportedDType(t *testing.T) {
	out, _ := signal.NewHops("h", 1, 1)
	err := Decode([]byte{0, 0}, DType(99), out)
	require.Error(t, err)
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	out, _ := signal.NewHops("h", 2, 4)
	err := Decode(make([]byte, 3), Int16, out)
	require.Error(t, err)
}

func TestEncodeDecodeRoundTripInt16(t *testing.T) {
	const channels = 2
	const hop = 5
	in, _ := signal.NewHops("h", channels, hop)
	vals := []float32{-1, -0.5, 0, 0.25, 0.999}
	for c := 0; c < channels; c++ {
		copy(in.Channel(c), vals)
	}

	data, err := Encode(in, Int16)
	require.NoError(t, err)

	out, _ := signal.NewHops("h2", channels, hop)
	require.NoError(t, Decode(data, Int16, out))

	for c := 0; c < channels; c++ {
		for i, want := range vals {
			assert.InDelta(t, want, out.Channel(c)[i], 1e-3)
		}
	}
}

func TestEncodeDecodeRoundTripFloat32(t *testing.T) {
	const channels = 1
	const hop = 3
	in, _ := signal.NewHops("h", channels, hop)
	copy(in.Channel(0), []float32{-1, 0, 0.5})

	data, err := Encode(in, Float32)
	require.NoError(t, err)

	out, _ := signal.NewHops("h2", channels, hop)
	require.NoError(t, Decode(data, Float32, out))

	for i, want := range []float32{-1, 0, 0.5} {
		assert.InDelta(t, want, out.Channel(0)[i], 1e-7)
	}
}

func TestEncodeClipsOutOfRange(t *testing.T) {
	in, _ := signal.NewHops("h", 1, 2)
	in.Channel(0)[0] = 5
	in.Channel(0)[1] = -5

	data, err := Encode(in, Int16)
	require.NoError(t, err)

	out, _ := signal.NewHops("h2", 1, 2)
	require.NoError(t, Decode(data, Int16, out))
	assert.InDelta(t, 1.0, out.Channel(0)[0], 1e-3)
	assert.InDelta(t, -1.0, out.Channel(0)[1], 1e-3)
}

// TestRoundTripStaysInRange is a property test: any Int16 round trip
// produces values within [-1, 1].
func TestRoundTripStaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in, _ := signal.NewHops("h", 1, 1)
		in.Channel(0)[0] = rapid.Float32Range(-2, 2).Draw(t, "v")

		data, err := Encode(in, Int16)
		require.NoError(t, err)
		out, _ := signal.NewHops("h2", 1, 1)
		require.NoError(t, Decode(data, Int16, out))

		v := out.Channel(0)[0]
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.LessOrEqual(t, v, float32(1))
	})
}

func TestUnsupportedDTypeError(t *testing.T) {
	err := &UnsupportedDTypeError{DType: Int16}
	assert.Contains(t, err.Error(), "unsupported dtype")
}
