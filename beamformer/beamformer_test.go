package beamformer

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaheux/pyodas2/delaysum"
	"github.com/mamaheux/pyodas2/signal"
)

func TestNewRejectsBadChannelsOrBins(t *testing.T) {
	_, err := New(1, 8)
	require.Error(t, err)
	_, err = New(2, 1)
	require.Error(t, err)
}

func TestProcessRejectsShapeMismatch(t *testing.T) {
	bf, err := New(2, 8)
	require.NoError(t, err)
	x, _ := signal.NewFreqs("x", 3, 8)
	w, _ := signal.NewWeights("w", 1, 2, 8)
	out, _ := signal.NewFreqs("out", 1, 8)
	require.Error(t, bf.Process(x, w, out))
}

// TestDelaySumRecoversAlignedSignal is the delay-and-sum round trip: a
// spectrum synthetically delayed per-channel according to a Tdoa, when
// beamformed with the DelaySum weights built from the same Tdoa, recovers
// channel 0's original spectrum (the alignment cancels the synthetic delay).
func TestDelaySumRecoversAlignedSignal(t *testing.T) {
	const channels = 4
	const bins = 65 // n = 128
	const n = 128

	tdoas, _ := signal.NewTdoas("t", 1, channels)
	delays := []float32{0, 3.25, -7, 11.5}
	for c := 1; c < channels; c++ {
		idx, err := signal.PairIndex(channels, 0, c)
		require.NoError(t, err)
		tdoas.Source(0)[idx] = signal.Tdoa{Delay: delays[c], Amplitude: 1}
	}

	ds, err := delaysum.New(channels, bins)
	require.NoError(t, err)
	weights, _ := signal.NewWeights("w", 1, channels, bins)
	require.NoError(t, ds.Process(tdoas, weights))

	ref := make([]complex64, bins)
	x, _ := signal.NewFreqs("x", channels, bins)
	for b := 0; b < bins; b++ {
		theta := float32(b) * 0.13
		ref[b] = complex(math32.Cos(theta), math32.Sin(theta))
	}
	copy(x.Channel(0), ref)

	// Build each channel c's spectrum as the advanced copy the DelaySum
	// sign convention expects: X_c(b) = X_0(b)*exp(+j*2*pi*b*delta_c/denom).
	denom := float32(2 * (bins - 1))
	for c := 1; c < channels; c++ {
		xc := x.Channel(c)
		for b := 0; b < bins; b++ {
			phase := 2 * math32.Pi * float32(b) * delays[c] / denom
			shift := complex(math32.Cos(phase), math32.Sin(phase))
			xc[b] = ref[b] * shift
		}
	}

	bf, err := New(channels, bins)
	require.NoError(t, err)
	out, _ := signal.NewFreqs("out", 1, bins)
	require.NoError(t, bf.Process(x, weights, out))

	y := out.Channel(0)
	for b := 0; b < bins; b++ {
		assert.InDelta(t, float64(real(ref[b])), float64(real(y[b])), 1e-3)
		assert.InDelta(t, float64(imag(ref[b])), float64(imag(y[b])), 1e-3)
	}
}
