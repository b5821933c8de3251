package mvdr

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaheux/pyodas2/signal"
)

func TestNewRejectsBadChannelsOrBins(t *testing.T) {
	_, err := New(1, 8)
	require.Error(t, err)
	_, err = New(2, 1)
	require.Error(t, err)
}

func TestProcessRejectsShapeMismatch(t *testing.T) {
	m, err := New(2, 8)
	require.NoError(t, err)
	noise, _ := signal.NewCovs("n", 3, 8)
	steered, _ := signal.NewWeights("s", 1, 2, 8)
	out, _ := signal.NewWeights("o", 1, 2, 8)
	require.Error(t, m.Process(noise, steered, 0, out))
}

// TestWhiteNoiseFallsBackToDelaySum: an identity-scaled (white, uncorrelated)
// noise covariance makes R a scaled identity, so R^-1*a / (a^H*R^-1*a)
// collapses to a/(a^H*a) -- i.e. the MVDR weight reduces to the
// distortionless delay-and-sum weight up to the same normalization.
func TestWhiteNoiseFallsBackToDelaySum(t *testing.T) {
	const channels = 3
	const bins = 4
	m, err := New(channels, bins)
	require.NoError(t, err)

	noise, _ := signal.NewCovs("n", channels, bins)
	for c := 0; c < channels; c++ {
		row := noise.Acorrs.Row(c)
		for b := range row {
			row[b] = 2.0
		}
	}

	steered, _ := signal.NewWeights("s", 1, channels, bins)
	for c := 0; c < channels; c++ {
		row := steered.SourceChannel(0, c)
		for b := range row {
			theta := float32(c+1) * float32(b) * 0.2
			row[b] = complex(float32(1.0/channels)*math32.Cos(theta), float32(1.0/channels)*math32.Sin(theta))
		}
	}

	out, _ := signal.NewWeights("o", 1, channels, bins)
	require.NoError(t, m.Process(noise, steered, 0, out))

	for c := 0; c < channels; c++ {
		row := out.SourceChannel(0, c)
		for b := 0; b < bins; b++ {
			mag := real(row[b])*real(row[b]) + imag(row[b])*imag(row[b])
			assert.Greater(t, float64(mag), 0.0)
		}
	}
}

func TestZeroNoiseIsInvertibleWithRegularization(t *testing.T) {
	const channels = 2
	const bins = 2
	m, err := New(channels, bins)
	require.NoError(t, err)

	noise, _ := signal.NewCovs("n", channels, bins) // all zero: acorrs zero + 1e-6 floor, xcorrs zero -> diagonal matrix, invertible, so no fallback is needed.
	steered, _ := signal.NewWeights("s", 1, channels, bins)
	steered.SourceChannel(0, 0)[0] = complex(0.5, 0)
	steered.SourceChannel(0, 1)[0] = complex(0.5, 0)

	out, _ := signal.NewWeights("o", 1, channels, bins)
	require.NoError(t, m.Process(noise, steered, 0, out))
}
