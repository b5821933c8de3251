package signal

import "fmt"

// NumPairs returns C(channels,2), the number of unordered microphone pairs.
func NumPairs(channels int) int {
	return channels * (channels - 1) / 2
}

// PairIndex returns the lexicographic index of the unordered pair (i, j)
// with i < j, matching the ordering used throughout Covs and Tdoas.
func PairIndex(channels, i, j int) (int, error) {
	if i >= j {
		return 0, fmt.Errorf("signal: pair index requires i<j, got i=%d j=%d", i, j)
	}
	if j >= channels {
		return 0, fmt.Errorf("signal: pair index (%d,%d) out of range for %d channels", i, j, channels)
	}
	// Count of pairs whose first element is < i, plus offset within row i.
	idx := i*channels - i*(i+1)/2 + (j - i - 1)
	return idx, nil
}

// PairAt is the inverse of PairIndex: it recovers (i, j) for a pair index.
func PairAt(channels, idx int) (i, j int) {
	for i = 0; i < channels; i++ {
		rowLen := channels - i - 1
		if idx < rowLen {
			return i, i + 1 + idx
		}
		idx -= rowLen
	}
	return -1, -1
}

// Covs is the running spatial covariance matrix, split into cross-spectra
// for every unordered channel pair (Xcorrs, shape pairs x bins) and
// auto-spectra per channel (Acorrs, shape channels x bins).
type Covs struct {
	Xcorrs   *Tensor[complex64]
	Acorrs   *Tensor[float32]
	channels int
}

// NewCovs allocates a zeroed Covs for the given channel and bin counts.
func NewCovs(label string, channels, bins int) (*Covs, error) {
	if channels < 2 {
		return nil, fmt.Errorf("signal: covs needs at least 2 channels, got %d", channels)
	}
	xc, err := New[complex64](label+".xcorrs", NumPairs(channels), bins)
	if err != nil {
		return nil, err
	}
	ac, err := New[float32](label+".acorrs", channels, bins)
	if err != nil {
		return nil, err
	}
	return &Covs{Xcorrs: xc, Acorrs: ac, channels: channels}, nil
}

// Channels returns the channel count the covariance was sized for.
func (c *Covs) Channels() int { return c.channels }

// Bins returns the bin count.
func (c *Covs) Bins() int { return c.Acorrs.Dim(1) }

// Pair returns the cross-spectrum row for channel pair (i, j), i < j.
func (c *Covs) Pair(i, j int) ([]complex64, error) {
	idx, err := PairIndex(c.channels, i, j)
	if err != nil {
		return nil, err
	}
	return c.Xcorrs.Row(idx), nil
}

// Zero clears both the cross- and auto-spectra.
func (c *Covs) Zero() {
	c.Xcorrs.Zero()
	c.Acorrs.Zero()
}
