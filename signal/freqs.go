package signal

// Freqs is a half-spectrum per channel: shape (channels, bins) with
// bins = N/2+1 for FFT size N.
type Freqs struct {
	*Tensor[complex64]
}

// NewFreqs allocates a zeroed Freqs of the given shape.
func NewFreqs(label string, channels, bins int) (*Freqs, error) {
	t, err := New[complex64](label, channels, bins)
	if err != nil {
		return nil, err
	}
	return &Freqs{t}, nil
}

// Channels returns the channel count.
func (f *Freqs) Channels() int { return f.Dim(0) }

// Bins returns the bin count.
func (f *Freqs) Bins() int { return f.Dim(1) }

// Channel returns the spectrum for channel c as a mutable slice.
func (f *Freqs) Channel(c int) []complex64 { return f.Row(c) }
