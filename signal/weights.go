package signal

// Weights holds complex beamforming weights, shape
// (sources, channels, bins). A delay-and-sum weight has magnitude 1/C.
type Weights struct {
	*Tensor[complex64]
}

// NewWeights allocates a zeroed Weights of the given shape.
func NewWeights(label string, sources, channels, bins int) (*Weights, error) {
	t, err := New[complex64](label, sources, channels, bins)
	if err != nil {
		return nil, err
	}
	return &Weights{t}, nil
}

// Sources returns the source count.
func (w *Weights) Sources() int { return w.Dim(0) }

// Channels returns the channel count.
func (w *Weights) Channels() int { return w.Dim(1) }

// Bins returns the bin count.
func (w *Weights) Bins() int { return w.Dim(2) }

// SourceChannel returns the per-bin weights for source s, channel c.
func (w *Weights) SourceChannel(s, c int) []complex64 { return w.Row(s, c) }
