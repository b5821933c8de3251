package signal

// Hops is one frame of time-domain samples per channel, normalized to
// [-1, 1]. Shape is (channels, shifts).
type Hops struct {
	*Tensor[float32]
}

// NewHops allocates a zeroed Hops of the given shape.
func NewHops(label string, channels, shifts int) (*Hops, error) {
	t, err := New[float32](label, channels, shifts)
	if err != nil {
		return nil, err
	}
	return &Hops{t}, nil
}

// Channels returns the channel count.
func (h *Hops) Channels() int { return h.Dim(0) }

// Shifts returns the per-channel sample count.
func (h *Hops) Shifts() int { return h.Dim(1) }

// Channel returns the samples for channel c as a mutable slice.
func (h *Hops) Channel(c int) []float32 { return h.Row(c) }
