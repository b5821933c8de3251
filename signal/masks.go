package signal

// Masks carries non-negative real weights applied during the SCM update,
// shape (channels, bins). Typically all ones.
type Masks struct {
	*Tensor[float32]
}

// NewMasks allocates a Masks of the given shape, initialized to 1.
func NewMasks(label string, channels, bins int) (*Masks, error) {
	t, err := New[float32](label, channels, bins)
	if err != nil {
		return nil, err
	}
	m := &Masks{t}
	m.Ones()
	return m, nil
}

// Channels returns the channel count.
func (m *Masks) Channels() int { return m.Dim(0) }

// Bins returns the bin count.
func (m *Masks) Bins() int { return m.Dim(1) }

// Channel returns the mask for channel c as a mutable slice.
func (m *Masks) Channel(c int) []float32 { return m.Row(c) }

// Ones resets every weight to 1, the typical "no masking" configuration.
func (m *Masks) Ones() {
	data := m.Data()
	for i := range data {
		data[i] = 1
	}
}
