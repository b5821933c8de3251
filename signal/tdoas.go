package signal

// Tdoa is a single delay estimate: Delay in samples (possibly fractional),
// Amplitude the normalized correlation peak in [0, 1].
type Tdoa struct {
	Delay     float32
	Amplitude float32
}

// Tdoas holds, for every source and every microphone pair, a Tdoa. Shape
// is (sources, pairs); pair ordering matches Covs (lexicographic, i<j).
type Tdoas struct {
	*Tensor[Tdoa]
	channels int
}

// NewTdoas allocates a zeroed Tdoas for the given source count and
// microphone channel count (pairs is derived as C(channels,2)).
func NewTdoas(label string, sources, channels int) (*Tdoas, error) {
	t, err := New[Tdoa](label, sources, NumPairs(channels))
	if err != nil {
		return nil, err
	}
	return &Tdoas{Tensor: t, channels: channels}, nil
}

// Sources returns the source count.
func (t *Tdoas) Sources() int { return t.Dim(0) }

// Pairs returns the pair count.
func (t *Tdoas) Pairs() int { return t.Dim(1) }

// Channels returns the microphone channel count pairs were derived from.
func (t *Tdoas) Channels() int { return t.channels }

// Source returns the per-pair Tdoa row for source s.
func (t *Tdoas) Source(s int) []Tdoa { return t.Row(s) }

// Pair returns the Tdoa for source s at channel pair (i, j), i < j.
func (t *Tdoas) Pair(s, i, j int) (Tdoa, error) {
	idx, err := PairIndex(t.channels, i, j)
	if err != nil {
		return Tdoa{}, err
	}
	return t.At(s, idx), nil
}
