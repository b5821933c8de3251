// Package beamformer applies delay-and-sum (or MVDR) weights to a
// multichannel spectrum, producing one output spectrum per source.
package beamformer

import "github.com/mamaheux/pyodas2/signal"

// Beamformer combines Weights and Freqs into a per-source output spectrum.
type Beamformer struct {
	channels int
	bins     int
}

// New constructs a Beamformer for the given channel and bin counts.
func New(channels, bins int) (*Beamformer, error) {
	if channels < 2 {
		return nil, signal.NewConfigError("beamformer.Beamformer", "channels must be >= 2, got %d", channels)
	}
	if bins < 2 {
		return nil, signal.NewConfigError("beamformer.Beamformer", "bins must be >= 2, got %d", bins)
	}
	return &Beamformer{channels: channels, bins: bins}, nil
}

// Process computes Y_{s,b} = sum_c conj(W_{s,c,b}) * X_{c,b} for every
// source s, writing into out (shape (sources, bins)). x and weights must
// share this Beamformer's channel and bin counts; out's source count must
// match weights'. Operates out-of-place.
func (bf *Beamformer) Process(x *signal.Freqs, weights *signal.Weights, out *signal.Freqs) error {
	if x.Channels() != bf.channels {
		return &signal.DimError{Container: "Freqs", Dimension: "channels", Want: bf.channels, Got: x.Channels()}
	}
	if x.Bins() != bf.bins {
		return &signal.DimError{Container: "Freqs", Dimension: "bins", Want: bf.bins, Got: x.Bins()}
	}
	if weights.Channels() != bf.channels {
		return &signal.DimError{Container: "Weights", Dimension: "channels", Want: bf.channels, Got: weights.Channels()}
	}
	if weights.Bins() != bf.bins {
		return &signal.DimError{Container: "Weights", Dimension: "bins", Want: bf.bins, Got: weights.Bins()}
	}
	if out.Channels() != weights.Sources() {
		return &signal.DimError{Container: "Freqs", Dimension: "channels", Want: weights.Sources(), Got: out.Channels()}
	}
	if out.Bins() != bf.bins {
		return &signal.DimError{Container: "Freqs", Dimension: "bins", Want: bf.bins, Got: out.Bins()}
	}

	for s := 0; s < weights.Sources(); s++ {
		y := out.Channel(s)
		for b := 0; b < bf.bins; b++ {
			y[b] = 0
		}
		for c := 0; c < bf.channels; c++ {
			w := weights.SourceChannel(s, c)
			xc := x.Channel(c)
			for b := 0; b < bf.bins; b++ {
				y[b] += complex(real(w[b]), -imag(w[b])) * xc[b]
			}
		}
	}
	return nil
}
