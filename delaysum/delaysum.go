// Package delaysum converts per-source TDOAs into delay-and-sum complex
// weights, the input Beamformer expects.
package delaysum

import (
	"github.com/chewxy/math32"

	"github.com/mamaheux/pyodas2/signal"
)

// DelaySum derives Weights(sources, channels, bins) from Tdoas(sources, pairs),
// using channel 0 as the phase reference for every source.
type DelaySum struct {
	channels int
	bins     int
}

// New constructs a DelaySum stage for the given channel and bin counts.
func New(channels, bins int) (*DelaySum, error) {
	if channels < 2 {
		return nil, signal.NewConfigError("delaysum.DelaySum", "channels must be >= 2, got %d", channels)
	}
	if bins < 2 {
		return nil, signal.NewConfigError("delaysum.DelaySum", "bins must be >= 2, got %d", bins)
	}
	return &DelaySum{channels: channels, bins: bins}, nil
}

// Channels returns the configured channel count C.
func (d *DelaySum) Channels() int { return d.channels }

// Bins returns the configured bin count B.
func (d *DelaySum) Bins() int { return d.bins }

// Process reads tdoas and writes out, shape (sources, channels, bins).
// W_{s,c,b} = (1/C) * exp(j*2*pi*b*delta_c / (2*(B-1))), where delta_c
// is the delay of channel c relative to channel 0 (delta_0 = 0, delta_c
// taken from pair (0, c) for c > 0). The 1/C normalization is the
// delay-and-sum convention: C phase-aligned channels combine to recover
// the original per-channel amplitude instead of summing it C-fold.
// Tdoa.Amplitude is ignored; it belongs to SSL.
func (d *DelaySum) Process(tdoas *signal.Tdoas, out *signal.Weights) error {
	if tdoas.Channels() != d.channels {
		return &signal.DimError{Container: "Tdoas", Dimension: "channels", Want: d.channels, Got: tdoas.Channels()}
	}
	if out.Channels() != d.channels {
		return &signal.DimError{Container: "Weights", Dimension: "channels", Want: d.channels, Got: out.Channels()}
	}
	if out.Bins() != d.bins {
		return &signal.DimError{Container: "Weights", Dimension: "bins", Want: d.bins, Got: out.Bins()}
	}
	if out.Sources() != tdoas.Sources() {
		return &signal.DimError{Container: "Weights", Dimension: "sources", Want: tdoas.Sources(), Got: out.Sources()}
	}

	gain := 1 / float32(d.channels)
	denom := float32(2 * (d.bins - 1))

	for s := 0; s < tdoas.Sources(); s++ {
		for c := 0; c < d.channels; c++ {
			delta := float32(0)
			if c > 0 {
				pair, err := tdoas.Pair(s, 0, c)
				if err != nil {
					return err
				}
				delta = pair.Delay
			}
			row := out.SourceChannel(s, c)
			for b := 0; b < d.bins; b++ {
				phase := 2 * math32.Pi * float32(b) * delta / denom
				row[b] = complex(gain*math32.Cos(phase), gain*math32.Sin(phase))
			}
		}
	}
	return nil
}
