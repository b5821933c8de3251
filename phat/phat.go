// Package phat implements the phase transform: whitening a spatial
// covariance matrix's cross-spectra to unit magnitude per bin.
package phat

import (
	"github.com/chewxy/math32"

	"github.com/mamaheux/pyodas2/signal"
)

// Epsilon is the small positive floor that keeps PHAT's division from
// blowing up near-silent bins without biasing the resulting magnitude.
const Epsilon = 1e-20

// PHAT is stateless; it reads one Covs and writes a whitened Covs.
type PHAT struct {
	channels int
	bins     int
}

// New constructs a PHAT stage for the given channel and bin counts.
func New(channels, bins int) (*PHAT, error) {
	if channels < 2 {
		return nil, signal.NewConfigError("phat.PHAT", "channels must be >= 2, got %d", channels)
	}
	if bins < 1 {
		return nil, signal.NewConfigError("phat.PHAT", "bins must be positive, got %d", bins)
	}
	return &PHAT{channels: channels, bins: bins}, nil
}

// Process whitens in into out. in and out may be the same Covs.
func (p *PHAT) Process(in, out *signal.Covs) error {
	if in.Channels() != p.channels || in.Bins() != p.bins {
		return &signal.DimError{Container: "Covs(in)", Dimension: "shape", Want: p.channels * p.bins, Got: in.Channels() * in.Bins()}
	}
	if out.Channels() != p.channels || out.Bins() != p.bins {
		return &signal.DimError{Container: "Covs(out)", Dimension: "shape", Want: p.channels * p.bins, Got: out.Channels() * out.Bins()}
	}

	for idx := 0; idx < in.Xcorrs.Dim(0); idx++ {
		src := in.Xcorrs.Row(idx)
		dst := out.Xcorrs.Row(idx)
		for b, v := range src {
			mag := magnitude(v)
			if mag < Epsilon {
				mag = Epsilon
			}
			dst[b] = v / complex(mag, 0)
		}
	}

	for c := 0; c < p.channels; c++ {
		src := in.Acorrs.Row(c)
		dst := out.Acorrs.Row(c)
		for b, v := range src {
			if v > Epsilon {
				dst[b] = 1
			} else {
				dst[b] = 0
			}
		}
	}
	return nil
}

func magnitude(c complex64) float32 {
	return math32.Hypot(real(c), imag(c))
}
