// Package mvdr implements the minimum-variance-distortionless-response
// beamforming weight, an accessory not wired into the standard pipelines
// (§4.10): w = R^-1*a / (a^H*R^-1*a) computed independently per bin.
package mvdr

import (
	"github.com/mamaheux/pyodas2/signal"
)

// regularization is the floor added to R's diagonal before inversion, to
// keep the per-bin solve well-conditioned when the noise covariance is
// near-singular.
const regularization = 1e-6

// MVDR computes distortionless minimum-variance weights from a noise
// covariance estimate and a steering direction.
type MVDR struct {
	channels int
	bins     int

	r   [][]complex128 // reused C x C scratch per bin
	inv [][]complex128
	a   []complex128
	ra  []complex128
}

// New constructs an MVDR stage for the given channel and bin counts.
func New(channels, bins int) (*MVDR, error) {
	if channels < 2 {
		return nil, signal.NewConfigError("mvdr.MVDR", "channels must be >= 2, got %d", channels)
	}
	if bins < 2 {
		return nil, signal.NewConfigError("mvdr.MVDR", "bins must be >= 2, got %d", bins)
	}
	r := make([][]complex128, channels)
	inv := make([][]complex128, channels)
	for i := range r {
		r[i] = make([]complex128, channels)
		inv[i] = make([]complex128, channels)
	}
	return &MVDR{
		channels: channels,
		bins:     bins,
		r:        r,
		inv:      inv,
		a:        make([]complex128, channels),
		ra:       make([]complex128, channels),
	}, nil
}

// Process computes, for source s, new MVDR weights replacing the
// delay-and-sum weights in steered (whose phase structure supplies the
// steering vector a) using noise as R. Output is written into out, which
// must share steered's shape.
func (m *MVDR) Process(noise *signal.Covs, steered *signal.Weights, s int, out *signal.Weights) error {
	if noise.Channels() != m.channels {
		return &signal.DimError{Container: "Covs", Dimension: "channels", Want: m.channels, Got: noise.Channels()}
	}
	if noise.Bins() != m.bins {
		return &signal.DimError{Container: "Covs", Dimension: "bins", Want: m.bins, Got: noise.Bins()}
	}
	if steered.Channels() != m.channels || out.Channels() != m.channels {
		return &signal.DimError{Container: "Weights", Dimension: "channels", Want: m.channels, Got: steered.Channels()}
	}
	if steered.Bins() != m.bins || out.Bins() != m.bins {
		return &signal.DimError{Container: "Weights", Dimension: "bins", Want: m.bins, Got: steered.Bins()}
	}
	if s < 0 || s >= steered.Sources() || s >= out.Sources() {
		return &signal.DimError{Container: "Weights", Dimension: "sources", Want: s + 1, Got: steered.Sources()}
	}

	for b := 0; b < m.bins; b++ {
		m.buildR(noise, b)
		m.buildSteering(steered, s, b)
		if err := invert(m.r, m.inv); err != nil {
			// A singular R (degenerate noise estimate) cannot be inverted
			// even with the regularization floor; fall back to the
			// distortionless delay-and-sum weight for this bin.
			for c := 0; c < m.channels; c++ {
				out.SourceChannel(s, c)[b] = steered.SourceChannel(s, c)[b]
			}
			continue
		}
		m.applyWeight(out, s, b)
	}
	return nil
}

// buildR fills m.r with the Hermitian noise covariance at bin b:
// acorrs on the diagonal, xcorrs (and its conjugate) off-diagonal, plus a
// regularization floor on the diagonal.
func (m *MVDR) buildR(noise *signal.Covs, b int) {
	for i := 0; i < m.channels; i++ {
		m.r[i][i] = complex(float64(noise.Acorrs.At(i, b))+regularization, 0)
		for j := i + 1; j < m.channels; j++ {
			idx, _ := signal.PairIndex(m.channels, i, j)
			v := noise.Xcorrs.At(idx, b)
			c := complex(float64(real(v)), float64(imag(v)))
			m.r[i][j] = c
			m.r[j][i] = cmplxConj(c)
		}
	}
}

// buildSteering recovers the unit-magnitude steering vector implied by
// steered's delay-and-sum phase structure: a_c = C * W_{s,c,b}, the
// inverse of DelaySum's 1/C-normalized weight.
func (m *MVDR) buildSteering(steered *signal.Weights, s, b int) {
	c := float64(m.channels)
	for ch := 0; ch < m.channels; ch++ {
		w := steered.SourceChannel(s, ch)[b]
		m.a[ch] = c * complex(float64(real(w)), float64(imag(w)))
	}
}

// applyWeight solves w = R^-1*a / (a^H*R^-1*a) using the already-inverted
// m.inv and writes the result into out.
func (m *MVDR) applyWeight(out *signal.Weights, s, b int) {
	for i := 0; i < m.channels; i++ {
		var acc complex128
		for j := 0; j < m.channels; j++ {
			acc += m.inv[i][j] * m.a[j]
		}
		m.ra[i] = acc
	}
	var denom complex128
	for i := 0; i < m.channels; i++ {
		denom += cmplxConj(m.a[i]) * m.ra[i]
	}
	if denom == 0 {
		denom = complex(regularization, 0)
	}
	for c := 0; c < m.channels; c++ {
		w := m.ra[c] / denom
		out.SourceChannel(s, c)[b] = complex(real64(w), imag64(w))
	}
}

func real64(c complex128) float32 { return float32(real(c)) }
func imag64(c complex128) float32 { return float32(imag(c)) }

func cmplxConj(c complex128) complex128 { return complex(real(c), -imag(c)) }

// invert computes the inverse of the C x C matrix r into inv using
// Gauss-Jordan elimination with partial pivoting. C is small (a handful of
// microphones) so this straightforward approach is adequate; it returns an
// error if r is numerically singular even after the regularization floor.
func invert(r [][]complex128, inv [][]complex128) error {
	n := len(r)
	aug := make([][]complex128, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]complex128, 2*n)
		copy(aug[i][:n], r[i])
		aug[i][n+i] = 1
	}

	for col := 0; col < n; col++ {
		pivot := col
		best := cmplxAbs(aug[col][col])
		for row := col + 1; row < n; row++ {
			if m := cmplxAbs(aug[row][col]); m > best {
				best = m
				pivot = row
			}
		}
		if best < 1e-12 {
			return signal.NewConfigError("mvdr.invert", "matrix is singular")
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		p := aug[col][col]
		for k := 0; k < 2*n; k++ {
			aug[col][k] /= p
		}
		for row := 0; row < n; row++ {
			if row == col {
				continue
			}
			factor := aug[row][col]
			if factor == 0 {
				continue
			}
			for k := 0; k < 2*n; k++ {
				aug[row][k] -= factor * aug[col][k]
			}
		}
	}

	for i := 0; i < n; i++ {
		copy(inv[i], aug[i][n:])
	}
	return nil
}

func cmplxAbs(c complex128) float64 {
	re, im := real(c), imag(c)
	return re*re + im*im
}
