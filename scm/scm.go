// Package scm maintains the recursive spatial covariance matrix (cross-
// and auto-correlations per frequency bin) that PHAT, GCC and SSL build
// on.
package scm

import "github.com/mamaheux/pyodas2/signal"

// SCM recursively estimates a Covs from successive Freqs/Masks frames.
// State (the running covariance estimate) is owned by the SCM instance
// and reused frame after frame.
type SCM struct {
	channels int
	bins     int
	alpha    float32
}

// New constructs an SCM with mixing factor alpha in (0, 1].
func New(channels, bins int, alpha float32) (*SCM, error) {
	if channels < 2 {
		return nil, signal.NewConfigError("scm.SCM", "channels must be >= 2, got %d", channels)
	}
	if bins < 1 {
		return nil, signal.NewConfigError("scm.SCM", "bins must be positive, got %d", bins)
	}
	if alpha <= 0 || alpha > 1 {
		return nil, signal.NewConfigError("scm.SCM", "alpha must be in (0, 1], got %v", alpha)
	}
	return &SCM{channels: channels, bins: bins, alpha: alpha}, nil
}

// Channels returns the configured channel count.
func (s *SCM) Channels() int { return s.channels }

// Bins returns the configured bin count.
func (s *SCM) Bins() int { return s.bins }

// Process recursively updates cov in place from one Freqs/Masks frame:
//
//	acorrs[c,b]   <- (1-alpha)*acorrs[c,b]   + alpha*|X[c,b]|^2 * m[c,b]
//	xcorrs[i,j,b] <- (1-alpha)*xcorrs[i,j,b] + alpha*X[i,b]*conj(X[j,b])*min(m[i,b], m[j,b])
func (s *SCM) Process(freqs *signal.Freqs, masks *signal.Masks, cov *signal.Covs) error {
	if freqs.Channels() != s.channels {
		return &signal.DimError{Container: "Freqs", Dimension: "channels", Want: s.channels, Got: freqs.Channels()}
	}
	if freqs.Bins() != s.bins {
		return &signal.DimError{Container: "Freqs", Dimension: "bins", Want: s.bins, Got: freqs.Bins()}
	}
	if masks.Channels() != s.channels || masks.Bins() != s.bins {
		return &signal.DimError{Container: "Masks", Dimension: "shape", Want: s.channels * s.bins, Got: masks.Channels() * masks.Bins()}
	}
	if cov.Channels() != s.channels || cov.Bins() != s.bins {
		return &signal.DimError{Container: "Covs", Dimension: "shape", Want: s.channels * s.bins, Got: cov.Channels() * cov.Bins()}
	}

	beta := 1 - s.alpha

	for c := 0; c < s.channels; c++ {
		x := freqs.Channel(c)
		m := masks.Channel(c)
		a := cov.Acorrs.Row(c)
		for b := 0; b < s.bins; b++ {
			mag := real(x[b])*real(x[b]) + imag(x[b])*imag(x[b])
			a[b] = beta*a[b] + s.alpha*mag*m[b]
		}
	}

	for i := 0; i < s.channels; i++ {
		xi := freqs.Channel(i)
		mi := masks.Channel(i)
		for j := i + 1; j < s.channels; j++ {
			xj := freqs.Channel(j)
			mj := masks.Channel(j)
			row, err := cov.Pair(i, j)
			if err != nil {
				return err
			}
			for b := 0; b < s.bins; b++ {
				mm := mi[b]
				if mj[b] < mm {
					mm = mj[b]
				}
				cross := xi[b] * complex(real(xj[b]), -imag(xj[b]))
				row[b] = complex(beta, 0)*row[b] + complex(s.alpha*mm, 0)*cross
			}
		}
	}
	return nil
}
