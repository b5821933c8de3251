package stft

import "github.com/chewxy/math32"

// Window selects the analysis/synthesis window shape.
type Window int

const (
	// Hann is the raised-cosine window; combined with 75% overlap
	// (shift = n/4) it satisfies the constant-overlap-add condition
	// STFT/iSTFT reconstruction relies on.
	Hann Window = iota
	// Rectangular applies no tapering.
	Rectangular
)

func (w Window) String() string {
	switch w {
	case Hann:
		return "HANN"
	case Rectangular:
		return "RECTANGULAR"
	default:
		return "UNKNOWN"
	}
}

func buildWindow(kind Window, n int) ([]float32, error) {
	win := make([]float32, n)
	switch kind {
	case Rectangular:
		for i := range win {
			win[i] = 1
		}
	case Hann:
		// Periodic form (denominator n, not n-1): the symmetric form
		// used for spectral analysis does not satisfy constant-overlap-add
		// at 75% overlap, which the iSTFT reconstruction property relies on.
		if n == 1 {
			win[0] = 1
			break
		}
		for i := 0; i < n; i++ {
			win[i] = 0.5 * (1 - math32.Cos(2*math32.Pi*float32(i)/float32(n)))
		}
	default:
		return nil, &InvalidWindowError{Kind: kind}
	}
	return win, nil
}

// InvalidWindowError is returned for an unrecognized Window value.
type InvalidWindowError struct{ Kind Window }

func (e *InvalidWindowError) Error() string {
	return "stft: unsupported window kind"
}
