// Package stft implements overlap-add analysis (STFT) and synthesis
// (iSTFT) between time-domain Hops and half-spectrum Freqs, following the
// teacher's frame-processing shape (dft/mel) but using gonum's real-FFT
// transform directly instead of a manual real-to-complex packing, since
// that transform already produces exactly the N/2+1-bin half-spectrum
// the signal containers expect.
package stft

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/mamaheux/pyodas2/signal"
)

// STFT performs overlap-add spectral analysis. It owns a sliding
// time-domain buffer per channel of length N, initialized to zero, and
// performs no allocation once constructed.
type STFT struct {
	channels int
	n        int
	shift    int
	window   []float32

	buffers  [][]float32 // per channel, length n
	scratch  []float64   // length n, windowed samples fed to the FFT
	coeffs   []complex128 // length n/2+1, FFT output reused across calls
	fft      *fourier.FFT
}

// New constructs an STFT for the given channel count, FFT size (must be a
// power of two), shift (must be <= n) and window kind.
func New(channels, n, shift int, window Window) (*STFT, error) {
	if channels < 1 {
		return nil, signal.NewConfigError("stft.STFT", "channels must be positive, got %d", channels)
	}
	if !signal.IsPowerOfTwo(n) {
		return nil, signal.NewConfigError("stft.STFT", "fft size %d is not a power of two", n)
	}
	if shift <= 0 || shift > n {
		return nil, signal.NewConfigError("stft.STFT", "shift %d must be in (0, %d]", shift, n)
	}
	win, err := buildWindow(window, n)
	if err != nil {
		return nil, err
	}

	buffers := make([][]float32, channels)
	for c := range buffers {
		buffers[c] = make([]float32, n)
	}

	return &STFT{
		channels: channels,
		n:        n,
		shift:    shift,
		window:   win,
		buffers:  buffers,
		scratch:  make([]float64, n),
		coeffs:   make([]complex128, n/2+1),
		fft:      fourier.NewFFT(n),
	}, nil
}

// Channels returns the configured channel count.
func (s *STFT) Channels() int { return s.channels }

// N returns the configured FFT size.
func (s *STFT) N() int { return s.n }

// Shift returns the configured hop size.
func (s *STFT) Shift() int { return s.shift }

// Bins returns N/2+1, the half-spectrum bin count this STFT produces.
func (s *STFT) Bins() int { return s.n/2 + 1 }

// Process consumes one fresh Hops frame and emits the corresponding
// half-spectrum Freqs frame.
func (s *STFT) Process(in *signal.Hops, out *signal.Freqs) error {
	if in.Channels() != s.channels {
		return &signal.DimError{Container: "Hops", Dimension: "channels", Want: s.channels, Got: in.Channels()}
	}
	if in.Shifts() != s.shift {
		return &signal.DimError{Container: "Hops", Dimension: "shifts", Want: s.shift, Got: in.Shifts()}
	}
	if out.Channels() != s.channels {
		return &signal.DimError{Container: "Freqs", Dimension: "channels", Want: s.channels, Got: out.Channels()}
	}
	if out.Bins() != s.Bins() {
		return &signal.DimError{Container: "Freqs", Dimension: "bins", Want: s.Bins(), Got: out.Bins()}
	}

	for c := 0; c < s.channels; c++ {
		buf := s.buffers[c]
		copy(buf, buf[s.shift:])
		copy(buf[s.n-s.shift:], in.Channel(c))

		for i, v := range buf {
			s.scratch[i] = float64(v) * float64(s.window[i])
		}

		coeffs := s.fft.Coefficients(s.coeffs, s.scratch)
		dst := out.Channel(c)
		for i, v := range coeffs {
			dst[i] = complex64(complex(real(v), imag(v)))
		}
	}
	return nil
}

// ISTFT performs the inverse overlap-add synthesis. It owns an
// accumulation buffer and a normalization buffer per channel, both of
// length N, initialized to zero.
type ISTFT struct {
	channels int
	n        int
	shift    int
	window   []float32

	acc      [][]float32 // per channel, length n
	norm     [][]float32 // per channel, length n
	freqBuf  []complex128
	timeBuf  []float64
	fft      *fourier.FFT
}

// NewInverse constructs an iSTFT matching the given STFT configuration.
func NewInverse(channels, n, shift int, window Window) (*ISTFT, error) {
	if channels < 1 {
		return nil, signal.NewConfigError("stft.ISTFT", "channels must be positive, got %d", channels)
	}
	if !signal.IsPowerOfTwo(n) {
		return nil, signal.NewConfigError("stft.ISTFT", "fft size %d is not a power of two", n)
	}
	if shift <= 0 || shift > n {
		return nil, signal.NewConfigError("stft.ISTFT", "shift %d must be in (0, %d]", shift, n)
	}
	win, err := buildWindow(window, n)
	if err != nil {
		return nil, err
	}

	acc := make([][]float32, channels)
	norm := make([][]float32, channels)
	for c := range acc {
		acc[c] = make([]float32, n)
		norm[c] = make([]float32, n)
	}

	return &ISTFT{
		channels: channels,
		n:        n,
		shift:    shift,
		window:   win,
		acc:      acc,
		norm:     norm,
		freqBuf:  make([]complex128, n/2+1),
		timeBuf:  make([]float64, n),
		fft:      fourier.NewFFT(n),
	}, nil
}

// Bins returns N/2+1, the half-spectrum bin count this iSTFT expects.
func (s *ISTFT) Bins() int { return s.n/2 + 1 }

// Shift returns the configured hop size.
func (s *ISTFT) Shift() int { return s.shift }

// Process consumes one half-spectrum Freqs frame and emits the
// corresponding Hops frame, retaining the overlap tail internally.
func (s *ISTFT) Process(in *signal.Freqs, out *signal.Hops) error {
	if in.Channels() != s.channels {
		return &signal.DimError{Container: "Freqs", Dimension: "channels", Want: s.channels, Got: in.Channels()}
	}
	if in.Bins() != s.Bins() {
		return &signal.DimError{Container: "Freqs", Dimension: "bins", Want: s.Bins(), Got: in.Bins()}
	}
	if out.Channels() != s.channels {
		return &signal.DimError{Container: "Hops", Dimension: "channels", Want: s.channels, Got: out.Channels()}
	}
	if out.Shifts() != s.shift {
		return &signal.DimError{Container: "Hops", Dimension: "shifts", Want: s.shift, Got: out.Shifts()}
	}

	const normFloor = 1e-8

	for c := 0; c < s.channels; c++ {
		src := in.Channel(c)
		for i, v := range src {
			s.freqBuf[i] = complex(float64(real(v)), float64(imag(v)))
		}
		s.fft.Sequence(s.timeBuf, s.freqBuf)
		// gonum's inverse transform is unnormalized (scaled by n).
		scale := 1 / float64(s.n)

		acc := s.acc[c]
		nrm := s.norm[c]
		copy(acc, acc[s.shift:])
		copy(nrm, nrm[s.shift:])
		for i := s.n - s.shift; i < s.n; i++ {
			acc[i] = 0
			nrm[i] = 0
		}

		for i := 0; i < s.n; i++ {
			w := s.window[i]
			acc[i] += float32(s.timeBuf[i]*scale) * w
			nrm[i] += w * w
		}

		dst := out.Channel(c)
		for i := 0; i < s.shift; i++ {
			d := nrm[i]
			if d < normFloor {
				d = normFloor
			}
			dst[i] = acc[i] / d
		}
	}
	return nil
}
