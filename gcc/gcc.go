// Package gcc implements generalized cross-correlation with frequency-
// domain zero-padding and parabolic sub-sample interpolation, turning a
// whitened Covs into per-pair delay estimates.
package gcc

import (
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/mamaheux/pyodas2/signal"
)

// GCC estimates, for every microphone pair, the MaxPeaks largest
// correlation peaks within the physically admissible delay window. It
// owns a padded-length correlation buffer per pair, reused frame after
// frame, which SSL reads directly instead of recomputing the
// correlation itself.
type GCC struct {
	channels   int
	bins       int // N/2+1, the half-spectrum width GCC consumes
	n          int // original FFT size N
	interp     int // K, the zero-padding interpolation factor
	maxPeaks   int
	maxDelay   float32 // admissible |delay| in original-sample units (aperture/soundSpeed * sampleRate)

	paddedLen  int // L = N*K
	halfBins   int // L/2+1
	fft        *fourier.FFT
	freqBuf    []complex128
	timeBuf    []float64
	corrs      [][]float32 // per pair, length L, the last computed correlation

	candidates []peakCandidate // reused scratch for pickPeaks
	peakBuf    []signal.Tdoa   // reused scratch for pickPeaks
}

type peakCandidate struct {
	index int
	value float32
}

// Config groups GCC's construction parameters.
type Config struct {
	Channels        int
	Bins            int // N/2+1
	Interpolation   int // K, >= 2
	MaxPeaks        int // S, GCC's per-pair candidate count
	SampleRate      float32
	SoundSpeed      float32
	ApertureMeters  float32
}

// New validates cfg and constructs a GCC stage.
func New(cfg Config) (*GCC, error) {
	if cfg.Channels < 2 {
		return nil, signal.NewConfigError("gcc.GCC", "channels must be >= 2, got %d", cfg.Channels)
	}
	if cfg.Bins < 2 {
		return nil, signal.NewConfigError("gcc.GCC", "bins must be >= 2, got %d", cfg.Bins)
	}
	if cfg.Interpolation < 2 {
		return nil, signal.NewConfigError("gcc.GCC", "interpolation factor must be >= 2, got %d", cfg.Interpolation)
	}
	if cfg.MaxPeaks < 1 {
		return nil, signal.NewConfigError("gcc.GCC", "max peaks must be positive, got %d", cfg.MaxPeaks)
	}
	if cfg.SoundSpeed <= 0 || cfg.SampleRate <= 0 {
		return nil, signal.NewConfigError("gcc.GCC", "sample rate and sound speed must be positive")
	}

	n := (cfg.Bins - 1) * 2
	if !signal.IsPowerOfTwo(n) {
		return nil, signal.NewConfigError("gcc.GCC", "bins %d does not correspond to a power-of-two fft size", cfg.Bins)
	}
	paddedLen := n * cfg.Interpolation
	if !signal.IsPowerOfTwo(paddedLen) {
		return nil, signal.NewConfigError("gcc.GCC", "n*interpolation (%d) is not a power of two", paddedLen)
	}

	pairs := signal.NumPairs(cfg.Channels)
	corrs := make([][]float32, pairs)
	for i := range corrs {
		corrs[i] = make([]float32, paddedLen)
	}

	maxDelay := cfg.ApertureMeters * cfg.SampleRate / cfg.SoundSpeed

	return &GCC{
		channels:  cfg.Channels,
		bins:      cfg.Bins,
		n:         n,
		interp:    cfg.Interpolation,
		maxPeaks:  cfg.MaxPeaks,
		maxDelay:  maxDelay,
		paddedLen: paddedLen,
		halfBins:  paddedLen/2 + 1,
		fft:        fourier.NewFFT(paddedLen),
		freqBuf:    make([]complex128, paddedLen/2+1),
		timeBuf:    make([]float64, paddedLen),
		corrs:      corrs,
		candidates: make([]peakCandidate, 0, paddedLen),
		peakBuf:    make([]signal.Tdoa, cfg.MaxPeaks),
	}, nil
}

// Channels returns the configured channel count.
func (g *GCC) Channels() int { return g.channels }

// Bins returns the configured half-spectrum width.
func (g *GCC) Bins() int { return g.bins }

// Interpolation returns the zero-padding factor K.
func (g *GCC) Interpolation() int { return g.interp }

// MaxDelay returns the admissible |delay| window, in original-sample units.
func (g *GCC) MaxDelay() float32 { return g.maxDelay }

// PaddedLen returns L = N*K, the length of the internal correlation buffer.
func (g *GCC) PaddedLen() int { return g.paddedLen }

// Correlation returns the padded-resolution correlation buffer computed
// for pair (i, j) by the last call to Process. Index k corresponds to a
// delay of unwrap(k)/K original samples, where unwrap(k) = k for
// k <= L/2 and k-L otherwise. The returned slice is owned by g and is
// overwritten by the next Process call.
func (g *GCC) Correlation(i, j int) ([]float32, error) {
	idx, err := signal.PairIndex(g.channels, i, j)
	if err != nil {
		return nil, err
	}
	return g.corrs[idx], nil
}

// DelayAt converts a correlation-buffer index to a delay in original
// samples (fractional, interpolation-scale division already applied).
func (g *GCC) DelayAt(k int) float32 {
	return unwrapDelay(k, g.paddedLen) / float32(g.interp)
}

// Process reads whitened cov and writes, for each pair, the MaxPeaks
// largest admissible correlation peaks into out (shape (MaxPeaks, pairs)).
func (g *GCC) Process(cov *signal.Covs, out *signal.Tdoas) error {
	if cov.Channels() != g.channels || cov.Bins() != g.bins {
		return &signal.DimError{Container: "Covs", Dimension: "shape", Want: g.channels * g.bins, Got: cov.Channels() * cov.Bins()}
	}
	if out.Sources() != g.maxPeaks {
		return &signal.DimError{Container: "Tdoas", Dimension: "sources", Want: g.maxPeaks, Got: out.Sources()}
	}
	if out.Channels() != g.channels {
		return &signal.DimError{Container: "Tdoas", Dimension: "channels", Want: g.channels, Got: out.Channels()}
	}

	for i := 0; i < g.channels; i++ {
		for j := i + 1; j < g.channels; j++ {
			pairIdx, err := signal.PairIndex(g.channels, i, j)
			if err != nil {
				return err
			}
			row := cov.Xcorrs.Row(pairIdx)
			g.correlate(row, pairIdx)
			peaks := g.pickPeaks(g.corrs[pairIdx])
			for rank, pk := range peaks {
				out.Set(pk, rank, pairIdx)
			}
			for rank := len(peaks); rank < g.maxPeaks; rank++ {
				out.Set(signal.Tdoa{}, rank, pairIdx)
			}
		}
	}
	return nil
}

// correlate zero-pads src (length bins) to halfBins and inverse-FFTs it
// into g.corrs[pairIdx] (length paddedLen).
func (g *GCC) correlate(src []complex64, pairIdx int) {
	for i := range g.freqBuf {
		g.freqBuf[i] = 0
	}
	for i, v := range src {
		g.freqBuf[i] = complex(float64(real(v)), float64(imag(v)))
	}

	g.fft.Sequence(g.timeBuf, g.freqBuf)
	for i, v := range g.timeBuf {
		g.corrs[pairIdx][i] = float32(v)
	}
}

// pickPeaks finds up to maxPeaks local maxima within the admissible delay
// window, refines each with parabolic interpolation, and returns them
// sorted by descending correlation value (earlier index wins ties).
func (g *GCC) pickPeaks(corr []float32) []signal.Tdoa {
	L := len(corr)
	maxDelayScaled := g.maxDelay * float32(g.interp)

	candidates := g.candidates[:0]
	for k := 0; k < L; k++ {
		d := unwrapDelay(k, L)
		if d < -maxDelayScaled || d > maxDelayScaled {
			continue
		}
		prev := corr[(k-1+L)%L]
		next := corr[(k+1)%L]
		if corr[k] >= prev && corr[k] >= next && (corr[k] > prev || corr[k] > next) {
			candidates = append(candidates, peakCandidate{index: k, value: corr[k]})
		}
	}
	g.candidates = candidates

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].value != candidates[b].value {
			return candidates[a].value > candidates[b].value
		}
		return candidates[a].index < candidates[b].index
	})

	n := g.maxPeaks
	if n > len(candidates) {
		n = len(candidates)
	}

	out := g.peakBuf[:n]
	for i := 0; i < n; i++ {
		k := candidates[i].index
		prev := corr[(k-1+L)%L]
		cur := corr[k]
		next := corr[(k+1)%L]

		offset := float32(0)
		denom := prev - 2*cur + next
		if denom != 0 {
			offset = 0.5 * (prev - next) / denom
			if offset > 0.5 {
				offset = 0.5
			} else if offset < -0.5 {
				offset = -0.5
			}
		}

		delay := (unwrapDelay(k, L) + offset) / float32(g.interp)
		amp := cur
		if denom != 0 {
			amp = cur - 0.25*(prev-next)*offset
		}
		amplitude := amp / float32(g.bins)
		if amplitude < 0 {
			amplitude = 0
		} else if amplitude > 1 {
			amplitude = 1
		}

		out[i] = signal.Tdoa{Delay: delay, Amplitude: amplitude}
	}
	return out
}

func unwrapDelay(k, length int) float32 {
	if k <= length/2 {
		return float32(k)
	}
	return float32(k - length)
}
