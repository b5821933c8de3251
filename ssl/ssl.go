// Package ssl implements grid-search sound source localization: scoring
// every candidate direction in a geometry.Grid against the evidence in a
// GCC's per-pair correlation buffers, and selecting the top, mutually
// separated, directions.
package ssl

import (
	"sort"

	"github.com/mamaheux/pyodas2/geometry"
	"github.com/mamaheux/pyodas2/gcc"
	"github.com/mamaheux/pyodas2/signal"
	"github.com/mamaheux/pyodas2/steering"
)

// Correlations is the subset of gcc.GCC's interface SSL depends on: a
// per-pair correlation buffer and the interpolation-scale delay lookup.
// SSL depends on this instead of *gcc.GCC directly so it can be tested
// against synthetic correlation data (§8 "SSL pointing").
type Correlations interface {
	Channels() int
	Correlation(i, j int) ([]float32, error)
	Interpolation() int
	Bins() int
}

var _ Correlations = (*gcc.GCC)(nil)

// SSL selects up to NumDirections candidate directions per frame.
type SSL struct {
	mics            *geometry.Array
	grid            *geometry.Grid
	steer           *steering.Steering
	numDirections   int
	exclusionRadius float32

	// gridDelays[g][pair] is the expected TDOA, in original samples, for
	// grid point g and microphone pair `pair`. Precomputed once.
	gridDelays [][]float32

	scores []float32 // reused per-frame scratch, one entry per grid point
	order  []int     // reused per-frame scratch, grid point indices sorted by score
}

// Config groups SSL's construction parameters.
type Config struct {
	Mics       *geometry.Array
	Grid       *geometry.Grid
	SampleRate float32
	SoundSpeed float32

	NumDirections int
	// ExclusionRadius is the minimum angle (radians) the k-th selected
	// direction must keep from the 1..k-1 already selected. Zero selects
	// the spec default of 2x the grid's nearest-neighbor spacing.
	ExclusionRadius float32
}

// New validates cfg and precomputes the grid/pair delay lookup table.
func New(cfg Config) (*SSL, error) {
	if cfg.Mics == nil || cfg.Grid == nil {
		return nil, signal.NewConfigError("ssl.SSL", "mics and grid must not be nil")
	}
	if cfg.NumDirections < 1 {
		return nil, signal.NewConfigError("ssl.SSL", "num directions must be positive, got %d", cfg.NumDirections)
	}

	steer, err := steering.New(cfg.Mics, cfg.SampleRate, cfg.SoundSpeed)
	if err != nil {
		return nil, err
	}

	exclusion := cfg.ExclusionRadius
	if exclusion <= 0 {
		exclusion = 2 * cfg.Grid.NearestSpacing()
	}

	pairs := signal.NumPairs(cfg.Mics.Len())
	gridDelays := make([][]float32, cfg.Grid.Len())
	for g := 0; g < cfg.Grid.Len(); g++ {
		row := make([]float32, pairs)
		u := cfg.Grid.Point(g)
		for i := 0; i < cfg.Mics.Len(); i++ {
			for j := i + 1; j < cfg.Mics.Len(); j++ {
				idx, perr := signal.PairIndex(cfg.Mics.Len(), i, j)
				if perr != nil {
					return nil, perr
				}
				row[idx] = steer.TDOA(u, i, j)
			}
		}
		gridDelays[g] = row
	}

	return &SSL{
		mics:            cfg.Mics,
		grid:            cfg.Grid,
		steer:           steer,
		numDirections:   cfg.NumDirections,
		exclusionRadius: exclusion,
		gridDelays:      gridDelays,
		scores:          make([]float32, cfg.Grid.Len()),
		order:           make([]int, cfg.Grid.Len()),
	}, nil
}

// NumDirections returns the configured number of directions emitted per frame.
func (s *SSL) NumDirections() int { return s.numDirections }

// Process scores every grid point against corr's correlation buffers and
// emits the top NumDirections separated directions as POTENTIAL Doas.
func (s *SSL) Process(corr Correlations, out *signal.Doas) error {
	if corr.Channels() != s.mics.Len() {
		return &signal.DimError{Container: "Tdoas", Dimension: "channels", Want: s.mics.Len(), Got: corr.Channels()}
	}
	if out.Len() != s.numDirections {
		return &signal.DimError{Container: "Doas", Dimension: "len", Want: s.numDirections, Got: out.Len()}
	}

	pairs := signal.NumPairs(s.mics.Len())
	interp := float32(corr.Interpolation())
	norm := float32(corr.Bins())

	for g := 0; g < s.grid.Len(); g++ {
		delays := s.gridDelays[g]
		var score float32
		for i := 0; i < s.mics.Len(); i++ {
			for j := i + 1; j < s.mics.Len(); j++ {
				idx, err := signal.PairIndex(s.mics.Len(), i, j)
				if err != nil {
					return err
				}
				buf, cerr := corr.Correlation(i, j)
				if cerr != nil {
					return cerr
				}
				score += interpolate(buf, delays[idx]*interp) / norm
			}
		}
		s.scores[g] = score / float32(pairs)
		s.order[g] = g
	}

	sort.SliceStable(s.order, func(a, b int) bool {
		ga, gb := s.order[a], s.order[b]
		if s.scores[ga] != s.scores[gb] {
			return s.scores[ga] > s.scores[gb]
		}
		return ga < gb
	})

	out.Clear()
	selected := 0
	for _, g := range s.order {
		if selected >= s.numDirections {
			break
		}
		candidate := s.grid.Point(g)
		if !s.separatedFromSelected(candidate, out, selected) {
			continue
		}
		doa := signal.Doa{Type: signal.Potential, X: candidate.X, Y: candidate.Y, Z: candidate.Z, Energy: clamp01(s.scores[g])}
		out.Set(selected, doa)
		selected++
	}
	return nil
}

func (s *SSL) separatedFromSelected(candidate geometry.Point, out *signal.Doas, selected int) bool {
	cd := signal.Doa{X: candidate.X, Y: candidate.Y, Z: candidate.Z}
	for k := 0; k < selected; k++ {
		if signal.AngleBetween(cd, out.At(k)) < s.exclusionRadius {
			return false
		}
	}
	return true
}

// interpolate linearly interpolates buf at fractional index (scaled
// delay), wrapping as GCC's circular correlation buffer does.
func interpolate(buf []float32, scaledDelay float32) float32 {
	L := len(buf)
	k0 := floorInt(scaledDelay)
	frac := scaledDelay - float32(k0)
	i0 := wrapIndex(k0, L)
	i1 := wrapIndex(k0+1, L)
	return buf[i0]*(1-frac) + buf[i1]*frac
}

func floorInt(v float32) int {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return i
}

func wrapIndex(k, length int) int {
	k %= length
	if k < 0 {
		k += length
	}
	return k
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
