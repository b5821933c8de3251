// Package steering maps a unit-vector direction to per-microphone-pair
// TDOAs, the forward model SSL's grid search and the steering pipeline
// both build on.
package steering

import (
	"github.com/mamaheux/pyodas2/geometry"
	"github.com/mamaheux/pyodas2/signal"
)

// Steering holds the microphone geometry and acoustic constants needed to
// compute tau_ij(u) = (p_j - p_i).u * sampleRate/soundSpeed for any unit
// direction u and pair (i, j).
type Steering struct {
	mics       *geometry.Array
	sampleRate float32
	soundSpeed float32
}

// New constructs a Steering stage over a fixed microphone array.
func New(mics *geometry.Array, sampleRate, soundSpeed float32) (*Steering, error) {
	if mics == nil {
		return nil, signal.NewConfigError("steering.Steering", "mics must not be nil")
	}
	if sampleRate <= 0 || soundSpeed <= 0 {
		return nil, signal.NewConfigError("steering.Steering", "sample rate and sound speed must be positive")
	}
	return &Steering{mics: mics, sampleRate: sampleRate, soundSpeed: soundSpeed}, nil
}

// Channels returns the microphone count.
func (s *Steering) Channels() int { return s.mics.Len() }

// Aperture returns the array's aperture in meters.
func (s *Steering) Aperture() float64 { return s.mics.Aperture() }

// TDOA returns tau_ij(u) in samples for the unit direction u and pair
// (i, j).
func (s *Steering) TDOA(u geometry.Point, i, j int) float32 {
	pi := s.mics.Mic(i).Position
	pj := s.mics.Mic(j).Position
	d := pj.Sub(pi).Dot(u.Vector())
	return float32(d) * s.sampleRate / s.soundSpeed
}

// Process fills out with the per-pair TDOAs for every active (non-
// Undefined) direction in directions, in the same slot order. Slots of
// type Undefined produce a zero Tdoa for every pair.
func (s *Steering) Process(directions *signal.Doas, out *signal.Tdoas) error {
	if directions.Len() != out.Sources() {
		return &signal.DimError{Container: "Tdoas", Dimension: "sources", Want: directions.Len(), Got: out.Sources()}
	}
	if out.Channels() != s.mics.Len() {
		return &signal.DimError{Container: "Tdoas", Dimension: "channels", Want: s.mics.Len(), Got: out.Channels()}
	}

	for src := 0; src < directions.Len(); src++ {
		doa := directions.At(src)
		row := out.Source(src)
		if doa.Type == signal.Undefined {
			for i := range row {
				row[i] = signal.Tdoa{}
			}
			continue
		}
		u := geometry.Point{X: doa.X, Y: doa.Y, Z: doa.Z}
		for i := 0; i < s.mics.Len(); i++ {
			for j := i + 1; j < s.mics.Len(); j++ {
				idx, err := signal.PairIndex(s.mics.Len(), i, j)
				if err != nil {
					return err
				}
				row[idx] = signal.Tdoa{Delay: s.TDOA(u, i, j), Amplitude: 1}
			}
		}
	}
	return nil
}
