// Package geometry holds the static, read-only microphone array
// description and the precomputed unit-vector direction grids used by
// SSL and the steering stage. Everything here is immutable after
// construction and safe to share across pipelines and goroutines.
package geometry

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Pattern is a microphone's directional response.
type Pattern int

const (
	// Omnidirectional mics have unit gain in every direction.
	Omnidirectional Pattern = iota
	// Cardioid mics have gain (1 + d.u)/2 for a unit vector u from mic to source.
	Cardioid
)

func (p Pattern) String() string {
	switch p {
	case Omnidirectional:
		return "OMNIDIRECTIONAL"
	case Cardioid:
		return "CARDIOID"
	default:
		return "UNKNOWN"
	}
}

// Mic describes one microphone: its position in meters, its facing
// direction (used only by Cardioid), and its pattern.
type Mic struct {
	Position  r3.Vector
	Direction r3.Vector
	Pattern   Pattern
}

// Gain returns the mic's response to a unit vector u pointing from the
// mic toward the source.
func (m Mic) Gain(u r3.Vector) float64 {
	switch m.Pattern {
	case Cardioid:
		d := m.Direction.Normalize()
		return (1 + d.Dot(u)) / 2
	default:
		return 1
	}
}

// Array is an immutable, validated list of microphones.
type Array struct {
	mics []Mic
}

// NewArray validates and wraps a list of mics. At least two mics are
// required since every stage downstream operates on channel pairs.
func NewArray(mics []Mic) (*Array, error) {
	if len(mics) < 2 {
		return nil, fmt.Errorf("geometry: array needs at least 2 mics, got %d", len(mics))
	}
	for i, m := range mics {
		if m.Pattern != Omnidirectional && m.Pattern != Cardioid {
			return nil, fmt.Errorf("geometry: mic %d has unsupported pattern %d", i, m.Pattern)
		}
	}
	cp := make([]Mic, len(mics))
	copy(cp, mics)
	return &Array{mics: cp}, nil
}

// Len returns the number of microphones.
func (a *Array) Len() int { return len(a.mics) }

// Mic returns microphone i.
func (a *Array) Mic(i int) Mic { return a.mics[i] }

// Aperture returns the largest distance between any two mics, in meters.
func (a *Array) Aperture() float64 {
	max := 0.0
	for i := range a.mics {
		for j := i + 1; j < len(a.mics); j++ {
			d := a.mics[i].Position.Sub(a.mics[j].Position).Norm()
			if d > max {
				max = d
			}
		}
	}
	return max
}
