package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDoaNormalized(t *testing.T) {
	d := Doa{Type: Potential, X: 3, Y: 4, Z: 0}
	n := d.Normalized()
	assert.InDelta(t, 1.0, float64(n.Norm()), 1e-5)
	assert.Equal(t, Potential, n.Type)
}

func TestDoaNormalizedZeroVectorBecomesUndefined(t *testing.T) {
	d := Doa{Type: Target, X: 0, Y: 0, Z: 0}
	n := d.Normalized()
	assert.Equal(t, Undefined, n.Type)
}

func TestAngleBetweenSameDirectionIsZero(t *testing.T) {
	a := Doa{X: 1, Y: 0, Z: 0}
	b := Doa{X: 1, Y: 0, Z: 0}
	assert.InDelta(t, 0, float64(AngleBetween(a, b)), 1e-5)
}

func TestAngleBetweenOrthogonalIsHalfPi(t *testing.T) {
	a := Doa{X: 1, Y: 0, Z: 0}
	b := Doa{X: 0, Y: 1, Z: 0}
	assert.InDelta(t, 1.5707963, float64(AngleBetween(a, b)), 1e-4)
}

func TestDoasSetAtClear(t *testing.T) {
	doas, err := NewDoas("d", 3)
	require.NoError(t, err)
	doas.Set(1, Doa{Type: Potential, X: 1})
	assert.Equal(t, Potential, doas.At(1).Type)
	doas.Clear()
	assert.Equal(t, Undefined, doas.At(1).Type)
}

// TestDoaNormalizedAlwaysUnitOrUndefined is the §8 "Doas with type !=
// UNDEFINED have |coord| = 1" invariant, checked over random non-zero
// vectors.
func TestDoaNormalizedAlwaysUnitOrUndefined(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Float32Range(-100, 100).Draw(t, "x")
		y := rapid.Float32Range(-100, 100).Draw(t, "y")
		z := rapid.Float32Range(-100, 100).Draw(t, "z")
		d := Doa{Type: Potential, X: x, Y: y, Z: z}
		n := d.Normalized()
		if n.Type == Undefined {
			return
		}
		assert.InDelta(t, 1.0, float64(n.Norm()), 1e-4)
	})
}
