package signal

import "github.com/chewxy/math32"

// DoaType distinguishes why a direction slot is populated.
type DoaType int

const (
	// Undefined marks an empty slot.
	Undefined DoaType = iota
	// Potential marks an instantaneous SSL estimate, not yet tracked.
	Potential
	// Tracked marks a slot owned by a live SST track.
	Tracked
	// Target marks a direction supplied externally by the caller (steering).
	Target
)

func (t DoaType) String() string {
	switch t {
	case Undefined:
		return "UNDEFINED"
	case Potential:
		return "POTENTIAL"
	case Tracked:
		return "TRACKED"
	case Target:
		return "TARGET"
	default:
		return "UNKNOWN"
	}
}

// Doa is one direction slot: a type tag, a unit-coordinate direction and an
// energy reading in [0, 1]. Coordinates are only meaningful (and only
// guaranteed unit-norm) when Type != Undefined.
type Doa struct {
	Type    DoaType
	X, Y, Z float32
	Energy  float32
}

// Norm returns the Euclidean length of the direction vector.
func (d Doa) Norm() float32 {
	return math32.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// Normalized returns d with its direction rescaled to unit length. If the
// vector is (near) zero, d is returned unchanged with Type set to Undefined.
func (d Doa) Normalized() Doa {
	n := d.Norm()
	if n < 1e-12 {
		d.Type = Undefined
		return d
	}
	d.X /= n
	d.Y /= n
	d.Z /= n
	return d
}

// Dot returns the dot product of the two directions' unit coordinates.
func Dot(a, b Doa) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// AngleBetween returns the angle in radians between two unit directions.
func AngleBetween(a, b Doa) float32 {
	d := Dot(a, b)
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return math32.Acos(d)
}

// Doas is an ordered, fixed-length list of direction slots.
type Doas struct {
	label string
	slots []Doa
}

// NewDoas allocates a Doas with K empty (Undefined) slots.
func NewDoas(label string, k int) (*Doas, error) {
	if len(label) > MaxLabelLen {
		return nil, &DimError{Container: "Doas", Dimension: "label", Want: MaxLabelLen, Got: len(label)}
	}
	return &Doas{label: label, slots: make([]Doa, k)}, nil
}

// Label returns the diagnostic label.
func (d *Doas) Label() string { return d.label }

// Len returns the number of slots.
func (d *Doas) Len() int { return len(d.slots) }

// At returns slot k.
func (d *Doas) At(k int) Doa { return d.slots[k] }

// Set stores v at slot k.
func (d *Doas) Set(k int, v Doa) { d.slots[k] = v }

// Slots returns the backing slice; callers may iterate but should use Set
// to mutate so indices stay obviously in range.
func (d *Doas) Slots() []Doa { return d.slots }

// Clear resets every slot to Undefined.
func (d *Doas) Clear() {
	for i := range d.slots {
		d.slots[i] = Doa{}
	}
}
