package geometry

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// GridKind selects which unit-vector set a Grid precomputes.
type GridKind int

const (
	// Sphere covers the full unit sphere with ~2562 points.
	Sphere GridKind = iota
	// HalfSphere covers only z >= 0, ~1321 points.
	HalfSphere
	// Arc covers the half of the xy great circle with y >= 0, from
	// (1, 0, 0) to (-1, 0, 0) in 181 points (1 degree apart).
	Arc
)

// Point is a single grid direction: a unit vector in float32, the
// precision the rest of the core runs in.
type Point struct {
	X, Y, Z float32
}

// Vector returns p as a float64 r3.Vector for geometry math.
func (p Point) Vector() r3.Vector { return r3.Vector{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)} }

// Grid is an immutable, precomputed set of unit-vector directions,
// subdivided from an icosahedron (Sphere/HalfSphere) or sampled along half
// of a great circle (Arc). Grids are read-only after construction and are
// meant to be shared across pipelines.
type Grid struct {
	kind   GridKind
	points []Point
	// nearestSpacing is the smallest nearest-neighbor angle, in radians,
	// found over a sample of the points (every point for grids of up to
	// 400 points); twice it is the default SSL exclusion radius.
	nearestSpacing float32
}

// NewGrid builds the requested grid kind.
func NewGrid(kind GridKind) (*Grid, error) {
	var pts []r3.Vector
	switch kind {
	case Sphere:
		pts = icosphere(4)
	case HalfSphere:
		for _, p := range icosphere(4) {
			if p.Z >= 0 {
				pts = append(pts, p)
			}
		}
	case Arc:
		const n = 181
		pts = make([]r3.Vector, n)
		for i := 0; i < n; i++ {
			theta := math.Pi * float64(i) / float64(n-1)
			pts[i] = r3.Vector{X: math.Cos(theta), Y: math.Sin(theta), Z: 0}
		}
	default:
		return nil, fmt.Errorf("geometry: unknown grid kind %d", kind)
	}

	points := make([]Point, len(pts))
	for i, p := range pts {
		points[i] = Point{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
	}
	g := &Grid{kind: kind, points: points}
	g.nearestSpacing = g.computeNearestSpacing()
	return g, nil
}

// Kind returns which grid this is.
func (g *Grid) Kind() GridKind { return g.kind }

// Len returns the number of points.
func (g *Grid) Len() int { return len(g.points) }

// Point returns grid point i.
func (g *Grid) Point(i int) Point { return g.points[i] }

// NearestSpacing returns the smallest angle, in radians, separating a
// point from its nearest neighbor, taken over every point for grids of up
// to 400 points and over a regular sample of about 200 points otherwise.
// SSL's default exclusion radius is twice this value.
func (g *Grid) NearestSpacing() float32 { return g.nearestSpacing }

func (g *Grid) computeNearestSpacing() float32 {
	if len(g.points) < 2 {
		return 0
	}
	// Sampling a subset keeps this cheap for the ~2562-point sphere grid;
	// the grid is built once and shared, so this only runs at construction.
	best := float32(math.Pi)
	sampleEvery := 1
	if len(g.points) > 400 {
		sampleEvery = len(g.points) / 200
	}
	for i := 0; i < len(g.points); i += sampleEvery {
		a := g.points[i].Vector()
		localBest := math.Pi
		for j, p := range g.points {
			if i == j {
				continue
			}
			ang := math.Acos(clamp(a.Dot(p.Vector()), -1, 1))
			if ang < localBest {
				localBest = ang
			}
		}
		if float32(localBest) < best {
			best = float32(localBest)
		}
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// icosphere returns the unit-sphere vertices of an icosahedron subdivided
// `levels` times. Vertex count is 10*4^levels + 2.
func icosphere(levels int) []r3.Vector {
	t := (1 + math.Sqrt(5)) / 2

	verts := []r3.Vector{
		{X: -1, Y: t, Z: 0}, {X: 1, Y: t, Z: 0}, {X: -1, Y: -t, Z: 0}, {X: 1, Y: -t, Z: 0},
		{X: 0, Y: -1, Z: t}, {X: 0, Y: 1, Z: t}, {X: 0, Y: -1, Z: -t}, {X: 0, Y: 1, Z: -t},
		{X: t, Y: 0, Z: -1}, {X: t, Y: 0, Z: 1}, {X: -t, Y: 0, Z: -1}, {X: -t, Y: 0, Z: 1},
	}
	for i := range verts {
		verts[i] = verts[i].Normalize()
	}

	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	type edgeKey struct{ a, b int }
	midpointCache := map[edgeKey]int{}

	midpoint := func(a, b int) int {
		key := edgeKey{a, b}
		if key.a > key.b {
			key.a, key.b = key.b, key.a
		}
		if idx, ok := midpointCache[key]; ok {
			return idx
		}
		mid := verts[a].Add(verts[b]).Normalize()
		verts = append(verts, mid)
		idx := len(verts) - 1
		midpointCache[key] = idx
		return idx
	}

	for l := 0; l < levels; l++ {
		next := make([][3]int, 0, len(faces)*4)
		for _, f := range faces {
			ab := midpoint(f[0], f[1])
			bc := midpoint(f[1], f[2])
			ca := midpoint(f[2], f[0])
			next = append(next,
				[3]int{f[0], ab, ca},
				[3]int{f[1], bc, ab},
				[3]int{f[2], ca, bc},
				[3]int{ab, bc, ca},
			)
		}
		faces = next
	}

	return verts
}
