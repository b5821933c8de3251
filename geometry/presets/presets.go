// Package presets provides the named microphone array geometries spec.md
// §6 lists as external collaborators: fixed, real-world-shaped mic layouts
// a caller can hand to geometry.NewArray without hand-typing coordinates.
// The core never imports this package; it is consumed only through the
// []geometry.Mic slices it returns.
package presets

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/mamaheux/pyodas2/geometry"
)

func omni(x, y, z float64) geometry.Mic {
	return geometry.Mic{Position: r3.Vector{X: x, Y: y, Z: z}, Pattern: geometry.Omnidirectional}
}

// ringMics lays out n omnidirectional mics evenly around a horizontal
// ring of the given radius (meters), all at height z.
func ringMics(n int, radius, z float64) []geometry.Mic {
	mics := make([]geometry.Mic, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		mics[i] = omni(radius*math.Cos(theta), radius*math.Sin(theta), z)
	}
	return mics
}

// RespeakerUSB4 is a 4-mic square array, ~46mm spacing (ReSpeaker USB Mic Array v2.0 layout).
func RespeakerUSB4() []geometry.Mic {
	a := 0.0318 // half diagonal, meters
	return []geometry.Mic{
		omni(a, 0, 0),
		omni(0, a, 0),
		omni(-a, 0, 0),
		omni(0, -a, 0),
	}
}

// RespeakerUSB6 is a 6-mic + 1 center circular array, ~64mm diameter (ReSpeaker USB Mic Array v2.0, 6+1 variant).
func RespeakerUSB6() []geometry.Mic {
	mics := ringMics(6, 0.032, 0)
	return append(mics, omni(0, 0, 0))
}

// MinidspUMA is the 7-mic circular array of the MiniDSP UMA-8, one center mic
// surrounded by 6 on a ~43.5mm radius ring.
func MinidspUMA() []geometry.Mic {
	mics := ringMics(6, 0.0435, 0)
	return append(mics, omni(0, 0, 0))
}

// SC16DemoArray is a 16-mic circular array on a 0.1m radius ring, matching
// the XMOS/Seeed SC16 demo board's general shape.
func SC16DemoArray() []geometry.Mic {
	return ringMics(16, 0.1, 0)
}

// SC16F is a linear 16-mic array along the x axis, 0.02m spacing.
func SC16F() []geometry.Mic {
	const n = 16
	const spacing = 0.02
	mics := make([]geometry.Mic, n)
	start := -spacing * float64(n-1) / 2
	for i := 0; i < n; i++ {
		mics[i] = omni(start+spacing*float64(i), 0, 0)
	}
	return mics
}

// VibeUSCircular is an 8-mic circular array on a 0.05m radius ring.
func VibeUSCircular() []geometry.Mic {
	return ringMics(8, 0.05, 0)
}

// SoundskritMUG is a 4-mic square array, 0.02m spacing, the Soundskrit MUG form factor.
func SoundskritMUG() []geometry.Mic {
	a := 0.01
	return []geometry.Mic{
		omni(a, a, 0),
		omni(-a, a, 0),
		omni(-a, -a, 0),
		omni(a, -a, 0),
	}
}

// ByName looks up a preset by its spec.md name (e.g. "RESPEAKER_USB_4").
// It returns (nil, false) for an unrecognized name.
func ByName(name string) ([]geometry.Mic, bool) {
	switch name {
	case "RESPEAKER_USB_4":
		return RespeakerUSB4(), true
	case "RESPEAKER_USB_6":
		return RespeakerUSB6(), true
	case "MINIDSP_UMA":
		return MinidspUMA(), true
	case "SC16_DEMO_ARRAY":
		return SC16DemoArray(), true
	case "SC16F":
		return SC16F(), true
	case "VIBEUS_CIRCULAR":
		return VibeUSCircular(), true
	case "SOUNDSKRIT_MUG":
		return SoundskritMUG(), true
	default:
		return nil, false
	}
}
