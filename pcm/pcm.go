// Package pcm converts interleaved PCM byte buffers to and from the
// normalized channels x hop Hops frames the core consumes, the external
// collaborator described in §6. The core itself never imports this
// package; it only ever sees floats already in [-1, 1].
package pcm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mamaheux/pyodas2/signal"
)

// DType names a supported PCM sample format.
type DType int

const (
	Int8 DType = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

// Width returns the byte width of one sample in this format.
func (d DType) Width() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// FromSampleWidth maps the two sample widths callers most commonly hand
// in (2 -> int16, 4 -> int32) to a DType. It reports false for any other
// width; the caller must name the DType explicitly instead.
func FromSampleWidth(width int) (DType, bool) {
	switch width {
	case 2:
		return Int16, true
	case 4:
		return Int32, true
	default:
		return 0, false
	}
}

// UnsupportedDTypeError is returned for a DType value Width doesn't recognize.
type UnsupportedDTypeError struct{ DType DType }

func (e *UnsupportedDTypeError) Error() string {
	return fmt.Sprintf("pcm: unsupported dtype %d", e.DType)
}

// Decode reads interleaved PCM bytes (channels x hop samples, little
// endian, in dt's format) into out, shape (channels, hop). Signed integers
// are normalized as x/|min|; unsigned as x/max - 0.5; floats are clipped
// to [-1, 1].
func Decode(data []byte, dt DType, out *signal.Hops) error {
	width := dt.Width()
	if width == 0 {
		return &UnsupportedDTypeError{DType: dt}
	}
	channels := out.Channels()
	hop := out.Shifts()
	if len(data) != channels*hop*width {
		return &signal.DimError{Container: "pcm", Dimension: "bytes", Want: channels * hop * width, Got: len(data)}
	}

	for frame := 0; frame < hop; frame++ {
		for c := 0; c < channels; c++ {
			off := (frame*channels + c) * width
			out.Channel(c)[frame] = decodeSample(data[off:off+width], dt)
		}
	}
	return nil
}

func decodeSample(b []byte, dt DType) float32 {
	switch dt {
	case Int8:
		v := int8(b[0])
		return -float32(v) / float32(math.MinInt8)
	case Uint8:
		v := b[0]
		return float32(v)/float32(math.MaxUint8) - 0.5
	case Int16:
		v := int16(binary.LittleEndian.Uint16(b))
		return -float32(v) / float32(math.MinInt16)
	case Uint16:
		v := binary.LittleEndian.Uint16(b)
		return float32(v)/float32(math.MaxUint16) - 0.5
	case Int32:
		v := int32(binary.LittleEndian.Uint32(b))
		return -float32(v) / float32(math.MinInt32)
	case Uint32:
		v := binary.LittleEndian.Uint32(b)
		return float32(v)/float32(math.MaxUint32) - 0.5
	case Int64:
		v := int64(binary.LittleEndian.Uint64(b))
		return -float32(v) / float32(math.MinInt64)
	case Uint64:
		v := binary.LittleEndian.Uint64(b)
		return float32(v)/float32(math.MaxUint64) - 0.5
	case Float32:
		bits := binary.LittleEndian.Uint32(b)
		return clip(math.Float32frombits(bits))
	case Float64:
		bits := binary.LittleEndian.Uint64(b)
		return clip(float32(math.Float64frombits(bits)))
	default:
		return 0
	}
}

// Encode writes in (shape (channels, hop), floats in [-1, 1]) to
// interleaved PCM bytes in dt's format, the inverse of Decode's scaling.
func Encode(in *signal.Hops, dt DType) ([]byte, error) {
	width := dt.Width()
	if width == 0 {
		return nil, &UnsupportedDTypeError{DType: dt}
	}
	channels := in.Channels()
	hop := in.Shifts()
	out := make([]byte, channels*hop*width)

	for frame := 0; frame < hop; frame++ {
		for c := 0; c < channels; c++ {
			off := (frame*channels + c) * width
			encodeSample(out[off:off+width], clip(in.Channel(c)[frame]), dt)
		}
	}
	return out, nil
}

func encodeSample(b []byte, v float32, dt DType) {
	switch dt {
	case Int8:
		b[0] = byte(clampInt64(int64(v*-math.MinInt8), math.MinInt8, math.MaxInt8))
	case Uint8:
		b[0] = byte(clampInt64(int64((v+0.5)*math.MaxUint8), 0, math.MaxUint8))
	case Int16:
		binary.LittleEndian.PutUint16(b, uint16(clampInt64(int64(v*-math.MinInt16), math.MinInt16, math.MaxInt16)))
	case Uint16:
		binary.LittleEndian.PutUint16(b, uint16(clampInt64(int64((v+0.5)*math.MaxUint16), 0, math.MaxUint16)))
	case Int32:
		binary.LittleEndian.PutUint32(b, uint32(clampInt64(int64(float64(v)*-math.MinInt32), math.MinInt32, math.MaxInt32)))
	case Uint32:
		binary.LittleEndian.PutUint32(b, uint32(clampInt64(int64((float64(v)+0.5)*math.MaxUint32), 0, math.MaxUint32)))
	case Int64:
		binary.LittleEndian.PutUint64(b, uint64(clampFloat64ToInt64(float64(v)*-math.MinInt64, math.MinInt64, math.MaxInt64)))
	case Uint64:
		f := (float64(v) + 0.5) * math.MaxUint64
		var u uint64
		switch {
		case f <= 0:
			u = 0
		case f >= math.MaxUint64:
			u = math.MaxUint64
		default:
			u = uint64(f)
		}
		binary.LittleEndian.PutUint64(b, u)
	case Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	case Float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(float64(v)))
	}
}

// clampInt64 saturates v into [lo, hi]; it exists because scaling a
// clip()-ped float by a sample format's max magnitude can still land one
// unit past the signed range (e.g. 1.0 * 32768 for Int16), which would
// otherwise overflow the narrower integer conversion.
func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFloat64ToInt64 clamps in floating point before the final int64
// conversion: the Int64 scale factor maps +1.0 to 2^63, which float64(hi)
// also rounds to but which int64() cannot represent.
func clampFloat64ToInt64(v float64, lo, hi int64) int64 {
	if v < float64(lo) {
		return lo
	}
	if v >= float64(hi) {
		return hi
	}
	return int64(v)
}

func clip(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
