// Command pyodas2-ssl is a minimal example binary wiring a geometry
// preset and the SSL pipeline: it reads a multichannel WAV recording and
// prints the localized directions for every hop, the kind of small
// "wire it up" example spec.md §1 leaves to external collaborators.
package main

import (
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/mamaheux/pyodas2/geometry"
	"github.com/mamaheux/pyodas2/geometry/presets"
	"github.com/mamaheux/pyodas2/pipeline"
	"github.com/mamaheux/pyodas2/signal"
	"github.com/mamaheux/pyodas2/stft"
	"github.com/mamaheux/pyodas2/wavio"
)

func main() {
	var (
		wavPath     string
		presetName  string
		hopLength   int
		fftSize     int
		numDirs     int
		soundSpeed  float32
		interp      int
	)

	pflag.StringVarP(&wavPath, "wav", "w", "", "input multichannel WAV file (required)")
	pflag.StringVarP(&presetName, "geometry", "g", "RESPEAKER_USB_4", "microphone geometry preset name")
	pflag.IntVar(&hopLength, "hop", 256, "hop length in samples")
	pflag.IntVar(&fftSize, "fft", 1024, "FFT size (power of two)")
	pflag.IntVar(&numDirs, "directions", 2, "number of directions SSL emits per frame")
	pflag.Float32Var(&soundSpeed, "sound-speed", 343.0, "speed of sound in m/s")
	pflag.IntVar(&interp, "interp", 4, "GCC zero-padding interpolation factor")
	pflag.Parse()

	if wavPath == "" {
		charmlog.Error("missing required flag", "flag", "--wav")
		pflag.Usage()
		os.Exit(2)
	}

	mics, ok := presets.ByName(presetName)
	if !ok {
		charmlog.Fatal("unknown geometry preset", "name", presetName)
	}
	array, err := geometry.NewArray(mics)
	if err != nil {
		charmlog.Fatal("building mic array", "err", err)
	}

	rec, err := wavio.Load(wavPath)
	if err != nil {
		charmlog.Fatal("loading wav", "path", wavPath, "err", err)
	}
	if len(rec.Channels) != array.Len() {
		charmlog.Fatal("channel count mismatch", "wav", len(rec.Channels), "geometry", array.Len())
	}

	grid, err := geometry.NewGrid(geometry.Sphere)
	if err != nil {
		charmlog.Fatal("building grid", "err", err)
	}

	pl, err := pipeline.NewSSLPipeline(pipeline.Config{
		Mics:          array,
		Grid:          grid,
		SampleRate:    float32(rec.SampleRate),
		HopLength:     hopLength,
		FFTSize:       fftSize,
		Window:        stft.Hann,
		SoundSpeed:    soundSpeed,
		NumDirections: numDirs,
		Alpha:         0.1,
		Interpolation: interp,
	})
	if err != nil {
		charmlog.Fatal("building pipeline", "err", err)
	}

	in, err := signal.NewHops("cmd.in", array.Len(), hopLength)
	if err != nil {
		charmlog.Fatal("allocating input hop", "err", err)
	}
	out, err := signal.NewDoas("cmd.out", numDirs)
	if err != nil {
		charmlog.Fatal("allocating output doas", "err", err)
	}

	frames := rec.Frames() / hopLength
	for f := 0; f < frames; f++ {
		for c := 0; c < array.Len(); c++ {
			copy(in.Channel(c), rec.Channels[c][f*hopLength:(f+1)*hopLength])
		}
		if err := pl.Process(in, out); err != nil {
			charmlog.Fatal("processing frame", "frame", f, "err", err)
		}
		for k := 0; k < out.Len(); k++ {
			d := out.At(k)
			if d.Type == signal.Undefined {
				continue
			}
			fmt.Printf("frame %d slot %d: (%.3f, %.3f, %.3f) energy=%.3f\n", f, k, d.X, d.Y, d.Z, d.Energy)
		}
	}
}
