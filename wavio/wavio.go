// Package wavio is the §6 "file (WAV) reading/writing" external
// collaborator: it loads a whole WAV file into the channels x samples
// layout the core's Hops frames slice out of, and writes beamformed audio
// back out to WAV. Neither the core nor pcm import this package; it only
// ever hands the core (or the caller) plain float32 buffers already
// normalized to [-1, 1].
package wavio

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recording is a whole decoded WAV file: one []float32 per channel,
// normalized to [-1, 1], plus its sample rate.
type Recording struct {
	SampleRate int
	Channels   [][]float32
}

// Frames returns the per-channel sample count, or 0 for an empty recording.
func (r *Recording) Frames() int {
	if len(r.Channels) == 0 {
		return 0
	}
	return len(r.Channels[0])
}

// Load decodes a whole WAV file at path into a Recording. Integer PCM
// samples are normalized by their source bit depth; the teacher's
// sound.Wave.GetFloatAtIdx shows this same per-bit-depth scaling.
func Load(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wavio: %s is not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavio: decoding %s: %w", path, err)
	}

	numChans := buf.Format.NumChannels
	if numChans < 1 {
		numChans = 1
	}
	nFrames := buf.NumFrames()

	channels := make([][]float32, numChans)
	for c := range channels {
		channels[c] = make([]float32, nFrames)
	}

	div := sampleDivisor(buf.SourceBitDepth)
	idx := 0
	for i := 0; i < nFrames; i++ {
		for c := 0; c < numChans; c++ {
			channels[c][i] = float32(buf.Data[idx]) / div
			idx++
		}
	}

	return &Recording{SampleRate: buf.Format.SampleRate, Channels: channels}, nil
}

func sampleDivisor(bitDepth int) float32 {
	switch bitDepth {
	case 32:
		return float32(0x7FFFFFFF)
	case 24:
		return float32(0x7FFFFF)
	case 16:
		return float32(0x7FFF)
	case 8:
		return float32(0x7F)
	default:
		return float32(0x7FFF)
	}
}

// Save writes channels (each normalized to [-1, 1], equal length) as a
// 16-bit PCM WAV file at path.
func Save(path string, sampleRate int, channels [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveTo(f, sampleRate, channels)
}

func saveTo(w io.WriteSeeker, sampleRate int, channels [][]float32) error {
	if len(channels) == 0 {
		return fmt.Errorf("wavio: no channels to save")
	}
	numChans := len(channels)
	nFrames := len(channels[0])
	for c, ch := range channels {
		if len(ch) != nFrames {
			return fmt.Errorf("wavio: channel %d has %d frames, want %d", c, len(ch), nFrames)
		}
	}

	enc := wav.NewEncoder(w, sampleRate, 16, numChans, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChans, SampleRate: sampleRate},
		Data:           make([]int, nFrames*numChans),
		SourceBitDepth: 16,
	}
	idx := 0
	for i := 0; i < nFrames; i++ {
		for c := 0; c < numChans; c++ {
			buf.Data[idx] = int(clip16(channels[c][i]))
			idx++
		}
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func clip16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 0x7FFF)
}
