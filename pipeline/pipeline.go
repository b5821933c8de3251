// Package pipeline composes the individual DSP stages into the five
// ready-to-use signal flows named in §4.11: SSL, SST, DelaySum,
// Steering+DelaySum and SST+DelaySum.
package pipeline

import (
	"math"

	charmlog "github.com/charmbracelet/log"

	"github.com/mamaheux/pyodas2/beamformer"
	"github.com/mamaheux/pyodas2/delaysum"
	"github.com/mamaheux/pyodas2/gcc"
	"github.com/mamaheux/pyodas2/geometry"
	"github.com/mamaheux/pyodas2/phat"
	"github.com/mamaheux/pyodas2/scm"
	"github.com/mamaheux/pyodas2/signal"
	"github.com/mamaheux/pyodas2/ssl"
	"github.com/mamaheux/pyodas2/sst"
	"github.com/mamaheux/pyodas2/steering"
	"github.com/mamaheux/pyodas2/stft"
)

// Config groups the construction parameters shared by every pipeline:
// geometry, sample rate, hop length, FFT size, window kind, the relevant
// counts, and the speed of sound.
type Config struct {
	Mics       *geometry.Array
	Grid       *geometry.Grid // required by SSL/SST pipelines, unused otherwise
	SampleRate float32
	HopLength  int
	FFTSize    int
	Window     stft.Window
	SoundSpeed float32

	// NumDirections is S: the number of POTENTIAL slots SSL emits per
	// frame, and (for the DelaySum pipeline) the number of GCC peaks
	// beamformed directly without going through SSL.
	NumDirections int
	// NumTracks is T: the number of stable SST slots.
	NumTracks int

	Alpha         float32 // SCM mixing factor
	Interpolation int     // GCC zero-padding factor K
	Dsf           sst.Dsf
}

func (c Config) bins() int { return c.FFTSize/2 + 1 }

func newSTFT(c Config) (*stft.STFT, error) {
	return stft.New(c.Mics.Len(), c.FFTSize, c.HopLength, c.Window)
}

func newSCM(c Config) (*scm.SCM, error) {
	return scm.New(c.Mics.Len(), c.bins(), c.Alpha)
}

func newGCC(c Config) (*gcc.GCC, error) {
	return gcc.New(gcc.Config{
		Channels:       c.Mics.Len(),
		Bins:           c.bins(),
		Interpolation:  c.Interpolation,
		MaxPeaks:       c.NumDirections,
		SampleRate:     c.SampleRate,
		SoundSpeed:     c.SoundSpeed,
		ApertureMeters: float32(c.Mics.Aperture()),
	})
}

// SSLPipeline runs STFT -> SCM(mask=1) -> PHAT -> GCC -> SSL, emitting a
// list of POTENTIAL directions per frame.
type SSLPipeline struct {
	stft  *stft.STFT
	scm   *scm.SCM
	phat  *phat.PHAT
	gcc   *gcc.GCC
	ssl   *ssl.SSL

	freqs  *signal.Freqs
	masks  *signal.Masks
	cov    *signal.Covs
	white  *signal.Covs
	peaks  *signal.Tdoas
}

// NewSSLPipeline constructs an SSL pipeline from cfg.
func NewSSLPipeline(cfg Config) (*SSLPipeline, error) {
	if cfg.Grid == nil {
		return nil, signal.NewConfigError("pipeline.SSLPipeline", "grid must not be nil")
	}

	st, err := newSTFT(cfg)
	if err != nil {
		return nil, err
	}
	sc, err := newSCM(cfg)
	if err != nil {
		return nil, err
	}
	ph, err := phat.New(cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	gc, err := newGCC(cfg)
	if err != nil {
		return nil, err
	}
	sslStage, err := ssl.New(ssl.Config{
		Mics:          cfg.Mics,
		Grid:          cfg.Grid,
		SampleRate:    cfg.SampleRate,
		SoundSpeed:    cfg.SoundSpeed,
		NumDirections: cfg.NumDirections,
	})
	if err != nil {
		return nil, err
	}

	freqs, err := signal.NewFreqs("pipeline.freqs", cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	masks, err := signal.NewMasks("pipeline.masks", cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	cov, err := signal.NewCovs("pipeline.cov", cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	white, err := signal.NewCovs("pipeline.white", cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	peaks, err := signal.NewTdoas("pipeline.peaks", cfg.NumDirections, cfg.Mics.Len())
	if err != nil {
		return nil, err
	}

	return &SSLPipeline{
		stft: st, scm: sc, phat: ph, gcc: gc, ssl: sslStage,
		freqs: freqs, masks: masks, cov: cov, white: white, peaks: peaks,
	}, nil
}

// Process runs one frame of audio through the pipeline, writing the
// resulting POTENTIAL directions into out (length must equal NumDirections).
func (p *SSLPipeline) Process(in *signal.Hops, out *signal.Doas) error {
	if err := p.stft.Process(in, p.freqs); err != nil {
		return err
	}
	if err := p.scm.Process(p.freqs, p.masks, p.cov); err != nil {
		return err
	}
	if err := p.phat.Process(p.cov, p.white); err != nil {
		return err
	}
	if err := p.gcc.Process(p.white, p.peaks); err != nil {
		return err
	}
	return p.ssl.Process(p.gcc, out)
}

// SSTPipeline runs the SSL pipeline then folds its potentials through an
// SST tracker, emitting both the instantaneous potentials and the
// slot-stable tracked directions.
type SSTPipeline struct {
	ssl *SSLPipeline
	sst *sst.SST

	potentials *signal.Doas
}

// NewSSTPipeline constructs an SST pipeline from cfg.
func NewSSTPipeline(cfg Config) (*SSTPipeline, error) {
	sslPipeline, err := NewSSLPipeline(cfg)
	if err != nil {
		return nil, err
	}
	tracker, err := sst.New(cfg.NumTracks, cfg.Dsf)
	if err != nil {
		return nil, err
	}
	potentials, err := signal.NewDoas("pipeline.potentials", cfg.NumDirections)
	if err != nil {
		return nil, err
	}
	if cfg.NumTracks > cfg.NumDirections {
		charmlog.Warn("pipeline: more track slots than SSL directions per frame; some slots can never find an association",
			"tracks", cfg.NumTracks, "directions", cfg.NumDirections)
	}
	return &SSTPipeline{ssl: sslPipeline, sst: tracker, potentials: potentials}, nil
}

// Process runs one frame through the SSL pipeline and the tracker,
// writing the instantaneous potentials into potentials and the
// slot-stable tracked directions into tracks.
func (p *SSTPipeline) Process(in *signal.Hops, potentials, tracks *signal.Doas) error {
	if err := p.ssl.Process(in, p.potentials); err != nil {
		return err
	}
	for k := 0; k < p.potentials.Len(); k++ {
		potentials.Set(k, p.potentials.At(k))
	}
	return p.sst.Process(p.potentials, tracks)
}

// DelaySumPipeline runs STFT -> SCM -> PHAT -> GCC -> DelaySum ->
// Beamformer -> iSTFT, beamforming directly toward GCC's own top-peak
// delay estimates without an SSL grid search.
type DelaySumPipeline struct {
	stft  *stft.STFT
	scm   *scm.SCM
	phat  *phat.PHAT
	gcc   *gcc.GCC
	ds    *delaysum.DelaySum
	bf    *beamformer.Beamformer
	istft *stft.ISTFT

	freqs   *signal.Freqs
	masks   *signal.Masks
	cov     *signal.Covs
	white   *signal.Covs
	peaks   *signal.Tdoas
	weights *signal.Weights
	outFreq *signal.Freqs
}

// NewDelaySumPipeline constructs a DelaySum pipeline from cfg.
func NewDelaySumPipeline(cfg Config) (*DelaySumPipeline, error) {
	st, err := newSTFT(cfg)
	if err != nil {
		return nil, err
	}
	sc, err := newSCM(cfg)
	if err != nil {
		return nil, err
	}
	ph, err := phat.New(cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	gc, err := newGCC(cfg)
	if err != nil {
		return nil, err
	}
	ds, err := delaysum.New(cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	bf, err := beamformer.New(cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	ist, err := stft.NewInverse(cfg.NumDirections, cfg.FFTSize, cfg.HopLength, cfg.Window)
	if err != nil {
		return nil, err
	}

	freqs, _ := signal.NewFreqs("pipeline.freqs", cfg.Mics.Len(), cfg.bins())
	masks, _ := signal.NewMasks("pipeline.masks", cfg.Mics.Len(), cfg.bins())
	cov, _ := signal.NewCovs("pipeline.cov", cfg.Mics.Len(), cfg.bins())
	white, _ := signal.NewCovs("pipeline.white", cfg.Mics.Len(), cfg.bins())
	peaks, err := signal.NewTdoas("pipeline.peaks", cfg.NumDirections, cfg.Mics.Len())
	if err != nil {
		return nil, err
	}
	weights, err := signal.NewWeights("pipeline.weights", cfg.NumDirections, cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	outFreq, err := signal.NewFreqs("pipeline.outfreq", cfg.NumDirections, cfg.bins())
	if err != nil {
		return nil, err
	}

	return &DelaySumPipeline{
		stft: st, scm: sc, phat: ph, gcc: gc, ds: ds, bf: bf, istft: ist,
		freqs: freqs, masks: masks, cov: cov, white: white, peaks: peaks,
		weights: weights, outFreq: outFreq,
	}, nil
}

// Process runs one frame of audio through the pipeline, writing beamformed
// audio (shape NumDirections x HopLength) into out.
func (p *DelaySumPipeline) Process(in *signal.Hops, out *signal.Hops) error {
	if err := p.stft.Process(in, p.freqs); err != nil {
		return err
	}
	if err := p.scm.Process(p.freqs, p.masks, p.cov); err != nil {
		return err
	}
	if err := p.phat.Process(p.cov, p.white); err != nil {
		return err
	}
	if err := p.gcc.Process(p.white, p.peaks); err != nil {
		return err
	}
	if err := p.ds.Process(p.peaks, p.weights); err != nil {
		return err
	}
	if err := p.bf.Process(p.freqs, p.weights, p.outFreq); err != nil {
		return err
	}
	return p.istft.Process(p.outFreq, out)
}

// SteeringDelaySumPipeline beamforms toward caller-supplied directions:
// STFT -> (caller) Steering -> DelaySum -> Beamformer -> iSTFT.
type SteeringDelaySumPipeline struct {
	stft     *stft.STFT
	steering *steering.Steering
	ds       *delaysum.DelaySum
	bf       *beamformer.Beamformer
	istft    *stft.ISTFT

	freqs      *signal.Freqs
	directions *signal.Doas
	tdoas      *signal.Tdoas
	weights    *signal.Weights
	outFreq    *signal.Freqs
}

// NewSteeringDelaySumPipeline constructs a steering-driven DelaySum
// pipeline from cfg.
func NewSteeringDelaySumPipeline(cfg Config) (*SteeringDelaySumPipeline, error) {
	st, err := newSTFT(cfg)
	if err != nil {
		return nil, err
	}
	steer, err := steering.New(cfg.Mics, cfg.SampleRate, cfg.SoundSpeed)
	if err != nil {
		return nil, err
	}
	ds, err := delaysum.New(cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	bf, err := beamformer.New(cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	ist, err := stft.NewInverse(cfg.NumDirections, cfg.FFTSize, cfg.HopLength, cfg.Window)
	if err != nil {
		return nil, err
	}

	freqs, _ := signal.NewFreqs("pipeline.freqs", cfg.Mics.Len(), cfg.bins())
	directions, err := signal.NewDoas("pipeline.directions", cfg.NumDirections)
	if err != nil {
		return nil, err
	}
	tdoas, err := signal.NewTdoas("pipeline.tdoas", cfg.NumDirections, cfg.Mics.Len())
	if err != nil {
		return nil, err
	}
	weights, err := signal.NewWeights("pipeline.weights", cfg.NumDirections, cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	outFreq, err := signal.NewFreqs("pipeline.outfreq", cfg.NumDirections, cfg.bins())
	if err != nil {
		return nil, err
	}

	return &SteeringDelaySumPipeline{
		stft: st, steering: steer, ds: ds, bf: bf, istft: ist,
		freqs: freqs, directions: directions, tdoas: tdoas, weights: weights, outFreq: outFreq,
	}, nil
}

// SetDirections replaces the directions this pipeline beamforms toward.
// Every vector is renormalized to unit length; a near-zero or non-finite
// vector is rejected.
func (p *SteeringDelaySumPipeline) SetDirections(directions []signal.Doa) error {
	if len(directions) != p.directions.Len() {
		return &signal.DimError{Container: "Doas", Dimension: "len", Want: p.directions.Len(), Got: len(directions)}
	}
	for i, d := range directions {
		nd := d.Normalized()
		// A NaN or infinite component leaves a NaN coordinate after normalization.
		nonFinite := math.IsNaN(float64(nd.X)) || math.IsNaN(float64(nd.Y)) || math.IsNaN(float64(nd.Z))
		if nd.Type == signal.Undefined || nonFinite {
			return signal.NewConfigError("pipeline.SteeringDelaySumPipeline", "direction %d is not finite/non-zero", i)
		}
		nd.Type = signal.Target
		p.directions.Set(i, nd)
	}
	return nil
}

// Process runs one frame of audio through the pipeline, writing beamformed
// audio (shape NumDirections x HopLength) into out.
func (p *SteeringDelaySumPipeline) Process(in *signal.Hops, out *signal.Hops) error {
	if err := p.stft.Process(in, p.freqs); err != nil {
		return err
	}
	if err := p.steering.Process(p.directions, p.tdoas); err != nil {
		return err
	}
	if err := p.ds.Process(p.tdoas, p.weights); err != nil {
		return err
	}
	if err := p.bf.Process(p.freqs, p.weights, p.outFreq); err != nil {
		return err
	}
	return p.istft.Process(p.outFreq, out)
}

// SSTDelaySumPipeline runs the SST pipeline, steers toward every TRACKED
// slot, and beamforms; any slot whose type is not TRACKED produces
// all-zero audio.
type SSTDelaySumPipeline struct {
	sst      *SSTPipeline
	steering *steering.Steering
	ds       *delaysum.DelaySum
	bf       *beamformer.Beamformer
	istft    *stft.ISTFT
	stftFwd  *stft.STFT

	potentials *signal.Doas
	tracks     *signal.Doas
	freqs      *signal.Freqs
	tdoas      *signal.Tdoas
	weights    *signal.Weights
	outFreq    *signal.Freqs
}

// NewSSTDelaySumPipeline constructs an SST+DelaySum pipeline from cfg.
// NumDirections and NumTracks need not match; tracks is sized NumTracks.
func NewSSTDelaySumPipeline(cfg Config) (*SSTDelaySumPipeline, error) {
	sstPipeline, err := NewSSTPipeline(cfg)
	if err != nil {
		return nil, err
	}
	stFwd, err := newSTFT(cfg)
	if err != nil {
		return nil, err
	}
	steer, err := steering.New(cfg.Mics, cfg.SampleRate, cfg.SoundSpeed)
	if err != nil {
		return nil, err
	}
	ds, err := delaysum.New(cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	bf, err := beamformer.New(cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	ist, err := stft.NewInverse(cfg.NumTracks, cfg.FFTSize, cfg.HopLength, cfg.Window)
	if err != nil {
		return nil, err
	}

	potentials, err := signal.NewDoas("pipeline.potentials", cfg.NumDirections)
	if err != nil {
		return nil, err
	}
	tracks, err := signal.NewDoas("pipeline.tracks", cfg.NumTracks)
	if err != nil {
		return nil, err
	}
	freqs, _ := signal.NewFreqs("pipeline.freqs", cfg.Mics.Len(), cfg.bins())
	tdoas, err := signal.NewTdoas("pipeline.tdoas", cfg.NumTracks, cfg.Mics.Len())
	if err != nil {
		return nil, err
	}
	weights, err := signal.NewWeights("pipeline.weights", cfg.NumTracks, cfg.Mics.Len(), cfg.bins())
	if err != nil {
		return nil, err
	}
	outFreq, err := signal.NewFreqs("pipeline.outfreq", cfg.NumTracks, cfg.bins())
	if err != nil {
		return nil, err
	}

	return &SSTDelaySumPipeline{
		sst: sstPipeline, steering: steer, ds: ds, bf: bf, istft: ist, stftFwd: stFwd,
		potentials: potentials, tracks: tracks, freqs: freqs, tdoas: tdoas,
		weights: weights, outFreq: outFreq,
	}, nil
}

// Process runs one frame of audio through the pipeline, writing the
// instantaneous potentials into potentials, the tracked directions into
// tracks, and beamformed audio (shape NumTracks x HopLength, zero for any
// non-TRACKED slot) into audio.
func (p *SSTDelaySumPipeline) Process(in *signal.Hops, potentials, tracks *signal.Doas, audio *signal.Hops) error {
	if err := p.sst.Process(in, potentials, p.tracks); err != nil {
		return err
	}
	for k := 0; k < p.tracks.Len(); k++ {
		tracks.Set(k, p.tracks.At(k))
	}

	if err := p.stftFwd.Process(in, p.freqs); err != nil {
		return err
	}
	if err := p.steering.Process(p.tracks, p.tdoas); err != nil {
		return err
	}
	if err := p.ds.Process(p.tdoas, p.weights); err != nil {
		return err
	}
	if err := p.bf.Process(p.freqs, p.weights, p.outFreq); err != nil {
		return err
	}
	if err := p.istft.Process(p.outFreq, audio); err != nil {
		return err
	}

	for k := 0; k < p.tracks.Len(); k++ {
		if p.tracks.At(k).Type == signal.Tracked {
			continue
		}
		row := audio.Channel(k)
		for i := range row {
			row[i] = 0
		}
	}
	return nil
}
