// Package sst implements the probabilistic multi-target tracker that
// turns a per-frame set of POTENTIAL directions into up to T stable,
// slot-indexed TRACKED identities.
package sst

import (
	"github.com/chewxy/math32"
	charmlog "github.com/charmbracelet/log"

	"github.com/mamaheux/pyodas2/signal"
)

// track is one tracker slot. Slot identity is the array index; it never
// changes once a track is born, matching spec.md's "slots are keyed by
// index" contract.
type track struct {
	p              float32
	dir            signal.Doa
	belowThreshold int
	history        []float32
	historyPos     int
}

func (t *track) active() bool { return t.dir.Type == signal.Tracked }

func (t *track) reset() {
	t.p = 0
	t.dir = signal.Doa{}
	t.belowThreshold = 0
	for i := range t.history {
		t.history[i] = 0
	}
	t.historyPos = 0
}

func (t *track) pushHistory(energy float32) {
	if len(t.history) == 0 {
		return
	}
	t.history[t.historyPos] = energy
	t.historyPos = (t.historyPos + 1) % len(t.history)
}

// SST is a fixed-size, slot-stable multi-target tracker.
type SST struct {
	dsf    Dsf
	tracks []track

	consumed []bool // reused per-frame scratch, length = potentials
}

// New constructs an SST tracker with numTracks slots (T) and the given
// Dsf parameters.
func New(numTracks int, dsf Dsf) (*SST, error) {
	if numTracks < 1 {
		return nil, signal.NewConfigError("sst.SST", "numTracks must be positive, got %d", numTracks)
	}
	if dsf.NumPasts < 0 {
		charmlog.Warn("sst: NumPasts < 0, clamping to 0", "got", dsf.NumPasts)
		dsf.NumPasts = 0
	}
	tracks := make([]track, numTracks)
	for i := range tracks {
		tracks[i].history = make([]float32, dsf.NumPasts)
	}
	return &SST{dsf: dsf, tracks: tracks}, nil
}

// NumTracks returns T, the fixed number of tracker slots.
func (s *SST) NumTracks() int { return len(s.tracks) }

// Process consumes one frame of POTENTIAL directions and updates the
// tracker state, writing the current TRACKED/Undefined slots into out.
func (s *SST) Process(potentials *signal.Doas, out *signal.Doas) error {
	if out.Len() != len(s.tracks) {
		return &signal.DimError{Container: "Doas", Dimension: "len", Want: len(s.tracks), Got: out.Len()}
	}

	k := potentials.Len()
	if cap(s.consumed) < k {
		s.consumed = make([]bool, k)
	}
	consumed := s.consumed[:k]
	for i := range consumed {
		consumed[i] = false
	}

	for t := range s.tracks {
		tr := &s.tracks[t]
		if !tr.active() {
			continue
		}
		bestK, bestLikelihood := s.bestAssociation(tr, potentials)
		if bestK >= 0 {
			consumed[bestK] = true
			obs := potentials.At(bestK)
			s.updateTrack(tr, obs, bestLikelihood)
		} else {
			// No candidate to associate with at all: still fold a
			// zero-likelihood observation into the existence filter so a
			// track starves out instead of persisting forever.
			tr.p += s.dsf.TrackedSourceRate * (0 - tr.p)
		}
		s.applyDeletion(tr)
	}

	s.tryBirth(potentials, consumed)

	for t := range s.tracks {
		tr := &s.tracks[t]
		if tr.active() {
			out.Set(t, signal.Doa{Type: signal.Tracked, X: tr.dir.X, Y: tr.dir.Y, Z: tr.dir.Z, Energy: clamp01(tr.p)})
		} else {
			out.Set(t, signal.Doa{})
		}
	}
	return nil
}

// bestAssociation returns the index of the potential with the highest
// association likelihood to tr, and that likelihood. It returns (-1, 0)
// if no potential slot is populated.
func (s *SST) bestAssociation(tr *track, potentials *signal.Doas) (int, float32) {
	best := -1
	bestLikelihood := float32(0)
	for k := 0; k < potentials.Len(); k++ {
		obs := potentials.At(k)
		if obs.Type == signal.Undefined {
			continue
		}
		angle := signal.AngleBetween(tr.dir, obs)
		likelihood := sigmoid(s.dsf.SigmoidSlope*(s.dsf.SigmoidMean-angle)) * obs.Energy
		if likelihood > bestLikelihood {
			bestLikelihood = likelihood
			best = k
		}
	}
	return best, bestLikelihood
}

// existenceGain combines tracked_source_rate and tracked_source_sigma2
// into the existence filter's gain (§4.7 step 2): likelihood at or below
// tracked_source_threshold carries no weight (a marginal association
// should not grow existence at all), and the gain ramps from 0 up to the
// full tracked_source_rate as likelihood clears the threshold by
// tracked_source_sigma2, the filter's innovation-gating width.
func (s *SST) existenceGain(likelihood float32) float32 {
	margin := likelihood - s.dsf.TrackedSourceThreshold
	confidence := margin / s.dsf.TrackedSourceSigma2
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return s.dsf.TrackedSourceRate * confidence
}

// updateTrack folds a new association into tr's existence probability and
// direction estimate: an exponentially-weighted update on both, the
// weight driven by existenceGain and the association strength.
func (s *SST) updateTrack(tr *track, obs signal.Doa, likelihood float32) {
	gain := s.existenceGain(likelihood)
	tr.p += gain * (likelihood - tr.p)

	w := gain * likelihood
	tr.dir = signal.Doa{
		Type: signal.Tracked,
		X:    tr.dir.X*(1-w) + obs.X*w,
		Y:    tr.dir.Y*(1-w) + obs.Y*w,
		Z:    tr.dir.Z*(1-w) + obs.Z*w,
	}.Normalized()
	tr.dir.Type = signal.Tracked
	tr.pushHistory(obs.Energy)
}

// deletePersistence is how many consecutive below-delete_threshold frames
// a track must accumulate, decaying by delete_decay each frame, before the
// slot is actually freed. This is the "persistent low-water mark" §4.7
// step 3 describes: a single bad frame decays P but does not kill the
// track outright.
const deletePersistence = 5

// applyDeletion decays and eventually frees tracks whose existence
// probability has stayed below delete_threshold for deletePersistence
// consecutive frames.
func (s *SST) applyDeletion(tr *track) {
	if tr.p >= s.dsf.DeleteThreshold {
		tr.belowThreshold = 0
		return
	}
	tr.belowThreshold++
	tr.p *= s.dsf.DeleteDecay
	if tr.belowThreshold >= deletePersistence {
		tr.reset()
	}
}

// tryBirth lets the highest-energy unconsumed potential above
// new_threshold claim the first free slot.
func (s *SST) tryBirth(potentials *signal.Doas, consumed []bool) {
	bestK := -1
	bestEnergy := s.dsf.NewThreshold
	for k := 0; k < potentials.Len(); k++ {
		obs := potentials.At(k)
		if obs.Type == signal.Undefined || consumed[k] {
			continue
		}
		if obs.Energy > bestEnergy {
			bestEnergy = obs.Energy
			bestK = k
		}
	}
	if bestK < 0 {
		return
	}

	freeSlot := -1
	for t := range s.tracks {
		if !s.tracks[t].active() {
			freeSlot = t
			break
		}
	}
	if freeSlot < 0 {
		return
	}

	obs := potentials.At(bestK)
	tr := &s.tracks[freeSlot]
	tr.reset()
	tr.p = clamp01(obs.Energy * (1 - s.dsf.NewSourceSigma2))
	tr.dir = signal.Doa{Type: signal.Tracked, X: obs.X, Y: obs.Y, Z: obs.Z}.Normalized()
	tr.dir.Type = signal.Tracked
	tr.pushHistory(obs.Energy)
}

func sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
