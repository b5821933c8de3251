package sst

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Dsf is the SST tracker's tunable parameter block. Field names mirror
// spec.md §4.7 so a tuned block can be shipped as YAML alongside a
// deployment instead of recompiling.
type Dsf struct {
	SigmoidMean  float32 `yaml:"sigmoid_mean"`
	SigmoidSlope float32 `yaml:"sigmoid_slope"`

	TrackedSourceSigma2    float32 `yaml:"tracked_source_sigma2"`
	TrackedSourceThreshold float32 `yaml:"tracked_source_threshold"`
	TrackedSourceRate      float32 `yaml:"tracked_source_rate"`

	NewSourceSigma2 float32 `yaml:"new_source_sigma2"`
	NewThreshold    float32 `yaml:"new_threshold"`

	DeleteThreshold float32 `yaml:"delete_threshold"`
	DeleteDecay     float32 `yaml:"delete_decay"`

	// NumPasts is the length of the per-track diagnostic observation
	// history (§4.7's "num_pasts"-based variant, the one spec.md adopts).
	NumPasts int `yaml:"num_pasts"`
}

// DefaultDsf returns the constants spec.md §4.7 names.
func DefaultDsf() Dsf {
	return Dsf{
		SigmoidMean:  0.3,
		SigmoidSlope: 40.0,

		TrackedSourceSigma2:    0.05,
		TrackedSourceThreshold: 0.25,
		TrackedSourceRate:      0.1,

		NewSourceSigma2: 0.01,
		NewThreshold:    0.4,

		DeleteThreshold: 0.2,
		DeleteDecay:     0.98,

		NumPasts: 40,
	}
}

// LoadDsf reads a Dsf from a YAML file, starting from DefaultDsf so a
// partial file only needs to override the fields it tunes.
func LoadDsf(path string) (Dsf, error) {
	dsf := DefaultDsf()
	data, err := os.ReadFile(path)
	if err != nil {
		return Dsf{}, err
	}
	if err := yaml.Unmarshal(data, &dsf); err != nil {
		return Dsf{}, err
	}
	return dsf, nil
}
