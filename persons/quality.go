package persons

import (
	"errors"
	"fmt"
	"sort"
)

// DataQualityProfile is a named or explicit set of defect-injection rates.
// All rates are probabilities in [0, 1].
type DataQualityProfile struct {
	Name          string  `json:"name" yaml:"name"`
	MissingRate   float64 `json:"missing_data_rate" yaml:"missing_data_rate"`
	TypoRate      float64 `json:"typo_rate" yaml:"typo_rate"`
	DuplicateRate float64 `json:"duplicate_rate" yaml:"duplicate_rate"`
	OutlierRate   float64 `json:"outlier_rate" yaml:"outlier_rate"`
	FormatRate    float64 `json:"inconsistency_rate" yaml:"inconsistency_rate"`
}

const (
	ProfileClean    = "clean"
	ProfileMinimal  = "minimal"
	ProfileStandard = "standard"
	ProfilePoor     = "poor"
	ProfileExtreme  = "extreme"
	ProfileCustom   = "custom"
)

var (
	// ErrUnknownQualityProfile is returned when a profile name has no preset.
	ErrUnknownQualityProfile = errors.New("unknown data quality profile")

	// ErrRateOutOfRange is returned when a defect rate is outside [0, 1].
	ErrRateOutOfRange = errors.New("defect rate must be between 0.0 and 1.0")
)

var qualityPresets = map[string]DataQualityProfile{
	ProfileClean: {Name: ProfileClean},
	ProfileMinimal: {
		Name:          ProfileMinimal,
		MissingRate:   0.01,
		TypoRate:      0.005,
		DuplicateRate: 0.0005,
		OutlierRate:   0.002,
		FormatRate:    0.01,
	},
	ProfileStandard: {
		Name:          ProfileStandard,
		MissingRate:   0.05,
		TypoRate:      0.02,
		DuplicateRate: 0.001,
		OutlierRate:   0.01,
		FormatRate:    0.03,
	},
	ProfilePoor: {
		Name:          ProfilePoor,
		MissingRate:   0.15,
		TypoRate:      0.08,
		DuplicateRate: 0.01,
		OutlierRate:   0.03,
		FormatRate:    0.10,
	},
	ProfileExtreme: {
		Name:          ProfileExtreme,
		MissingRate:   0.30,
		TypoRate:      0.20,
		DuplicateRate: 0.05,
		OutlierRate:   0.10,
		FormatRate:    0.40,
	},
}

// ProfileByName returns the preset with the given name.
func ProfileByName(name string) (DataQualityProfile, error) {
	p, ok := qualityPresets[name]
	if !ok {
		return DataQualityProfile{}, errors.Join(ErrUnknownQualityProfile, fmt.Errorf("profile %q", name))
	}

	return p, nil
}

// ProfileNames returns the names of all presets in alphabetical order.
func ProfileNames() []string {
	names := make([]string, 0, len(qualityPresets))
	for name := range qualityPresets {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Validate checks that every rate is a probability.
func (p DataQualityProfile) Validate() error {
	rates := []struct {
		name  string
		value float64
	}{
		{"missing_data_rate", p.MissingRate},
		{"typo_rate", p.TypoRate},
		{"duplicate_rate", p.DuplicateRate},
		{"outlier_rate", p.OutlierRate},
		{"inconsistency_rate", p.FormatRate},
	}

	for _, r := range rates {
		if r.value < 0 || r.value > 1 {
			return errors.Join(ErrRateOutOfRange, fmt.Errorf("%s=%v", r.name, r.value))
		}
	}

	return nil
}

// IsClean reports whether the profile injects no defects at all.
func (p DataQualityProfile) IsClean() bool {
	return p.MissingRate == 0 && p.TypoRate == 0 && p.DuplicateRate == 0 && p.OutlierRate == 0 && p.FormatRate == 0
}
