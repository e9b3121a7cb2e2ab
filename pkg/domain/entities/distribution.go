package entities

import (
	"fmt"
	"math"
	"strings"
)

// DistributionName names a supported duration distribution
type DistributionName string

const (
	// Normal takes (mean, stddev)
	Normal DistributionName = "normal"
	// Weibull takes (shape, scale)
	Weibull DistributionName = "weibull"
)

// ParseDistributionName normalises a user-supplied name. Matching is
// case-insensitive and ignores surrounding space; support is checked at
// sampling time.
func ParseDistributionName(name string) DistributionName {
	return DistributionName(strings.ToLower(strings.TrimSpace(name)))
}

// Supported reports whether the sampler can draw from d
func (d DistributionName) Supported() bool {
	switch d {
	case Normal, Weibull:
		return true
	default:
		return false
	}
}

// StageParameters holds the distribution choice for one stage
type StageParameters struct {
	Distribution DistributionName `json:"distribution" yaml:"distribution"`
	Param1       float64          `json:"param1" yaml:"param1"`
	Param2       float64          `json:"param2" yaml:"param2"`
}

// NewStageParameters creates a validated StageParameters with a normalised
// distribution name. Unsupported names are accepted here and rejected at
// sampling time.
func NewStageParameters(distribution DistributionName, param1, param2 float64) (StageParameters, error) {
	p := StageParameters{
		Distribution: ParseDistributionName(string(distribution)),
		Param1:       param1,
		Param2:       param2,
	}
	if err := p.Validate(); err != nil {
		return StageParameters{}, err
	}
	return p, nil
}

// Validate rejects an empty distribution name and non-finite parameters
func (p StageParameters) Validate() error {
	if p.Distribution == "" {
		return fmt.Errorf("%w: distribution name cannot be empty", ErrInvalidConfiguration)
	}
	for _, v := range []float64{p.Param1, p.Param2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s parameters must be finite, got (%v, %v)", ErrInvalidConfiguration, p.Distribution, p.Param1, p.Param2)
		}
	}
	return nil
}
