package services

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vsinha/micap/pkg/domain/entities"
)

// seedMix decorrelates the second PCG word from the first
const seedMix = 0x9e3779b97f4a7c15

// DurationSampler draws non-negative stage durations from a named distribution
type DurationSampler struct {
	rng *rand.Rand
}

// NewDurationSampler creates a sampler whose stream is seeded exactly once
func NewDurationSampler(seed uint64) *DurationSampler {
	return NewDurationSamplerFromRand(rand.New(rand.NewPCG(seed, seed^seedMix)))
}

// NewDurationSamplerFromRand wraps an existing stream. The sampler never reseeds it.
func NewDurationSamplerFromRand(rng *rand.Rand) *DurationSampler {
	return &DurationSampler{rng: rng}
}

// Sample draws one duration. Unsupported names and invalid parameters fail
// before any value is drawn.
func (s *DurationSampler) Sample(distribution entities.DistributionName, param1, param2 float64) (float64, error) {
	if !distribution.Supported() {
		return 0, fmt.Errorf("%w %q", entities.ErrUnsupportedDistribution, distribution)
	}
	if !isFinite(param1) || !isFinite(param2) {
		return 0, fmt.Errorf("%w: %s parameters must be finite, got (%v, %v)", entities.ErrInvalidConfiguration, distribution, param1, param2)
	}

	var d float64
	switch distribution {
	case entities.Normal:
		if param2 < 0 {
			return 0, fmt.Errorf("%w: normal stddev must be non-negative, got %v", entities.ErrInvalidConfiguration, param2)
		}
		d = param1 + param2*s.rng.NormFloat64()
	case entities.Weibull:
		if param1 <= 0 {
			return 0, fmt.Errorf("%w: weibull shape must be positive, got %v", entities.ErrInvalidConfiguration, param1)
		}
		// (-ln U)^(1/k) is a standard Weibull(k) draw; -ln U ~ Exp(1)
		d = math.Pow(s.rng.ExpFloat64(), 1/param1) * param2
	}

	switch {
	case math.IsNaN(d) || d < 0:
		return 0, nil
	case math.IsInf(d, 1):
		return 0, fmt.Errorf("%w: %s(%v, %v) drew an infinite duration", entities.ErrInvalidConfiguration, distribution, param1, param2)
	}
	return d, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SampleStages draws all four durations for one lifecycle from row
func (s *DurationSampler) SampleStages(row entities.ParameterRow) ([entities.StageCount]float64, error) {
	var durations [entities.StageCount]float64
	for _, stage := range entities.Stages {
		p := row.Stage(stage)
		d, err := s.Sample(p.Distribution, p.Param1, p.Param2)
		if err != nil {
			return durations, fmt.Errorf("stage %s at period %d: %w", stage, row.Period, err)
		}
		durations[stage] = d
	}
	return durations, nil
}
