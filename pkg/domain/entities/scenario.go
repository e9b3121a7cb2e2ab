package entities

import "fmt"

// Scenario is the complete input to one simulation run
type Scenario struct {
	SimTime     int
	TotalParts  Quantity
	MissionNeed Quantity
	Stages      []StageParameters
	Overrides   []Override
	Seed        uint64
}

// Validate fails fast on configurations that cannot produce a parameter table
func (s Scenario) Validate() error {
	if s.SimTime < 1 {
		return fmt.Errorf("%w: simulation horizon must be positive, got %d", ErrInvalidConfiguration, s.SimTime)
	}
	if s.TotalParts < 0 {
		return fmt.Errorf("%w: total parts cannot be negative, got %d", ErrInvalidConfiguration, s.TotalParts)
	}
	if s.MissionNeed < 0 {
		return fmt.Errorf("%w: mission need cannot be negative, got %d", ErrInvalidConfiguration, s.MissionNeed)
	}
	if len(s.Stages) != StageCount {
		return fmt.Errorf("%w: expected %d stage configurations, got %d", ErrInvalidConfiguration, StageCount, len(s.Stages))
	}
	for i, st := range s.Stages {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("stage %s: %w", Stage(i), err)
		}
	}
	return nil
}

// StageArray returns the stage configuration as a fixed array. Callers must
// Validate first.
func (s Scenario) StageArray() [StageCount]StageParameters {
	var out [StageCount]StageParameters
	copy(out[:], s.Stages)
	return out
}
