package simulation

import (
	"fmt"

	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/domain/repositories"
)

// DurationSampler draws the four stage durations for one lifecycle
type DurationSampler interface {
	SampleStages(row entities.ParameterRow) ([entities.StageCount]float64, error)
}

// Initialize seeds the repository with cycle 1 for parts 1..totalParts, every
// stage chained from period 1 using the period-1 parameters. Initial cycles
// are never marked open.
func Initialize(repo repositories.LifecycleRepository, sampler DurationSampler, totalParts entities.Quantity, row entities.ParameterRow) error {
	for i := entities.Quantity(1); i <= totalParts; i++ {
		durations, err := sampler.SampleStages(row)
		if err != nil {
			return fmt.Errorf("failed to initialize part %d: %w", i, err)
		}

		record, err := entities.NewLifecycleRecord(entities.PartID(i), 1, false, 1, durations, 0)
		if err != nil {
			return fmt.Errorf("failed to initialize part %d: %w", i, err)
		}
		if _, err := repo.Append(*record); err != nil {
			return fmt.Errorf("failed to store part %d: %w", i, err)
		}
	}
	return nil
}
