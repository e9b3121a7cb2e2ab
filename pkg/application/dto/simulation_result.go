package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/micap/pkg/domain/entities"
)

// SimulationResult contains the complete output of one simulation run. All
// slices are snapshots owned by the caller.
type SimulationResult struct {
	RunID                uuid.UUID
	Scenario             entities.Scenario
	Parameters           []entities.ParameterRow
	MissionNeedOverrides map[int]entities.Quantity
	Lifecycles           []entities.LifecycleRecord
	MicapLog             []entities.MicapEntry
	Occupancy            []entities.StageOccupancy
	// Completed is false when the run stopped before the horizon
	Completed bool
	StartedAt time.Time
	Elapsed   time.Duration
}

// PeriodsSimulated returns the number of periods in the MICAP log
func (r *SimulationResult) PeriodsSimulated() int {
	return len(r.MicapLog)
}
