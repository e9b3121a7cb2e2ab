package events

import (
	"github.com/vsinha/micap/pkg/domain/entities"
)

const (
	PeriodSimulatedEvent = "period.simulated"
	MicapRecordedEvent   = "micap.recorded"
	CycleStartedEvent    = "cycle.started"
)

type PeriodSimulated struct {
	Period    int                     `json:"period"`
	SimTime   int                     `json:"sim_time"`
	Micap     entities.MicapEntry     `json:"micap"`
	Occupancy entities.StageOccupancy `json:"occupancy"`
	Records   int                     `json:"records"`
}

type MicapRecorded struct {
	Entry entities.MicapEntry `json:"entry"`
}

type CycleStarted struct {
	PartID        entities.PartID `json:"part_id"`
	Cycle         int             `json:"cycle"`
	SpawnedPeriod int             `json:"spawned_period"`
	Start         float64         `json:"start"`
	Open          bool            `json:"open"`
}
