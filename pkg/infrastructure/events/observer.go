package events

import (
	"context"
	"fmt"

	"github.com/vsinha/micap/pkg/application/services/simulation"
)

// Publisher turns simulation progress into events on a store. Each run is
// its own stream keyed by run ID.
type Publisher struct {
	store EventStore
}

// NewPublisher creates a progress observer backed by store
func NewPublisher(store EventStore) *Publisher {
	return &Publisher{store: store}
}

var _ simulation.ProgressObserver = (*Publisher)(nil)

// ObservePeriod publishes a period.simulated event, a micap.recorded event
// when the period was short, and one cycle.started event per regeneration
func (p *Publisher) ObservePeriod(_ context.Context, progress simulation.PeriodProgress) error {
	stream := progress.RunID.String()

	if err := p.store.AppendEvent(stream, NewEvent(PeriodSimulatedEvent, stream, PeriodSimulated{
		Period:    progress.Period,
		SimTime:   progress.SimTime,
		Micap:     progress.Micap,
		Occupancy: progress.Occupancy,
		Records:   progress.Records,
	})); err != nil {
		return fmt.Errorf("failed to publish period %d: %w", progress.Period, err)
	}

	if progress.Micap.Short() {
		if err := p.store.AppendEvent(stream, NewEvent(MicapRecordedEvent, stream, MicapRecorded{Entry: progress.Micap})); err != nil {
			return fmt.Errorf("failed to publish MICAP for period %d: %w", progress.Period, err)
		}
	}

	for _, rec := range progress.CyclesStarted {
		event := NewEvent(CycleStartedEvent, stream, CycleStarted{
			PartID:        rec.PartID,
			Cycle:         rec.Cycle,
			SpawnedPeriod: rec.SpawnedPeriod,
			Start:         rec.Start(),
			Open:          rec.Open,
		})
		if err := p.store.AppendEvent(stream, event); err != nil {
			return fmt.Errorf("failed to publish cycle start for part %d: %w", rec.PartID, err)
		}
	}
	return nil
}
