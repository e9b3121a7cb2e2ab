package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vsinha/micap/pkg/domain/entities"
)

// PeriodProgress is the read-only view handed to observers after each period
type PeriodProgress struct {
	RunID         uuid.UUID
	Period        int
	SimTime       int
	Micap         entities.MicapEntry
	Occupancy     entities.StageOccupancy
	CyclesStarted []entities.LifecycleRecord
	Records       int
}

// Percent returns completion as a whole percentage
func (p PeriodProgress) Percent() int {
	if p.SimTime <= 0 {
		return 0
	}
	return p.Period * 100 / p.SimTime
}

// ProgressObserver is notified synchronously after every period. Errors are
// logged by the engine and never abort a run.
type ProgressObserver interface {
	ObservePeriod(ctx context.Context, progress PeriodProgress) error
}

// ObserverFunc adapts a function to ProgressObserver
type ObserverFunc func(ctx context.Context, progress PeriodProgress) error

// ObservePeriod calls f
func (f ObserverFunc) ObservePeriod(ctx context.Context, progress PeriodProgress) error {
	return f(ctx, progress)
}

// Observers fans a notification out to every observer in order
type Observers []ProgressObserver

// ObservePeriod notifies every observer and joins their errors. A panicking
// observer is reported as an error and does not stop the rest.
func (o Observers) ObservePeriod(ctx context.Context, progress PeriodProgress) error {
	var errs []error
	for i, obs := range o {
		if obs == nil {
			continue
		}
		if err := observeOne(ctx, obs, progress); err != nil {
			errs = append(errs, fmt.Errorf("observer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func observeOne(ctx context.Context, obs ProgressObserver, progress PeriodProgress) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return obs.ObservePeriod(ctx, progress)
}
