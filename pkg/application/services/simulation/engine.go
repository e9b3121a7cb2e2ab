package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/micap/pkg/application/dto"
	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/domain/services"
	"github.com/vsinha/micap/pkg/infrastructure/repositories/memory"
)

// EngineConfig holds the collaborators of a simulation engine
type EngineConfig struct {
	Logger   *slog.Logger
	Observer ProgressObserver
	// NewSampler builds the duration sampler for a run from its seed
	NewSampler func(seed uint64) DurationSampler
}

// Engine runs repair-cycle simulations
type Engine struct {
	logger     *slog.Logger
	observer   ProgressObserver
	newSampler func(seed uint64) DurationSampler
}

// NewEngine creates an engine with the default seeded sampler and no observer
func NewEngine() *Engine {
	return NewEngineWithConfig(EngineConfig{})
}

// NewEngineWithConfig creates an engine with custom collaborators
func NewEngineWithConfig(config EngineConfig) *Engine {
	e := &Engine{
		logger:     config.Logger,
		observer:   config.Observer,
		newSampler: config.NewSampler,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.newSampler == nil {
		e.newSampler = func(seed uint64) DurationSampler {
			return services.NewDurationSampler(seed)
		}
	}
	return e
}

// Run builds the parameter table, initializes every part and steps through
// periods 1..SimTime in order. On cancellation or a failed period it returns
// the partial result accumulated so far together with the error.
func (e *Engine) Run(ctx context.Context, scenario entities.Scenario) (*dto.SimulationResult, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	table, err := services.BuildParameterTable(scenario.SimTime, scenario.TotalParts, scenario.StageArray())
	if err != nil {
		return nil, fmt.Errorf("failed to build parameter table: %w", err)
	}
	applied := services.ApplyOverrides(table, scenario.Overrides, e.logger)

	result := &dto.SimulationResult{
		RunID:     uuid.New(),
		Scenario:  scenario,
		MicapLog:  make([]entities.MicapEntry, 0, scenario.SimTime),
		Occupancy: make([]entities.StageOccupancy, 0, scenario.SimTime),
		StartedAt: time.Now(),
	}
	logger := e.logger.With("run_id", result.RunID.String())
	logger.InfoContext(ctx, "simulation started",
		"sim_time", scenario.SimTime,
		"total_parts", scenario.TotalParts,
		"mission_need", scenario.MissionNeed,
		"seed", scenario.Seed,
		"overrides_applied", applied)

	repo := memory.NewLifecycleRepository(int(scenario.TotalParts) * 4)
	sampler := e.newSampler(scenario.Seed)

	finish := func() *dto.SimulationResult {
		result.Parameters = table.Rows()
		result.MissionNeedOverrides = table.MissionNeedOverrides()
		result.Lifecycles = repo.Records()
		result.Elapsed = time.Since(result.StartedAt)
		return result
	}

	if err := Initialize(repo, sampler, scenario.TotalParts, table.Row(1)); err != nil {
		return finish(), err
	}

	stepper := NewStepper(table, scenario.MissionNeed, repo, sampler, logger)
	for period := 1; period <= scenario.SimTime; period++ {
		if err := ctx.Err(); err != nil {
			logger.WarnContext(ctx, "simulation cancelled", "period", period, "error", err)
			return finish(), fmt.Errorf("simulation cancelled before period %d: %w", period, err)
		}

		step, err := stepper.Step(ctx, period)
		if err != nil {
			return finish(), fmt.Errorf("failed to simulate period %d: %w", period, err)
		}
		result.MicapLog = append(result.MicapLog, step.Micap)
		result.Occupancy = append(result.Occupancy, step.Occupancy)

		e.notify(ctx, logger, PeriodProgress{
			RunID:         result.RunID,
			Period:        period,
			SimTime:       scenario.SimTime,
			Micap:         step.Micap,
			Occupancy:     step.Occupancy,
			CyclesStarted: step.CyclesStarted,
			Records:       repo.Len(),
		})
	}

	result.Completed = true
	finish()
	logger.InfoContext(ctx, "simulation finished",
		"records", len(result.Lifecycles),
		"elapsed", result.Elapsed)
	return result, nil
}

// notify delivers progress to the observer. Observer errors and panics are
// logged and swallowed.
func (e *Engine) notify(ctx context.Context, logger *slog.Logger, progress PeriodProgress) {
	if e.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.WarnContext(ctx, "progress observer panicked", "period", progress.Period, "panic", r)
		}
	}()
	if err := e.observer.ObservePeriod(ctx, progress); err != nil {
		logger.WarnContext(ctx, "progress observer failed", "period", progress.Period, "error", err)
	}
}
