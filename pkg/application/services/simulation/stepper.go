package simulation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/domain/repositories"
)

// StepResult is everything one period produced
type StepResult struct {
	Micap         entities.MicapEntry
	Occupancy     entities.StageOccupancy
	CyclesStarted []entities.LifecycleRecord
}

// Stepper advances one run period by period. It owns the lifecycle
// repository and the current active projection for the duration of the run
// and is not safe for concurrent use.
type Stepper struct {
	table       *entities.ParameterTable
	missionNeed entities.Quantity
	simTime     int
	repo        repositories.LifecycleRepository
	sampler     DurationSampler
	logger      *slog.Logger

	active     []entities.ActivePart
	lastPeriod int
}

// NewStepper creates a stepper over an already initialized repository
func NewStepper(
	table *entities.ParameterTable,
	missionNeed entities.Quantity,
	repo repositories.LifecycleRepository,
	sampler DurationSampler,
	logger *slog.Logger,
) *Stepper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stepper{
		table:       table,
		missionNeed: missionNeed,
		simTime:     table.Len(),
		repo:        repo,
		sampler:     sampler,
		logger:      logger,
		active:      Project(repo),
	}
}

// Active returns a copy of the current projection
func (s *Stepper) Active() []entities.ActivePart {
	out := make([]entities.ActivePart, len(s.active))
	copy(out, s.active)
	return out
}

// Step simulates period, which must be exactly one past the previous period.
func (s *Stepper) Step(ctx context.Context, period int) (StepResult, error) {
	if period != s.lastPeriod+1 {
		return StepResult{}, fmt.Errorf("period %d out of order: last simulated period is %d", period, s.lastPeriod)
	}

	need := s.table.MissionNeed(period, s.missionNeed)
	active, occupancy := s.count(period)
	result := StepResult{
		Micap:     entities.NewMicapEntry(period, active, need),
		Occupancy: occupancy,
	}

	// Every successor is sampled before any is appended, so a failed period
	// leaves the repository as the previous period left it.
	var pending []entities.LifecycleRecord
	for _, ap := range s.active {
		if !ap.CompletesAt(period) {
			continue
		}
		rec, err := s.successor(ap, period)
		if err != nil {
			return StepResult{}, err
		}
		pending = append(pending, rec)
	}
	for _, rec := range pending {
		id, err := s.repo.Append(rec)
		if err != nil {
			return StepResult{}, fmt.Errorf("part %d: %w", rec.PartID, err)
		}
		rec.ID = id
		result.CyclesStarted = append(result.CyclesStarted, rec)
	}

	if len(result.CyclesStarted) > 0 {
		s.active = Project(s.repo)
	}
	s.lastPeriod = period

	s.logger.DebugContext(ctx, "period simulated",
		"period", period,
		"active_stage_one", active,
		"mission_need", need,
		"micap", result.Micap.Micap,
		"cycles_started", len(result.CyclesStarted))
	return result, nil
}

// count returns the stage-one active count and the per-stage occupancy
// across every non-condemned record at period.
func (s *Stepper) count(period int) (entities.Quantity, entities.StageOccupancy) {
	occupancy := entities.StageOccupancy{Period: period}
	var active entities.Quantity
	for _, rec := range s.repo.Records() {
		if rec.Condemned {
			continue
		}
		if rec.ActiveInStageOne(period) {
			active++
		}
		if stage, ok := rec.StageAt(period); ok {
			occupancy.Counts[stage]++
		}
	}
	return active, occupancy
}

// successor builds the next cycle for a part that completed at period,
// sampling from the current period's parameters. It does not append it.
func (s *Stepper) successor(ap entities.ActivePart, period int) (entities.LifecycleRecord, error) {
	prev, err := s.repo.GetRecord(ap.RecordID)
	if err != nil {
		return entities.LifecycleRecord{}, fmt.Errorf("part %d: %w", ap.PartID, err)
	}
	start, ok := prev.End()
	if !ok {
		return entities.LifecycleRecord{}, fmt.Errorf("part %d: cycle %d has no end", ap.PartID, prev.Cycle)
	}

	durations, err := s.sampler.SampleStages(s.table.Row(period))
	if err != nil {
		return entities.LifecycleRecord{}, fmt.Errorf("part %d: %w", ap.PartID, err)
	}

	next, err := entities.NewLifecycleRecord(prev.PartID, prev.Cycle+1, prev.Condemned, start, durations, s.simTime)
	if err != nil {
		return entities.LifecycleRecord{}, fmt.Errorf("part %d: %w", ap.PartID, err)
	}
	next.SpawnedPeriod = period
	return *next, nil
}
