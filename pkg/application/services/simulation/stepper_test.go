package simulation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/domain/services"
	"github.com/vsinha/micap/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/micap/pkg/infrastructure/testing"
)

type fixedSampler struct {
	durations [entities.StageCount]float64
	calls     int
}

func (s *fixedSampler) SampleStages(entities.ParameterRow) ([entities.StageCount]float64, error) {
	s.calls++
	return s.durations, nil
}

// failingSampler returns durations until its failAt-th call, which errors
type failingSampler struct {
	fixedSampler
	failAt int
}

func (s *failingSampler) SampleStages(row entities.ParameterRow) ([entities.StageCount]float64, error) {
	if s.calls+1 == s.failAt {
		s.calls++
		return [entities.StageCount]float64{}, errors.New("sampler exhausted")
	}
	return s.fixedSampler.SampleStages(row)
}

func newTestStepper(t *testing.T, simTime int, parts entities.Quantity, need entities.Quantity, sampler DurationSampler) (*Stepper, *memory.LifecycleRepository) {
	t.Helper()
	scenario := testhelpers.DeterministicScenario(simTime, parts, need, 1)
	table, err := services.BuildParameterTable(simTime, parts, scenario.StageArray())
	if err != nil {
		t.Fatalf("BuildParameterTable failed: %v", err)
	}
	repo := memory.NewLifecycleRepository(int(parts))
	if err := Initialize(repo, sampler, parts, table.Row(1)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStepper(table, need, repo, sampler, logger), repo
}

func TestInitialize_ChainsFromPeriodOne(t *testing.T) {
	sampler := &fixedSampler{durations: [entities.StageCount]float64{2, 0.5, 3, 1.25}}
	_, repo := newTestStepper(t, 20, 4, 1, sampler)

	if repo.Len() != 4 {
		t.Fatalf("Expected 4 records, got %d", repo.Len())
	}
	if sampler.calls != 4 {
		t.Errorf("Expected 4 sampling calls, got %d", sampler.calls)
	}
	for _, rec := range repo.Records() {
		if rec.Cycle != 1 || rec.Condemned {
			t.Errorf("Part %d: expected cycle 1 not condemned, got cycle %d condemned %v", rec.PartID, rec.Cycle, rec.Condemned)
		}
		if rec.Stages[entities.Fleet].Start != 1 {
			t.Errorf("Part %d: expected stage one start 1, got %v", rec.PartID, rec.Stages[entities.Fleet].Start)
		}
		for i := 1; i < entities.StageCount; i++ {
			if rec.Stages[i].Start != rec.Stages[i-1].End {
				t.Errorf("Part %d: stage %d start %v != stage %d end %v",
					rec.PartID, i+1, rec.Stages[i].Start, i, rec.Stages[i-1].End)
			}
		}
	}
}

func TestInitialize_ZeroParts(t *testing.T) {
	sampler := &fixedSampler{}
	_, repo := newTestStepper(t, 5, 0, 2, sampler)
	if repo.Len() != 0 || sampler.calls != 0 {
		t.Errorf("Expected no records and no sampling, got %d records and %d calls", repo.Len(), sampler.calls)
	}
}

func TestStepper_Step_BoundaryConvention(t *testing.T) {
	sampler := &fixedSampler{durations: [entities.StageCount]float64{2, 1, 1, 1}}
	stepper, _ := newTestStepper(t, 4, 1, 1, sampler)

	// stage one covers [1, 3): active at 1 and 2, not at 3
	want := []entities.Quantity{1, 1, 0, 0}
	for period := 1; period <= 4; period++ {
		res, err := stepper.Step(context.Background(), period)
		if err != nil {
			t.Fatalf("Step %d failed: %v", period, err)
		}
		if res.Micap.ActiveStageOne != want[period-1] {
			t.Errorf("Period %d: expected %d active, got %d", period, want[period-1], res.Micap.ActiveStageOne)
		}
	}
}

func TestStepper_Step_RegeneratesOnCompletion(t *testing.T) {
	sampler := &fixedSampler{durations: [entities.StageCount]float64{1, 1, 1, 1}}
	stepper, repo := newTestStepper(t, 20, 2, 2, sampler)

	for period := 1; period <= 4; period++ {
		res, err := stepper.Step(context.Background(), period)
		if err != nil {
			t.Fatalf("Step %d failed: %v", period, err)
		}
		if len(res.CyclesStarted) != 0 {
			t.Errorf("Period %d: unexpected regeneration", period)
		}
	}

	res, err := stepper.Step(context.Background(), 5)
	if err != nil {
		t.Fatalf("Step 5 failed: %v", err)
	}
	if len(res.CyclesStarted) != 2 {
		t.Fatalf("Expected 2 regenerated cycles, got %d", len(res.CyclesStarted))
	}
	for _, rec := range res.CyclesStarted {
		if rec.Cycle != 2 || rec.Start() != 5 || rec.SpawnedPeriod != 5 {
			t.Errorf("Part %d: expected cycle 2 from 5, got cycle %d from %v", rec.PartID, rec.Cycle, rec.Start())
		}
	}
	if repo.Len() != 4 {
		t.Errorf("Expected 4 records after regeneration, got %d", repo.Len())
	}
	for _, ap := range stepper.Active() {
		if ap.Cycle != 2 {
			t.Errorf("Part %d: projection should point at cycle 2, got %d", ap.PartID, ap.Cycle)
		}
	}
}

func TestStepper_Step_InheritsCondemnedFlag(t *testing.T) {
	sampler := &fixedSampler{durations: [entities.StageCount]float64{1, 1, 1, 1}}
	scenario := testhelpers.DeterministicScenario(10, 1, 1, 1)
	table, _ := services.BuildParameterTable(10, 1, scenario.StageArray())
	repo := memory.NewLifecycleRepository(2)

	// a part whose only record is condemned is never projected, so it never regenerates
	rec, _ := entities.NewLifecycleRecord(1, 1, true, 1, sampler.durations, 0)
	if _, err := repo.Append(*rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	stepper := NewStepper(table, 1, repo, sampler, nil)
	for period := 1; period <= 6; period++ {
		res, err := stepper.Step(context.Background(), period)
		if err != nil {
			t.Fatalf("Step %d failed: %v", period, err)
		}
		if res.Micap.ActiveStageOne != 0 {
			t.Errorf("Period %d: condemned record counted as active", period)
		}
	}
	if repo.Len() != 1 {
		t.Errorf("Expected no regeneration for condemned part, got %d records", repo.Len())
	}
}

func TestStepper_Step_OutOfOrder(t *testing.T) {
	sampler := &fixedSampler{durations: [entities.StageCount]float64{1, 1, 1, 1}}
	stepper, _ := newTestStepper(t, 10, 1, 1, sampler)

	if _, err := stepper.Step(context.Background(), 2); err == nil {
		t.Error("Expected error when skipping period 1")
	}
	if _, err := stepper.Step(context.Background(), 1); err != nil {
		t.Fatalf("Step 1 failed: %v", err)
	}
	if _, err := stepper.Step(context.Background(), 1); err == nil {
		t.Error("Expected error when repeating period 1")
	}
}

func TestStepper_Step_OpenCyclePastHorizon(t *testing.T) {
	sampler := &fixedSampler{durations: [entities.StageCount]float64{1, 1, 1, 1}}
	stepper, _ := newTestStepper(t, 6, 1, 1, sampler)

	var started []entities.LifecycleRecord
	for period := 1; period <= 6; period++ {
		res, err := stepper.Step(context.Background(), period)
		if err != nil {
			t.Fatalf("Step %d failed: %v", period, err)
		}
		started = append(started, res.CyclesStarted...)
	}
	if len(started) != 1 {
		t.Fatalf("Expected 1 regenerated cycle, got %d", len(started))
	}
	if !started[0].Open {
		t.Error("Expected cycle ending at 9 to be open with horizon 6")
	}
	for _, ap := range stepper.Active() {
		if ap.CompletesAt(9) {
			t.Error("Open cycle should never complete")
		}
	}
}

func TestStepper_Step_FailedPeriodAppendsNothing(t *testing.T) {
	// two initial draws, then the second of the two period-5 successors fails
	sampler := &failingSampler{fixedSampler: fixedSampler{durations: [entities.StageCount]float64{1, 1, 1, 1}}, failAt: 4}
	stepper, repo := newTestStepper(t, 10, 2, 1, sampler)

	for period := 1; period <= 4; period++ {
		if _, err := stepper.Step(context.Background(), period); err != nil {
			t.Fatalf("Step %d failed: %v", period, err)
		}
	}

	if _, err := stepper.Step(context.Background(), 5); err == nil {
		t.Fatal("Expected period 5 to fail")
	}
	if repo.Len() != 2 {
		t.Errorf("Expected only the 2 initial records after the failed period, got %d", repo.Len())
	}
	for _, rec := range repo.Records() {
		if rec.Cycle != 1 {
			t.Errorf("Part %d: expected no successor cycle, got cycle %d", rec.PartID, rec.Cycle)
		}
	}
}
