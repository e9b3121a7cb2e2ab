package simulation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/vsinha/micap/pkg/domain/entities"
	testhelpers "github.com/vsinha/micap/pkg/infrastructure/testing"
)

func quietEngine(observer ProgressObserver) *Engine {
	return NewEngineWithConfig(EngineConfig{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observer: observer,
	})
}

func TestEngine_Run_DeterministicSinglePart(t *testing.T) {
	scenario := testhelpers.DeterministicScenario(10, 1, 1, 1)

	result, err := quietEngine(nil).Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Completed {
		t.Fatal("Expected run to complete")
	}

	cycles := result.Lifecycles
	if len(cycles) != 3 {
		t.Fatalf("Expected 3 lifecycle records, got %d", len(cycles))
	}

	first := cycles[0]
	wantWindows := [entities.StageCount][2]float64{{1, 2}, {2, 3}, {3, 4}, {4, 5}}
	for i, want := range wantWindows {
		w := first.Stages[i]
		if w.Start != want[0] || w.End != want[1] {
			t.Errorf("Cycle 1 stage %d: expected [%v,%v], got [%v,%v]", i+1, want[0], want[1], w.Start, w.End)
		}
	}
	if first.Open {
		t.Error("Initial cycle should not be open")
	}

	second := cycles[1]
	if second.Cycle != 2 || second.Start() != 5 || second.SpawnedPeriod != 5 {
		t.Errorf("Expected cycle 2 starting at 5 spawned at 5, got cycle %d start %v spawned %d",
			second.Cycle, second.Start(), second.SpawnedPeriod)
	}
	if end, ok := second.End(); !ok || end != 9 {
		t.Errorf("Expected cycle 2 to end at 9, got %v (ok=%v)", end, ok)
	}

	third := cycles[2]
	if third.Cycle != 3 || third.Start() != 9 {
		t.Errorf("Expected cycle 3 starting at 9, got cycle %d start %v", third.Cycle, third.Start())
	}
	if !third.Open {
		t.Error("Expected cycle 3 to be open past the horizon")
	}
	if _, ok := third.End(); ok {
		t.Error("Open cycle should have no end")
	}

	if len(result.MicapLog) != 10 {
		t.Fatalf("Expected 10 MICAP entries, got %d", len(result.MicapLog))
	}
	for _, e := range result.MicapLog {
		wantActive, wantMicap := entities.Quantity(0), entities.Quantity(1)
		if e.Period == 1 {
			wantActive, wantMicap = 1, 0
		}
		if e.ActiveStageOne != wantActive || e.Micap != wantMicap || e.MissionNeed != 1 {
			t.Errorf("Period %d: expected active=%d micap=%d need=1, got active=%d micap=%d need=%d",
				e.Period, wantActive, wantMicap, e.ActiveStageOne, e.Micap, e.MissionNeed)
		}
	}
}

func TestEngine_Run_Occupancy(t *testing.T) {
	scenario := testhelpers.DeterministicScenario(10, 1, 1, 1)

	result, err := quietEngine(nil).Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// -1 means no stage is occupied that period
	want := []int{0, 1, 2, 3, -1, 1, 2, 3, -1, 1}
	for i, occ := range result.Occupancy {
		var total entities.Quantity
		for _, c := range occ.Counts {
			total += c
		}
		if want[i] == -1 {
			if total != 0 {
				t.Errorf("Period %d: expected empty occupancy, got %v", occ.Period, occ.Counts)
			}
			continue
		}
		if total != 1 || occ.Counts[want[i]] != 1 {
			t.Errorf("Period %d: expected part in stage %d, got %v", occ.Period, want[i]+1, occ.Counts)
		}
	}
}

func TestEngine_Run_MissionNeedOverride(t *testing.T) {
	scenario := testhelpers.DeterministicScenario(10, 5, 3, 1)
	scenario.Overrides = []entities.Override{
		{Period: 4, Target: entities.MissionNeedTarget(), Value: 5},
	}

	result, err := quietEngine(nil).Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, e := range result.MicapLog {
		want := entities.Quantity(3)
		if e.Period == 4 {
			want = 5
		}
		if e.MissionNeed != want {
			t.Errorf("Period %d: expected mission need %d, got %d", e.Period, want, e.MissionNeed)
		}
		if e.Micap != max(0, e.MissionNeed-e.ActiveStageOne) {
			t.Errorf("Period %d: MICAP %d does not match need %d - active %d",
				e.Period, e.Micap, e.MissionNeed, e.ActiveStageOne)
		}
	}
	if got := result.MissionNeedOverrides[4]; got != 5 {
		t.Errorf("Expected override 5 recorded for period 4, got %d", got)
	}
}

func TestEngine_Run_StageOverrideUsesCurrentPeriodParameters(t *testing.T) {
	scenario := testhelpers.DeterministicScenario(12, 1, 1, 1)
	scenario.Overrides = []entities.Override{
		{Period: 5, Target: entities.StageTarget(entities.Fleet, entities.FieldParam1), Value: 3},
	}

	result, err := quietEngine(nil).Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Lifecycles) < 2 {
		t.Fatalf("Expected a regenerated cycle, got %d records", len(result.Lifecycles))
	}
	if d := result.Lifecycles[1].Stages[entities.Fleet].Duration; d != 3 {
		t.Errorf("Expected regenerated fleet duration 3 from period 5 override, got %v", d)
	}
	if d := result.Lifecycles[0].Stages[entities.Fleet].Duration; d != 1 {
		t.Errorf("Expected initial fleet duration 1, got %v", d)
	}
}

func TestEngine_Run_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entities.Scenario)
	}{
		{"three stages", func(s *entities.Scenario) { s.Stages = s.Stages[:3] }},
		{"no stages", func(s *entities.Scenario) { s.Stages = nil }},
		{"zero horizon", func(s *entities.Scenario) { s.SimTime = 0 }},
		{"negative parts", func(s *entities.Scenario) { s.TotalParts = -1 }},
		{"negative need", func(s *entities.Scenario) { s.MissionNeed = -2 }},
		{"NaN stage parameter", func(s *entities.Scenario) { s.Stages[0].Param1 = math.NaN() }},
		{"infinite stage parameter", func(s *entities.Scenario) { s.Stages[3].Param2 = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampled := false
			engine := NewEngineWithConfig(EngineConfig{
				Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
				NewSampler: func(uint64) DurationSampler {
					sampled = true
					return nil
				},
			})
			scenario := testhelpers.DeterministicScenario(10, 2, 1, 1)
			tt.mutate(&scenario)

			result, err := engine.Run(context.Background(), scenario)
			if !errors.Is(err, entities.ErrInvalidConfiguration) {
				t.Fatalf("Expected ErrInvalidConfiguration, got %v", err)
			}
			if result != nil {
				t.Error("Expected no result for invalid configuration")
			}
			if sampled {
				t.Error("Sampler should not be created for invalid configuration")
			}
		})
	}
}

func TestEngine_Run_UnsupportedDistribution(t *testing.T) {
	scenario := testhelpers.DeterministicScenario(10, 2, 1, 1)
	scenario.Stages[2].Distribution = "gamma"

	result, err := quietEngine(nil).Run(context.Background(), scenario)
	if !errors.Is(err, entities.ErrUnsupportedDistribution) {
		t.Fatalf("Expected ErrUnsupportedDistribution, got %v", err)
	}
	if result == nil {
		t.Fatal("Expected partial result alongside the error")
	}
	if result.Completed || len(result.MicapLog) != 0 {
		t.Errorf("Expected no simulated periods, got %d", len(result.MicapLog))
	}
}

func TestEngine_Run_UnsupportedDistributionOverrideFailsAtRegeneration(t *testing.T) {
	scenario := testhelpers.DeterministicScenario(10, 1, 1, 1)
	scenario.Overrides = []entities.Override{
		{Period: 5, Target: entities.StageTarget(entities.Depot, entities.FieldDistribution), Distribution: "lognormal"},
	}

	result, err := quietEngine(nil).Run(context.Background(), scenario)
	if !errors.Is(err, entities.ErrUnsupportedDistribution) {
		t.Fatalf("Expected ErrUnsupportedDistribution, got %v", err)
	}
	if len(result.MicapLog) != 4 {
		t.Errorf("Expected periods 1-4 to be kept, got %d entries", len(result.MicapLog))
	}
}

func TestEngine_Run_NonFiniteOverrideFailsAtRegeneration(t *testing.T) {
	scenario := testhelpers.DeterministicScenario(10, 1, 1, 1)
	scenario.Overrides = []entities.Override{
		{Period: 5, Target: entities.StageTarget(entities.Fleet, entities.FieldParam1), Value: math.NaN()},
	}

	result, err := quietEngine(nil).Run(context.Background(), scenario)
	if !errors.Is(err, entities.ErrInvalidConfiguration) {
		t.Fatalf("Expected ErrInvalidConfiguration, got %v", err)
	}
	if len(result.MicapLog) != 4 {
		t.Errorf("Expected periods 1-4 to be kept, got %d entries", len(result.MicapLog))
	}
	if len(result.Lifecycles) != 1 {
		t.Errorf("Expected only the initial record, got %d", len(result.Lifecycles))
	}
}

func TestEngine_Run_CancellationReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	observer := ObserverFunc(func(_ context.Context, p PeriodProgress) error {
		if p.Period == 3 {
			cancel()
		}
		return nil
	})

	result, err := quietEngine(observer).Run(ctx, testhelpers.DeterministicScenario(10, 2, 1, 1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if result == nil || result.Completed {
		t.Fatal("Expected an incomplete partial result")
	}
	if len(result.MicapLog) != 3 {
		t.Errorf("Expected 3 MICAP entries, got %d", len(result.MicapLog))
	}
	if len(result.Lifecycles) < 2 {
		t.Errorf("Expected initial records to be kept, got %d", len(result.Lifecycles))
	}
}

func TestEngine_Run_ObserverFailuresDoNotAbort(t *testing.T) {
	calls := 0
	observer := Observers{
		ObserverFunc(func(context.Context, PeriodProgress) error {
			calls++
			return errors.New("display unavailable")
		}),
		ObserverFunc(func(_ context.Context, p PeriodProgress) error {
			if p.Period%2 == 0 {
				panic("renderer crashed")
			}
			return nil
		}),
	}

	result, err := quietEngine(observer).Run(context.Background(), testhelpers.DeterministicScenario(6, 1, 1, 1))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Completed || len(result.MicapLog) != 6 {
		t.Errorf("Expected a completed 6-period run, got %d periods", len(result.MicapLog))
	}
	if calls != 6 {
		t.Errorf("Expected observer to be called 6 times, got %d", calls)
	}
}

func TestObservers_PanicDoesNotSkipLaterObservers(t *testing.T) {
	reached := 0
	observers := Observers{
		ObserverFunc(func(context.Context, PeriodProgress) error {
			panic("renderer crashed")
		}),
		nil,
		ObserverFunc(func(context.Context, PeriodProgress) error {
			reached++
			return errors.New("display unavailable")
		}),
	}

	err := observers.ObservePeriod(context.Background(), PeriodProgress{Period: 1, SimTime: 1})
	if reached != 1 {
		t.Errorf("Expected the observer after the panic to run once, got %d", reached)
	}
	if err == nil || !strings.Contains(err.Error(), "renderer crashed") || !strings.Contains(err.Error(), "display unavailable") {
		t.Errorf("Expected both failures joined, got %v", err)
	}
}

func TestEngine_Run_ProgressReportsEveryPeriod(t *testing.T) {
	var periods []int
	observer := ObserverFunc(func(_ context.Context, p PeriodProgress) error {
		if p.SimTime != 8 {
			t.Errorf("Expected SimTime 8, got %d", p.SimTime)
		}
		periods = append(periods, p.Period)
		return nil
	})

	if _, err := quietEngine(observer).Run(context.Background(), testhelpers.DeterministicScenario(8, 3, 2, 1)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []int{1, 2, 3, 4, 5, 6, 7, 8}
	if !reflect.DeepEqual(periods, want) {
		t.Errorf("Expected periods %v, got %v", want, periods)
	}
}

func TestEngine_Run_SameSeedIsReproducible(t *testing.T) {
	scenario := testhelpers.WeibullScenario(60, 20, 8, 42)

	first, err := quietEngine(nil).Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	second, err := quietEngine(nil).Run(context.Background(), scenario)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if !reflect.DeepEqual(first.Lifecycles, second.Lifecycles) {
		t.Error("Expected identical lifecycle tables for the same seed")
	}
	if !reflect.DeepEqual(first.MicapLog, second.MicapLog) {
		t.Error("Expected identical MICAP logs for the same seed")
	}
	if first.RunID == second.RunID {
		t.Error("Expected distinct run IDs")
	}
}

func TestEngine_Run_ResultInvariants(t *testing.T) {
	result, err := quietEngine(nil).Run(context.Background(), testhelpers.WeibullScenario(120, 30, 12, 7))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	lastCycle := map[entities.PartID]int{}
	for _, rec := range result.Lifecycles {
		if rec.Cycle != lastCycle[rec.PartID]+1 {
			t.Fatalf("Part %d: cycle %d follows %d", rec.PartID, rec.Cycle, lastCycle[rec.PartID])
		}
		lastCycle[rec.PartID] = rec.Cycle
		for i := 1; i < entities.StageCount; i++ {
			if rec.Stages[i].Start != rec.Stages[i-1].End {
				t.Fatalf("Part %d cycle %d: stage %d does not chain", rec.PartID, rec.Cycle, i+1)
			}
		}
		if rec.Cycle > 1 && rec.Stages[entities.ConditionA].End > 120 && !rec.Open {
			t.Errorf("Part %d cycle %d ends past horizon but is not open", rec.PartID, rec.Cycle)
		}
	}
	if len(lastCycle) != 30 {
		t.Errorf("Expected 30 parts, got %d", len(lastCycle))
	}
	for _, e := range result.MicapLog {
		if e.Micap < 0 {
			t.Errorf("Period %d: negative MICAP %d", e.Period, e.Micap)
		}
	}
}
