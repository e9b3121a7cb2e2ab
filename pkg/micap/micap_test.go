package micap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func quietOptions() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func deterministic(simTime int, seed uint64) Scenario {
	s := Stage(Normal, 1, 0)
	return NewScenario(simTime, 1, 1, seed, s, s, s, s)
}

func TestSimulate(t *testing.T) {
	result, err := Simulate(context.Background(), deterministic(10, 1), []OverrideDirective{
		{Period: 2, Target: "Mission Need", Value: "0"},
		{Period: 2, Target: "Nonsense", Value: "0"},
	}, quietOptions())
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	summary := Summarize(result)
	if summary.MicapPeriods != 8 {
		t.Errorf("Expected 8 MICAP periods, got %d", summary.MicapPeriods)
	}
	if summary.FirstMicapPeriod != 3 {
		t.Errorf("Expected first MICAP at period 3, got %d", summary.FirstMicapPeriod)
	}
}

func TestStage_NormalisesDistributionName(t *testing.T) {
	s := Stage(" Normal", 1, 0)
	if s.Distribution != Normal {
		t.Fatalf("Expected %q, got %q", Normal, s.Distribution)
	}
	result, err := Simulate(context.Background(), NewScenario(4, 1, 1, 1, s, s, s, s), nil, quietOptions())
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if !result.Completed {
		t.Error("Expected run to complete")
	}
}

func TestSimulate_UnsupportedDistribution(t *testing.T) {
	bad := Stage("gamma", 1, 1)
	_, err := Simulate(context.Background(), NewScenario(5, 1, 1, 1, bad, bad, bad, bad), nil, quietOptions())
	if !errors.Is(err, ErrUnsupportedDistribution) {
		t.Errorf("Expected ErrUnsupportedDistribution, got %v", err)
	}
}

func TestReplicate(t *testing.T) {
	scenario := NewScenario(60, 20, 12, 100,
		Stage(Weibull, 1.5, 20),
		Stage(Normal, 3, 1),
		Stage(Weibull, 2, 10),
		Stage(Normal, 2, 0.5),
	)
	config := ReplicationConfig{Runs: 6, Workers: 3, Logger: quietOptions().Logger}

	first, err := Replicate(context.Background(), scenario, config)
	if err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}
	if first.Runs != 6 || len(first.Summaries) != 6 {
		t.Fatalf("Expected 6 summaries, got %d", len(first.Summaries))
	}
	if first.MinAvailability.GreaterThan(first.MeanAvailability) {
		t.Errorf("Min availability %s above mean %s", first.MinAvailability, first.MeanAvailability)
	}

	second, err := Replicate(context.Background(), scenario, ReplicationConfig{Runs: 6, Workers: 1, Logger: config.Logger})
	if err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}
	if !first.MeanAvailability.Equal(second.MeanAvailability) {
		t.Errorf("Expected reproducible batches, got %s and %s", first.MeanAvailability, second.MeanAvailability)
	}
	for i := range first.Summaries {
		if first.Summaries[i].MicapPeriods != second.Summaries[i].MicapPeriods {
			t.Errorf("Replication %d differs between worker counts", i)
		}
	}
}

func TestReplicate_Invalid(t *testing.T) {
	if _, err := Replicate(context.Background(), deterministic(5, 1), ReplicationConfig{}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration for zero runs, got %v", err)
	}
	if _, err := Replicate(context.Background(), deterministic(0, 1), ReplicationConfig{Runs: 1}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration for bad scenario, got %v", err)
	}
}
