package micap

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ReplicationConfig controls a batch of independent runs of one scenario
type ReplicationConfig struct {
	Runs int
	// Workers bounds concurrency; 0 means GOMAXPROCS
	Workers int
	Logger  *slog.Logger
}

// ReplicationSummary aggregates a batch. Run i uses seed Scenario.Seed+i so
// a batch is reproducible.
type ReplicationSummary struct {
	Runs               int             `json:"runs"`
	MeanAvailability   decimal.Decimal `json:"mean_availability"`
	MinAvailability    decimal.Decimal `json:"min_availability"`
	MeanMicapPeriods   decimal.Decimal `json:"mean_micap_periods"`
	WorstPeakShortfall Quantity        `json:"worst_peak_shortfall"`
	Summaries          []Summary       `json:"summaries"`
}

// Replicate runs the scenario Runs times concurrently. Any failed run
// cancels the rest and its error is returned.
func Replicate(ctx context.Context, scenario Scenario, config ReplicationConfig) (*ReplicationSummary, error) {
	if config.Runs < 1 {
		return nil, fmt.Errorf("%w: replication count must be positive, got %d", ErrInvalidConfiguration, config.Runs)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	summaries := make([]Summary, config.Runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range config.Runs {
		run := scenario
		run.Seed = scenario.Seed + uint64(i)
		g.Go(func() error {
			result, err := Simulate(gctx, run, nil, Options{Logger: logger.With("replication", i)})
			if err != nil {
				return fmt.Errorf("replication %d: %w", i, err)
			}
			summaries[i] = Summarize(result)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &ReplicationSummary{Runs: config.Runs, Summaries: summaries}
	var availability, micapPeriods decimal.Decimal
	for i, s := range summaries {
		availability = availability.Add(s.Availability)
		micapPeriods = micapPeriods.Add(decimal.NewFromInt(int64(s.MicapPeriods)))
		if i == 0 || s.Availability.LessThan(out.MinAvailability) {
			out.MinAvailability = s.Availability
		}
		out.WorstPeakShortfall = max(out.WorstPeakShortfall, s.PeakShortfall)
	}
	n := decimal.NewFromInt(int64(config.Runs))
	out.MeanAvailability = availability.Div(n).Round(4)
	out.MeanMicapPeriods = micapPeriods.Div(n).Round(4)
	return out, nil
}
