// Package micap is the library entry point for repair-cycle simulations.
// It wraps the engine behind a small API for callers that do not need the
// CLI's storage and export layers.
package micap

import (
	"context"
	"log/slog"

	"github.com/vsinha/micap/pkg/application/dto"
	"github.com/vsinha/micap/pkg/application/services/simulation"
	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/domain/services"
)

type (
	Scenario          = entities.Scenario
	StageParameters   = entities.StageParameters
	OverrideDirective = entities.OverrideDirective
	Quantity          = entities.Quantity
	Result            = dto.SimulationResult
	Summary           = dto.RunSummary
	Observer          = simulation.ProgressObserver
	Progress          = simulation.PeriodProgress
)

const (
	Normal  = entities.Normal
	Weibull = entities.Weibull
)

var (
	ErrUnsupportedDistribution = entities.ErrUnsupportedDistribution
	ErrInvalidConfiguration    = entities.ErrInvalidConfiguration
)

// Options tunes a simulation. The zero value logs to slog.Default and
// observes nothing.
type Options struct {
	Logger   *slog.Logger
	Observer Observer
}

// Stage builds one stage's distribution
func Stage(distribution entities.DistributionName, param1, param2 float64) StageParameters {
	return StageParameters{Distribution: entities.ParseDistributionName(string(distribution)), Param1: param1, Param2: param2}
}

// NewScenario builds a scenario from the four stages in traversal order
func NewScenario(simTime int, totalParts, missionNeed Quantity, seed uint64, stages ...StageParameters) Scenario {
	return Scenario{
		SimTime:     simTime,
		TotalParts:  totalParts,
		MissionNeed: missionNeed,
		Stages:      stages,
		Seed:        seed,
	}
}

// Simulate resolves directives, dropping the unusable ones with a warning,
// and runs the scenario
func Simulate(ctx context.Context, scenario Scenario, directives []OverrideDirective, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	overrides, dropped := services.ResolveOverrides(directives)
	for _, d := range dropped {
		logger.WarnContext(ctx, "override dropped", "period", d.Directive.Period, "target", d.Directive.Target, "reason", d.Reason)
	}
	scenario.Overrides = append(append([]entities.Override(nil), scenario.Overrides...), overrides...)

	engine := simulation.NewEngineWithConfig(simulation.EngineConfig{
		Logger:   logger,
		Observer: opts.Observer,
	})
	return engine.Run(ctx, scenario)
}

// Summarize aggregates a result
func Summarize(result *Result) Summary {
	return dto.Summarize(result)
}
