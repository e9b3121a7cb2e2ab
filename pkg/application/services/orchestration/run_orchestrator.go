package orchestration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vsinha/micap/pkg/application/dto"
	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/domain/services"
	"github.com/vsinha/micap/pkg/infrastructure/artifacts"
)

// Runner executes one simulation
type Runner interface {
	Run(ctx context.Context, scenario entities.Scenario) (*dto.SimulationResult, error)
}

// RunStore persists finished runs
type RunStore interface {
	SaveRun(ctx context.Context, result *dto.SimulationResult) error
}

// OrchestratorConfig wires the optional collaborators. A nil Store or Sink
// skips that step.
type OrchestratorConfig struct {
	Runner Runner
	Store  RunStore
	Sink   artifacts.Sink
	Logger *slog.Logger
	// Zip adds simulation_results.zip next to the individual files
	Zip bool
}

// RunOrchestrator resolves user overrides, runs the simulation and hands
// the result to storage and export
type RunOrchestrator struct {
	runner Runner
	store  RunStore
	sink   artifacts.Sink
	logger *slog.Logger
	zip    bool
}

// NewRunOrchestrator creates a new run orchestrator
func NewRunOrchestrator(config OrchestratorConfig) *RunOrchestrator {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RunOrchestrator{
		runner: config.Runner,
		store:  config.Store,
		sink:   config.Sink,
		logger: logger,
		zip:    config.Zip,
	}
}

// RunRequest is a scenario plus unresolved override directives
type RunRequest struct {
	Scenario   entities.Scenario
	Directives []entities.OverrideDirective
}

// RunReport contains everything a run produced
type RunReport struct {
	Result    *dto.SimulationResult
	Summary   dto.RunSummary
	Dropped   []services.DroppedOverride
	Artifacts []string
}

// Execute runs the request end to end. When the simulation stops early the
// partial result is summarized and returned with the error but is neither
// stored nor exported.
func (o *RunOrchestrator) Execute(ctx context.Context, req RunRequest) (*RunReport, error) {
	if o.runner == nil {
		return nil, fmt.Errorf("no simulation runner configured")
	}

	resolved, dropped := services.ResolveOverrides(req.Directives)
	for _, d := range dropped {
		o.logger.WarnContext(ctx, "override dropped",
			"period", d.Directive.Period,
			"target", d.Directive.Target,
			"value", d.Directive.Value,
			"reason", d.Reason)
	}

	scenario := req.Scenario
	scenario.Overrides = append(append([]entities.Override(nil), scenario.Overrides...), resolved...)

	result, err := o.runner.Run(ctx, scenario)
	if result == nil {
		return nil, err
	}
	report := &RunReport{
		Result:  result,
		Summary: dto.Summarize(result),
		Dropped: dropped,
	}
	if err != nil {
		return report, err
	}

	if o.store != nil {
		if err := o.store.SaveRun(ctx, result); err != nil {
			return report, fmt.Errorf("failed to save run %s: %w", result.RunID, err)
		}
		o.logger.InfoContext(ctx, "run saved", "run_id", result.RunID.String())
	}

	if o.sink != nil {
		locations, err := o.export(ctx, result, report.Summary)
		report.Artifacts = locations
		if err != nil {
			return report, fmt.Errorf("failed to export run %s: %w", result.RunID, err)
		}
	}
	return report, nil
}

func (o *RunOrchestrator) export(ctx context.Context, result *dto.SimulationResult, summary dto.RunSummary) ([]string, error) {
	files, err := BuildExport(result, summary)
	if err != nil {
		return nil, err
	}
	if o.zip {
		data, err := artifacts.Zip(files, result.StartedAt)
		if err != nil {
			return nil, err
		}
		files = append(files, artifacts.File{Name: BundleName, ContentType: artifacts.ContentTypeZip, Data: data})
	}

	prefix := result.RunID.String() + "/"
	var locations []string
	for _, f := range files {
		key := prefix + f.Name
		if err := o.sink.Put(ctx, key, bytesReader(f.Data), f.ContentType); err != nil {
			return locations, err
		}
		locations = append(locations, o.sink.Location(key))
		o.logger.DebugContext(ctx, "artifact written", "location", o.sink.Location(key), "bytes", len(f.Data))
	}
	return locations, nil
}
