package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vsinha/micap/pkg/domain/services"
	"github.com/vsinha/micap/pkg/interfaces/cli/output"
)

// ParamsConfig holds configuration for the params command
type ParamsConfig struct {
	ScenarioOptions
	Format string
	Out    io.Writer
	Logger *slog.Logger
}

// ParamsCommand prints the effective parameter table after overrides
// without running a simulation
type ParamsCommand struct {
	config ParamsConfig
}

// NewParamsCommand creates a new params command
func NewParamsCommand(config ParamsConfig) *ParamsCommand {
	return &ParamsCommand{config: config}
}

// Execute builds and prints the table
func (c *ParamsCommand) Execute(ctx context.Context) error {
	logger := c.config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	file, directives, err := c.config.Load()
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}
	scenario, err := file.Scenario()
	if err != nil {
		return err
	}
	if err := scenario.Validate(); err != nil {
		return err
	}

	table, err := services.BuildParameterTable(scenario.SimTime, scenario.TotalParts, scenario.StageArray())
	if err != nil {
		return fmt.Errorf("failed to build parameter table: %w", err)
	}

	services.ApplyOverrides(table, resolveAndLog(ctx, logger, directives), logger)

	return output.GenerateParameters(table.Rows(), table.MissionNeedOverrides(), scenario.MissionNeed, output.Config{
		Format: c.config.Format,
		Writer: c.config.Out,
	})
}

// LabelsConfig holds configuration for the labels command
type LabelsConfig struct {
	Format string
	Out    io.Writer
}

// LabelsCommand lists the override labels the resolver accepts
type LabelsCommand struct {
	config LabelsConfig
}

// NewLabelsCommand creates a new labels command
func NewLabelsCommand(config LabelsConfig) *LabelsCommand {
	return &LabelsCommand{config: config}
}

// Execute prints the labels
func (c *LabelsCommand) Execute(_ context.Context) error {
	return output.GenerateLabels(output.Config{Format: c.config.Format, Writer: c.config.Out})
}
