package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vsinha/micap/pkg/interfaces/cli/output"
	"github.com/vsinha/micap/pkg/micap"
)

// ReplicateConfig holds configuration for the replicate command
type ReplicateConfig struct {
	ScenarioOptions
	Runs    int
	Workers int
	Format  string
	Out     io.Writer
	Logger  *slog.Logger
}

// ReplicateCommand runs a scenario many times with consecutive seeds and
// reports the spread of outcomes
type ReplicateCommand struct {
	config ReplicateConfig
}

// NewReplicateCommand creates a new replicate command
func NewReplicateCommand(config ReplicateConfig) *ReplicateCommand {
	return &ReplicateCommand{config: config}
}

// Execute runs the batch. Overrides are resolved once and applied to every
// replication.
func (c *ReplicateCommand) Execute(ctx context.Context) error {
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
	scenario.Overrides = resolveAndLog(ctx, logger, directives)

	summary, err := micap.Replicate(ctx, scenario, micap.ReplicationConfig{
		Runs:    c.config.Runs,
		Workers: c.config.Workers,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	return output.GenerateReplication(summary, scenario.Seed, output.Config{
		Format: c.config.Format,
		Writer: c.config.Out,
	})
}
