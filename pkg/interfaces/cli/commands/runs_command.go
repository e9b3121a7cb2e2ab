package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/vsinha/micap/pkg/infrastructure/repositories/sqlstore"
	"github.com/vsinha/micap/pkg/interfaces/cli/output"
)

// RunsConfig holds configuration for the runs command
type RunsConfig struct {
	DBDriver string
	DSN      string
	// RunID selects one run whose MICAP log is printed instead of the list
	RunID  string
	Format string
	Out    io.Writer
}

// RunsCommand reads the stored run history
type RunsCommand struct {
	config RunsConfig
}

// NewRunsCommand creates a new runs command
func NewRunsCommand(config RunsConfig) *RunsCommand {
	return &RunsCommand{config: config}
}

// Execute lists runs or prints one run's MICAP log
func (c *RunsCommand) Execute(ctx context.Context) error {
	if c.config.DSN == "" {
		return fmt.Errorf("validation error: database dsn required")
	}
	dialect, err := sqlstore.ParseDialect(c.config.DBDriver)
	if err != nil {
		return err
	}
	store, err := sqlstore.Open(ctx, dialect, c.config.DSN)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer store.Close()

	outConfig := output.Config{Format: c.config.Format, Writer: c.config.Out}
	if c.config.RunID != "" {
		id, err := uuid.Parse(c.config.RunID)
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", c.config.RunID, err)
		}
		entries, err := store.LoadMicapLog(ctx, id)
		if err != nil {
			return err
		}
		return output.GenerateMicapLog(entries, outConfig)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	return output.GenerateRuns(runs, outConfig)
}
