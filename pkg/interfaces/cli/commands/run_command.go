package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vsinha/micap/pkg/application/services/orchestration"
	"github.com/vsinha/micap/pkg/application/services/simulation"
	"github.com/vsinha/micap/pkg/infrastructure/artifacts"
	"github.com/vsinha/micap/pkg/infrastructure/config"
	"github.com/vsinha/micap/pkg/infrastructure/events"
	"github.com/vsinha/micap/pkg/infrastructure/metrics"
	"github.com/vsinha/micap/pkg/infrastructure/repositories/sqlstore"
	"github.com/vsinha/micap/pkg/interfaces/cli/output"
)

// Config holds configuration for the run command. Non-empty values
// override the scenario file's output and database sections.
type Config struct {
	ScenarioOptions
	OutputDir   string
	Zip         bool
	S3Bucket    string
	S3Prefix    string
	S3Endpoint  string
	DBDriver    string
	DSN         string
	MetricsFile string
	Format      string
	Verbose     bool
	Out         io.Writer
	Logger      *slog.Logger
}

// RunCommand runs one simulation and reports, stores and exports it
type RunCommand struct {
	config Config
}

// NewRunCommand creates a new run command with the given configuration
func NewRunCommand(config Config) *RunCommand {
	return &RunCommand{config: config}
}

// Execute runs the simulation
func (c *RunCommand) Execute(ctx context.Context) error {
	logger := c.config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	file, directives, err := c.config.Load()
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}
	c.mergeFlags(file)
	scenario, err := file.Scenario()
	if err != nil {
		return err
	}

	metricsObserver := metrics.NewObserver()
	eventStore := events.NewInMemoryEventStore()
	if err := eventStore.Subscribe([]string{events.MicapRecordedEvent}, &events.HandlerFunc{
		Types: []string{events.MicapRecordedEvent},
		Fn: func(e events.Event) error {
			if rec, ok := e.Data().(events.MicapRecorded); ok {
				logger.Debug("MICAP recorded", "period", rec.Entry.Period, "micap", rec.Entry.Micap)
			}
			return nil
		},
	}); err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	engine := simulation.NewEngineWithConfig(simulation.EngineConfig{
		Logger:   logger,
		Observer: simulation.Observers{metricsObserver, events.NewPublisher(eventStore)},
	})

	orchConfig := orchestration.OrchestratorConfig{
		Runner: engine,
		Logger: logger,
		Zip:    file.Output.Zip,
	}

	if file.Database.DSN != "" {
		dialect, err := sqlstore.ParseDialect(file.Database.Driver)
		if err != nil {
			return err
		}
		store, err := sqlstore.Open(ctx, dialect, file.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
		defer store.Close()
		orchConfig.Store = store
	}

	sink, err := c.sink(ctx, file.Output)
	if err != nil {
		return err
	}
	orchConfig.Sink = sink

	report, runErr := orchestration.NewRunOrchestrator(orchConfig).Execute(ctx, orchestration.RunRequest{
		Scenario:   scenario,
		Directives: directives,
	})
	if report == nil {
		return runErr
	}

	if file.Output.MetricsTextfile != "" {
		if err := metricsObserver.WriteTextfile(file.Output.MetricsTextfile); err != nil {
			logger.Warn("metrics export failed", "error", err)
		}
	}

	if err := output.Generate(report, output.Config{
		Format:      c.config.Format,
		Writer:      c.config.Out,
		Verbose:     c.config.Verbose,
		EventCounts: eventStore.CountByType(report.Result.RunID.String()),
	}); err != nil {
		return err
	}
	return runErr
}

func (c *RunCommand) mergeFlags(file *config.File) {
	if c.config.OutputDir != "" {
		file.Output.Dir = c.config.OutputDir
	}
	if c.config.Zip {
		file.Output.Zip = true
	}
	if c.config.MetricsFile != "" {
		file.Output.MetricsTextfile = c.config.MetricsFile
	}
	if c.config.S3Bucket != "" {
		if file.Output.S3 == nil {
			file.Output.S3 = &artifacts.S3Config{}
		}
		file.Output.S3.Bucket = c.config.S3Bucket
	}
	if file.Output.S3 != nil {
		if c.config.S3Prefix != "" {
			file.Output.S3.Prefix = c.config.S3Prefix
		}
		if c.config.S3Endpoint != "" {
			file.Output.S3.Endpoint = c.config.S3Endpoint
		}
	}
	if c.config.DSN != "" {
		file.Database.DSN = c.config.DSN
	}
	if c.config.DBDriver != "" {
		file.Database.Driver = c.config.DBDriver
	}
}

// sink picks S3 when a bucket is configured, else a local directory, else
// no export at all
func (c *RunCommand) sink(ctx context.Context, out config.Output) (artifacts.Sink, error) {
	if out.S3 != nil && out.S3.Bucket != "" {
		s3Sink, err := artifacts.NewS3Sink(ctx, artifacts.S3ConfigFromEnv(*out.S3))
		if err != nil {
			return nil, fmt.Errorf("failed to configure S3 export: %w", err)
		}
		return s3Sink, nil
	}
	if out.Dir != "" {
		fileSink, err := artifacts.NewFileSink(out.Dir)
		if err != nil {
			return nil, err
		}
		return fileSink, nil
	}
	return nil, nil
}
