package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vsinha/micap/pkg/interfaces/cli/commands"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "micap",
		Short:         "Repair-cycle simulation of parts availability against mission need",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging and detailed output")

	logger := func() *slog.Logger {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(l)
		return l
	}

	rootCmd.AddCommand(runCmd(&verbose, logger))
	rootCmd.AddCommand(replicateCmd(logger))
	rootCmd.AddCommand(paramsCmd(logger))
	rootCmd.AddCommand(labelsCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(initCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// scenarioFlags registers the scenario inputs shared by run and params. The
// returned function copies only the flags the user set.
func scenarioFlags(cmd *cobra.Command, opts *commands.ScenarioOptions) func() {
	var (
		simTime     int
		totalParts  int64
		missionNeed int64
		seed        uint64
	)
	flags := cmd.Flags()
	flags.StringVarP(&opts.ScenarioFile, "scenario", "s", "", "Scenario YAML file")
	flags.StringVar(&opts.StagesFile, "stages", "", "Stage distributions CSV (stage,distribution,param1,param2)")
	flags.StringVar(&opts.OverridesFile, "overrides", "", "Overrides CSV (period,target,value)")
	flags.StringArrayVarP(&opts.Overrides, "set", "o", nil, `Override as "period:target=value", repeatable`)
	flags.IntVar(&simTime, "sim-time", 0, "Number of periods to simulate")
	flags.Int64Var(&totalParts, "parts", 0, "Total parts in the fleet")
	flags.Int64Var(&missionNeed, "mission-need", 0, "Parts required in stage one each period")
	flags.Uint64Var(&seed, "seed", 0, "Random seed (random when unset)")

	return func() {
		if flags.Changed("sim-time") {
			opts.SimTime = &simTime
		}
		if flags.Changed("parts") {
			opts.TotalParts = &totalParts
		}
		if flags.Changed("mission-need") {
			opts.MissionNeed = &missionNeed
		}
		if flags.Changed("seed") {
			opts.Seed = &seed
		}
	}
}

func runCmd(verbose *bool, logger func() *slog.Logger) *cobra.Command {
	var config commands.Config

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and report the MICAP log",
		Args:  cobra.NoArgs,
	}
	applyScenario := scenarioFlags(cmd, &config.ScenarioOptions)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		applyScenario()
		config.Verbose = *verbose
		config.Out = cmd.OutOrStdout()
		config.Logger = logger()
		return commands.NewRunCommand(config).Execute(cmd.Context())
	}

	flags := cmd.Flags()
	flags.StringVar(&config.OutputDir, "output", "", "Directory to export result files to")
	flags.BoolVar(&config.Zip, "zip", false, "Also export a zip bundle of all result files")
	flags.StringVar(&config.S3Bucket, "s3-bucket", "", "Export to this S3 bucket instead of a directory")
	flags.StringVar(&config.S3Prefix, "s3-prefix", "", "Key prefix inside the S3 bucket")
	flags.StringVar(&config.S3Endpoint, "s3-endpoint", "", "Custom S3 endpoint such as MinIO")
	flags.StringVar(&config.DBDriver, "db-driver", "", "Run history driver: sqlite or postgres")
	flags.StringVar(&config.DSN, "db", "", "Run history database (SQLite path or Postgres DSN)")
	flags.StringVar(&config.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	flags.StringVarP(&config.Format, "format", "f", "text", "Output format: text, json, csv")
	return cmd
}

func replicateCmd(logger func() *slog.Logger) *cobra.Command {
	config := commands.ReplicateConfig{Runs: 30}

	cmd := &cobra.Command{
		Use:   "replicate",
		Short: "Run a scenario repeatedly with consecutive seeds and compare outcomes",
		Args:  cobra.NoArgs,
	}
	applyScenario := scenarioFlags(cmd, &config.ScenarioOptions)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		applyScenario()
		config.Out = cmd.OutOrStdout()
		config.Logger = logger()
		return commands.NewReplicateCommand(config).Execute(cmd.Context())
	}
	flags := cmd.Flags()
	flags.IntVarP(&config.Runs, "runs", "n", config.Runs, "Number of replications")
	flags.IntVar(&config.Workers, "workers", 0, "Concurrent replications (0 uses all CPUs)")
	flags.StringVarP(&config.Format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func paramsCmd(logger func() *slog.Logger) *cobra.Command {
	var config commands.ParamsConfig

	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the effective parameter table after overrides",
		Args:  cobra.NoArgs,
	}
	applyScenario := scenarioFlags(cmd, &config.ScenarioOptions)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		applyScenario()
		config.Out = cmd.OutOrStdout()
		config.Logger = logger()
		return commands.NewParamsCommand(config).Execute(cmd.Context())
	}
	cmd.Flags().StringVarP(&config.Format, "format", "f", "text", "Output format: text, json, csv")
	return cmd
}

func labelsCmd() *cobra.Command {
	var config commands.LabelsConfig

	cmd := &cobra.Command{
		Use:   "labels",
		Short: "List the override labels accepted by --set and overrides files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.Out = cmd.OutOrStdout()
			return commands.NewLabelsCommand(config).Execute(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.Format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runsCmd() *cobra.Command {
	var config commands.RunsConfig

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored runs, or print one run's MICAP log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				config.RunID = args[0]
			}
			config.Out = cmd.OutOrStdout()
			return commands.NewRunsCommand(config).Execute(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&config.DBDriver, "db-driver", "", "Run history driver: sqlite or postgres")
	cmd.Flags().StringVar(&config.DSN, "db", "micap.db", "Run history database (SQLite path or Postgres DSN)")
	cmd.Flags().StringVarP(&config.Format, "format", "f", "text", "Output format: text, json, csv")
	return cmd
}

func initCmd() *cobra.Command {
	config := commands.InitConfig{SimTime: 365, TotalParts: 100, MissionNeed: 60, Seed: 1}

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter scenario and overrides file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.OutputDir = args[0]
			config.Out = cmd.OutOrStdout()
			return commands.NewInitCommand(config).Execute(cmd.Context())
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&config.SimTime, "sim-time", config.SimTime, "Number of periods")
	flags.Int64Var(&config.TotalParts, "parts", config.TotalParts, "Total parts in the fleet")
	flags.Int64Var(&config.MissionNeed, "mission-need", config.MissionNeed, "Parts required in stage one each period")
	flags.Uint64Var(&config.Seed, "seed", config.Seed, "Random seed")
	flags.BoolVar(&config.Force, "force", false, "Overwrite existing files")
	return cmd
}
