package output

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/vsinha/micap/pkg/application/dto"
	"github.com/vsinha/micap/pkg/application/services/orchestration"
	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/micap/pkg/infrastructure/repositories/sqlstore"
	"github.com/vsinha/micap/pkg/micap"
)

// Config holds configuration for output generation
type Config struct {
	Format  string
	Writer  io.Writer
	Verbose bool
	// EventCounts tallies the run's event stream by type, shown when verbose
	EventCounts map[string]int
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// Generate renders a run report in the specified format
func Generate(report *orchestration.RunReport, config Config) error {
	switch config.Format {
	case "", "text":
		return generateTextOutput(report, config)
	case "json":
		return generateJSONOutput(report, config)
	case "csv":
		return csv.NewWriter().WriteMicapLog(config.writer(), report.Result.MicapLog)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(report *orchestration.RunReport, config Config) error {
	w := config.writer()
	result := report.Result
	s := report.Summary

	fmt.Fprintf(w, "📊 MICAP Simulation Summary\n")
	fmt.Fprintf(w, "===========================\n\n")

	fmt.Fprintf(w, "Run ID: %s\n", result.RunID)
	fmt.Fprintf(w, "Periods: %d of %d\n", s.Periods, result.Scenario.SimTime)
	fmt.Fprintf(w, "Parts: %d  Mission Need: %d  Seed: %d\n",
		result.Scenario.TotalParts, result.Scenario.MissionNeed, result.Scenario.Seed)
	fmt.Fprintf(w, "MICAP Periods: %d\n", s.MicapPeriods)
	fmt.Fprintf(w, "Total Shortfall: %d\n", s.TotalShortfall)
	fmt.Fprintf(w, "Peak Shortfall: %d\n", s.PeakShortfall)
	if s.FirstMicapPeriod > 0 {
		fmt.Fprintf(w, "First MICAP: period %d\n", s.FirstMicapPeriod)
	}
	fmt.Fprintf(w, "Availability: %s\n", s.Availability.StringFixed(4))
	fmt.Fprintf(w, "Cycles Started: %d (%d open at horizon)\n", s.CyclesStarted, s.OpenCycles)
	fmt.Fprintf(w, "Elapsed: %v\n\n", result.Elapsed)

	fmt.Fprintf(w, "⏱️  Mean Stage Durations:\n")
	for _, st := range entities.Stages {
		fmt.Fprintf(w, "  %-12s %s\n", st.String(), s.MeanStageDurations[st].StringFixed(2))
	}
	fmt.Fprintln(w)

	if config.Verbose && len(result.MicapLog) > 0 {
		fmt.Fprintf(w, "📋 MICAP Log:\n")
		fmt.Fprintf(w, "%-8s %-12s %-12s %-8s\n", "Period", "Stage One", "Need", "MICAP")
		fmt.Fprintf(w, "%-8s %-12s %-12s %-8s\n", "--------", "------------", "------------", "--------")
		for _, e := range result.MicapLog {
			fmt.Fprintf(w, "%-8d %-12d %-12d %-8d\n", e.Period, e.ActiveStageOne, e.MissionNeed, e.Micap)
		}
		fmt.Fprintln(w)
	}

	if len(report.Dropped) > 0 {
		fmt.Fprintf(w, "⚠️  Dropped Overrides:\n")
		for _, d := range report.Dropped {
			fmt.Fprintf(w, "  period %d %q = %q: %s\n", d.Directive.Period, d.Directive.Target, d.Directive.Value, d.Reason)
		}
		fmt.Fprintln(w)
	}

	if config.Verbose && len(config.EventCounts) > 0 {
		fmt.Fprintf(w, "📨 Events:\n")
		for _, t := range slices.Sorted(maps.Keys(config.EventCounts)) {
			fmt.Fprintf(w, "  %-18s %d\n", t, config.EventCounts[t])
		}
		fmt.Fprintln(w)
	}

	if len(report.Artifacts) > 0 {
		fmt.Fprintf(w, "💾 Artifacts:\n")
		for _, a := range report.Artifacts {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
	return nil
}

type jsonReport struct {
	RunID     string                `json:"run_id"`
	Completed bool                  `json:"completed"`
	Scenario  jsonScenario          `json:"scenario"`
	Summary   dto.RunSummary        `json:"summary"`
	MicapLog  []entities.MicapEntry `json:"micap_log"`
	Dropped   []jsonDroppedOverride `json:"dropped_overrides,omitempty"`
	Artifacts []string              `json:"artifacts,omitempty"`
	Events    map[string]int        `json:"events,omitempty"`
}

type jsonScenario struct {
	SimTime     int               `json:"sim_time"`
	TotalParts  entities.Quantity `json:"total_parts"`
	MissionNeed entities.Quantity `json:"mission_need"`
	Seed        uint64            `json:"seed"`
}

type jsonDroppedOverride struct {
	entities.OverrideDirective
	Reason string `json:"reason"`
}

// generateJSONOutput creates JSON output
func generateJSONOutput(report *orchestration.RunReport, config Config) error {
	result := report.Result
	doc := jsonReport{
		RunID:     result.RunID.String(),
		Completed: result.Completed,
		Scenario: jsonScenario{
			SimTime:     result.Scenario.SimTime,
			TotalParts:  result.Scenario.TotalParts,
			MissionNeed: result.Scenario.MissionNeed,
			Seed:        result.Scenario.Seed,
		},
		Summary:   report.Summary,
		MicapLog:  result.MicapLog,
		Artifacts: report.Artifacts,
		Events:    config.EventCounts,
	}
	for _, d := range report.Dropped {
		doc.Dropped = append(doc.Dropped, jsonDroppedOverride{OverrideDirective: d.Directive, Reason: d.Reason})
	}
	return encodeJSON(config.writer(), doc)
}

// GenerateParameters renders the effective parameter table
func GenerateParameters(rows []entities.ParameterRow, missionNeed map[int]entities.Quantity, baseline entities.Quantity, config Config) error {
	w := config.writer()
	switch config.Format {
	case "", "text":
		fmt.Fprintf(w, "%-8s %-6s %-6s", "Period", "Parts", "Need")
		for _, st := range entities.Stages {
			fmt.Fprintf(w, " %-24s", st.String())
		}
		fmt.Fprintln(w)
		for _, row := range rows {
			fmt.Fprintf(w, "%-8d %-6d %-6d", row.Period, row.TotalParts, missionNeedAt(missionNeed, row.Period, baseline))
			for _, st := range entities.Stages {
				p := row.Stage(st)
				fmt.Fprintf(w, " %-24s", fmt.Sprintf("%s(%g, %g)", p.Distribution, p.Param1, p.Param2))
			}
			fmt.Fprintln(w)
		}
		return nil
	case "json":
		type jsonRow struct {
			entities.ParameterRow
			MissionNeed entities.Quantity `json:"mission_need"`
		}
		out := make([]jsonRow, 0, len(rows))
		for _, row := range rows {
			out = append(out, jsonRow{ParameterRow: row, MissionNeed: missionNeedAt(missionNeed, row.Period, baseline)})
		}
		return encodeJSON(w, out)
	case "csv":
		return csv.NewWriter().WriteParameters(w, rows, missionNeed)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateLabels lists every accepted override label
func GenerateLabels(config Config) error {
	w := config.writer()
	targets := entities.OverrideTargets()
	labels := make([]string, 0, len(targets))
	for _, t := range targets {
		labels = append(labels, t.Label())
	}
	switch config.Format {
	case "", "text", "csv":
		for _, l := range labels {
			fmt.Fprintln(w, l)
		}
		return nil
	case "json":
		return encodeJSON(w, labels)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateRuns renders the stored run history
func GenerateRuns(runs []sqlstore.RunInfo, config Config) error {
	w := config.writer()
	switch config.Format {
	case "", "text":
		fmt.Fprintf(w, "%-36s %-20s %-8s %-8s %-8s %-8s %-10s\n",
			"Run ID", "Started", "Periods", "Parts", "Need", "MICAP", "Shortfall")
		for _, r := range runs {
			fmt.Fprintf(w, "%-36s %-20s %-8d %-8d %-8d %-8d %-10d\n",
				r.RunID, r.StartedAt.Format("2006-01-02 15:04:05"), r.SimTime,
				r.TotalParts, r.MissionNeed, r.MicapPeriods, r.TotalShortfall)
		}
		return nil
	case "json":
		return encodeJSON(w, runs)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateReplication renders a replication batch, one row per run
func GenerateReplication(summary *micap.ReplicationSummary, baseSeed uint64, config Config) error {
	w := config.writer()
	switch config.Format {
	case "", "text":
		fmt.Fprintf(w, "🎲 Replications: %d\n", summary.Runs)
		fmt.Fprintf(w, "Mean Availability: %s\n", summary.MeanAvailability.StringFixed(4))
		fmt.Fprintf(w, "Min Availability: %s\n", summary.MinAvailability.StringFixed(4))
		fmt.Fprintf(w, "Mean MICAP Periods: %s\n", summary.MeanMicapPeriods.StringFixed(2))
		fmt.Fprintf(w, "Worst Peak Shortfall: %d\n\n", summary.WorstPeakShortfall)
		fmt.Fprintf(w, "%-20s %-8s %-10s %-8s %-12s\n", "Seed", "MICAP", "Shortfall", "Peak", "Availability")
		for i, s := range summary.Summaries {
			fmt.Fprintf(w, "%-20d %-8d %-10d %-8d %-12s\n",
				baseSeed+uint64(i), s.MicapPeriods, s.TotalShortfall, s.PeakShortfall, s.Availability.StringFixed(4))
		}
		return nil
	case "json":
		return encodeJSON(w, summary)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateMicapLog renders a stored MICAP log
func GenerateMicapLog(log []entities.MicapEntry, config Config) error {
	w := config.writer()
	switch config.Format {
	case "", "csv":
		return csv.NewWriter().WriteMicapLog(w, log)
	case "json":
		return encodeJSON(w, log)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func missionNeedAt(overrides map[int]entities.Quantity, period int, baseline entities.Quantity) entities.Quantity {
	if v, ok := overrides[period]; ok {
		return v
	}
	return baseline
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
