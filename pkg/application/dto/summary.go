package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/micap/pkg/domain/entities"
)

// RunSummary aggregates a run for reporting
type RunSummary struct {
	Periods            int                                  `json:"periods"`
	MicapPeriods       int                                  `json:"micap_periods"`
	TotalShortfall     entities.Quantity                    `json:"total_shortfall"`
	PeakShortfall      entities.Quantity                    `json:"peak_shortfall"`
	FirstMicapPeriod   int                                  `json:"first_micap_period,omitempty"`
	CyclesStarted      int                                  `json:"cycles_started"`
	OpenCycles         int                                  `json:"open_cycles"`
	MeanStageDurations [entities.StageCount]decimal.Decimal `json:"mean_stage_durations"`
	Availability       decimal.Decimal                      `json:"availability"`
}

// Summarize computes the run summary. Availability is the share of periods
// without a MICAP, rounded to four places.
func Summarize(result *SimulationResult) RunSummary {
	summary := RunSummary{Periods: len(result.MicapLog)}

	for _, e := range result.MicapLog {
		if !e.Short() {
			continue
		}
		summary.MicapPeriods++
		summary.TotalShortfall += e.Micap
		summary.PeakShortfall = max(summary.PeakShortfall, e.Micap)
		if summary.FirstMicapPeriod == 0 {
			summary.FirstMicapPeriod = e.Period
		}
	}

	var totals [entities.StageCount]decimal.Decimal
	for _, rec := range result.Lifecycles {
		if rec.Cycle > 1 {
			summary.CyclesStarted++
		}
		if rec.Open {
			summary.OpenCycles++
		}
		for i, d := range rec.Durations() {
			totals[i] = totals[i].Add(decimal.NewFromFloat(d))
		}
	}
	if n := int64(len(result.Lifecycles)); n > 0 {
		for i := range totals {
			summary.MeanStageDurations[i] = totals[i].Div(decimal.NewFromInt(n)).Round(4)
		}
	}

	if summary.Periods > 0 {
		ok := decimal.NewFromInt(int64(summary.Periods - summary.MicapPeriods))
		summary.Availability = ok.Div(decimal.NewFromInt(int64(summary.Periods))).Round(4)
	}
	return summary
}
