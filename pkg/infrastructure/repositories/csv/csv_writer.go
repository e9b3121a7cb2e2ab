package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vsinha/micap/pkg/domain/entities"
)

// FloatPlaces is the rounding applied to exported durations and times
const FloatPlaces = 4

// Writer renders simulation tables as CSV
type Writer struct{}

// NewWriter creates a new CSV writer
func NewWriter() *Writer {
	return &Writer{}
}

// WriteLifecycles writes one row per record with each stage's duration,
// start and end. The final end of an open record is left blank.
func (wr *Writer) WriteLifecycles(w io.Writer, records []entities.LifecycleRecord) error {
	header := []string{"record_id", "part_id", "cycle", "condemned", "spawned_period", "open"}
	for _, s := range entities.Stages {
		header = append(header, s.Key()+"_duration", s.Key()+"_start", s.Key()+"_end")
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := []string{
			strconv.Itoa(int(rec.ID)),
			strconv.Itoa(int(rec.PartID)),
			strconv.Itoa(rec.Cycle),
			strconv.FormatBool(rec.Condemned),
			strconv.Itoa(rec.SpawnedPeriod),
			strconv.FormatBool(rec.Open),
		}
		for _, s := range entities.Stages {
			window := rec.Stage(s)
			end := formatFloat(window.End)
			if rec.Open && s == entities.ConditionA {
				end = ""
			}
			row = append(row, formatFloat(window.Duration), formatFloat(window.Start), end)
		}
		rows = append(rows, row)
	}
	return write(w, "lifecycles", header, rows)
}

// WriteMicapLog writes the per-period MICAP log
func (wr *Writer) WriteMicapLog(w io.Writer, log []entities.MicapEntry) error {
	header := []string{"period", "active_stage_one", "mission_need", "micap"}
	rows := make([][]string, 0, len(log))
	for _, e := range log {
		rows = append(rows, []string{
			strconv.Itoa(e.Period),
			formatQuantity(e.ActiveStageOne),
			formatQuantity(e.MissionNeed),
			formatQuantity(e.Micap),
		})
	}
	return write(w, "MICAP log", header, rows)
}

// WriteOccupancy writes the per-period stage counts
func (wr *Writer) WriteOccupancy(w io.Writer, occupancy []entities.StageOccupancy) error {
	header := []string{"period"}
	for _, s := range entities.Stages {
		header = append(header, s.Key())
	}
	rows := make([][]string, 0, len(occupancy))
	for _, o := range occupancy {
		row := []string{strconv.Itoa(o.Period)}
		for _, s := range entities.Stages {
			row = append(row, formatQuantity(o.Count(s)))
		}
		rows = append(rows, row)
	}
	return write(w, "occupancy", header, rows)
}

// WriteParameters writes the effective parameter table. Mission need is
// written only where an override replaced the baseline.
func (wr *Writer) WriteParameters(w io.Writer, params []entities.ParameterRow, missionNeed map[int]entities.Quantity) error {
	header := []string{"period", "total_parts", "mission_need"}
	for _, s := range entities.Stages {
		header = append(header, s.Key()+"_distribution", s.Key()+"_param1", s.Key()+"_param2")
	}
	rows := make([][]string, 0, len(params))
	for _, p := range params {
		need := ""
		if v, ok := missionNeed[p.Period]; ok {
			need = formatQuantity(v)
		}
		row := []string{strconv.Itoa(p.Period), formatQuantity(p.TotalParts), need}
		for _, s := range entities.Stages {
			sp := p.Stage(s)
			row = append(row, string(sp.Distribution), formatFloat(sp.Param1), formatFloat(sp.Param2))
		}
		rows = append(rows, row)
	}
	return write(w, "parameters", header, rows)
}

func write(w io.Writer, name string, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return decimal.NewFromFloat(v).Round(FloatPlaces).String()
}

func formatQuantity(q entities.Quantity) string {
	return strconv.FormatInt(int64(q), 10)
}
