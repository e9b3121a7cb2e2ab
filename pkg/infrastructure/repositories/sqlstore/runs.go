package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/micap/pkg/application/dto"
	"github.com/vsinha/micap/pkg/domain/entities"
)

// startedAtLayout is fixed width so that text order is chronological
const startedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunInfo is one row of the run history
type RunInfo struct {
	RunID          uuid.UUID         `json:"run_id"`
	StartedAt      time.Time         `json:"started_at"`
	Elapsed        time.Duration     `json:"elapsed"`
	SimTime        int               `json:"sim_time"`
	TotalParts     entities.Quantity `json:"total_parts"`
	MissionNeed    entities.Quantity `json:"mission_need"`
	Seed           uint64            `json:"seed"`
	Completed      bool              `json:"completed"`
	MicapPeriods   int               `json:"micap_periods"`
	TotalShortfall entities.Quantity `json:"total_shortfall"`
}

// SaveRun writes a run with its lifecycles, MICAP log and occupancy in one
// transaction
func (s *Store) SaveRun(ctx context.Context, result *dto.SimulationResult) error {
	scenario, err := json.Marshal(result.Scenario)
	if err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}
	summary := dto.Summarize(result)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runID := result.RunID.String()
	if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO runs
		(run_id, started_at, elapsed_ms, sim_time, total_parts, mission_need, seed, completed, micap_periods, total_shortfall, scenario)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		runID,
		result.StartedAt.UTC().Format(startedAtLayout),
		result.Elapsed.Milliseconds(),
		result.Scenario.SimTime,
		int64(result.Scenario.TotalParts),
		int64(result.Scenario.MissionNeed),
		strconv.FormatUint(result.Scenario.Seed, 10),
		boolInt(result.Completed),
		summary.MicapPeriods,
		int64(summary.TotalShortfall),
		string(scenario),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}

	lifecycle, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO lifecycles
		(run_id, record_id, part_id, cycle, condemned, spawned_period, open, start_time,
		 fleet_duration, condition_f_duration, depot_duration, condition_a_duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare lifecycles: %w", err)
	}
	defer lifecycle.Close()
	for _, rec := range result.Lifecycles {
		d := rec.Durations()
		if _, err := lifecycle.ExecContext(ctx, runID, int(rec.ID), int(rec.PartID), rec.Cycle,
			boolInt(rec.Condemned), rec.SpawnedPeriod, boolInt(rec.Open), rec.Start(),
			d[entities.Fleet], d[entities.ConditionF], d[entities.Depot], d[entities.ConditionA]); err != nil {
			return fmt.Errorf("insert lifecycle %d: %w", rec.ID, err)
		}
	}

	micap, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO micap_log
		(run_id, period, active_stage_one, mission_need, micap) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare micap log: %w", err)
	}
	defer micap.Close()
	for _, e := range result.MicapLog {
		if _, err := micap.ExecContext(ctx, runID, e.Period,
			int64(e.ActiveStageOne), int64(e.MissionNeed), int64(e.Micap)); err != nil {
			return fmt.Errorf("insert micap period %d: %w", e.Period, err)
		}
	}

	occupancy, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO occupancy
		(run_id, period, fleet, condition_f, depot, condition_a) VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare occupancy: %w", err)
	}
	defer occupancy.Close()
	for _, o := range result.Occupancy {
		if _, err := occupancy.ExecContext(ctx, runID, o.Period,
			int64(o.Count(entities.Fleet)), int64(o.Count(entities.ConditionF)),
			int64(o.Count(entities.Depot)), int64(o.Count(entities.ConditionA))); err != nil {
			return fmt.Errorf("insert occupancy period %d: %w", o.Period, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", runID, err)
	}
	return nil
}

// ListRuns returns the run history, newest first
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, started_at, elapsed_ms, sim_time, total_parts,
		mission_need, seed, completed, micap_periods, total_shortfall
		FROM runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// GetRun returns one run's history row
func (s *Store) GetRun(ctx context.Context, runID uuid.UUID) (RunInfo, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT run_id, started_at, elapsed_ms, sim_time, total_parts,
		mission_need, seed, completed, micap_periods, total_shortfall
		FROM runs WHERE run_id = ?`), runID.String())
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return info, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunInfo, error) {
	var (
		info                              RunInfo
		id, started, seed                 string
		elapsedMS, parts, need, shortfall int64
		completed                         int
	)
	if err := row.Scan(&id, &started, &elapsedMS, &info.SimTime, &parts, &need, &seed,
		&completed, &info.MicapPeriods, &shortfall); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunInfo{}, err
		}
		return RunInfo{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if info.RunID, err = uuid.Parse(id); err != nil {
		return RunInfo{}, fmt.Errorf("parse run id %q: %w", id, err)
	}
	if info.StartedAt, err = time.Parse(startedAtLayout, started); err != nil {
		return RunInfo{}, fmt.Errorf("parse start time %q: %w", started, err)
	}
	if info.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return RunInfo{}, fmt.Errorf("parse seed %q: %w", seed, err)
	}
	info.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	info.TotalParts = entities.Quantity(parts)
	info.MissionNeed = entities.Quantity(need)
	info.TotalShortfall = entities.Quantity(shortfall)
	info.Completed = completed != 0
	return info, nil
}

// LoadMicapLog returns a run's MICAP log in period order
func (s *Store) LoadMicapLog(ctx context.Context, runID uuid.UUID) ([]entities.MicapEntry, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT period, active_stage_one, mission_need, micap
		FROM micap_log WHERE run_id = ? ORDER BY period`), runID.String())
	if err != nil {
		return nil, fmt.Errorf("select micap log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []entities.MicapEntry
	for rows.Next() {
		var (
			e                   entities.MicapEntry
			active, need, micap int64
		)
		if err := rows.Scan(&e.Period, &active, &need, &micap); err != nil {
			return nil, fmt.Errorf("scan micap log: %w", err)
		}
		e.ActiveStageOne = entities.Quantity(active)
		e.MissionNeed = entities.Quantity(need)
		e.Micap = entities.Quantity(micap)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LoadLifecycles rebuilds a run's lifecycle table in record order
func (s *Store) LoadLifecycles(ctx context.Context, runID uuid.UUID) ([]entities.LifecycleRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT record_id, part_id, cycle, condemned, spawned_period, open,
		start_time, fleet_duration, condition_f_duration, depot_duration, condition_a_duration
		FROM lifecycles WHERE run_id = ? ORDER BY record_id`), runID.String())
	if err != nil {
		return nil, fmt.Errorf("select lifecycles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []entities.LifecycleRecord
	for rows.Next() {
		var (
			rec                     entities.LifecycleRecord
			id, part, condemned, op int
			start                   float64
			d                       [entities.StageCount]float64
		)
		if err := rows.Scan(&id, &part, &rec.Cycle, &condemned, &rec.SpawnedPeriod, &op,
			&start, &d[0], &d[1], &d[2], &d[3]); err != nil {
			return nil, fmt.Errorf("scan lifecycle: %w", err)
		}
		rec.ID = entities.RecordID(id)
		rec.PartID = entities.PartID(part)
		rec.Condemned = condemned != 0
		rec.Open = op != 0
		rec.Stages = entities.ChainStages(start, d)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LoadOccupancy returns a run's stage occupancy log in period order
func (s *Store) LoadOccupancy(ctx context.Context, runID uuid.UUID) ([]entities.StageOccupancy, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT period, fleet, condition_f, depot, condition_a
		FROM occupancy WHERE run_id = ? ORDER BY period`), runID.String())
	if err != nil {
		return nil, fmt.Errorf("select occupancy: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entities.StageOccupancy
	for rows.Next() {
		var (
			o entities.StageOccupancy
			c [entities.StageCount]int64
		)
		if err := rows.Scan(&o.Period, &c[0], &c[1], &c[2], &c[3]); err != nil {
			return nil, fmt.Errorf("scan occupancy: %w", err)
		}
		for i, v := range c {
			o.Counts[i] = entities.Quantity(v)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
