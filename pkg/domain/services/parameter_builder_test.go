package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/vsinha/micap/pkg/domain/entities"
)

func baseStages() [entities.StageCount]entities.StageParameters {
	return [entities.StageCount]entities.StageParameters{
		{Distribution: entities.Weibull, Param1: 1.5, Param2: 30},
		{Distribution: entities.Normal, Param1: 5, Param2: 1},
		{Distribution: entities.Normal, Param1: 20, Param2: 4},
		{Distribution: entities.Normal, Param1: 3, Param2: 1},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildParameterTable_RowPerPeriod(t *testing.T) {
	for _, simTime := range []int{1, 2, 30, 365} {
		table, err := BuildParameterTable(simTime, 12, baseStages())
		if err != nil {
			t.Fatalf("BuildParameterTable(%d) failed: %v", simTime, err)
		}
		rows := table.Rows()
		if len(rows) != simTime {
			t.Fatalf("Expected %d rows, got %d", simTime, len(rows))
		}
		for i, row := range rows {
			if row.Period != i+1 {
				t.Fatalf("Row %d has period %d", i, row.Period)
			}
			if row.TotalParts != 12 || row.Stages != baseStages() {
				t.Fatalf("Row %d does not carry the base configuration", i)
			}
		}
	}
}

func TestBuildParameterTable_RejectsEmptyHorizon(t *testing.T) {
	if _, err := BuildParameterTable(0, 1, baseStages()); err == nil {
		t.Error("Expected error for zero horizon")
	}
}

func TestApplyOverrides(t *testing.T) {
	table, err := BuildParameterTable(10, 5, baseStages())
	if err != nil {
		t.Fatalf("BuildParameterTable failed: %v", err)
	}

	overrides := []entities.Override{
		{Period: 4, Target: entities.MissionNeedTarget(), Value: 5},
		{Period: 3, Target: entities.StageTarget(entities.Depot, entities.FieldParam1), Value: 40},
		{Period: 3, Target: entities.StageTarget(entities.Depot, entities.FieldParam1), Value: 45},
		{Period: 6, Target: entities.StageTarget(entities.Fleet, entities.FieldDistribution), Distribution: entities.Normal},
		{Period: 6, Target: entities.StageTarget(entities.Fleet, entities.FieldParam2), Value: 2},
		{Period: 11, Target: entities.StageTarget(entities.Fleet, entities.FieldParam1), Value: 99},
	}
	applied := ApplyOverrides(table, overrides, discardLogger())
	if applied != 5 {
		t.Errorf("Expected 5 applied overrides, got %d", applied)
	}

	if got := table.Row(3).Stage(entities.Depot).Param1; got != 45 {
		t.Errorf("Expected later override to win with 45, got %v", got)
	}
	if got := table.Row(2).Stage(entities.Depot).Param1; got != 20 {
		t.Errorf("Expected period 2 untouched at 20, got %v", got)
	}
	fleet := table.Row(6).Stage(entities.Fleet)
	if fleet.Distribution != entities.Normal || fleet.Param2 != 2 || fleet.Param1 != 1.5 {
		t.Errorf("Unexpected period 6 fleet parameters: %+v", fleet)
	}

	for period := 1; period <= 10; period++ {
		want := entities.Quantity(3)
		if period == 4 {
			want = 5
		}
		if got := table.MissionNeed(period, 3); got != want {
			t.Errorf("Period %d: expected mission need %d, got %d", period, want, got)
		}
	}
	for _, row := range table.Rows() {
		if row.Stage(entities.Fleet).Param1 == 99 {
			t.Error("Out-of-horizon override leaked into the table")
		}
	}
}

func TestApplyOverrides_MissionNeedRounds(t *testing.T) {
	table, _ := BuildParameterTable(5, 1, baseStages())
	ApplyOverrides(table, []entities.Override{
		{Period: 2, Target: entities.MissionNeedTarget(), Value: 6.6},
	}, discardLogger())

	if got := table.MissionNeed(2, 1); got != 7 {
		t.Errorf("Expected mission need 7, got %d", got)
	}
}
