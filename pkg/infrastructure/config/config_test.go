package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vsinha/micap/pkg/domain/entities"
)

const sampleYAML = `
sim_time: 30
total_parts: 12
mission_need: 8
seed: 42
stages:
  fleet:
    distribution: weibull
    param1: 1.5
    param2: 20
  condition_f:
    distribution: Normal
    param1: 3
    param2: 1
  depot:
    distribution: normal
    param1: 10
    param2: 2
  condition_a: {distribution: " WEIBULL ", param1: 2, param2: 4}
overrides:
  - period: 5
    target: Mission Need
    value: "10"
  - period: 6
    target: Stage Three Dist
    value: weibull
overrides_file: extra.csv
output:
  dir: out
  zip: true
  s3:
    bucket: results
    path_style: true
database:
  driver: sqlite
  dsn: runs.db
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if f.SimTime != 30 || f.TotalParts != 12 || f.MissionNeed != 8 {
		t.Errorf("Unexpected scalars %+v", f)
	}
	if f.Seed == nil || *f.Seed != 42 {
		t.Errorf("Expected seed 42, got %v", f.Seed)
	}
	if len(f.Overrides) != 2 || f.Overrides[1].Target != "Stage Three Dist" {
		t.Errorf("Unexpected overrides %+v", f.Overrides)
	}
	if f.OverridesFile != filepath.Join(dir, "extra.csv") {
		t.Errorf("Expected overrides file resolved against scenario dir, got %s", f.OverridesFile)
	}
	if !f.Output.Zip || f.Output.S3 == nil || f.Output.S3.Bucket != "results" || !f.Output.S3.PathStyle {
		t.Errorf("Unexpected output %+v", f.Output)
	}
	if f.Database.Driver != "sqlite" || f.Database.DSN != "runs.db" {
		t.Errorf("Unexpected database %+v", f.Database)
	}

	scenario, err := f.Scenario()
	if err != nil {
		t.Fatalf("Scenario failed: %v", err)
	}
	if err := scenario.Validate(); err != nil {
		t.Fatalf("Expected valid scenario, got %v", err)
	}
	if scenario.Stages[entities.Fleet].Distribution != entities.Weibull {
		t.Errorf("Expected weibull fleet stage, got %+v", scenario.Stages[entities.Fleet])
	}
	wantF := entities.StageParameters{Distribution: entities.Normal, Param1: 3, Param2: 1}
	if scenario.Stages[entities.ConditionF] != wantF {
		t.Errorf("Expected %+v, got %+v", wantF, scenario.Stages[entities.ConditionF])
	}
	if scenario.Stages[entities.ConditionA].Distribution != entities.Weibull {
		t.Errorf("Expected normalised weibull condition-A stage, got %q", scenario.Stages[entities.ConditionA].Distribution)
	}
	if scenario.Seed != 42 {
		t.Errorf("Expected seed 42, got %d", scenario.Seed)
	}
}

func TestParse_Defaults(t *testing.T) {
	f, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.SimTime != 100 {
		t.Errorf("Expected default horizon 100, got %d", f.SimTime)
	}
	if _, err := f.Scenario(); !errors.Is(err, entities.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration for a file without stages, got %v", err)
	}
}

func TestScenario_MissingStages(t *testing.T) {
	tests := []struct {
		name    string
		stages  string
		missing []string
	}{
		{"only fleet", "  fleet: {distribution: normal, param1: 1, param2: 0}\n", []string{"condition_f", "depot", "condition_a"}},
		{"no depot", "  fleet: {distribution: normal, param1: 1, param2: 0}\n" +
			"  condition_f: {distribution: normal, param1: 1, param2: 0}\n" +
			"  condition_a: {distribution: normal, param1: 1, param2: 0}\n", []string{"depot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte("sim_time: 10\ntotal_parts: 1\nmission_need: 1\nstages:\n" + tt.stages))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			scenario, err := f.Scenario()
			if !errors.Is(err, entities.ErrInvalidConfiguration) {
				t.Fatalf("Expected ErrInvalidConfiguration, got %v (stages %+v)", err, scenario.Stages)
			}
			for _, name := range tt.missing {
				if !strings.Contains(err.Error(), name) {
					t.Errorf("Expected error to name %s, got %v", name, err)
				}
			}
		})
	}
}

func TestScenario_NonFiniteStageParameter(t *testing.T) {
	f, err := Parse([]byte(`
sim_time: 10
stages:
  fleet: {distribution: normal, param1: .nan, param2: 0}
  condition_f: {distribution: normal, param1: 1, param2: 0}
  depot: {distribution: normal, param1: 1, param2: 0}
  condition_a: {distribution: normal, param1: 1, param2: .inf}
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := f.Scenario(); !errors.Is(err, entities.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("sim_time: 10\nhorizon: 5\n")); err == nil {
		t.Error("Expected error for unknown key")
	}
}

func TestStageSet_SetAndMarshal(t *testing.T) {
	f := Default()
	stages := make([]entities.StageParameters, entities.StageCount)
	for i := range stages {
		stages[i] = entities.StageParameters{Distribution: entities.Normal, Param1: float64(i + 1)}
	}
	if err := f.Stages.Set(stages); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := f.Stages.Set(stages[:2]); err == nil {
		t.Error("Expected error for short stage list")
	}

	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse of marshalled file failed: %v", err)
	}
	if back.Stages.Depot == nil || back.Stages.Depot.Param1 != 3 {
		t.Errorf("Expected depot param1 3, got %+v", back.Stages.Depot)
	}
}
