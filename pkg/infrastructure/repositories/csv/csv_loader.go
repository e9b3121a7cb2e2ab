package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vsinha/micap/pkg/domain/entities"
)

var (
	overridesHeader = []string{"period", "target", "value"}
	stagesHeader    = []string{"stage", "distribution", "param1", "param2"}
)

// Loader handles loading simulation inputs from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadOverrides loads override directives from a period,target,value file.
// Targets and values are left unresolved.
func (l *Loader) LoadOverrides(filename string) ([]entities.OverrideDirective, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open overrides file %s: %w", filename, err)
	}
	defer file.Close()

	return l.ReadOverrides(file)
}

// ReadOverrides parses override directives from r. A header-only file
// yields no directives.
func (l *Loader) ReadOverrides(r io.Reader) ([]entities.OverrideDirective, error) {
	records, err := readAll(r, "overrides", overridesHeader)
	if err != nil {
		return nil, err
	}

	directives := make([]entities.OverrideDirective, 0, len(records))
	for i, record := range records {
		period, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("overrides CSV row %d: invalid period %q: %w", i+2, record[0], err)
		}
		directives = append(directives, entities.OverrideDirective{
			Period: period,
			Target: strings.TrimSpace(record[1]),
			Value:  strings.TrimSpace(record[2]),
		})
	}
	return directives, nil
}

// LoadStages loads the four baseline stage configurations. Rows may appear
// in any order but every stage must be present exactly once.
func (l *Loader) LoadStages(filename string) ([]entities.StageParameters, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open stages file %s: %w", filename, err)
	}
	defer file.Close()

	return l.ReadStages(file)
}

// ReadStages parses stage configurations from r
func (l *Loader) ReadStages(r io.Reader) ([]entities.StageParameters, error) {
	records, err := readAll(r, "stages", stagesHeader)
	if err != nil {
		return nil, err
	}

	var stages [entities.StageCount]*entities.StageParameters
	for i, record := range records {
		stage, params, err := parseStageRow(record)
		if err != nil {
			return nil, fmt.Errorf("stages CSV row %d: %w", i+2, err)
		}
		if stages[stage] != nil {
			return nil, fmt.Errorf("stages CSV row %d: stage %s listed twice", i+2, stage)
		}
		stages[stage] = &params
	}

	out := make([]entities.StageParameters, 0, entities.StageCount)
	for i, p := range stages {
		if p == nil {
			return nil, fmt.Errorf("stages CSV is missing stage %s", entities.Stage(i))
		}
		out = append(out, *p)
	}
	return out, nil
}

func readAll(r io.Reader, name string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s CSV must have a header", name)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", name, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(expectedHeader), len(record))
		}
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, h := range expected {
		if !strings.EqualFold(strings.TrimSpace(actual[i]), h) {
			return false
		}
	}
	return true
}

func parseStageRow(record []string) (entities.Stage, entities.StageParameters, error) {
	stage, err := entities.ParseStage(record[0])
	if err != nil {
		return 0, entities.StageParameters{}, err
	}

	param1, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return 0, entities.StageParameters{}, fmt.Errorf("invalid param1 %q: %w", record[2], err)
	}
	param2, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return 0, entities.StageParameters{}, fmt.Errorf("invalid param2 %q: %w", record[3], err)
	}

	params, err := entities.NewStageParameters(entities.DistributionName(record[1]), param1, param2)
	if err != nil {
		return 0, entities.StageParameters{}, err
	}
	return stage, params, nil
}
