// Package config loads simulation scenarios from YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/infrastructure/artifacts"
)

// File is the on-disk scenario description
type File struct {
	SimTime       int                          `yaml:"sim_time"`
	TotalParts    int64                        `yaml:"total_parts"`
	MissionNeed   int64                        `yaml:"mission_need"`
	Seed          *uint64                      `yaml:"seed,omitempty"`
	Stages        StageSet                     `yaml:"stages"`
	Overrides     []entities.OverrideDirective `yaml:"overrides,omitempty"`
	OverridesFile string                       `yaml:"overrides_file,omitempty"`
	Output        Output                       `yaml:"output,omitempty"`
	Database      Database                     `yaml:"database,omitempty"`
}

// StageSet names each stage's baseline distribution
type StageSet struct {
	Fleet      *entities.StageParameters `yaml:"fleet"`
	ConditionF *entities.StageParameters `yaml:"condition_f"`
	Depot      *entities.StageParameters `yaml:"depot"`
	ConditionA *entities.StageParameters `yaml:"condition_a"`
}

// Output selects where exported artifacts and metrics go
type Output struct {
	Dir             string              `yaml:"dir,omitempty"`
	Zip             bool                `yaml:"zip,omitempty"`
	S3              *artifacts.S3Config `yaml:"s3,omitempty"`
	MetricsTextfile string              `yaml:"metrics_textfile,omitempty"`
}

// Database selects the run history store
type Database struct {
	Driver string `yaml:"driver,omitempty"`
	DSN    string `yaml:"dsn,omitempty"`
}

// Default returns a 100-period scenario with no parts
func Default() *File {
	return &File{SimTime: 100}
}

// Load reads a scenario from a YAML file. A relative overrides_file is
// resolved against the scenario's directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.OverridesFile != "" && !filepath.IsAbs(f.OverridesFile) {
		f.OverridesFile = filepath.Join(filepath.Dir(path), f.OverridesFile)
	}
	return f, nil
}

// Parse decodes a scenario over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	f := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	return f, nil
}

// Slice returns the stages in traversal order with normalised distribution
// names. Every stage must be present.
func (s StageSet) Slice() ([]entities.StageParameters, error) {
	out := make([]entities.StageParameters, 0, entities.StageCount)
	var missing []string
	for i, p := range []*entities.StageParameters{s.Fleet, s.ConditionF, s.Depot, s.ConditionA} {
		stage := entities.Stage(i)
		if p == nil {
			missing = append(missing, stage.Key())
			continue
		}
		params, err := entities.NewStageParameters(p.Distribution, p.Param1, p.Param2)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage.Key(), err)
		}
		out = append(out, params)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: scenario is missing stages %s", entities.ErrInvalidConfiguration, strings.Join(missing, ", "))
	}
	return out, nil
}

// Set replaces every stage from a traversal-ordered slice
func (s *StageSet) Set(stages []entities.StageParameters) error {
	if len(stages) != entities.StageCount {
		return fmt.Errorf("%w: expected %d stage configurations, got %d", entities.ErrInvalidConfiguration, entities.StageCount, len(stages))
	}
	ptrs := []**entities.StageParameters{&s.Fleet, &s.ConditionF, &s.Depot, &s.ConditionA}
	for i := range ptrs {
		p := stages[i]
		*ptrs[i] = &p
	}
	return nil
}

// Scenario converts the file into an engine scenario. Overrides are not
// included; they are resolved separately so that unusable ones can be
// reported.
func (f *File) Scenario() (entities.Scenario, error) {
	stages, err := f.Stages.Slice()
	if err != nil {
		return entities.Scenario{}, err
	}
	var seed uint64
	if f.Seed != nil {
		seed = *f.Seed
	}
	return entities.Scenario{
		SimTime:     f.SimTime,
		TotalParts:  entities.Quantity(f.TotalParts),
		MissionNeed: entities.Quantity(f.MissionNeed),
		Stages:      stages,
		Seed:        seed,
	}, nil
}

// Marshal renders the file back to YAML
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encoding scenario YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding scenario YAML: %w", err)
	}
	return buf.Bytes(), nil
}
