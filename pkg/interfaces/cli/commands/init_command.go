package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/infrastructure/config"
)

// Files written by the init command
const (
	ScenarioFileName  = "scenario.yaml"
	OverridesFileName = "overrides.csv"
)

// InitConfig holds configuration for scenario generation
type InitConfig struct {
	OutputDir   string
	SimTime     int
	TotalParts  int64
	MissionNeed int64
	Seed        uint64
	Force       bool
	Out         io.Writer
}

// InitCommand writes a starter scenario and overrides file
type InitCommand struct {
	config InitConfig
}

// NewInitCommand creates a new init command
func NewInitCommand(config InitConfig) *InitCommand {
	return &InitCommand{config: config}
}

// Execute writes the files, refusing to overwrite unless Force is set
func (c *InitCommand) Execute(_ context.Context) error {
	if c.config.OutputDir == "" {
		return fmt.Errorf("validation error: output directory required")
	}
	if err := os.MkdirAll(c.config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	scenarioPath := filepath.Join(c.config.OutputDir, ScenarioFileName)
	overridesPath := filepath.Join(c.config.OutputDir, OverridesFileName)
	if !c.config.Force {
		for _, p := range []string{scenarioPath, overridesPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", p, err)
			}
		}
	}

	seed := c.config.Seed
	file := config.Default()
	file.SimTime = c.config.SimTime
	file.TotalParts = c.config.TotalParts
	file.MissionNeed = c.config.MissionNeed
	file.Seed = &seed
	file.OverridesFile = OverridesFileName
	if err := file.Stages.Set([]entities.StageParameters{
		{Distribution: entities.Weibull, Param1: 2, Param2: 60},
		{Distribution: entities.Normal, Param1: 5, Param2: 2},
		{Distribution: entities.Weibull, Param1: 2, Param2: 20},
		{Distribution: entities.Normal, Param1: 3, Param2: 1},
	}); err != nil {
		return err
	}

	data, err := file.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(scenarioPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", scenarioPath, err)
	}

	surge := max(1, c.config.SimTime/2)
	overrides := fmt.Sprintf("period,target,value\n%d,%s,%d\n%d,Stage Three Param 2,30\n",
		surge, entities.MissionNeedLabel, c.config.MissionNeed+c.config.MissionNeed/2, surge)
	if err := os.WriteFile(overridesPath, []byte(overrides), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", overridesPath, err)
	}

	if c.config.Out != nil {
		fmt.Fprintf(c.config.Out, "📁 Wrote %s\n📁 Wrote %s\n", scenarioPath, overridesPath)
	}
	return nil
}
