package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/domain/services"
	"github.com/vsinha/micap/pkg/infrastructure/config"
	"github.com/vsinha/micap/pkg/infrastructure/repositories/csv"
)

// ScenarioOptions are the scenario inputs shared by every command that
// builds a parameter table. Nil pointers leave the file value in place.
type ScenarioOptions struct {
	ScenarioFile  string
	StagesFile    string
	OverridesFile string
	// Overrides are "period:target=value" directives, e.g. "12:Mission Need=4"
	Overrides   []string
	SimTime     *int
	TotalParts  *int64
	MissionNeed *int64
	Seed        *uint64
}

// Load reads the scenario file (or defaults), applies flag values and
// gathers override directives from the file, the overrides CSV and flags
// in that order. A scenario without a seed gets a random one.
func (o ScenarioOptions) Load() (*config.File, []entities.OverrideDirective, error) {
	f := config.Default()
	if o.ScenarioFile != "" {
		loaded, err := config.Load(o.ScenarioFile)
		if err != nil {
			return nil, nil, err
		}
		f = loaded
	}

	if o.SimTime != nil {
		f.SimTime = *o.SimTime
	}
	if o.TotalParts != nil {
		f.TotalParts = *o.TotalParts
	}
	if o.MissionNeed != nil {
		f.MissionNeed = *o.MissionNeed
	}
	if o.Seed != nil {
		seed := *o.Seed
		f.Seed = &seed
	}
	if f.Seed == nil {
		seed := rand.Uint64()
		f.Seed = &seed
	}

	loader := csv.NewLoader()
	if o.StagesFile != "" {
		stages, err := loader.LoadStages(o.StagesFile)
		if err != nil {
			return nil, nil, err
		}
		if err := f.Stages.Set(stages); err != nil {
			return nil, nil, err
		}
	}

	directives := append([]entities.OverrideDirective(nil), f.Overrides...)
	overridesFile := f.OverridesFile
	if o.OverridesFile != "" {
		overridesFile = o.OverridesFile
	}
	if overridesFile != "" {
		fromFile, err := loader.LoadOverrides(overridesFile)
		if err != nil {
			return nil, nil, err
		}
		directives = append(directives, fromFile...)
	}
	for _, raw := range o.Overrides {
		d, err := ParseOverrideFlag(raw)
		if err != nil {
			return nil, nil, err
		}
		directives = append(directives, d)
	}
	return f, directives, nil
}

// ParseOverrideFlag parses "period:target=value"
func ParseOverrideFlag(s string) (entities.OverrideDirective, error) {
	periodPart, rest, ok := strings.Cut(s, ":")
	if !ok {
		return entities.OverrideDirective{}, fmt.Errorf("override %q: expected period:target=value", s)
	}
	target, value, ok := strings.Cut(rest, "=")
	if !ok {
		return entities.OverrideDirective{}, fmt.Errorf("override %q: expected period:target=value", s)
	}
	period, err := strconv.Atoi(strings.TrimSpace(periodPart))
	if err != nil {
		return entities.OverrideDirective{}, fmt.Errorf("override %q: invalid period: %w", s, err)
	}
	return entities.OverrideDirective{
		Period: period,
		Target: strings.TrimSpace(target),
		Value:  strings.TrimSpace(value),
	}, nil
}

// resolveAndLog resolves directives and warns about each dropped one
func resolveAndLog(ctx context.Context, logger *slog.Logger, directives []entities.OverrideDirective) []entities.Override {
	overrides, dropped := services.ResolveOverrides(directives)
	for _, d := range dropped {
		logger.WarnContext(ctx, "override dropped",
			"period", d.Directive.Period,
			"target", d.Directive.Target,
			"value", d.Directive.Value,
			"reason", d.Reason)
	}
	return overrides
}
