package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vsinha/micap/pkg/domain/entities"
)

// DroppedOverride pairs an unresolvable directive with the reason it was dropped
type DroppedOverride struct {
	Directive entities.OverrideDirective
	Reason    string
}

// ResolveOverrides turns user directives into typed overrides. Directives
// whose label or value cannot be resolved are dropped, never fatal.
func ResolveOverrides(directives []entities.OverrideDirective) ([]entities.Override, []DroppedOverride) {
	overrides := make([]entities.Override, 0, len(directives))
	var dropped []DroppedOverride

	for _, d := range directives {
		o, err := ResolveOverride(d)
		if err != nil {
			dropped = append(dropped, DroppedOverride{Directive: d, Reason: err.Error()})
			continue
		}
		overrides = append(overrides, o)
	}
	return overrides, dropped
}

// ResolveOverride resolves a single directive
func ResolveOverride(d entities.OverrideDirective) (entities.Override, error) {
	target, ok := entities.ParseOverrideTarget(d.Target)
	if !ok {
		return entities.Override{}, fmt.Errorf("unknown override target %q", d.Target)
	}

	o := entities.Override{Period: d.Period, Target: target}
	raw := strings.TrimSpace(d.Value)
	if target.Kind == entities.TargetStage && target.Field == entities.FieldDistribution {
		if raw == "" {
			return entities.Override{}, fmt.Errorf("empty distribution for %s", target.Label())
		}
		o.Distribution = entities.ParseDistributionName(raw)
		return o, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return entities.Override{}, fmt.Errorf("invalid value %q for %s: %w", d.Value, target.Label(), err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return entities.Override{}, fmt.Errorf("non-finite value %q for %s", d.Value, target.Label())
	}
	o.Value = value
	return o, nil
}
