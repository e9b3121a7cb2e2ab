package entities

import (
	"fmt"
	"strings"
)

// MissionNeedLabel is the override label that targets mission need
const MissionNeedLabel = "Mission Need"

// StageField selects one of the three per-stage parameter columns
type StageField int

const (
	FieldDistribution StageField = iota
	FieldParam1
	FieldParam2
)

// String method for StageField enum
func (f StageField) String() string {
	switch f {
	case FieldDistribution:
		return "Dist"
	case FieldParam1:
		return "Param 1"
	case FieldParam2:
		return "Param 2"
	default:
		return "Unknown"
	}
}

// TargetKind distinguishes the variants of OverrideTarget
type TargetKind int

const (
	TargetMissionNeed TargetKind = iota
	TargetStage
)

// OverrideTarget is either mission need or one stage parameter column.
// Stage and Field are meaningful only when Kind is TargetStage.
type OverrideTarget struct {
	Kind  TargetKind
	Stage Stage
	Field StageField
}

// MissionNeedTarget returns the mission-need target
func MissionNeedTarget() OverrideTarget {
	return OverrideTarget{Kind: TargetMissionNeed}
}

// StageTarget returns the target for one stage parameter column
func StageTarget(stage Stage, field StageField) OverrideTarget {
	return OverrideTarget{Kind: TargetStage, Stage: stage, Field: field}
}

// Label returns the user-facing label, e.g. "Stage Two Param 1"
func (t OverrideTarget) Label() string {
	if t.Kind == TargetMissionNeed {
		return MissionNeedLabel
	}
	return fmt.Sprintf("Stage %s %s", t.Stage.Ordinal(), t.Field)
}

// String implements fmt.Stringer
func (t OverrideTarget) String() string {
	return t.Label()
}

// OverrideTargets lists every valid target in label order
func OverrideTargets() []OverrideTarget {
	targets := []OverrideTarget{MissionNeedTarget()}
	for _, s := range Stages {
		for _, f := range []StageField{FieldDistribution, FieldParam1, FieldParam2} {
			targets = append(targets, StageTarget(s, f))
		}
	}
	return targets
}

// ParseOverrideTarget resolves a label to its target. Matching ignores case
// and surrounding whitespace.
func ParseOverrideTarget(label string) (OverrideTarget, bool) {
	label = strings.TrimSpace(label)
	for _, t := range OverrideTargets() {
		if strings.EqualFold(label, t.Label()) {
			return t, true
		}
	}
	return OverrideTarget{}, false
}

// Override is a resolved point change at a specific period. Distribution is
// used when the target field is FieldDistribution, Value otherwise.
type Override struct {
	Period       int
	Target       OverrideTarget
	Value        float64
	Distribution DistributionName
}

// OverrideDirective is an unresolved override as supplied by a user
type OverrideDirective struct {
	Period int    `json:"period" yaml:"period"`
	Target string `json:"target" yaml:"target"`
	Value  string `json:"value" yaml:"value"`
}
