package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is one of the four sequential phases a part cycles through
type Stage int

const (
	Fleet Stage = iota
	ConditionF
	Depot
	ConditionA
)

// StageCount is the number of stages in a lifecycle
const StageCount = 4

// Stages lists every stage in traversal order
var Stages = [StageCount]Stage{Fleet, ConditionF, Depot, ConditionA}

// String method for Stage enum
func (s Stage) String() string {
	switch s {
	case Fleet:
		return "Fleet"
	case ConditionF:
		return "Condition-F"
	case Depot:
		return "Depot"
	case ConditionA:
		return "Condition-A"
	default:
		return "Unknown"
	}
}

// Ordinal returns the spelled-out stage position used in labels and column names
func (s Stage) Ordinal() string {
	switch s {
	case Fleet:
		return "One"
	case ConditionF:
		return "Two"
	case Depot:
		return "Three"
	case ConditionA:
		return "Four"
	default:
		return "Unknown"
	}
}

// Key returns the snake_case column prefix for exports
func (s Stage) Key() string {
	return strings.ReplaceAll(strings.ToLower(s.String()), "-", "_")
}

// Valid reports whether s is one of the four stages
func (s Stage) Valid() bool {
	return s >= Fleet && s <= ConditionA
}

// ParseStage resolves a stage from its name or ordinal ("Depot", "three", "3")
func ParseStage(value string) (Stage, error) {
	value = strings.TrimSpace(value)
	for _, s := range Stages {
		if strings.EqualFold(value, s.String()) || strings.EqualFold(value, s.Ordinal()) || value == strconv.Itoa(int(s)+1) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", value)
}
