package entities

import (
	"fmt"
	"math"
)

// RecordID is the arena index of a lifecycle record
type RecordID int

// StageWindow is one stage of a lifecycle: [Start, End) with End = Start + Duration
type StageWindow struct {
	Duration float64
	Start    float64
	End      float64
}

// Contains reports whether period falls in [Start, End)
func (w StageWindow) Contains(period int) bool {
	p := float64(period)
	return w.Start <= p && p < w.End
}

// LifecycleRecord is one part's traversal of all four stages within one cycle.
// When Open is set the stage-four end lies past the horizon and is undefined.
type LifecycleRecord struct {
	ID            RecordID
	PartID        PartID
	Cycle         int
	Condemned     bool
	SpawnedPeriod int // 0 for initial cycles
	Stages        [StageCount]StageWindow
	Open          bool
}

// ChainStages lays out four consecutive windows starting at start
func ChainStages(start float64, durations [StageCount]float64) [StageCount]StageWindow {
	var windows [StageCount]StageWindow
	at := start
	for i, d := range durations {
		windows[i] = StageWindow{Duration: d, Start: at, End: at + d}
		at += d
	}
	return windows
}

// NewLifecycleRecord creates a validated record. When horizon is positive and
// the stage-four end exceeds it, the record is marked open.
func NewLifecycleRecord(partID PartID, cycle int, condemned bool, start float64, durations [StageCount]float64, horizon int) (*LifecycleRecord, error) {
	if cycle < 1 {
		return nil, fmt.Errorf("cycle must be positive, got %d", cycle)
	}
	for i, d := range durations {
		if d < 0 || math.IsNaN(d) {
			return nil, fmt.Errorf("stage %s duration must be non-negative, got %v", Stage(i), d)
		}
	}
	record := &LifecycleRecord{
		PartID:    partID,
		Cycle:     cycle,
		Condemned: condemned,
		Stages:    ChainStages(start, durations),
	}
	if horizon > 0 && record.Stages[ConditionA].End > float64(horizon) {
		record.Open = true
	}
	return record, nil
}

// Stage returns the window for stage s
func (r *LifecycleRecord) Stage(s Stage) StageWindow {
	return r.Stages[s]
}

// Start returns the lifecycle start instant
func (r *LifecycleRecord) Start() float64 {
	return r.Stages[Fleet].Start
}

// End returns the stage-four end instant; ok is false while the cycle is open
func (r *LifecycleRecord) End() (end float64, ok bool) {
	if r.Open {
		return 0, false
	}
	return r.Stages[ConditionA].End, true
}

// Durations returns the four sampled durations
func (r *LifecycleRecord) Durations() [StageCount]float64 {
	var d [StageCount]float64
	for i, w := range r.Stages {
		d[i] = w.Duration
	}
	return d
}

// ActiveInStageOne reports whether the record holds the part in Fleet at period
func (r *LifecycleRecord) ActiveInStageOne(period int) bool {
	return !r.Condemned && r.Stages[Fleet].Contains(period)
}

// StageAt returns the stage the record occupies at period. An open record
// stays in stage four through the end of the run.
func (r *LifecycleRecord) StageAt(period int) (Stage, bool) {
	for _, s := range Stages {
		if r.Stages[s].Contains(period) {
			return s, true
		}
	}
	if r.Open && float64(period) >= r.Stages[ConditionA].Start {
		return ConditionA, true
	}
	return 0, false
}

// ActivePart is the projection of a part's current record
type ActivePart struct {
	RecordID  RecordID
	PartID    PartID
	Cycle     int
	Condemned bool
	// RoundedEnd is the stage-four end rounded to a whole period; meaningless when Open
	RoundedEnd int
	Open       bool
}

// NewActivePart projects a record, rounding its stage-four end half to even
func NewActivePart(r LifecycleRecord) ActivePart {
	ap := ActivePart{
		RecordID:  r.ID,
		PartID:    r.PartID,
		Cycle:     r.Cycle,
		Condemned: r.Condemned,
		Open:      r.Open,
	}
	if end, ok := r.End(); ok {
		ap.RoundedEnd = int(math.RoundToEven(end))
	}
	return ap
}

// CompletesAt reports whether the part finishes its cycle at period
func (a ActivePart) CompletesAt(period int) bool {
	return !a.Open && a.RoundedEnd == period
}
