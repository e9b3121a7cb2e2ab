package entities

// MicapEntry records one period's stage-one availability against mission need
type MicapEntry struct {
	Period         int      `json:"period"`
	ActiveStageOne Quantity `json:"active_stage_one"`
	MissionNeed    Quantity `json:"mission_need"`
	Micap          Quantity `json:"micap"`
}

// NewMicapEntry computes the shortfall max(0, need - active)
func NewMicapEntry(period int, active, need Quantity) MicapEntry {
	return MicapEntry{
		Period:         period,
		ActiveStageOne: active,
		MissionNeed:    need,
		Micap:          max(0, need-active),
	}
}

// Short reports whether the period had a MICAP
func (e MicapEntry) Short() bool {
	return e.Micap > 0
}

// StageOccupancy counts records in each stage at one period
type StageOccupancy struct {
	Period int                  `json:"period"`
	Counts [StageCount]Quantity `json:"counts"`
}

// Count returns the number of parts in stage s
func (o StageOccupancy) Count(s Stage) Quantity {
	return o.Counts[s]
}
