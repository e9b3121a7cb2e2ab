package entities

import (
	"fmt"
	"maps"
)

// ParameterRow holds the stage parameters in effect for one period
type ParameterRow struct {
	Period     int                         `json:"period"`
	TotalParts Quantity                    `json:"total_parts"`
	Stages     [StageCount]StageParameters `json:"stages"`
}

// Stage returns the parameters for stage s
func (r ParameterRow) Stage(s Stage) StageParameters {
	return r.Stages[s]
}

// ParameterTable has exactly one row per period, periods 1..N contiguous.
// Mission-need overrides are kept apart from the rows since mission need is
// a global scalar rather than a stage column.
type ParameterTable struct {
	rows                 []ParameterRow
	missionNeedOverrides map[int]Quantity
}

// NewParameterTable creates a table from rows that must be numbered 1..len(rows)
func NewParameterTable(rows []ParameterRow) (*ParameterTable, error) {
	for i, row := range rows {
		if row.Period != i+1 {
			return nil, fmt.Errorf("%w: row %d has period %d", ErrInvalidConfiguration, i, row.Period)
		}
	}
	return &ParameterTable{
		rows:                 rows,
		missionNeedOverrides: make(map[int]Quantity),
	}, nil
}

// Len returns the number of periods in the table
func (t *ParameterTable) Len() int {
	return len(t.rows)
}

// Rows returns a copy of every row
func (t *ParameterTable) Rows() []ParameterRow {
	out := make([]ParameterRow, len(t.rows))
	copy(out, t.rows)
	return out
}

// Row returns the row for period, clamped into 1..Len()
func (t *ParameterTable) Row(period int) ParameterRow {
	if len(t.rows) == 0 {
		return ParameterRow{}
	}
	period = max(1, min(period, len(t.rows)))
	return t.rows[period-1]
}

// SetStageParameter overwrites one (period, column) cell. It reports false
// when the period lies outside the table.
func (t *ParameterTable) SetStageParameter(period int, stage Stage, field StageField, value float64, distribution DistributionName) bool {
	if period < 1 || period > len(t.rows) || !stage.Valid() {
		return false
	}
	params := &t.rows[period-1].Stages[stage]
	switch field {
	case FieldDistribution:
		params.Distribution = distribution
	case FieldParam1:
		params.Param1 = value
	case FieldParam2:
		params.Param2 = value
	default:
		return false
	}
	return true
}

// SetMissionNeed records a mission-need override for period
func (t *ParameterTable) SetMissionNeed(period int, need Quantity) {
	t.missionNeedOverrides[period] = need
}

// MissionNeed returns the override for period when present, else baseline
func (t *ParameterTable) MissionNeed(period int, baseline Quantity) Quantity {
	if need, ok := t.missionNeedOverrides[period]; ok {
		return need
	}
	return baseline
}

// MissionNeedOverrides returns a copy of the override mapping
func (t *ParameterTable) MissionNeedOverrides() map[int]Quantity {
	return maps.Clone(t.missionNeedOverrides)
}
