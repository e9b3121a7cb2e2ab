package services

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/vsinha/micap/pkg/domain/entities"
)

// BuildParameterTable creates exactly simTime rows carrying the same stage
// configuration. It has no hidden state.
func BuildParameterTable(simTime int, totalParts entities.Quantity, stages [entities.StageCount]entities.StageParameters) (*entities.ParameterTable, error) {
	if simTime < 1 {
		return nil, fmt.Errorf("%w: simulation horizon must be positive, got %d", entities.ErrInvalidConfiguration, simTime)
	}

	rows := make([]entities.ParameterRow, simTime)
	for i := range rows {
		rows[i] = entities.ParameterRow{
			Period:     i + 1,
			TotalParts: totalParts,
			Stages:     stages,
		}
	}
	return entities.NewParameterTable(rows)
}

// ApplyOverrides applies overrides in order; later writes to the same cell
// win. Stage overrides outside the table are skipped. It returns the number
// of overrides that took effect.
func ApplyOverrides(table *entities.ParameterTable, overrides []entities.Override, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	applied := 0
	for _, o := range overrides {
		switch o.Target.Kind {
		case entities.TargetMissionNeed:
			table.SetMissionNeed(o.Period, entities.Quantity(math.Round(o.Value)))
			applied++
		case entities.TargetStage:
			if table.SetStageParameter(o.Period, o.Target.Stage, o.Target.Field, o.Value, o.Distribution) {
				applied++
				continue
			}
			logger.Warn("override skipped: period outside horizon",
				"period", o.Period, "target", o.Target.Label(), "horizon", table.Len())
		default:
			logger.Warn("override skipped: unknown target kind", "period", o.Period, "kind", int(o.Target.Kind))
		}
	}
	return applied
}
