package simulation

import (
	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/domain/repositories"
)

// Project derives each part's current position: the latest non-condemned
// record per part, ordered by part ID. It reads the repository only, so
// projecting an unchanged repository always yields the same result.
func Project(repo repositories.LifecycleRepository) []entities.ActivePart {
	parts := repo.PartIDs()
	active := make([]entities.ActivePart, 0, len(parts))
	for _, id := range parts {
		rec, ok := repo.LatestActive(id)
		if !ok {
			continue
		}
		active = append(active, entities.NewActivePart(*rec))
	}
	return active
}
