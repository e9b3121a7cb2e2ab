package repositories

import "github.com/vsinha/micap/pkg/domain/entities"

// LifecycleRepository is the append-only arena of lifecycle records
type LifecycleRepository interface {
	// Append stores a record and assigns its ID
	Append(record entities.LifecycleRecord) (entities.RecordID, error)
	GetRecord(id entities.RecordID) (*entities.LifecycleRecord, error)
	// Latest returns the most recent cycle for a part, condemned or not
	Latest(partID entities.PartID) (*entities.LifecycleRecord, bool)
	// LatestActive returns the most recent non-condemned cycle for a part
	LatestActive(partID entities.PartID) (*entities.LifecycleRecord, bool)
	Cycles(partID entities.PartID) []entities.LifecycleRecord
	PartIDs() []entities.PartID
	// Records returns a snapshot of every record in ID order
	Records() []entities.LifecycleRecord
	Len() int
}
