package memory

import (
	"fmt"
	"slices"

	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/domain/repositories"
)

// LifecycleRepository stores lifecycle records in an arena indexed by
// RecordID, with a per-part index of record IDs in cycle order.
type LifecycleRepository struct {
	records []entities.LifecycleRecord
	byPart  map[entities.PartID][]entities.RecordID
	parts   []entities.PartID
}

// NewLifecycleRepository creates a new in-memory lifecycle repository
func NewLifecycleRepository(expectedRecords int) *LifecycleRepository {
	return &LifecycleRepository{
		records: make([]entities.LifecycleRecord, 0, expectedRecords),
		byPart:  make(map[entities.PartID][]entities.RecordID),
	}
}

// Verify interface compliance
var _ repositories.LifecycleRepository = (*LifecycleRepository)(nil)

// Append stores a record. Cycles for a part must be appended in increasing order.
func (r *LifecycleRepository) Append(record entities.LifecycleRecord) (entities.RecordID, error) {
	ids, known := r.byPart[record.PartID]
	if known {
		prev := r.records[ids[len(ids)-1]]
		if record.Cycle <= prev.Cycle {
			return 0, fmt.Errorf("part %d: cycle %d does not follow cycle %d", record.PartID, record.Cycle, prev.Cycle)
		}
	}

	id := entities.RecordID(len(r.records))
	record.ID = id
	r.records = append(r.records, record)
	r.byPart[record.PartID] = append(ids, id)
	if !known {
		r.parts = append(r.parts, record.PartID)
	}
	return id, nil
}

// LoadRecords appends records in order
func (r *LifecycleRepository) LoadRecords(records []entities.LifecycleRecord) error {
	for _, rec := range records {
		if _, err := r.Append(rec); err != nil {
			return err
		}
	}
	return nil
}

// GetRecord returns the record with the given ID
func (r *LifecycleRepository) GetRecord(id entities.RecordID) (*entities.LifecycleRecord, error) {
	if id < 0 || int(id) >= len(r.records) {
		return nil, fmt.Errorf("lifecycle record not found: %d", id)
	}
	rec := r.records[id]
	return &rec, nil
}

// Latest returns the most recent cycle for a part
func (r *LifecycleRepository) Latest(partID entities.PartID) (*entities.LifecycleRecord, bool) {
	ids := r.byPart[partID]
	if len(ids) == 0 {
		return nil, false
	}
	rec := r.records[ids[len(ids)-1]]
	return &rec, true
}

// LatestActive returns the most recent non-condemned cycle for a part
func (r *LifecycleRepository) LatestActive(partID entities.PartID) (*entities.LifecycleRecord, bool) {
	ids := r.byPart[partID]
	for i := len(ids) - 1; i >= 0; i-- {
		if rec := r.records[ids[i]]; !rec.Condemned {
			return &rec, true
		}
	}
	return nil, false
}

// Cycles returns every cycle for a part in order
func (r *LifecycleRepository) Cycles(partID entities.PartID) []entities.LifecycleRecord {
	ids := r.byPart[partID]
	out := make([]entities.LifecycleRecord, len(ids))
	for i, id := range ids {
		out[i] = r.records[id]
	}
	return out
}

// PartIDs returns every known part in ascending order
func (r *LifecycleRepository) PartIDs() []entities.PartID {
	out := slices.Clone(r.parts)
	slices.Sort(out)
	return out
}

// Records returns a snapshot of every record
func (r *LifecycleRepository) Records() []entities.LifecycleRecord {
	return slices.Clone(r.records)
}

// Len returns the number of stored records
func (r *LifecycleRepository) Len() int {
	return len(r.records)
}
