package orchestration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/micap/pkg/application/dto"
	"github.com/vsinha/micap/pkg/infrastructure/artifacts"
	"github.com/vsinha/micap/pkg/infrastructure/repositories/csv"
)

// Export file names
const (
	LifecycleFile  = "lifecycle.csv"
	MicapFile      = "micap.csv"
	OccupancyFile  = "occupancy.csv"
	ParametersFile = "parameters.csv"
	SummaryFile    = "summary.json"
	BundleName     = "simulation_results.zip"
)

// SummaryDocument is the content of summary.json
type SummaryDocument struct {
	RunID     uuid.UUID      `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Elapsed   string         `json:"elapsed"`
	Completed bool           `json:"completed"`
	SimTime   int            `json:"sim_time"`
	Seed      uint64         `json:"seed"`
	Summary   dto.RunSummary `json:"summary"`
}

// BuildExport renders a result into its export files
func BuildExport(result *dto.SimulationResult, summary dto.RunSummary) ([]artifacts.File, error) {
	writer := csv.NewWriter()

	var lifecycle, micap, occupancy, params bytes.Buffer
	if err := writer.WriteLifecycles(&lifecycle, result.Lifecycles); err != nil {
		return nil, err
	}
	if err := writer.WriteMicapLog(&micap, result.MicapLog); err != nil {
		return nil, err
	}
	if err := writer.WriteOccupancy(&occupancy, result.Occupancy); err != nil {
		return nil, err
	}
	if err := writer.WriteParameters(&params, result.Parameters, result.MissionNeedOverrides); err != nil {
		return nil, err
	}

	doc, err := json.MarshalIndent(SummaryDocument{
		RunID:     result.RunID,
		StartedAt: result.StartedAt,
		Elapsed:   result.Elapsed.String(),
		Completed: result.Completed,
		SimTime:   result.Scenario.SimTime,
		Seed:      result.Scenario.Seed,
		Summary:   summary,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode summary: %w", err)
	}

	return []artifacts.File{
		{Name: LifecycleFile, ContentType: artifacts.ContentTypeCSV, Data: lifecycle.Bytes()},
		{Name: MicapFile, ContentType: artifacts.ContentTypeCSV, Data: micap.Bytes()},
		{Name: OccupancyFile, ContentType: artifacts.ContentTypeCSV, Data: occupancy.Bytes()},
		{Name: ParametersFile, ContentType: artifacts.ContentTypeCSV, Data: params.Bytes()},
		{Name: SummaryFile, ContentType: artifacts.ContentTypeJSON, Data: append(doc, '\n')},
	}, nil
}

func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
