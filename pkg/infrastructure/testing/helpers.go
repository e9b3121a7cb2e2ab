package testing

import (
	"github.com/vsinha/micap/pkg/domain/entities"
	"github.com/vsinha/micap/pkg/infrastructure/repositories/memory"
)

// UniformStages returns four identical normal(mean, 0) stages, so every
// sampled duration equals mean exactly
func UniformStages(mean float64) []entities.StageParameters {
	stages := make([]entities.StageParameters, entities.StageCount)
	for i := range stages {
		stages[i] = entities.StageParameters{Distribution: entities.Normal, Param1: mean, Param2: 0}
	}
	return stages
}

// DeterministicScenario builds a scenario whose durations are all mean
func DeterministicScenario(simTime int, totalParts, missionNeed entities.Quantity, mean float64) entities.Scenario {
	return entities.Scenario{
		SimTime:     simTime,
		TotalParts:  totalParts,
		MissionNeed: missionNeed,
		Stages:      UniformStages(mean),
		Seed:        1,
	}
}

// WeibullScenario builds a stochastic scenario resembling a fleet/depot
// repair loop: long fleet time, short condition-F hold, depot repair and a
// short condition-A wait
func WeibullScenario(simTime int, totalParts, missionNeed entities.Quantity, seed uint64) entities.Scenario {
	return entities.Scenario{
		SimTime:     simTime,
		TotalParts:  totalParts,
		MissionNeed: missionNeed,
		Stages: []entities.StageParameters{
			{Distribution: entities.Weibull, Param1: 1.5, Param2: 20},
			{Distribution: entities.Normal, Param1: 3, Param2: 1},
			{Distribution: entities.Weibull, Param1: 2, Param2: 10},
			{Distribution: entities.Normal, Param1: 2, Param2: 0.5},
		},
		Seed: seed,
	}
}

// BuildChainedRepository returns a repository holding cycles 1..cycles of
// one part, each stage lasting duration, chained from period 1
func BuildChainedRepository(partID entities.PartID, cycles int, duration float64, horizon int) *memory.LifecycleRepository {
	repo := memory.NewLifecycleRepository(cycles)
	start := 1.0
	durations := [entities.StageCount]float64{duration, duration, duration, duration}
	for c := 1; c <= cycles; c++ {
		rec, err := entities.NewLifecycleRecord(partID, c, false, start, durations, horizon)
		if err != nil {
			panic(err)
		}
		if _, err := repo.Append(*rec); err != nil {
			panic(err)
		}
		start = rec.Stages[entities.ConditionA].End
	}
	return repo
}
