package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsinha/micap/pkg/application/services/simulation"
	"github.com/vsinha/micap/pkg/domain/entities"
)

const namespace = "micap"

// Observer exports run progress as Prometheus metrics on its own registry
type Observer struct {
	registry *prometheus.Registry

	period         prometheus.Gauge
	shortfall      prometheus.Gauge
	activeStageOne prometheus.Gauge
	missionNeed    prometheus.Gauge
	occupancy      *prometheus.GaugeVec

	periods      prometheus.Counter
	micapPeriods prometheus.Counter
	cycles       prometheus.Counter
}

var _ simulation.ProgressObserver = (*Observer)(nil)

// NewObserver creates an observer with a fresh registry
func NewObserver() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		period: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "period",
			Help:      "Last simulated period.",
		}),
		shortfall: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "shortfall_parts",
			Help:      "MICAP shortfall in the last simulated period.",
		}),
		activeStageOne: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_stage_one_parts",
			Help:      "Parts in stage one during the last simulated period.",
		}),
		missionNeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mission_need_parts",
			Help:      "Mission need in the last simulated period.",
		}),
		occupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_occupancy_parts",
			Help:      "Parts in each stage during the last simulated period.",
		}, []string{"stage"}),
		periods: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "periods_simulated_total",
			Help:      "Periods simulated.",
		}),
		micapPeriods: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "micap_periods_total",
			Help:      "Periods that ended with a MICAP shortfall.",
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_started_total",
			Help:      "Repair cycles regenerated during the run.",
		}),
	}
	o.registry.MustRegister(
		o.period, o.shortfall, o.activeStageOne, o.missionNeed, o.occupancy,
		o.periods, o.micapPeriods, o.cycles,
	)
	return o
}

// Registry exposes the registry for scraping or gathering
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

func (o *Observer) ObservePeriod(_ context.Context, progress simulation.PeriodProgress) error {
	o.period.Set(float64(progress.Period))
	o.shortfall.Set(float64(progress.Micap.Micap))
	o.activeStageOne.Set(float64(progress.Micap.ActiveStageOne))
	o.missionNeed.Set(float64(progress.Micap.MissionNeed))
	for _, s := range entities.Stages {
		o.occupancy.WithLabelValues(s.String()).Set(float64(progress.Occupancy.Count(s)))
	}

	o.periods.Inc()
	if progress.Micap.Short() {
		o.micapPeriods.Inc()
	}
	o.cycles.Add(float64(len(progress.CyclesStarted)))
	return nil
}

// WriteTextfile writes the current metric values in the node exporter
// textfile format
func (o *Observer) WriteTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, o.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", filename, err)
	}
	return nil
}
