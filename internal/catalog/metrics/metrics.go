package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	platformmetrics "pokedex/internal/platform/metrics"
)

// Metrics tracks catalog reads and writes.
type Metrics struct {
	RecordsUpdated    prometheus.Counter
	RecordsDeleted    prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

// New registers the catalog metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "records_updated_total",
			Help:      "Total number of pokemon records updated",
		}),
		RecordsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "records_deleted_total",
			Help:      "Total number of pokemon records deleted",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "catalog_operation_duration_seconds",
			Help:      "Duration of catalog service operations including store round trips",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementUpdated() {
	if m == nil {
		return
	}
	m.RecordsUpdated.Inc()
}

func (m *Metrics) IncrementDeleted() {
	if m == nil {
		return
	}
	m.RecordsDeleted.Inc()
}

// ObserveOperation records how long op took.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
