package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	platformmetrics "pokedex/internal/platform/metrics"
)

// Upload outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics tracks record creation and the media uploads feeding it.
type Metrics struct {
	RecordsCreated prometheus.Counter
	MediaUploads   *prometheus.CounterVec
	OrphanedMedia  prometheus.Counter
}

// New registers the ingestion metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "records_created_total",
			Help:      "Total number of pokemon records created through uploads",
		}),
		MediaUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "media_uploads_total",
			Help:      "Media store uploads by outcome",
		}, []string{"outcome"}),
		OrphanedMedia: factory.NewCounter(prometheus.CounterOpts{
			Namespace: platformmetrics.Namespace,
			Name:      "media_orphaned_total",
			Help:      "Uploaded media objects whose record insert failed",
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m == nil {
		return
	}
	m.RecordsCreated.Inc()
}

func (m *Metrics) IncrementUpload(outcome string) {
	if m == nil {
		return
	}
	m.MediaUploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementOrphaned() {
	if m == nil {
		return
	}
	m.OrphanedMedia.Inc()
}
