package metrics

import (
	"fmt"
	"io"

	"github.com/beetlebugorg/viewcull/pkg/cull"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metrics records culling statistics in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RecordsInput *prometheus.CounterVec
	RecordsKept  *prometheus.CounterVec
	CullDuration *prometheus.HistogramVec
	CacheHits    *prometheus.CounterVec
	Frames       prometheus.Counter
}

// New creates the culling metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RecordsInput: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viewcull",
			Subsystem: "cull",
			Name:      "records_input_total",
			Help:      "Total records offered to culling",
		}, []string{"kind"}),

		RecordsKept: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viewcull",
			Subsystem: "cull",
			Name:      "records_kept_total",
			Help:      "Total records kept after culling",
		}, []string{"kind"}),

		CullDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "viewcull",
			Subsystem: "cull",
			Name:      "duration_seconds",
			Help:      "Time spent culling one layer",
			Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"kind"}),

		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "viewcull",
			Subsystem: "cull",
			Name:      "cache_hits_total",
			Help:      "Total layers served from the result cache",
		}, []string{"kind"}),

		Frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "viewcull",
			Subsystem: "cull",
			Name:      "frames_total",
			Help:      "Total frames culled",
		}),
	}
}

// Observe records the per-layer statistics of one frame.
func (m *Metrics) Observe(result cull.FrameResult) {
	m.Frames.Inc()
	for _, s := range result.Stats {
		kind := s.Kind.String()
		m.RecordsInput.WithLabelValues(kind).Add(float64(s.Input))
		m.RecordsKept.WithLabelValues(kind).Add(float64(s.Kept))
		if s.Cached {
			m.CacheHits.WithLabelValues(kind).Inc()
			continue
		}
		m.CullDuration.WithLabelValues(kind).Observe(s.Duration.Seconds())
	}
}

// Registry returns the registry holding the metrics, e.g. for promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Gather returns the current metric families.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.registry.Gather()
}

// WriteText writes all metrics in the Prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
