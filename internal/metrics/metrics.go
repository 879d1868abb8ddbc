// Package metrics exports service telemetry to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/subtaste/internal/archetype"
)

const namespace = "subtaste"

// Recorder holds the service collectors. A nil *Recorder records nothing.
type Recorder struct {
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	classifications   *prometheus.CounterVec
	conflicts         prometheus.Counter
	drift             prometheus.Counter
	inboxBatches      *prometheus.CounterVec
}

// New registers the collectors on reg (the default registerer when nil).
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of genome service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed genome service operations.",
		}, []string{"operation"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classifications by resulting primary archetype.",
		}, []string{"primary"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Writes rejected because the stored version moved.",
		}),
		drift: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drift_detected_total",
			Help:      "Evolutions whose distribution shift crossed the drift threshold.",
		}),
		inboxBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_batches_total",
			Help:      "Signal batch files processed from the inbox by result.",
		}, []string{"result"}),
	}

	var err error
	if r.operationDuration, err = register(reg, r.operationDuration); err != nil {
		return nil, err
	}
	if r.operationErrors, err = register(reg, r.operationErrors); err != nil {
		return nil, err
	}
	if r.classifications, err = register(reg, r.classifications); err != nil {
		return nil, err
	}
	if r.conflicts, err = register(reg, r.conflicts); err != nil {
		return nil, err
	}
	if r.drift, err = register(reg, r.drift); err != nil {
		return nil, err
	}
	if r.inboxBatches, err = register(reg, r.inboxBatches); err != nil {
		return nil, err
	}
	return r, nil
}

// register adds c to reg, reusing an identical collector that is already
// registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("metrics: register: %w", err)
	}
	return c, nil
}

// ObserveOperation records latency and, when err is non-nil, a failure.
func (r *Recorder) ObserveOperation(op string, start time.Time, err error) {
	if r == nil {
		return
	}
	r.operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		r.operationErrors.WithLabelValues(op).Inc()
	}
}

func (r *Recorder) Classified(primary archetype.ID) {
	if r == nil {
		return
	}
	r.classifications.WithLabelValues(string(primary)).Inc()
}

func (r *Recorder) Conflict() {
	if r == nil {
		return
	}
	r.conflicts.Inc()
}

func (r *Recorder) Drift() {
	if r == nil {
		return
	}
	r.drift.Inc()
}

// InboxBatch counts a processed batch file; result is "ok" or "failed".
func (r *Recorder) InboxBatch(result string) {
	if r == nil {
		return
	}
	r.inboxBatches.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
