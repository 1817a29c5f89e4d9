package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/fraudops/fieldkit/core/metrics"
)

// PromSink records queue and triage events in Prometheus metrics.
type PromSink struct {
	actions  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	depth    *prometheus.GaugeVec
	triage   prometheus.Counter
}

// NewPromSink registers metrics on the default Prometheus registerer. The
// Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "action_queue_deliveries_total",
		Help: "Total number of action delivery attempts by outcome",
	}, []string{"kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "action_queue_delivery_seconds",
		Help:    "Time spent delivering one action to its executor",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	depth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "action_queue_depth",
		Help: "Number of actions in the queue by state",
	}, []string{"state"})
	triage := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "triage_passes_total",
		Help: "Number of score/cluster/allocate passes",
	})

	if err := reg.Register(actions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			actions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(depth); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			depth = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(triage); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			triage = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	return &PromSink{actions: actions, duration: duration, depth: depth, triage: triage}, nil
}

func outcome(r coremetrics.ActionResult) string {
	switch {
	case r.Completed:
		return "completed"
	case r.Failed:
		return "failed"
	default:
		return "rescheduled"
	}
}

// RecordActionResults increments the delivery counters.
func (s *PromSink) RecordActionResults(results []coremetrics.ActionResult) error {
	for _, r := range results {
		s.actions.WithLabelValues(string(r.Kind), outcome(r)).Inc()
		s.duration.WithLabelValues(string(r.Kind)).Observe(r.Duration.Seconds())
	}
	return nil
}

// RecordQueueDepth updates the depth gauges.
func (s *PromSink) RecordQueueDepth(d coremetrics.QueueDepth) error {
	s.depth.WithLabelValues("pending").Set(float64(d.Pending))
	s.depth.WithLabelValues("processing").Set(float64(d.Processing))
	s.depth.WithLabelValues("failed").Set(float64(d.Failed))
	return nil
}

// RecordTriage counts one triage pass.
func (s *PromSink) RecordTriage(coremetrics.TriageEvent) error {
	s.triage.Inc()
	return nil
}
