package metrics

import (
	"errors"

	coremetrics "github.com/fraudops/fieldkit/core/metrics"
)

// MultiSink fans events out to several sinks. Errors are joined so one
// failing backend does not hide the others.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordActionResults(results []coremetrics.ActionResult) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordActionResults(results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordQueueDepth(d coremetrics.QueueDepth) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordQueueDepth(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordTriage(ev coremetrics.TriageEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordTriage(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
