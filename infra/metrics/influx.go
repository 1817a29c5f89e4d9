package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/fraudops/fieldkit/core/metrics"
	"github.com/fraudops/fieldkit/infra/logger"
)

// InfluxSink writes queue and triage events to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordActionResults writes one point per delivery attempt.
func (s *InfluxSink) RecordActionResults(results []coremetrics.ActionResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range results {
		p := write.NewPointWithMeasurement("action_delivery").
			AddTag("kind", string(r.Kind)).
			AddTag("case_id", r.CaseID).
			AddTag("completed", strconv.FormatBool(r.Completed)).
			AddTag("component", "action_queue").
			AddField("retries", r.Retries).
			AddField("duration_ms", r.Duration.Milliseconds()).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			s.log.Errorf("influx write: %v", err)
			return err
		}
	}
	return nil
}

// RecordQueueDepth writes the queue depth snapshot.
func (s *InfluxSink) RecordQueueDepth(d coremetrics.QueueDepth) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("action_queue_depth").
		AddTag("component", "action_queue").
		AddField("pending", d.Pending).
		AddField("processing", d.Processing).
		AddField("failed", d.Failed).
		SetTime(d.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTriage writes one point per triage pass.
func (s *InfluxSink) RecordTriage(ev coremetrics.TriageEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("triage_pass").
		AddTag("component", "triage").
		AddField("alerts", ev.Alerts).
		AddField("clusters", ev.Clusters).
		AddField("assigned", ev.Assigned).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
