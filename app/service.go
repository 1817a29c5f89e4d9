// Package app wires the decision engine together. The queue and cache are
// explicit service objects constructed once here and passed by reference,
// never hidden globals.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fraudops/fieldkit/config"
	"github.com/fraudops/fieldkit/core/allocate"
	"github.com/fraudops/fieldkit/core/cache"
	"github.com/fraudops/fieldkit/core/cluster"
	"github.com/fraudops/fieldkit/core/connectivity"
	coremetrics "github.com/fraudops/fieldkit/core/metrics"
	"github.com/fraudops/fieldkit/core/model"
	"github.com/fraudops/fieldkit/core/priority"
	"github.com/fraudops/fieldkit/core/queue"
	"github.com/fraudops/fieldkit/core/retry"
	corestorage "github.com/fraudops/fieldkit/core/storage"
	"github.com/fraudops/fieldkit/infra/logger"
	"github.com/fraudops/fieldkit/infra/metrics"
	"github.com/fraudops/fieldkit/infra/mqtt"
	"github.com/fraudops/fieldkit/infra/storage"
	"github.com/fraudops/fieldkit/internal/eventbus"
)

// Service exposes the decision engine operations to the host UI layer.
type Service struct {
	scorer    priority.Scorer
	clusterer *cluster.Clusterer
	allocator allocate.Allocator
	queue     *queue.Queue
	cache     *cache.Cache

	Connectivity *connectivity.Flag
	bus          eventbus.EventBus
	sink         coremetrics.Sink
	log          logger.Logger
	commander    *mqtt.Commander

	cacheTTL      time.Duration
	drainInterval time.Duration
	retryCfg      retry.Config
	promEnabled   bool
	promPort      string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	logg := logger.New("service")

	var store corestorage.Store
	switch cfg.Storage.Backend {
	case "file":
		fs, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("file store: %w", err)
		}
		store = fs
	case "redis":
		rs, err := storage.NewRedisStore(cfg.Storage.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		store = rs
	default:
		store = corestorage.NewMemoryStore()
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	conn := connectivity.NewFlag(true)
	q := queue.New(cfg.Queue, store, conn, logger.New("action_queue"), sink, bus)

	var commander *mqtt.Commander
	if cfg.MQTT.Broker != "" {
		var err error
		commander, err = mqtt.NewCommander(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt commander: %w", err)
		}
		for _, kind := range []model.ActionKind{
			model.ActionFreeze, model.ActionDispatch, model.ActionMessage,
			model.ActionOutcome, model.ActionEvidence,
		} {
			q.RegisterExecutor(kind, commander)
		}
	}

	scorer := priority.NewScorer()
	svc := &Service{
		scorer:        scorer,
		clusterer:     cluster.New(scorer),
		allocator:     allocate.NewAllocator(),
		queue:         q,
		cache:         cache.New(store, cfg.Cache.Namespace, logger.New("cache")),
		Connectivity:  conn,
		bus:           bus,
		sink:          sink,
		log:           logg,
		commander:     commander,
		cacheTTL:      time.Duration(cfg.Cache.DefaultTTLSeconds) * time.Second,
		drainInterval: time.Duration(cfg.Drain.IntervalSeconds) * time.Second,
		retryCfg:      cfg.Retry.ToRetry(),
		promEnabled:   cfg.Metrics.PrometheusEnabled,
		promPort:      cfg.Metrics.PrometheusPort,
	}
	return svc, nil
}

// ScoreAlert annotates one alert with its urgency score.
func (s *Service) ScoreAlert(a model.Alert, requester *model.Location) model.ScoredAlert {
	return s.scorer.Score(a, requester)
}

// PrioritizeAlerts returns all alerts scored and sorted descending.
func (s *Service) PrioritizeAlerts(alerts []model.Alert) []model.ScoredAlert {
	return s.scorer.Prioritize(alerts, nil)
}

// GroupByLocation clusters alerts by proximity.
func (s *Service) GroupByLocation(alerts []model.Alert, requester *model.Location) []cluster.Cluster {
	return s.clusterer.GroupByLocation(alerts, requester)
}

// AllocateUnits assigns clustered alerts to responding units and records a
// triage event.
func (s *Service) AllocateUnits(clusters []cluster.Cluster, units []model.Unit) map[string]string {
	assignments := s.allocator.Allocate(clusters, units)
	alerts := 0
	for _, cl := range clusters {
		alerts += len(cl.Members)
	}
	if err := s.sink.RecordTriage(coremetrics.TriageEvent{
		Alerts: alerts, Clusters: len(clusters), Assigned: len(assignments), Time: time.Now(),
	}); err != nil {
		s.log.Warnf("record triage: %v", err)
	}
	return assignments
}

// RegisterExecutor binds a delivery executor to an action kind, replacing
// any executor the configuration wired for it.
func (s *Service) RegisterExecutor(kind model.ActionKind, exec queue.Executor) {
	s.queue.RegisterExecutor(kind, exec)
}

// EnqueueAction submits a field command for reliable delivery.
func (s *Service) EnqueueAction(ctx context.Context, a model.Action) (queued bool, err error) {
	return s.queue.Enqueue(ctx, a)
}

// DrainQueue triggers one drain pass.
func (s *Service) DrainQueue(ctx context.Context) error { return s.queue.Drain(ctx) }

// QueueStatus reports queue depth counters.
func (s *Service) QueueStatus() queue.Status { return s.queue.Status() }

// RetryFailedActions resets failed actions and drains.
func (s *Service) RetryFailedActions(ctx context.Context) error { return s.queue.RetryFailed(ctx) }

// FetchWithCache runs fetch under the configured retry policy and caches a
// successful result. When every attempt fails, a previously cached payload
// is served instead; stale reports that fallback.
func (s *Service) FetchWithCache(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) (data []byte, stale bool, err error) {
	res := retry.Do(ctx, s.retryCfg, fetch)
	if res.Success {
		s.cache.Set(key, res.Value, s.cacheTTL)
		return res.Value, false, nil
	}
	if cached, _, ok := s.cache.GetWithMetadata(key); ok {
		s.log.Warnf("fetch %s failed after %d attempts, serving cached copy: %v", key, res.Attempts, res.Err)
		return cached, true, nil
	}
	return nil, false, res.Err
}

// CacheGet returns a cached payload or nil.
func (s *Service) CacheGet(key string) []byte { return s.cache.Get(key) }

// CacheSet stores a payload under the service default TTL.
func (s *Service) CacheSet(key string, data []byte) { s.cache.Set(key, data, s.cacheTTL) }

// CacheSetTTL stores a payload with an explicit TTL.
func (s *Service) CacheSetTTL(key string, data []byte, ttl time.Duration) {
	s.cache.Set(key, data, ttl)
}

// Events exposes the lifecycle event bus for UI subscribers.
func (s *Service) Events() eventbus.EventBus { return s.bus }

// Run restores persisted work and blocks until the context is cancelled,
// draining the queue on a fixed interval whenever the network is believed
// reachable. The queue's own guard keeps overlapping triggers safe.
func (s *Service) Run(ctx context.Context) error {
	if err := s.queue.Restore(); err != nil {
		s.log.Warnf("queue restore: %v", err)
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	ticker := time.NewTicker(s.drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if !s.Connectivity.IsOnline() {
				continue
			}
			if err := s.queue.Drain(ctx); err != nil {
				s.log.Errorf("drain: %v", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.commander != nil {
		s.commander.Close()
	}
	s.bus.Close()
	return nil
}
