package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fraudops/fieldkit/config"
	"github.com/fraudops/fieldkit/core/model"
	"github.com/fraudops/fieldkit/core/queue"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Storage.Backend = "memory"
	cfg.Cache.SetDefaults()
	cfg.Queue.SetDefaults()
	cfg.Drain.SetDefaults()
	cfg.Retry.SetDefaults()
	return cfg
}

func TestServiceTriagePipeline(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer func() { require.NoError(t, svc.Close()) }()

	alerts := []model.Alert{
		{ID: "a1", RiskScore: 0.9, Amount: 500_000, Location: &model.Location{Latitude: 40.0, Longitude: -74.0}},
		{ID: "a2", RiskScore: 0.2, Amount: 1_000, Location: &model.Location{Latitude: 40.0, Longitude: -74.0}},
	}
	units := []model.Unit{
		{ID: "u1", Location: model.Location{Latitude: 40.0, Longitude: -74.0}, Capacity: 2},
	}

	clusters := svc.GroupByLocation(alerts, nil)
	require.Len(t, clusters, 1)
	assignments := svc.AllocateUnits(clusters, units)
	require.Equal(t, map[string]string{"a1": "u1", "a2": "u1"}, assignments)
}

func TestServiceQueueRoundTrip(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer func() { require.NoError(t, svc.Close()) }()

	delivered := 0
	svc.RegisterExecutor(model.ActionFreeze, queue.ExecutorFunc(func(context.Context, model.Action) error {
		delivered++
		return nil
	}))

	queued, err := svc.EnqueueAction(context.Background(), model.Action{Kind: model.ActionFreeze, CaseID: "c1"})
	require.NoError(t, err)
	require.False(t, queued)
	require.Equal(t, 1, delivered)
	require.Equal(t, queue.Status{}, svc.QueueStatus())
}

func TestServiceOfflineQueuesActions(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer func() { require.NoError(t, svc.Close()) }()

	svc.Connectivity.SetOnline(false)
	queued, err := svc.EnqueueAction(context.Background(), model.Action{Kind: model.ActionDispatch, CaseID: "c1"})
	require.NoError(t, err)
	require.True(t, queued)
	require.Equal(t, 1, svc.QueueStatus().Pending)
}

func TestFetchWithCacheFallsBackToCachedCopy(t *testing.T) {
	svc, err := New(testConfig())
	require.NoError(t, err)
	defer func() { require.NoError(t, svc.Close()) }()
	svc.retryCfg.MaxAttempts = 1
	svc.retryCfg.InitialDelay = 0

	data, stale, err := svc.FetchWithCache(context.Background(), "cases", func(context.Context) ([]byte, error) {
		return []byte(`{"open":3}`), nil
	})
	require.NoError(t, err)
	require.False(t, stale)
	require.Equal(t, []byte(`{"open":3}`), data)

	data, stale, err = svc.FetchWithCache(context.Background(), "cases", func(context.Context) ([]byte, error) {
		return nil, errors.New("backend down")
	})
	require.NoError(t, err)
	require.True(t, stale)
	require.Equal(t, []byte(`{"open":3}`), data)

	_, _, err = svc.FetchWithCache(context.Background(), "missing", func(context.Context) ([]byte, error) {
		return nil, errors.New("backend down")
	})
	require.Error(t, err)
}
