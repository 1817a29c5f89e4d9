package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fraudops/fieldkit/core/model"
	"github.com/fraudops/fieldkit/core/priority"
)

func loc(lat, lon float64) *model.Location {
	return &model.Location{Latitude: lat, Longitude: lon}
}

func minutes(m float64) *float64 { return &m }

func TestGroupNearbyAlerts(t *testing.T) {
	c := New(priority.NewScorer())
	// Second alert ~400 m north of the first.
	alerts := []model.Alert{
		{ID: "a1", RiskScore: 0.5, Location: loc(40.0, -74.0)},
		{ID: "a2", RiskScore: 0.9, Location: loc(40.0036, -74.0)},
	}
	clusters := c.GroupByLocation(alerts, nil)
	require.Len(t, clusters, 1)
	require.Len(t, clusters[0].Members, 2)
}

func TestSplitDistantAlerts(t *testing.T) {
	c := New(priority.NewScorer())
	// Second alert ~600 m north of the first.
	alerts := []model.Alert{
		{ID: "a1", RiskScore: 0.5, Location: loc(40.0, -74.0)},
		{ID: "a2", RiskScore: 0.9, Location: loc(40.0054, -74.0)},
	}
	clusters := c.GroupByLocation(alerts, nil)
	require.Len(t, clusters, 2)
}

func TestAlertsWithoutLocationExcluded(t *testing.T) {
	c := New(priority.NewScorer())
	alerts := []model.Alert{
		{ID: "a1", RiskScore: 0.5},
		{ID: "a2", RiskScore: 0.9, Location: loc(40.0, -74.0)},
	}
	clusters := c.GroupByLocation(alerts, nil)
	require.Len(t, clusters, 1)
	require.Len(t, clusters[0].Members, 1)
	require.Equal(t, "a2", clusters[0].Members[0].ID)
}

func TestClusterLevelUsesMaxNotMean(t *testing.T) {
	c := New(priority.NewScorer())
	// One alert scores high, the other low; the mean lands in between while
	// the cluster level must reflect the maximum.
	alerts := []model.Alert{
		{ID: "hot", RiskScore: 1.0, Amount: 2_000_000, CashOutMinutes: minutes(5), Location: loc(40.0, -74.0)},
		{ID: "cold", Location: loc(40.0001, -74.0)},
	}
	clusters := c.GroupByLocation(alerts, loc(40.0, -74.0))
	require.Len(t, clusters, 1)
	cl := clusters[0]
	require.Equal(t, model.LevelCritical, cl.Level)
	require.Less(t, cl.AggregatePriority, float64(priority.CriticalThreshold))
}

func TestMembersSortedDescending(t *testing.T) {
	c := New(priority.NewScorer())
	alerts := []model.Alert{
		{ID: "low", Location: loc(40.0, -74.0)},
		{ID: "high", RiskScore: 1.0, Amount: 2_000_000, CashOutMinutes: minutes(5), Location: loc(40.0001, -74.0)},
	}
	clusters := c.GroupByLocation(alerts, nil)
	require.Len(t, clusters, 1)
	require.Equal(t, "high", clusters[0].Members[0].ID)
}

func TestClustersSortedByAggregatePriority(t *testing.T) {
	c := New(priority.NewScorer())
	alerts := []model.Alert{
		{ID: "quiet", Location: loc(40.0, -74.0)},
		{ID: "urgent", RiskScore: 1.0, Amount: 2_000_000, CashOutMinutes: minutes(5), Location: loc(41.0, -74.0)},
	}
	clusters := c.GroupByLocation(alerts, nil)
	require.Len(t, clusters, 2)
	require.Equal(t, "urgent", clusters[0].Members[0].ID)
}

func TestGroupingIsOrderDependent(t *testing.T) {
	c := New(priority.NewScorer())
	// Three points in a row, 400 m apart: a-b-c. Starting from a, b joins
	// a's cluster and c (800 m from a) starts its own. Starting from b,
	// both a and c are within 500 m of b and a single cluster results.
	a := model.Alert{ID: "a", Location: loc(40.0, -74.0)}
	b := model.Alert{ID: "b", Location: loc(40.0036, -74.0)}
	cc := model.Alert{ID: "c", Location: loc(40.0072, -74.0)}

	fromA := c.GroupByLocation([]model.Alert{a, b, cc}, nil)
	require.Len(t, fromA, 2)

	fromB := c.GroupByLocation([]model.Alert{b, a, cc}, nil)
	require.Len(t, fromB, 1)
}

func TestClusterIDFromRoundedCoordinates(t *testing.T) {
	c := New(priority.NewScorer())
	clusters := c.GroupByLocation([]model.Alert{
		{ID: "a1", Location: loc(40.12345, -74.98765)},
	}, nil)
	require.Len(t, clusters, 1)
	require.Equal(t, "cluster_40.123_-74.988", clusters[0].ID)
}
