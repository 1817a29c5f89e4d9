package allocate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fraudops/fieldkit/core/cluster"
	"github.com/fraudops/fieldkit/core/model"
	"github.com/fraudops/fieldkit/core/priority"
)

func loc(lat, lon float64) model.Location {
	return model.Location{Latitude: lat, Longitude: lon}
}

func scored(id string, score int, l *model.Location) model.ScoredAlert {
	return model.ScoredAlert{
		Alert: model.Alert{ID: id, Location: l},
		Score: score,
		Level: priority.LevelFor(score),
	}
}

func oneCluster(members ...model.ScoredAlert) []cluster.Cluster {
	return []cluster.Cluster{{ID: "c1", Members: members}}
}

func TestIdleUnitPreferredOverBusyOne(t *testing.T) {
	a := NewAllocator()
	al := loc(40.0, -74.0)
	units := []model.Unit{
		{ID: "busy", Location: al, Capacity: 5, Workload: 4},
		{ID: "idle", Location: al, Capacity: 5, Workload: 0},
	}
	got := a.Allocate(oneCluster(scored("a1", 90, &al)), units)
	require.Equal(t, "idle", got["a1"])
}

func TestFullUnitsExcluded(t *testing.T) {
	a := NewAllocator()
	al := loc(40.0, -74.0)
	units := []model.Unit{
		{ID: "full", Location: al, Capacity: 2, Workload: 2},
	}
	got := a.Allocate(oneCluster(scored("a1", 90, &al)), units)
	_, ok := got["a1"]
	require.False(t, ok, "alert should stay unassigned when every unit is full")
}

func TestSpecializationFilter(t *testing.T) {
	a := NewAllocator()
	al := loc(40.0, -74.0)
	sa := scored("a1", 90, &al)
	sa.RequiredSpecialization = "cyber"
	units := []model.Unit{
		{ID: "generic", Location: al, Capacity: 5, Workload: 0},
		{ID: "cyber1", Location: al, Capacity: 5, Workload: 3, Specializations: []string{"cyber"}},
	}
	got := a.Allocate(oneCluster(sa), units)
	require.Equal(t, "cyber1", got["a1"])
}

func TestWorkloadAccumulatesWithinPass(t *testing.T) {
	a := NewAllocator()
	al := loc(40.0, -74.0)
	units := []model.Unit{
		{ID: "u1", Location: al, Capacity: 1, Workload: 0},
		{ID: "u2", Location: al, Capacity: 1, Workload: 0},
	}
	got := a.Allocate(oneCluster(
		scored("a1", 90, &al),
		scored("a2", 80, &al),
		scored("a3", 70, &al),
	), units)
	require.Len(t, got, 2)
	require.NotEqual(t, got["a1"], got["a2"], "second alert must go to the other unit")
	_, ok := got["a3"]
	require.False(t, ok)
}

func TestCallerSnapshotNotMutated(t *testing.T) {
	a := NewAllocator()
	al := loc(40.0, -74.0)
	units := []model.Unit{{ID: "u1", Location: al, Capacity: 3, Workload: 1}}
	a.Allocate(oneCluster(scored("a1", 90, &al)), units)
	require.Equal(t, 1, units[0].Workload)
}

func TestNearUnitPreferredAtEqualLoad(t *testing.T) {
	a := NewAllocator()
	al := loc(40.0, -74.0)
	units := []model.Unit{
		// ~15 km north vs. on the scene.
		{ID: "far", Location: loc(40.135, -74.0), Capacity: 5, Workload: 0},
		{ID: "near", Location: al, Capacity: 5, Workload: 0},
	}
	got := a.Allocate(oneCluster(scored("a1", 90, &al)), units)
	require.Equal(t, "near", got["a1"])
}

func TestClusterOrderRespected(t *testing.T) {
	a := NewAllocator()
	al := loc(40.0, -74.0)
	clusters := []cluster.Cluster{
		{ID: "hot", Members: []model.ScoredAlert{scored("urgent", 95, &al)}},
		{ID: "cold", Members: []model.ScoredAlert{scored("calm", 20, &al)}},
	}
	units := []model.Unit{{ID: "only", Location: al, Capacity: 1, Workload: 0}}
	got := a.Allocate(clusters, units)
	require.Equal(t, "only", got["urgent"])
	_, ok := got["calm"]
	require.False(t, ok)
}

func TestAllocateFlat(t *testing.T) {
	a := NewAllocator()
	al := loc(40.0, -74.0)
	units := []model.Unit{{ID: "u1", Location: al, Capacity: 2, Workload: 0}}
	got := a.AllocateFlat([]model.ScoredAlert{
		scored("a1", 90, &al),
		scored("a2", 50, nil),
	}, units)
	require.Equal(t, "u1", got["a1"])
	require.Equal(t, "u1", got["a2"])
}
