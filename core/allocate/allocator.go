// Package allocate binds alerts to responding units under capacity and
// proximity constraints.
package allocate

import (
	"github.com/fraudops/fieldkit/core/cluster"
	"github.com/fraudops/fieldkit/core/geo"
	"github.com/fraudops/fieldkit/core/model"
)

// Allocator assigns alerts to units greedily: clusters in descending
// aggregate-priority order, members in descending score order within each
// cluster. There is no backtracking and no reassignment once made, so the
// result is deterministic for a given input ordering but not globally
// optimal.
type Allocator struct {
	// AvailabilityWeight scores the unit's spare capacity fraction.
	AvailabilityWeight float64
	// DistanceWeight scores the unit's coarse distance bucket. The buckets
	// are coarser than the scorer's on purpose: availability wins over
	// fine-grained distance.
	DistanceWeight float64
}

// NewAllocator returns an allocator with the production weights.
func NewAllocator() Allocator {
	return Allocator{AvailabilityWeight: 0.5, DistanceWeight: 0.5}
}

// candidate carries the allocator's private workload counter so the
// caller-supplied snapshot is never mutated.
type candidate struct {
	unit model.Unit
	load int
}

// Allocate maps alert IDs to unit IDs. Alerts for which no unit can accept
// more load (or none matches a required specialization) are absent from the
// returned map; absence is the signal, not an error.
func (a Allocator) Allocate(clusters []cluster.Cluster, units []model.Unit) map[string]string {
	cands := make([]*candidate, 0, len(units))
	for _, u := range units {
		cands = append(cands, &candidate{unit: u, load: u.Workload})
	}

	assignments := make(map[string]string)
	for _, cl := range clusters {
		for _, alert := range cl.Members {
			if id, ok := a.assign(alert, cands); ok {
				assignments[alert.ID] = id
			}
		}
	}
	return assignments
}

// AllocateFlat assigns a flat, already ranked list of scored alerts.
func (a Allocator) AllocateFlat(alerts []model.ScoredAlert, units []model.Unit) map[string]string {
	cands := make([]*candidate, 0, len(units))
	for _, u := range units {
		cands = append(cands, &candidate{unit: u, load: u.Workload})
	}
	assignments := make(map[string]string)
	for _, alert := range alerts {
		if id, ok := a.assign(alert, cands); ok {
			assignments[alert.ID] = id
		}
	}
	return assignments
}

func (a Allocator) assign(alert model.ScoredAlert, cands []*candidate) (string, bool) {
	var best *candidate
	bestScore := -1.0
	for _, c := range cands {
		if c.load >= c.unit.Capacity {
			continue
		}
		if alert.RequiredSpecialization != "" && !c.unit.HasSpecialization(alert.RequiredSpecialization) {
			continue
		}
		score := a.unitScore(c, alert)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if best == nil {
		return "", false
	}
	best.load++
	return best.unit.ID, true
}

func (a Allocator) unitScore(c *candidate, alert model.ScoredAlert) float64 {
	availability := 1 - float64(c.load)/float64(c.unit.Capacity)
	return a.AvailabilityWeight*availability + a.DistanceWeight*distanceBucket(c.unit, alert)
}

// distanceBucket maps the unit-to-alert distance to 1.0/0.7/0.4 at the
// 5 and 10 km boundaries. Alerts without a location get the bottom bucket.
func distanceBucket(u model.Unit, alert model.ScoredAlert) float64 {
	if !alert.HasLocation() {
		return 0.4
	}
	switch d := geo.HaversineKm(u.Location, *alert.Location); {
	case d < 5:
		return 1.0
	case d < 10:
		return 0.7
	default:
		return 0.4
	}
}
