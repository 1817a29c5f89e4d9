// Package cluster groups scored alerts by physical proximity so responders
// are not double-dispatched to the same scene.
package cluster

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/fraudops/fieldkit/core/geo"
	"github.com/fraudops/fieldkit/core/model"
	"github.com/fraudops/fieldkit/core/priority"
)

// RadiusKm is the fixed membership radius around a cluster representative.
const RadiusKm = 0.5

// Cluster is a set of alerts within RadiusKm of a shared representative
// point. Clusters are recomputed from scratch on every grouping call.
type Cluster struct {
	ID             string         `json:"id"`
	Representative model.Location `json:"representative"`
	// Members are sorted descending by score.
	Members []model.ScoredAlert `json:"members"`
	// AggregatePriority is the mean of the member scores.
	AggregatePriority float64 `json:"aggregate_priority"`
	// Level is the bucket of the maximum member score, not the mean. A
	// cluster containing one critical alert is critical regardless of how
	// many low alerts surround it.
	Level model.PriorityLevel `json:"level"`
}

// Clusterer assigns alerts to location clusters using a single greedy pass.
type Clusterer struct {
	scorer priority.Scorer
}

// New returns a Clusterer backed by the given scorer.
func New(scorer priority.Scorer) *Clusterer {
	return &Clusterer{scorer: scorer}
}

// GroupByLocation scores every alert and groups the located ones into
// clusters, returned sorted descending by aggregate priority.
//
// The pass is order-dependent on purpose: each alert joins the first
// existing cluster (in creation order) whose representative is within
// RadiusKm, not the nearest one. Reordering the input can change the
// grouping. Representatives are checked as an explicit ordered list; a
// spatial index would silently change the tie-breaks.
func (c *Clusterer) GroupByLocation(alerts []model.Alert, requester *model.Location) []Cluster {
	var clusters []Cluster
	for _, a := range alerts {
		if !a.HasLocation() {
			// Alerts without coordinates cannot be placed on a scene.
			continue
		}
		scored := c.scorer.Score(a, requester)
		placed := false
		for i := range clusters {
			if geo.HaversineKm(clusters[i].Representative, *a.Location) < RadiusKm {
				clusters[i].Members = append(clusters[i].Members, scored)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, Cluster{
				ID:             clusterID(*a.Location),
				Representative: *a.Location,
				Members:        []model.ScoredAlert{scored},
			})
		}
	}

	for i := range clusters {
		finalize(&clusters[i])
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].AggregatePriority > clusters[j].AggregatePriority
	})
	return clusters
}

func finalize(cl *Cluster) {
	sort.SliceStable(cl.Members, func(i, j int) bool {
		return cl.Members[i].Score > cl.Members[j].Score
	})
	scores := make([]float64, len(cl.Members))
	maxScore := 0
	for i, m := range cl.Members {
		scores[i] = float64(m.Score)
		if m.Score > maxScore {
			maxScore = m.Score
		}
	}
	cl.AggregatePriority = stat.Mean(scores, nil)
	cl.Level = priority.LevelFor(maxScore)
}

// clusterID derives a synthetic identifier from the first member's rounded
// coordinates so recomputed clusters keep stable names across calls.
func clusterID(loc model.Location) string {
	return fmt.Sprintf("cluster_%.3f_%.3f",
		math.Round(loc.Latitude*1000)/1000,
		math.Round(loc.Longitude*1000)/1000)
}
