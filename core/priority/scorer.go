// Package priority computes urgency scores for fraud alerts. Scoring is a
// pure function of the alert and the requester location: no I/O, no clock.
package priority

import (
	"math"
	"sort"

	"github.com/fraudops/fieldkit/core/geo"
	"github.com/fraudops/fieldkit/core/model"
)

// Level thresholds. The clusterer buckets aggregate scores with the same
// constants; the two must stay in sync.
const (
	CriticalThreshold = 80
	HighThreshold     = 60
	MediumThreshold   = 40
)

// Scorer computes a weighted urgency score from the model risk, the amount
// at stake, the time left until predicted cash-out and the distance from
// the requesting responder.
type Scorer struct {
	RiskWeight     float64
	AmountWeight   float64
	TimeWeight     float64
	DistanceWeight float64

	// AmountCap is the monetary amount at which amount_factor saturates.
	AmountCap float64
}

// NewScorer returns a scorer with the production weights.
func NewScorer() Scorer {
	return Scorer{
		RiskWeight:     0.35,
		AmountWeight:   0.25,
		TimeWeight:     0.25,
		DistanceWeight: 0.15,
		AmountCap:      1_000_000,
	}
}

// recommendedActions maps alert categories to advisory instructions shown
// to the operator. Not part of the urgency math.
var recommendedActions = map[string]string{
	"high_priority":    "Deploy nearest available unit immediately",
	"card_fraud":       "Freeze card and contact issuing bank",
	"account_takeover": "Lock account and force credential reset",
	"money_mule":       "Flag receiving accounts and trace transfers",
	"cash_out":         "Intercept at withdrawal point",
}

const defaultRecommendedAction = "Review case details and assess response"

// Score annotates one alert with its urgency score, level, distance from
// the requester and a recommended action.
func (s Scorer) Score(a model.Alert, requester *model.Location) model.ScoredAlert {
	var distKm *float64
	if requester != nil && a.HasLocation() {
		d := geo.HaversineKm(*requester, *a.Location)
		distKm = &d
	}

	sum := s.RiskWeight*riskFactor(a) +
		s.AmountWeight*s.amountFactor(a) +
		s.TimeWeight*timeUrgency(a) +
		s.DistanceWeight*distanceFactor(distKm)
	score := int(math.Round(sum * 100))

	return model.ScoredAlert{
		Alert:             a,
		Score:             score,
		Level:             LevelFor(score),
		DistanceKm:        distKm,
		RecommendedAction: RecommendedAction(a.Category),
	}
}

// Prioritize scores all alerts and returns them flat, sorted descending by
// score. The sort is stable so equal scores keep their input order.
func (s Scorer) Prioritize(alerts []model.Alert, requester *model.Location) []model.ScoredAlert {
	scored := make([]model.ScoredAlert, 0, len(alerts))
	for _, a := range alerts {
		scored = append(scored, s.Score(a, requester))
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// LevelFor buckets a 0-100 score into a priority level.
func LevelFor(score int) model.PriorityLevel {
	switch {
	case score >= CriticalThreshold:
		return model.LevelCritical
	case score >= HighThreshold:
		return model.LevelHigh
	case score >= MediumThreshold:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

// RecommendedAction returns the advisory instruction for a category.
func RecommendedAction(category string) string {
	if act, ok := recommendedActions[category]; ok {
		return act
	}
	return defaultRecommendedAction
}

func riskFactor(a model.Alert) float64 {
	if a.RiskScore < 0 {
		return 0
	}
	if a.RiskScore > 1 {
		return 1
	}
	return a.RiskScore
}

func (s Scorer) amountFactor(a model.Alert) float64 {
	if s.AmountCap <= 0 || a.Amount <= 0 {
		return 0
	}
	return math.Min(a.Amount/s.AmountCap, 1)
}

// timeUrgency maps the minutes left until predicted cash-out to [0,1].
// A missing window is treated as unbounded.
func timeUrgency(a model.Alert) float64 {
	if a.CashOutMinutes == nil {
		return 0.1
	}
	t := *a.CashOutMinutes
	switch {
	case t < 30:
		return 1.0
	case t < 60:
		return 0.7
	case t < 120:
		return 0.4
	default:
		return 0.1
	}
}

// distanceFactor maps the distance from the requester to [0,1]. An unknown
// requester location yields the neutral 0.5.
func distanceFactor(distKm *float64) float64 {
	if distKm == nil {
		return 0.5
	}
	switch d := *distKm; {
	case d < 5:
		return 1.0
	case d < 10:
		return 0.7
	case d < 20:
		return 0.4
	default:
		return 0.1
	}
}
