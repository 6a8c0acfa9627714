package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

type VelocityClass string

const (
	RapidDecline       VelocityClass = "RAPID_DECLINE"
	GradualDecline     VelocityClass = "GRADUAL_DECLINE"
	Stable             VelocityClass = "STABLE"
	GradualImprovement VelocityClass = "GRADUAL_IMPROVEMENT"
	MomentumBuild      VelocityClass = "MOMENTUM_BUILD"
)

const MinVelocityObservations = 8

// CalculateVelocity is the average position change per day. Positive values
// are declines because lower positions are better.
func CalculateVelocity(current, previous float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	return (current - previous) / float64(days)
}

// ClassifyVelocity classifies a 7-day velocity and reports whether it warrants
// an alert.
func ClassifyVelocity(v7 float64) (VelocityClass, bool) {
	switch {
	case v7 > 0.5:
		return RapidDecline, true
	case v7 < -0.3:
		return MomentumBuild, true
	case v7 > 0 && v7 <= 0.3:
		return GradualDecline, false
	case v7 < 0 && v7 >= -0.3:
		return GradualImprovement, false
	default:
		return Stable, false
	}
}

type RankingVelocity struct {
	Query           string        `json:"query"`
	Page            string        `json:"page"`
	CurrentPosition float64       `json:"current_position"`
	Velocity7d      float64       `json:"velocity_7d"`
	Velocity30d     float64       `json:"velocity_30d"`
	Volatility      float64       `json:"volatility"`
	Classification  VelocityClass `json:"classification"`
	Alert           bool          `json:"alert"`
	Observations    int           `json:"observations"`
}

type pairKey struct{ query, page string }

// AnalyzeVelocities groups observations by (query, page) and classifies each
// pair with at least eight observations. Pairs without a sample seven days
// before their latest one are skipped.
func AnalyzeVelocities(history []domain.PositionObservation) []RankingVelocity {
	groups := make(map[pairKey][]domain.PositionObservation)
	var order []pairKey
	for _, o := range history {
		k := pairKey{o.Query, o.Page}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], o)
	}

	var out []RankingVelocity
	for _, k := range order {
		obs := groups[k]
		if len(obs) < MinVelocityObservations {
			continue
		}
		sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
		latest := obs[len(obs)-1]

		past7, ok := positionAtOrBefore(obs, latest.Date.AddDate(0, 0, -7))
		if !ok {
			continue
		}
		v7 := round(CalculateVelocity(latest.Position, past7, 7), 3)

		var v30 float64
		if past30, ok := positionAtOrBefore(obs, latest.Date.AddDate(0, 0, -30)); ok {
			v30 = round(CalculateVelocity(latest.Position, past30, 30), 3)
		}

		class, alert := ClassifyVelocity(v7)
		out = append(out, RankingVelocity{
			Query:           k.query,
			Page:            k.page,
			CurrentPosition: latest.Position,
			Velocity7d:      v7,
			Velocity30d:     v30,
			Volatility:      round(stddev(obs), 3),
			Classification:  class,
			Alert:           alert,
			Observations:    len(obs),
		})
	}
	return out
}

type VelocitySort string

const (
	SortByDecline    VelocitySort = "decline"
	SortByRise       VelocitySort = "rise"
	SortByVolatility VelocitySort = "volatility"
)

// SortVelocities orders results in place and truncates to limit when limit > 0.
func SortVelocities(v []RankingVelocity, by VelocitySort, limit int) []RankingVelocity {
	switch by {
	case SortByRise:
		sort.SliceStable(v, func(i, j int) bool { return v[i].Velocity7d < v[j].Velocity7d })
	case SortByVolatility:
		sort.SliceStable(v, func(i, j int) bool { return v[i].Volatility > v[j].Volatility })
	default:
		sort.SliceStable(v, func(i, j int) bool { return v[i].Velocity7d > v[j].Velocity7d })
	}
	if limit > 0 && len(v) > limit {
		v = v[:limit]
	}
	return v
}

// positionAtOrBefore expects obs sorted by date ascending.
func positionAtOrBefore(obs []domain.PositionObservation, t time.Time) (float64, bool) {
	for i := len(obs) - 1; i >= 0; i-- {
		if !obs[i].Date.After(t) {
			return obs[i].Position, true
		}
	}
	return 0, false
}

func stddev(obs []domain.PositionObservation) float64 {
	if len(obs) == 0 {
		return 0
	}
	var sum float64
	for _, o := range obs {
		sum += o.Position
	}
	mean := sum / float64(len(obs))
	var sq float64
	for _, o := range obs {
		sq += (o.Position - mean) * (o.Position - mean)
	}
	return math.Sqrt(sq / float64(len(obs)))
}
