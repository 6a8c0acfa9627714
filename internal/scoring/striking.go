package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

type Difficulty string

const (
	DifficultyLow    Difficulty = "LOW"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHigh   Difficulty = "HIGH"
)

const (
	StrikingMinPosition    = 7
	StrikingMaxPosition    = 20
	StrikingMinImpressions = 100
	strikingTargetRank     = 5
)

type StrikingOpportunity struct {
	Query            string     `json:"query"`
	Page             string     `json:"page"`
	Position         float64    `json:"position"`
	Impressions      int64      `json:"impressions"`
	ObservedCTR      float64    `json:"observed_ctr"`
	TrafficPotential int64      `json:"traffic_potential"`
	Difficulty       Difficulty `json:"difficulty"`
	PriorityScore    float64    `json:"priority_score"`
}

func DifficultyOf(position float64, query string) Difficulty {
	switch {
	case position <= 10:
		return DifficultyLow
	case position <= 15 || len(strings.Fields(query)) <= 6:
		return DifficultyMedium
	default:
		return DifficultyHigh
	}
}

func (d Difficulty) divisor() float64 {
	switch d {
	case DifficultyLow:
		return 1
	case DifficultyMedium:
		return 2
	default:
		return 3
	}
}

// FindStrikingDistance returns queries ranked 7..20 with enough impressions
// to matter, ordered by priority score.
func FindStrikingDistance(rows []domain.AnalyticsRow) []StrikingOpportunity {
	target := ExpectedCTR(strikingTargetRank)
	var out []StrikingOpportunity
	for _, r := range rows {
		if r.Position < StrikingMinPosition || r.Position > StrikingMaxPosition {
			continue
		}
		if r.Impressions < StrikingMinImpressions {
			continue
		}
		potential := int64(math.Round(float64(r.Impressions) * (target - r.CTR)))
		difficulty := DifficultyOf(r.Position, r.Query)
		out = append(out, StrikingOpportunity{
			Query:            r.Query,
			Page:             r.Page,
			Position:         r.Position,
			Impressions:      r.Impressions,
			ObservedCTR:      r.CTR,
			TrafficPotential: potential,
			Difficulty:       difficulty,
			PriorityScore:    float64(potential) / difficulty.divisor(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PriorityScore > out[j].PriorityScore })
	return out
}
