// Package scoring holds the deterministic search-performance formulas the
// agents narrate. Every function is pure.
package scoring

import (
	"math"
	"sort"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

// expectedCTR is the benchmark click-through rate for organic ranks 1..20.
var expectedCTR = [20]float64{
	0.317, 0.247, 0.185, 0.134, 0.095,
	0.068, 0.049, 0.036, 0.027, 0.021,
	0.017, 0.014, 0.012, 0.010, 0.009,
	0.008, 0.007, 0.006, 0.005, 0.004,
}

const (
	DefaultExpectedCTR    = 0.003
	MinAnomalyImpressions = 100
	AnomalyThreshold      = 0.20
)

// ExpectedCTR returns the benchmark CTR for a position, rounded to the
// nearest rank. Positions below 1 count as rank 1.
func ExpectedCTR(position float64) float64 {
	rank := int(math.Round(position))
	if rank < 1 {
		rank = 1
	}
	if rank > len(expectedCTR) {
		return DefaultExpectedCTR
	}
	return expectedCTR[rank-1]
}

type CTRClass string

const (
	TitleMetaIssue         CTRClass = "TITLE_META_ISSUE"
	RankRelevanceIssue     CTRClass = "RANK_RELEVANCE_ISSUE"
	SERPFeatureOpportunity CTRClass = "SERP_FEATURE_OPPORTUNITY"
	NormalVariation        CTRClass = "NORMAL_VARIATION"
)

type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// ClassifyCTR maps a CTR deviation to an anomaly class.
func ClassifyCTR(deviation, position, ctr float64) CTRClass {
	switch {
	case deviation < -AnomalyThreshold && position < 5 && ctr < 0.03:
		return TitleMetaIssue
	case deviation < -AnomalyThreshold:
		return RankRelevanceIssue
	case deviation > AnomalyThreshold:
		return SERPFeatureOpportunity
	default:
		return NormalVariation
	}
}

func SeverityOf(deviation float64) Severity {
	d := math.Abs(deviation)
	switch {
	case d > 0.50:
		return SeverityHigh
	case d > 0.30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

type CTRAnomaly struct {
	Query          string   `json:"query"`
	Page           string   `json:"page"`
	Impressions    int64    `json:"impressions"`
	Clicks         int64    `json:"clicks"`
	Position       float64  `json:"position"`
	ObservedCTR    float64  `json:"observed_ctr"`
	ExpectedCTR    float64  `json:"expected_ctr"`
	Deviation      float64  `json:"deviation"`
	Classification CTRClass `json:"classification"`
	Severity       Severity `json:"severity"`
	Impact         int64    `json:"impact"`
}

// DetectCTRAnomalies flags rows whose CTR deviates from the benchmark by more
// than 20%, sorted by estimated click impact, highest first. Thresholds see
// the exact deviation; the reported deviation and the impact use it rounded
// to four decimals.
func DetectCTRAnomalies(rows []domain.AnalyticsRow) []CTRAnomaly {
	var out []CTRAnomaly
	for _, r := range rows {
		if r.Impressions < MinAnomalyImpressions {
			continue
		}
		expected := ExpectedCTR(r.Position)
		raw := (r.CTR - expected) / expected
		if math.Abs(raw) <= AnomalyThreshold {
			continue
		}
		deviation := round(raw, 4)
		out = append(out, CTRAnomaly{
			Query:          r.Query,
			Page:           r.Page,
			Impressions:    r.Impressions,
			Clicks:         r.Clicks,
			Position:       r.Position,
			ObservedCTR:    r.CTR,
			ExpectedCTR:    expected,
			Deviation:      deviation,
			Classification: ClassifyCTR(raw, r.Position, r.CTR),
			Severity:       SeverityOf(raw),
			Impact:         int64(math.Round(float64(r.Impressions) * math.Abs(deviation) * expected)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Impact > out[j].Impact })
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
