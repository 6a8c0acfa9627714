package scoring

import (
	"math"
	"testing"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

func TestExpectedCTR(t *testing.T) {
	tests := []struct {
		position float64
		want     float64
	}{
		{1, 0.317},
		{0.4, 0.317},
		{3, 0.185},
		{2.6, 0.185},
		{3.49, 0.185},
		{5, 0.095},
		{20, 0.004},
		{20.4, 0.004},
		{21, DefaultExpectedCTR},
		{87, DefaultExpectedCTR},
	}
	for _, tt := range tests {
		if got := ExpectedCTR(tt.position); got != tt.want {
			t.Errorf("ExpectedCTR(%v) = %v, want %v", tt.position, got, tt.want)
		}
	}
}

func TestExpectedCTR_MonotonicallyNonIncreasing(t *testing.T) {
	prev := ExpectedCTR(1)
	for r := 2; r <= 20; r++ {
		cur := ExpectedCTR(float64(r))
		if cur > prev {
			t.Fatalf("ExpectedCTR(%d) = %v > ExpectedCTR(%d) = %v", r, cur, r-1, prev)
		}
		prev = cur
	}
}

func TestClassifyCTR_Total(t *testing.T) {
	valid := map[CTRClass]bool{
		TitleMetaIssue: true, RankRelevanceIssue: true, SERPFeatureOpportunity: true, NormalVariation: true,
	}
	for i := -100; i <= 200; i++ {
		deviation := float64(i) / 100
		for rank := 1; rank <= 30; rank++ {
			for _, ctr := range []float64{0, 0.01, 0.05, 0.5} {
				got := ClassifyCTR(deviation, float64(rank), ctr)
				if !valid[got] {
					t.Fatalf("ClassifyCTR(%v, %d, %v) = %q", deviation, rank, ctr, got)
				}
				if (got == NormalVariation) != (math.Abs(deviation) <= 0.20) {
					t.Fatalf("ClassifyCTR(%v, %d, %v) = %q, normal iff |deviation| <= 0.20", deviation, rank, ctr, got)
				}
			}
		}
	}
}

func TestClassifyCTR(t *testing.T) {
	tests := []struct {
		name      string
		deviation float64
		position  float64
		ctr       float64
		want      CTRClass
	}{
		{"low ctr at top rank", -0.5, 3, 0.02, TitleMetaIssue},
		{"low ctr but decent absolute", -0.5, 3, 0.05, RankRelevanceIssue},
		{"low ctr deeper rank", -0.5, 8, 0.01, RankRelevanceIssue},
		{"above benchmark", 0.4, 6, 0.1, SERPFeatureOpportunity},
		{"within band", 0.1, 2, 0.2, NormalVariation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyCTR(tt.deviation, tt.position, tt.ctr); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		deviation float64
		want      Severity
	}{
		{-0.9, SeverityHigh},
		{0.51, SeverityHigh},
		{0.5, SeverityMedium},
		{-0.31, SeverityMedium},
		{0.3, SeverityLow},
		{-0.21, SeverityLow},
	}
	for _, tt := range tests {
		if got := SeverityOf(tt.deviation); got != tt.want {
			t.Errorf("SeverityOf(%v) = %q, want %q", tt.deviation, got, tt.want)
		}
	}
}

func TestDetectCTRAnomalies_TitleMetaIssue(t *testing.T) {
	rows := []domain.AnalyticsRow{
		{Query: "q1", Page: "/p1", Impressions: 500, CTR: 0.02, Position: 3},
	}

	got := DetectCTRAnomalies(rows)
	if len(got) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(got))
	}
	a := got[0]
	if a.ExpectedCTR != 0.185 {
		t.Errorf("expected ctr = %v, want 0.185", a.ExpectedCTR)
	}
	if a.Deviation != -0.8919 {
		t.Errorf("deviation = %v, want -0.8919", a.Deviation)
	}
	if a.Classification != TitleMetaIssue {
		t.Errorf("classification = %q, want %q", a.Classification, TitleMetaIssue)
	}
	if a.Severity != SeverityHigh {
		t.Errorf("severity = %q, want HIGH", a.Severity)
	}
	if a.Impact != 83 {
		t.Errorf("impact = %d, want 83", a.Impact)
	}
}

func TestDetectCTRAnomalies_ThresholdBeforeRounding(t *testing.T) {
	rows := []domain.AnalyticsRow{
		{Query: "just over", Page: "/a", Impressions: 1000, CTR: 0.317 * 1.20004, Position: 1},
		{Query: "just under", Page: "/b", Impressions: 1000, CTR: 0.317 * 1.19996, Position: 1},
	}

	got := DetectCTRAnomalies(rows)
	if len(got) != 1 {
		t.Fatalf("expected 1 anomaly, got %d: %+v", len(got), got)
	}
	a := got[0]
	if a.Query != "just over" {
		t.Errorf("query = %q, want just over", a.Query)
	}
	if a.Deviation != 0.2 {
		t.Errorf("deviation = %v, want 0.2", a.Deviation)
	}
	if a.Classification != SERPFeatureOpportunity {
		t.Errorf("classification = %q, want %q", a.Classification, SERPFeatureOpportunity)
	}
	if a.Impact != 63 {
		t.Errorf("impact = %d, want 63", a.Impact)
	}
}

func TestDetectCTRAnomalies_FiltersAndSorts(t *testing.T) {
	rows := []domain.AnalyticsRow{
		{Query: "few impressions", Page: "/a", Impressions: 99, CTR: 0.0, Position: 1},
		{Query: "normal", Page: "/b", Impressions: 1000, CTR: 0.19, Position: 3},
		{Query: "small", Page: "/c", Impressions: 200, CTR: 0.05, Position: 8},
		{Query: "big", Page: "/d", Impressions: 5000, CTR: 0.05, Position: 8},
	}

	got := DetectCTRAnomalies(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 anomalies, got %d: %+v", len(got), got)
	}
	if got[0].Query != "big" || got[1].Query != "small" {
		t.Errorf("anomalies not sorted by impact: %q, %q", got[0].Query, got[1].Query)
	}
	if got[0].Classification != SERPFeatureOpportunity {
		t.Errorf("classification = %q, want %q", got[0].Classification, SERPFeatureOpportunity)
	}
}
