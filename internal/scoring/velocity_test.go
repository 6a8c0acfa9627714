package scoring

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

func TestCalculateVelocity(t *testing.T) {
	if v := CalculateVelocity(3, 8, 7); v >= 0 {
		t.Errorf("improvement should be negative, got %v", v)
	}
	if v := CalculateVelocity(8, 3, 7); v <= 0 {
		t.Errorf("decline should be positive, got %v", v)
	}
	for _, n := range []int{1, 7, 30} {
		if v := CalculateVelocity(4.2, 4.2, n); v != 0 {
			t.Errorf("CalculateVelocity(x, x, %d) = %v, want 0", n, v)
		}
	}
	if v := CalculateVelocity(10, 2, 0); v != 0 {
		t.Errorf("CalculateVelocity(x, y, 0) = %v, want 0", v)
	}
	if v := CalculateVelocity(10, 3, 7); v != 1 {
		t.Errorf("CalculateVelocity(10, 3, 7) = %v, want 1", v)
	}
}

func TestClassifyVelocity(t *testing.T) {
	tests := []struct {
		v         float64
		want      VelocityClass
		wantAlert bool
	}{
		{0.6, RapidDecline, true},
		{0.5, Stable, false},
		{0.4, Stable, false},
		{0.3, GradualDecline, false},
		{0.1, GradualDecline, false},
		{0, Stable, false},
		{-0.1, GradualImprovement, false},
		{-0.3, GradualImprovement, false},
		{-0.31, MomentumBuild, true},
		{-2, MomentumBuild, true},
	}
	for _, tt := range tests {
		got, alert := ClassifyVelocity(tt.v)
		if got != tt.want || alert != tt.wantAlert {
			t.Errorf("ClassifyVelocity(%v) = (%q, %v), want (%q, %v)", tt.v, got, alert, tt.want, tt.wantAlert)
		}
	}
}

func dailyHistory(query, page string, start time.Time, positions ...float64) []domain.PositionObservation {
	out := make([]domain.PositionObservation, len(positions))
	for i, p := range positions {
		out[i] = domain.PositionObservation{Query: query, Page: page, Date: start.AddDate(0, 0, i), Position: p}
	}
	return out
}

func TestAnalyzeVelocities(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	var history []domain.PositionObservation
	history = append(history, dailyHistory("falling", "/a", start, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14)...)
	history = append(history, dailyHistory("rising", "/b", start, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5)...)
	history = append(history, dailyHistory("flat", "/c", start, 4, 4, 4, 4, 4, 4, 4, 4)...)
	history = append(history, dailyHistory("sparse", "/d", start, 3, 9, 15)...)

	got := AnalyzeVelocities(history)
	if len(got) != 3 {
		t.Fatalf("expected 3 pairs (sparse skipped), got %d", len(got))
	}

	byQuery := make(map[string]RankingVelocity)
	for _, v := range got {
		byQuery[v.Query] = v
	}

	falling := byQuery["falling"]
	if falling.Velocity7d != 1 || falling.Classification != RapidDecline || !falling.Alert {
		t.Errorf("falling = %+v", falling)
	}
	if falling.CurrentPosition != 14 {
		t.Errorf("current position = %v, want 14", falling.CurrentPosition)
	}
	if falling.Velocity30d != 0 {
		t.Errorf("velocity30d without 30 days of history = %v, want 0", falling.Velocity30d)
	}

	rising := byQuery["rising"]
	if rising.Velocity7d != -1 || rising.Classification != MomentumBuild || !rising.Alert {
		t.Errorf("rising = %+v", rising)
	}

	flat := byQuery["flat"]
	if flat.Classification != Stable || flat.Alert || flat.Volatility != 0 {
		t.Errorf("flat = %+v", flat)
	}

	sorted := SortVelocities(got, SortByDecline, 1)
	if len(sorted) != 1 || sorted[0].Query != "falling" {
		t.Errorf("decline sort = %+v", sorted)
	}
}

func TestSortVelocities(t *testing.T) {
	v := []RankingVelocity{
		{Query: "a", Velocity7d: 0.2, Volatility: 3},
		{Query: "b", Velocity7d: -0.8, Volatility: 1},
		{Query: "c", Velocity7d: 0.9, Volatility: 2},
	}

	if got := SortVelocities(append([]RankingVelocity(nil), v...), SortByRise, 0); got[0].Query != "b" {
		t.Errorf("rise first = %q, want b", got[0].Query)
	}
	if got := SortVelocities(append([]RankingVelocity(nil), v...), SortByVolatility, 0); got[0].Query != "a" {
		t.Errorf("volatility first = %q, want a", got[0].Query)
	}
	if got := SortVelocities(append([]RankingVelocity(nil), v...), SortByDecline, 2); len(got) != 2 || got[0].Query != "c" {
		t.Errorf("decline = %+v", got)
	}
}
