package scoring

import (
	"testing"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

func TestDifficultyOf(t *testing.T) {
	tests := []struct {
		position float64
		query    string
		want     Difficulty
	}{
		{7, "running shoes", DifficultyLow},
		{10, "a b c d e f g h", DifficultyLow},
		{12, "a b c d e f g h", DifficultyMedium},
		{18, "best trail running shoes", DifficultyMedium},
		{18, "best trail running shoes for wide feet uk", DifficultyHigh},
	}
	for _, tt := range tests {
		if got := DifficultyOf(tt.position, tt.query); got != tt.want {
			t.Errorf("DifficultyOf(%v, %q) = %q, want %q", tt.position, tt.query, got, tt.want)
		}
	}
}

func TestFindStrikingDistance(t *testing.T) {
	rows := []domain.AnalyticsRow{
		{Query: "top already", Page: "/top", Position: 5, Impressions: 5000, CTR: 0.01},
		{Query: "too quiet", Page: "/quiet", Position: 9, Impressions: 50, CTR: 0.01},
		{Query: "low", Page: "/low", Position: 8, Impressions: 1000, CTR: 0.02},
		{Query: "medium one two", Page: "/medium", Position: 12, Impressions: 1000, CTR: 0.01},
		{Query: "one two three four five six seven", Page: "/high", Position: 18, Impressions: 2000, CTR: 0.005},
		{Query: "page two", Page: "/deep", Position: 21, Impressions: 9000, CTR: 0.001},
	}

	got := FindStrikingDistance(rows)
	if len(got) != 3 {
		t.Fatalf("expected 3 opportunities, got %d: %+v", len(got), got)
	}

	want := []struct {
		query      string
		potential  int64
		difficulty Difficulty
		priority   float64
	}{
		{"low", 75, DifficultyLow, 75},
		{"one two three four five six seven", 180, DifficultyHigh, 60},
		{"medium one two", 85, DifficultyMedium, 42.5},
	}
	for i, w := range want {
		o := got[i]
		if o.Query != w.query || o.TrafficPotential != w.potential || o.Difficulty != w.difficulty || o.PriorityScore != w.priority {
			t.Errorf("opportunity %d = %+v, want %+v", i, o, w)
		}
	}
}
