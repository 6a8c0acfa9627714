package service

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func scoredMemory(sim float32, createdAt time.Time) domain.MemoryWithScore {
	return domain.MemoryWithScore{
		MemoryRecord: domain.MemoryRecord{ID: uuid.New(), Content: "test", CreatedAt: createdAt},
		Similarity:   sim,
	}
}

func TestHybridScorer_Score(t *testing.T) {
	scorer := NewHybridScorer()
	now := time.Now()

	scored := scorer.Score(scoredMemory(0.9, now), now)
	if scored.Breakdown == nil {
		t.Fatal("expected breakdown to be set")
	}
	if !floatEq(scored.Breakdown.Recency, 1.0) {
		t.Errorf("expected recency 1.0 for a new memory, got %f", scored.Breakdown.Recency)
	}
	if !floatEq(scored.Breakdown.FinalScore, 0.8*0.9+0.2) {
		t.Errorf("expected final score 0.92, got %f", scored.Breakdown.FinalScore)
	}
}

func TestHybridScorer_RecencyHalvesEveryThirtyDays(t *testing.T) {
	scorer := NewHybridScorer()
	now := time.Now()

	if r := scorer.Recency(now.Add(-30*24*time.Hour), now); !floatEq(r, 0.5) {
		t.Errorf("expected 0.5 after 30 days, got %f", r)
	}
	if r := scorer.Recency(now.Add(-60*24*time.Hour), now); !floatEq(r, 0.25) {
		t.Errorf("expected 0.25 after 60 days, got %f", r)
	}
	if r := scorer.Recency(now.Add(time.Hour), now); r != 1 {
		t.Errorf("expected future timestamps to count as new, got %f", r)
	}
}

func TestHybridScorer_ScoreAndRank(t *testing.T) {
	scorer := NewHybridScorer()
	now := time.Now()

	old := scoredMemory(0.95, now.Add(-365*24*time.Hour))
	fresh := scoredMemory(0.6, now)
	weak := scoredMemory(0.3, now.Add(-90*24*time.Hour))
	freshButUnrelated := scoredMemory(0.3, now)

	ranked := scorer.ScoreAndRank([]domain.MemoryWithScore{weak, old, fresh, freshButUnrelated}, now, DefaultMinScore, 10)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 memories above threshold, got %d", len(ranked))
	}
	if ranked[0].ID != old.ID || ranked[1].ID != fresh.ID {
		t.Errorf("unexpected order: %v then %v", ranked[0].Breakdown.FinalScore, ranked[1].Breakdown.FinalScore)
	}

	capped := scorer.ScoreAndRank([]domain.MemoryWithScore{old, fresh}, now, 0, 1)
	if len(capped) != 1 {
		t.Errorf("expected limit to cap results, got %d", len(capped))
	}
}
