package service

import (
	"math"
	"sort"
	"time"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const (
	DefaultSimilarityWeight = 0.8
	DefaultRecencyWeight    = 0.2
	DefaultRecencyHalfLife  = 30 * 24 * time.Hour

	DefaultMinScore    = 0.5
	DefaultRecallLimit = 5
)

// HybridScorer blends vector similarity with how recently a memory was created.
type HybridScorer struct {
	SimilarityWeight float64
	RecencyWeight    float64
	HalfLife         time.Duration
}

type ScoreBreakdown struct {
	Similarity float64 `json:"similarity"`
	Recency    float64 `json:"recency"`
	FinalScore float64 `json:"final_score"`
}

type ScoredMemory struct {
	domain.MemoryWithScore
	Breakdown *ScoreBreakdown `json:"score_breakdown,omitempty"`
}

func NewHybridScorer() *HybridScorer {
	return &HybridScorer{
		SimilarityWeight: DefaultSimilarityWeight,
		RecencyWeight:    DefaultRecencyWeight,
		HalfLife:         DefaultRecencyHalfLife,
	}
}

// Recency halves every HalfLife of age. Memories from the future count as new.
func (s *HybridScorer) Recency(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age <= 0 || s.HalfLife <= 0 {
		return 1
	}
	return math.Pow(0.5, float64(age)/float64(s.HalfLife))
}

func (s *HybridScorer) Score(mem domain.MemoryWithScore, now time.Time) ScoredMemory {
	similarity := float64(mem.Similarity)
	recency := s.Recency(mem.CreatedAt, now)
	final := s.SimilarityWeight*similarity + s.RecencyWeight*recency

	return ScoredMemory{
		MemoryWithScore: mem,
		Breakdown: &ScoreBreakdown{
			Similarity: similarity,
			Recency:    recency,
			FinalScore: final,
		},
	}
}

// ScoreAndRank keeps memories scoring strictly above minScore, best first,
// capped at limit when limit > 0.
func (s *HybridScorer) ScoreAndRank(memories []domain.MemoryWithScore, now time.Time, minScore float64, limit int) []ScoredMemory {
	scored := make([]ScoredMemory, 0, len(memories))
	for _, mem := range memories {
		sm := s.Score(mem, now)
		if sm.Breakdown.FinalScore > minScore {
			scored = append(scored, sm)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Breakdown.FinalScore > scored[j].Breakdown.FinalScore
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
