// Package storetest provides in-memory implementations of the domain stores
// for tests.
package storetest

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/store"
)

// MemoryStore implements domain.MemoryStore for testing.
type MemoryStore struct {
	mu       sync.Mutex
	memories map[uuid.UUID]*domain.MemoryRecord

	// SimilarErr, when set, is returned by SimilarTo.
	SimilarErr error
	// InsertErr, when set, is returned by Insert.
	InsertErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{memories: make(map[uuid.UUID]*domain.MemoryRecord)}
}

func (s *MemoryStore) Insert(ctx context.Context, m *domain.MemoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return s.InsertErr
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	cp := *m
	s.memories[m.ID] = &cp
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID, propertyID uuid.UUID) (*domain.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memories[id]
	if !ok || m.PropertyID != propertyID {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) SimilarTo(ctx context.Context, embedding []float32, propertyID uuid.UUID, limit int) ([]domain.MemoryWithScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SimilarErr != nil {
		return nil, s.SimilarErr
	}
	var out []domain.MemoryWithScore
	for _, m := range s.memories {
		if m.PropertyID != propertyID || m.Embedding == nil {
			continue
		}
		out = append(out, domain.MemoryWithScore{MemoryRecord: *m, Similarity: Cosine(embedding, m.Embedding)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Touch(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memories[id]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now()
	m.AccessCount++
	m.LastAccessedAt = &now
	return nil
}

func (s *MemoryStore) CountByProperty(ctx context.Context, propertyID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.memories {
		if m.PropertyID == propertyID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListRecentByKind(ctx context.Context, kind domain.MemoryKind, limit int) ([]domain.MemoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.MemoryRecord
	for _, m := range s.memories {
		if m.Kind == kind && m.Embedding != nil {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) FindDuplicates(ctx context.Context, m domain.MemoryRecord, threshold float32) ([]domain.MemoryWithScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.MemoryWithScore
	for _, other := range s.memories {
		if other.ID == m.ID || other.PropertyID != m.PropertyID || other.Kind != m.Kind || other.Embedding == nil {
			continue
		}
		if sim := Cosine(m.Embedding, other.Embedding); sim > threshold {
			out = append(out, domain.MemoryWithScore{MemoryRecord: *other, Similarity: sim})
		}
	}
	return out, nil
}

func (s *MemoryStore) Merge(ctx context.Context, winnerID uuid.UUID, weight float32, metadata map[string]any, loserIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.memories[winnerID]
	if !ok {
		return store.ErrNotFound
	}
	w.Weight = weight
	w.Metadata = metadata
	for _, id := range loserIDs {
		delete(s.memories, id)
	}
	return nil
}

func (s *MemoryStore) DeleteStale(ctx context.Context, createdBefore time.Time, maxWeight float32, maxAccessCount int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, m := range s.memories {
		if m.CreatedAt.Before(createdBefore) && m.Weight < maxWeight && m.AccessCount < maxAccessCount && !m.BrandProtected() {
			delete(s.memories, id)
			n++
		}
	}
	return n, nil
}

// All returns a snapshot of every stored memory.
func (s *MemoryStore) All() []domain.MemoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MemoryRecord, 0, len(s.memories))
	for _, m := range s.memories {
		out = append(out, *m)
	}
	return out
}

// Cosine returns the cosine similarity of a and b, 0 for mismatched or zero vectors.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
