package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/store"
)

var (
	ErrMemoryNotFound          = errors.New("memory not found")
	ErrInvalidMemoryKind       = errors.New("invalid memory kind")
	ErrMemoryContentEmpty      = errors.New("content is required")
	ErrMemoryPropertyIDMissing = errors.New("property_id is required")
	ErrInvalidWeight           = errors.New("weight must be between 0 and 1")
	ErrRecallQueryEmpty        = errors.New("query is required")
)

const (
	DefaultMemoryWeight float32 = 0.5

	// candidateFactor widens the vector search so recency can reorder results.
	candidateFactor   = 4
	minCandidates     = 20
	rememberTimeout   = 30 * time.Second
	maxRememberOutput = 600
)

type MemoryService struct {
	store    domain.MemoryStore
	embedder domain.EmbeddingClient
	scorer   *HybridScorer
	logger   *zap.Logger
	now      func() time.Time

	pending sync.WaitGroup
}

func NewMemoryService(ms domain.MemoryStore, ec domain.EmbeddingClient, logger *zap.Logger) *MemoryService {
	return &MemoryService{
		store:    ms,
		embedder: ec,
		scorer:   NewHybridScorer(),
		logger:   logger,
		now:      time.Now,
	}
}

// Insert validates and stores a memory, embedding its content when the
// caller did not supply a vector.
func (s *MemoryService) Insert(ctx context.Context, m *domain.MemoryRecord) error {
	if m.PropertyID == uuid.Nil {
		return ErrMemoryPropertyIDMissing
	}
	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" {
		return ErrMemoryContentEmpty
	}
	if m.Kind == "" {
		m.Kind = domain.MemoryKindEpisodic
	}
	if !domain.ValidMemoryKind(string(m.Kind)) {
		return ErrInvalidMemoryKind
	}
	if m.Weight < 0 || m.Weight > 1 {
		return ErrInvalidWeight
	}

	if m.Embedding == nil {
		if s.embedder == nil {
			return errors.New("embedding client not configured")
		}
		emb, err := s.embedder.Embed(ctx, m.Content)
		if err != nil {
			return fmt.Errorf("embed memory: %w", err)
		}
		m.Embedding = emb
	}

	return s.store.Insert(ctx, m)
}

func (s *MemoryService) GetByID(ctx context.Context, id, propertyID uuid.UUID) (*domain.MemoryRecord, error) {
	m, err := s.store.GetByID(ctx, id, propertyID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMemoryNotFound
	}
	return m, err
}

// Query ranks the property's memories by hybrid score. Only memories scoring
// strictly above minScore are returned.
func (s *MemoryService) Query(ctx context.Context, embedding []float32, minScore float64, limit int, propertyID uuid.UUID) ([]ScoredMemory, error) {
	if propertyID == uuid.Nil {
		return nil, ErrMemoryPropertyIDMissing
	}
	if limit <= 0 {
		limit = DefaultRecallLimit
	}

	candidates, err := s.store.SimilarTo(ctx, embedding, propertyID, max(limit*candidateFactor, minCandidates))
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return s.scorer.ScoreAndRank(candidates, s.now(), minScore, limit), nil
}

// Recall embeds text and queries with it.
func (s *MemoryService) Recall(ctx context.Context, text string, propertyID uuid.UUID, minScore float64, limit int) ([]ScoredMemory, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrRecallQueryEmpty
	}
	if s.embedder == nil {
		return nil, errors.New("embedding client not configured")
	}
	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.Query(ctx, emb, minScore, limit, propertyID)
}

func (s *MemoryService) Touch(ctx context.Context, id uuid.UUID) error {
	err := s.store.Touch(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrMemoryNotFound
	}
	return err
}

// RetrieveContext renders the memories relevant to message as prompt text.
// Any failure yields an empty context.
func (s *MemoryService) RetrieveContext(ctx context.Context, propertyID uuid.UUID, message string) string {
	if propertyID == uuid.Nil {
		return ""
	}

	memories, err := s.Recall(ctx, message, propertyID, DefaultMinScore, DefaultRecallLimit)
	if err != nil {
		s.logger.Warn("memory retrieval failed, continuing without context",
			zap.String("property_id", propertyID.String()),
			zap.Error(err))
		return ""
	}
	if len(memories) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Relevant institutional memory:\n")
	for _, m := range memories {
		fmt.Fprintf(&sb, "- [%s] %s\n", m.Kind, m.Content)
		if err := s.store.Touch(ctx, m.ID); err != nil {
			s.logger.Debug("touch memory failed", zap.String("memory_id", m.ID.String()), zap.Error(err))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// RememberTurn stores a summary of a finished turn in the background. The
// caller never waits on it and failures are only logged.
func (s *MemoryService) RememberTurn(propertyID uuid.UUID, message string, results []domain.AgentResult) {
	if propertyID == uuid.Nil || len(results) == 0 {
		return
	}

	agents := make([]string, 0, len(results))
	var sb strings.Builder
	fmt.Fprintf(&sb, "User asked: %s\n", strings.TrimSpace(message))
	for _, r := range results {
		agents = append(agents, string(r.Agent))
		if r.Degraded {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", r.Agent, truncate(r.Output, maxRememberOutput))
	}

	m := &domain.MemoryRecord{
		PropertyID: propertyID,
		Kind:       domain.MemoryKindEpisodic,
		Content:    sb.String(),
		Weight:     DefaultMemoryWeight,
		Metadata: map[string]any{
			"source": "turn",
			"agents": agents,
		},
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic while remembering turn", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), rememberTimeout)
		defer cancel()

		if err := s.Insert(ctx, m); err != nil {
			s.logger.Warn("failed to remember turn",
				zap.String("property_id", propertyID.String()),
				zap.Error(err))
			return
		}
		s.logger.Debug("turn remembered", zap.String("memory_id", m.ID.String()))
	}()
}

// Wait blocks until background memory writes have finished.
func (s *MemoryService) Wait() {
	s.pending.Wait()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
