package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/embedding"
	"github.com/Harshitk-cp/searchmind/internal/store/storetest"
)

func newTestMemoryService() (*MemoryService, *storetest.MemoryStore, *embedding.MockClient) {
	ms := storetest.NewMemoryStore()
	ec := embedding.NewMockClient()
	return NewMemoryService(ms, ec, zap.NewNop()), ms, ec
}

func TestMemoryService_InsertValidation(t *testing.T) {
	svc, _, _ := newTestMemoryService()
	ctx := context.Background()
	prop := uuid.New()

	tests := []struct {
		name string
		mem  domain.MemoryRecord
		want error
	}{
		{"missing property", domain.MemoryRecord{Content: "x"}, ErrMemoryPropertyIDMissing},
		{"empty content", domain.MemoryRecord{PropertyID: prop, Content: "  "}, ErrMemoryContentEmpty},
		{"bad kind", domain.MemoryRecord{PropertyID: prop, Content: "x", Kind: "DREAM"}, ErrInvalidMemoryKind},
		{"bad weight", domain.MemoryRecord{PropertyID: prop, Content: "x", Weight: 1.5}, ErrInvalidWeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.mem
			assert.ErrorIs(t, svc.Insert(ctx, &m), tt.want)
		})
	}
}

func TestMemoryService_InsertEmbedsAndDefaultsKind(t *testing.T) {
	svc, ms, ec := newTestMemoryService()

	m := &domain.MemoryRecord{PropertyID: uuid.New(), Content: "Brand voice is playful", Weight: domain.BrandProtectedWeight, Kind: domain.MemoryKindBrand}
	require.NoError(t, svc.Insert(context.Background(), m))
	assert.Len(t, m.Embedding, embedding.Dimensions)
	assert.Len(t, ec.Calls, 1)

	plain := &domain.MemoryRecord{PropertyID: uuid.New(), Content: "something"}
	require.NoError(t, svc.Insert(context.Background(), plain))
	assert.Equal(t, domain.MemoryKindEpisodic, plain.Kind)
	assert.Len(t, ms.All(), 2)
}

func TestMemoryService_QueryIsTenantScoped(t *testing.T) {
	svc, _, _ := newTestMemoryService()
	ctx := context.Background()
	propA, propB := uuid.New(), uuid.New()

	for _, m := range []*domain.MemoryRecord{
		{PropertyID: propA, Content: "title tags were rewritten for the pricing page", Weight: 0.5},
		{PropertyID: propB, Content: "title tags were rewritten for the pricing page", Weight: 0.5},
		{PropertyID: propB, Content: "competitor launched a new blog", Weight: 0.5},
	} {
		require.NoError(t, svc.Insert(ctx, m))
	}

	got, err := svc.Recall(ctx, "title tags were rewritten for the pricing page", propA, DefaultMinScore, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, propA, got[0].PropertyID)

	_, err = svc.Query(ctx, make([]float32, embedding.Dimensions), DefaultMinScore, 10, uuid.Nil)
	assert.ErrorIs(t, err, ErrMemoryPropertyIDMissing)
}

func TestMemoryService_RetrieveContext(t *testing.T) {
	svc, ms, _ := newTestMemoryService()
	ctx := context.Background()
	prop := uuid.New()

	m := &domain.MemoryRecord{PropertyID: prop, Kind: domain.MemoryKindSemantic, Content: "crawl budget wasted on faceted urls", Weight: 0.5}
	require.NoError(t, svc.Insert(ctx, m))

	text := svc.RetrieveContext(ctx, prop, "crawl budget wasted on faceted urls")
	assert.True(t, strings.HasPrefix(text, "Relevant institutional memory:"))
	assert.Contains(t, text, "[SEMANTIC] crawl budget wasted on faceted urls")

	stored, err := ms.GetByID(ctx, m.ID, prop)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AccessCount)
	assert.NotNil(t, stored.LastAccessedAt)

	assert.Empty(t, svc.RetrieveContext(ctx, uuid.Nil, "anything"))
}

func TestMemoryService_RetrieveContextFailureIsEmpty(t *testing.T) {
	svc, ms, ec := newTestMemoryService()
	prop := uuid.New()

	ms.SimilarErr = errors.New("connection reset")
	assert.Empty(t, svc.RetrieveContext(context.Background(), prop, "anything"))

	ms.SimilarErr = nil
	ec.Err = errors.New("embedding quota")
	assert.Empty(t, svc.RetrieveContext(context.Background(), prop, "anything"))
}

func TestMemoryService_RememberTurn(t *testing.T) {
	svc, ms, _ := newTestMemoryService()
	prop := uuid.New()

	svc.RememberTurn(prop, "why did traffic drop", []domain.AgentResult{
		{Agent: domain.AgentAnalyst, Output: "CTR fell on /pricing"},
		{Agent: domain.AgentResearch, Output: "timed out", Degraded: true},
	})
	svc.Wait()

	all := ms.All()
	require.Len(t, all, 1)
	assert.Equal(t, prop, all[0].PropertyID)
	assert.Equal(t, domain.MemoryKindEpisodic, all[0].Kind)
	assert.Contains(t, all[0].Content, "CTR fell on /pricing")
	assert.NotContains(t, all[0].Content, "timed out")
	assert.Equal(t, []string{"ANALYST", "RESEARCH"}, all[0].Metadata["agents"])
}

func TestMemoryService_RememberTurnFailureIsSilent(t *testing.T) {
	svc, ms, _ := newTestMemoryService()
	ms.InsertErr = errors.New("disk full")

	done := make(chan struct{})
	go func() {
		svc.RememberTurn(uuid.New(), "msg", []domain.AgentResult{{Agent: domain.AgentAnalyst, Output: "x"}})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RememberTurn blocked the caller")
	}
	svc.Wait()
	assert.Empty(t, ms.All())
}

func TestMemoryService_RememberTurnSkipsWithoutProperty(t *testing.T) {
	svc, ms, _ := newTestMemoryService()
	svc.RememberTurn(uuid.Nil, "msg", []domain.AgentResult{{Agent: domain.AgentResearch, Output: "x"}})
	svc.Wait()
	assert.Empty(t, ms.All())
}
