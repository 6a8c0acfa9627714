package domain

import (
	"time"

	"github.com/google/uuid"
)

type MemoryKind string

const (
	MemoryKindEpisodic MemoryKind = "EPISODIC"
	MemoryKindSemantic MemoryKind = "SEMANTIC"
	MemoryKindBrand    MemoryKind = "BRAND"
)

func ValidMemoryKind(k string) bool {
	switch MemoryKind(k) {
	case MemoryKindEpisodic, MemoryKindSemantic, MemoryKindBrand:
		return true
	}
	return false
}

// BrandProtectedWeight marks a memory that garbage collection must never remove.
const BrandProtectedWeight float32 = 1.0

// MemoryRecord is one unit of institutional memory scoped to a property.
type MemoryRecord struct {
	ID             uuid.UUID      `json:"id"`
	PropertyID     uuid.UUID      `json:"property_id"`
	Kind           MemoryKind     `json:"kind"`
	Content        string         `json:"content"`
	Embedding      []float32      `json:"-"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Weight         float32        `json:"weight"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt *time.Time     `json:"last_accessed_at,omitempty"`
	AccessCount    int            `json:"access_count"`
}

func (m MemoryRecord) BrandProtected() bool {
	return m.Weight == BrandProtectedWeight
}

// MemoryWithScore carries the raw cosine similarity returned by the store.
type MemoryWithScore struct {
	MemoryRecord
	Similarity float32 `json:"similarity"`
}
