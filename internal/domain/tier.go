package domain

import "time"

type MemoryTier string

const (
	TierProtected MemoryTier = "protected"
	TierHot       MemoryTier = "hot"
	TierWarm      MemoryTier = "warm"
	TierFading    MemoryTier = "fading"
)

// Garbage collection thresholds. A memory is collectable only when all
// three hold and it is not brand protected.
const (
	CollectableWeight      float32 = 0.3
	CollectableAccessCount         = 2
	CollectableAge                 = 30 * 24 * time.Hour
)

func ComputeTier(weight float32) MemoryTier {
	switch {
	case weight == BrandProtectedWeight:
		return TierProtected
	case weight > 0.7:
		return TierHot
	case weight >= CollectableWeight:
		return TierWarm
	default:
		return TierFading
	}
}

func TierReason(weight float32) string {
	switch ComputeTier(weight) {
	case TierProtected:
		return "brand protected, never collected"
	case TierHot:
		return "high weight, surfaced first"
	case TierWarm:
		return "moderate weight, retained"
	default:
		return "low weight, collectable once old and rarely accessed"
	}
}

// Collectable reports whether the sleep cycle's garbage collection would
// delete m at time now.
func Collectable(m MemoryRecord, now time.Time) bool {
	if m.BrandProtected() {
		return false
	}
	return now.Sub(m.CreatedAt) > CollectableAge &&
		m.Weight < CollectableWeight &&
		m.AccessCount < CollectableAccessCount
}
