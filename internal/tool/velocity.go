package tool

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/scoring"
)

const (
	NameRankingVelocity = "query_ranking_velocity"

	// VelocityHistoryDays is the position history window velocity is computed over.
	VelocityHistoryDays = 30

	defaultVelocityLimit = 20
	maxVelocityLimit     = 200
)

// RankingVelocity reports how fast query/page pairs are moving in rank.
type RankingVelocity struct {
	store      domain.AnalyticsStore
	propertyID uuid.UUID
}

func NewRankingVelocity(store domain.AnalyticsStore, propertyID uuid.UUID) *RankingVelocity {
	return &RankingVelocity{store: store, propertyID: propertyID}
}

func (t *RankingVelocity) Name() string { return NameRankingVelocity }

func (t *RankingVelocity) Description() string {
	return "Ranking velocity per query and page over the last 30 days. Positive velocity means the page is losing rank."
}

func (t *RankingVelocity) Parameters() *domain.Schema {
	return &domain.Schema{
		Type: domain.SchemaObject,
		Properties: map[string]*domain.Schema{
			"sort_by": {
				Type:        domain.SchemaString,
				Description: "Ordering of results",
				Enum:        []string{string(scoring.SortByDecline), string(scoring.SortByRise), string(scoring.SortByVolatility)},
			},
			"limit": {Type: domain.SchemaInteger, Description: "Maximum rows, default 20"},
		},
	}
}

func (t *RankingVelocity) Call(ctx context.Context, args map[string]any) (string, error) {
	if t.propertyID == uuid.Nil {
		return "", fmt.Errorf("no property selected")
	}
	sortBy := scoring.VelocitySort(stringArg(args, "sort_by"))
	switch sortBy {
	case scoring.SortByDecline, scoring.SortByRise, scoring.SortByVolatility:
	case "":
		sortBy = scoring.SortByDecline
	default:
		return "", fmt.Errorf("invalid sort_by %q", sortBy)
	}

	history, err := t.store.PositionHistory(ctx, t.propertyID, VelocityHistoryDays)
	if err != nil {
		return "", fmt.Errorf("position history: %w", err)
	}
	velocities := scoring.SortVelocities(scoring.AnalyzeVelocities(history), sortBy,
		intArg(args, "limit", defaultVelocityLimit, maxVelocityLimit))
	if len(velocities) == 0 {
		return "not enough position history", nil
	}
	return render(velocities)
}
