package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/scoring"
	"github.com/Harshitk-cp/searchmind/internal/store/storetest"
)

type fakeInspector struct {
	site, page string
	err        error
}

func (f *fakeInspector) Inspect(ctx context.Context, siteURL, pageURL string) (*domain.URLInspection, error) {
	f.site, f.page = siteURL, pageURL
	if f.err != nil {
		return nil, f.err
	}
	return &domain.URLInspection{URL: pageURL, Verdict: "PASS", CoverageState: "Submitted and indexed"}, nil
}

func seedRows(t *testing.T, s *storetest.AnalyticsStore, propertyID uuid.UUID) {
	t.Helper()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	var rows []domain.AnalyticsRow
	for i := 0; i < 14; i++ {
		rows = append(rows,
			domain.AnalyticsRow{PropertyID: propertyID, Date: today.AddDate(0, 0, -i), Query: "blue widgets", Page: "/widgets", Clicks: 10, Impressions: 100, Position: 3 + float64(i)*0.5},
			domain.AnalyticsRow{PropertyID: propertyID, Date: today.AddDate(0, 0, -i), Query: "red gadgets", Page: "/gadgets", Clicks: 1, Impressions: 50, Position: 12 - float64(i)*0.5},
		)
	}
	_, err := s.UpsertRows(context.Background(), rows)
	require.NoError(t, err)
}

func TestAnalyticsQuery_Call(t *testing.T) {
	store := storetest.NewAnalyticsStore()
	prop := uuid.New()
	other := uuid.New()
	seedRows(t, store, prop)
	seedRows(t, store, other)

	tool := NewAnalyticsQuery(store, prop)
	out, err := tool.Call(context.Background(), map[string]any{"search_term": "widgets", "days": float64(7)})
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "blue widgets", rows[0]["query"])
	assert.Equal(t, float64(80), rows[0]["clicks"])

	out, err = tool.Call(context.Background(), map[string]any{"url": "/nope"})
	require.NoError(t, err)
	assert.Equal(t, "no rows matched", out)
}

func TestAnalyticsQuery_NoProperty(t *testing.T) {
	_, err := NewAnalyticsQuery(storetest.NewAnalyticsStore(), uuid.Nil).Call(context.Background(), nil)
	assert.Error(t, err)
}

func TestAnalyticsQuery_StoreError(t *testing.T) {
	store := storetest.NewAnalyticsStore()
	store.QueryErr = errors.New("db down")
	_, err := NewAnalyticsQuery(store, uuid.New()).Call(context.Background(), nil)
	assert.ErrorContains(t, err, "db down")
}

func TestRankingVelocity_Call(t *testing.T) {
	store := storetest.NewAnalyticsStore()
	prop := uuid.New()
	seedRows(t, store, prop)

	tool := NewRankingVelocity(store, prop)

	out, err := tool.Call(context.Background(), map[string]any{"sort_by": "rise", "limit": float64(1)})
	require.NoError(t, err)
	var rising []scoring.RankingVelocity
	require.NoError(t, json.Unmarshal([]byte(out), &rising))
	require.Len(t, rising, 1)
	// blue widgets gained rank over time (position fell from 9.5 to 3).
	assert.Equal(t, "blue widgets", rising[0].Query)
	assert.Less(t, rising[0].Velocity7d, 0.0)

	out, err = tool.Call(context.Background(), map[string]any{})
	require.NoError(t, err)
	var declining []scoring.RankingVelocity
	require.NoError(t, json.Unmarshal([]byte(out), &declining))
	require.Len(t, declining, 2)
	assert.Equal(t, "red gadgets", declining[0].Query)

	_, err = tool.Call(context.Background(), map[string]any{"sort_by": "sideways"})
	assert.Error(t, err)
}

func TestRankingVelocity_NotEnoughHistory(t *testing.T) {
	out, err := NewRankingVelocity(storetest.NewAnalyticsStore(), uuid.New()).Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "not enough position history", out)
}

func TestInspectURL_Call(t *testing.T) {
	insp := &fakeInspector{}
	tool := NewInspectURL(insp, "https://example.com/")

	out, err := tool.Call(context.Background(), map[string]any{"url": "/pricing"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/pricing", insp.page)
	assert.Equal(t, "https://example.com/", insp.site)
	assert.Contains(t, out, `"verdict":"PASS"`)

	_, err = tool.Call(context.Background(), map[string]any{})
	assert.Error(t, err)

	insp.err = errors.New("quota exceeded")
	_, err = tool.Call(context.Background(), map[string]any{"url": "https://example.com/a"})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestInspectURL_NotConfigured(t *testing.T) {
	_, err := NewInspectURL(nil, "https://example.com/").Call(context.Background(), map[string]any{"url": "/"})
	assert.Error(t, err)
}

func TestResolvePageURL(t *testing.T) {
	tests := []struct {
		site, raw, want string
		wantErr         bool
	}{
		{"https://example.com/", "/blog/post", "https://example.com/blog/post", false},
		{"https://example.com/", "https://other.com/x", "https://other.com/x", false},
		{"sc-domain:example.com", "/about", "https://example.com/about", false},
		{"", "/about", "", true},
		{"https://example.com/", "", "", true},
	}
	for _, tt := range tests {
		got, err := ResolvePageURL(tt.site, tt.raw)
		if tt.wantErr {
			assert.Error(t, err, "%s + %s", tt.site, tt.raw)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestIntArg(t *testing.T) {
	assert.Equal(t, 10, intArg(map[string]any{"n": float64(10)}, "n", 5, 100))
	assert.Equal(t, 100, intArg(map[string]any{"n": float64(1000)}, "n", 5, 100))
	assert.Equal(t, 5, intArg(map[string]any{"n": float64(-3)}, "n", 5, 100))
	assert.Equal(t, 7, intArg(map[string]any{"n": "7"}, "n", 5, 100))
	assert.Equal(t, 5, intArg(nil, "n", 5, 100))
}
