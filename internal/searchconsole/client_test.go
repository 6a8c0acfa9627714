package searchconsole

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gsc "google.golang.org/api/searchconsole/v1"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

func TestConvertRow(t *testing.T) {
	prop := domain.Property{ID: uuid.New(), SiteURL: "https://example.com/"}

	row, ok := convertRow(prop, &gsc.ApiDataRow{
		Keys:        []string{"2025-03-01", "running shoes", "https://example.com/shoes"},
		Clicks:      12,
		Impressions: 400,
		Ctr:         0.03,
		Position:    4.2,
	})
	require.True(t, ok)
	assert.Equal(t, prop.ID, row.PropertyID)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), row.Date)
	assert.Equal(t, "running shoes", row.Query)
	assert.Equal(t, int64(12), row.Clicks)
	assert.Equal(t, int64(400), row.Impressions)

	_, ok = convertRow(prop, &gsc.ApiDataRow{Keys: []string{"2025-03-01"}})
	assert.False(t, ok)

	_, ok = convertRow(prop, &gsc.ApiDataRow{Keys: []string{"yesterday", "q", "p"}})
	assert.False(t, ok)
}

func TestConvertInspection(t *testing.T) {
	out := convertInspection("https://example.com/a", &gsc.UrlInspectionResult{
		IndexStatusResult: &gsc.IndexStatusInspectionResult{
			Verdict:         "FAIL",
			CoverageState:   "Crawled - currently not indexed",
			GoogleCanonical: "https://example.com/b",
			LastCrawlTime:   "2025-02-10T08:00:00Z",
		},
		MobileUsabilityResult: &gsc.MobileUsabilityInspectionResult{
			Verdict: "PARTIAL",
			Issues: []*gsc.MobileUsabilityIssue{
				{IssueType: "TAP_TARGETS_TOO_CLOSE", Message: "Clickable elements too close together"},
			},
		},
	})

	assert.Equal(t, "FAIL", out.Verdict)
	assert.Equal(t, "https://example.com/b", out.GoogleCanonical)
	require.NotNil(t, out.LastCrawlTime)
	assert.Equal(t, 2025, out.LastCrawlTime.Year())
	assert.Equal(t, []string{"TAP_TARGETS_TOO_CLOSE: Clickable elements too close together"}, out.MobileIssues)

	empty := convertInspection("https://example.com/c", nil)
	assert.Equal(t, "https://example.com/c", empty.URL)
	assert.Empty(t, empty.Verdict)
}
