package scoring

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

func TestClassifyURLPattern(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		url  string
		want WastePattern
	}{
		{"https://example.com/blog/page/3", PatternPagination},
		{"https://example.com/shop?page=2", PatternPagination},
		{"https://example.com/shop?color=red&size=m", PatternFaceted},
		{"https://example.com/shop?sort=price", PatternFilter},
		{"https://example.com/tag/seo", PatternFilter},
		{"https://example.com/2019/05/old-post", PatternOldArchive},
		{"https://example.com/2026/01/new-post", PatternOther},
		{"https://example.com/author/jane", PatternAuthor},
		{"https://example.com/about", PatternOther},
	}
	for _, tt := range tests {
		if got := ClassifyURLPattern(tt.url, now); got != tt.want {
			t.Errorf("ClassifyURLPattern(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestIsCrawlWaste(t *testing.T) {
	tests := []struct {
		name     string
		freq     float64
		clicks   int64
		priority float64
		want     bool
	}{
		{"wasted", 5, 0, 0.1, true},
		{"crawled rarely", 2, 0, 0.1, false},
		{"earns clicks", 5, 1, 0.1, false},
		{"high priority", 5, 0, 0.3, false},
	}
	for _, tt := range tests {
		if got := IsCrawlWaste(tt.freq, tt.clicks, tt.priority); got != tt.want {
			t.Errorf("%s: IsCrawlWaste = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDetectCrawlWaste(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	stats := []domain.CrawlStat{
		{URL: "https://example.com/shop?color=red&size=m", CrawlFrequency: 60, LastCrawledAt: &now},
		{URL: "https://example.com/author/jane", CrawlFrequency: 12.34, LastCrawledAt: &now},
		{URL: "https://example.com/pricing", CrawlFrequency: 40, Clicks90d: 30, Impressions90d: 300, LastCrawledAt: &now},
		{URL: "https://example.com/rare", CrawlFrequency: 1},
	}

	got := DetectCrawlWaste(stats, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 wasted urls, got %d: %+v", len(got), got)
	}
	if got[0].Pattern != PatternFaceted || got[0].EstimatedBudgetPct != 60 {
		t.Errorf("first = %+v", got[0])
	}
	if got[0].PriorityScore != 0.25 {
		t.Errorf("priority = %v, want 0.25", got[0].PriorityScore)
	}
	if got[1].Pattern != PatternAuthor || got[1].EstimatedBudgetPct != 12.3 {
		t.Errorf("second = %+v", got[1])
	}
}
