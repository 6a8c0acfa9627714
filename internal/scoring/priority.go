package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const (
	weightTraffic    = 0.35
	weightConversion = 0.25
	weightCrawl      = 0.20
	weightLinks      = 0.15
	weightFreshness  = 0.05

	freshnessWindowDays = 30
)

type PriorityInputs struct {
	Clicks             float64
	CTR                float64
	CrawlFrequency     float64
	InternalLinks      float64
	DaysSinceLastCrawl float64
}

// PriorityScore is the SEO priority score in [0,1], rounded to 3 decimals.
func PriorityScore(in PriorityInputs) float64 {
	traffic := logScore(in.Clicks, 4)
	conversion := clamp01(in.CTR / 0.25)
	crawl := clamp01(in.CrawlFrequency / 30)
	links := logScore(in.InternalLinks, 2)
	freshness := clamp01(1 - in.DaysSinceLastCrawl/freshnessWindowDays)

	score := weightTraffic*traffic +
		weightConversion*conversion +
		weightCrawl*crawl +
		weightLinks*links +
		weightFreshness*freshness
	return round(clamp01(score), 3)
}

// PriorityInputsFromCrawl derives inputs from crawl stats. A URL that was
// never crawled gets no freshness credit.
func PriorityInputsFromCrawl(s domain.CrawlStat, now time.Time) PriorityInputs {
	days := float64(freshnessWindowDays)
	if s.LastCrawledAt != nil {
		days = now.Sub(*s.LastCrawledAt).Hours() / 24
	}
	var ctr float64
	if s.Impressions90d > 0 {
		ctr = float64(s.Clicks90d) / float64(s.Impressions90d)
	}
	return PriorityInputs{
		Clicks:             float64(s.Clicks90d),
		CTR:                ctr,
		CrawlFrequency:     s.CrawlFrequency,
		InternalLinks:      float64(s.InternalLinks),
		DaysSinceLastCrawl: days,
	}
}

type URLPriority struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// RankURLs scores every crawled URL, highest priority first.
func RankURLs(stats []domain.CrawlStat, now time.Time) []URLPriority {
	out := make([]URLPriority, 0, len(stats))
	for _, s := range stats {
		out = append(out, URLPriority{URL: s.URL, Score: PriorityScore(PriorityInputsFromCrawl(s, now))})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// logScore maps v onto [0,1] as log10(v)/decades; values at or below 1 score 0.
func logScore(v, decades float64) float64 {
	if v <= 1 {
		return 0
	}
	return clamp01(math.Log10(v) / decades)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
