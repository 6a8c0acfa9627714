package scoring

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

type WastePattern string

const (
	PatternFaceted    WastePattern = "FACETED"
	PatternPagination WastePattern = "PAGINATION"
	PatternFilter     WastePattern = "FILTER"
	PatternOldArchive WastePattern = "OLD_ARCHIVE"
	PatternAuthor     WastePattern = "AUTHOR"
	PatternOther      WastePattern = "OTHER"
)

const (
	WasteMinCrawlFrequency = 2.0
	WasteMaxPriority       = 0.3
	archiveMaxAge          = 2

	// CrawlBudgetFetchesPerDay is the assumed daily crawl budget a URL's
	// fetches are measured against.
	CrawlBudgetFetchesPerDay = 100.0
)

var (
	paginationPath  = regexp.MustCompile(`/page/\d+`)
	paginationParam = map[string]bool{"page": true, "p": true, "pg": true, "start": true, "offset": true}
	filterParam     = map[string]bool{
		"sort": true, "order": true, "orderby": true, "filter": true, "color": true, "size": true,
		"price": true, "brand": true, "view": true, "limit": true,
	}
	archiveDate = regexp.MustCompile(`/((?:19|20)\d{2})(?:/(0[1-9]|1[0-2]))?(?:/|$)`)
)

type CrawlWaste struct {
	URL                string       `json:"url"`
	Pattern            WastePattern `json:"pattern"`
	CrawlFrequency     float64      `json:"crawl_frequency"`
	PriorityScore      float64      `json:"priority_score"`
	EstimatedBudgetPct float64      `json:"estimated_budget_pct"`
}

// ClassifyURLPattern buckets a URL by the crawl trap it most likely is.
// Archive dates older than two years before now count as OLD_ARCHIVE.
func ClassifyURLPattern(raw string, now time.Time) WastePattern {
	u, err := url.Parse(raw)
	if err != nil {
		return PatternOther
	}
	path := strings.ToLower(u.Path)
	params := u.Query()

	if paginationPath.MatchString(path) {
		return PatternPagination
	}
	for k := range params {
		if paginationParam[strings.ToLower(k)] && len(params) == 1 {
			return PatternPagination
		}
	}
	if len(params) >= 2 {
		return PatternFaceted
	}
	for k := range params {
		if filterParam[strings.ToLower(k)] {
			return PatternFilter
		}
	}
	if strings.Contains(path, "/filter/") || strings.Contains(path, "/tag/") {
		return PatternFilter
	}
	if m := archiveDate.FindStringSubmatch(path); m != nil {
		year, _ := strconv.Atoi(m[1])
		month := time.December
		if m[2] != "" {
			mm, _ := strconv.Atoi(m[2])
			month = time.Month(mm)
		}
		published := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		if published.Before(now.AddDate(-archiveMaxAge, 0, 0)) {
			return PatternOldArchive
		}
	}
	if strings.Contains(path, "/author/") {
		return PatternAuthor
	}
	return PatternOther
}

// IsCrawlWaste reports whether a URL is crawled often, earns nothing and has
// low priority.
func IsCrawlWaste(crawlFrequency float64, clicks90d int64, priority float64) bool {
	return crawlFrequency > WasteMinCrawlFrequency && clicks90d == 0 && priority < WasteMaxPriority
}

// DetectCrawlWaste scores each stat and returns the wasted URLs, most
// frequently crawled first.
func DetectCrawlWaste(stats []domain.CrawlStat, now time.Time) []CrawlWaste {
	var out []CrawlWaste
	for _, s := range stats {
		priority := PriorityScore(PriorityInputsFromCrawl(s, now))
		if !IsCrawlWaste(s.CrawlFrequency, s.Clicks90d, priority) {
			continue
		}
		out = append(out, CrawlWaste{
			URL:                s.URL,
			Pattern:            ClassifyURLPattern(s.URL, now),
			CrawlFrequency:     s.CrawlFrequency,
			PriorityScore:      priority,
			EstimatedBudgetPct: round(s.CrawlFrequency/CrawlBudgetFetchesPerDay*100, 1),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CrawlFrequency > out[j].CrawlFrequency })
	return out
}
