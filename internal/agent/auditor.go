package agent

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/scoring"
	"github.com/Harshitk-cp/searchmind/internal/tool"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// AuditIssue is one problem read off an inspection result.
type AuditIssue struct {
	Check    string           `json:"check"`
	Severity scoring.Severity `json:"severity"`
	Detail   string           `json:"detail"`
}

type AuditReport struct {
	URL        string                `json:"url"`
	Inspection *domain.URLInspection `json:"inspection,omitempty"`
	Issues     []AuditIssue          `json:"issues"`
	Error      string                `json:"error,omitempty"`
}

type Auditor struct {
	deps *Deps
}

func NewAuditor(deps *Deps) *Auditor {
	return &Auditor{deps: deps}
}

func (a *Auditor) Kind() domain.AgentKind { return domain.AgentAuditor }

func (a *Auditor) Execute(ctx context.Context, message string, actx domain.AgentContext) (domain.AgentResult, error) {
	if !actx.HasProperty() {
		return selectProperty(a.Kind()), nil
	}

	inspect := tool.NewInspectURL(a.deps.Inspector, actx.PropertyURL)
	report := &AuditReport{URL: TargetURL(message, actx.PropertyURL), Issues: []AuditIssue{}}

	res, err := inspect.Inspect(ctx, report.URL)
	if err != nil {
		a.deps.Logger.Warn("url inspection failed",
			zap.String("property_id", actx.PropertyID.String()),
			zap.String("url", report.URL),
			zap.Error(err))
		report.Error = err.Error()
	} else {
		report.Inspection = res
		report.URL = res.URL
		report.Issues = InspectionIssues(res)
	}

	resp, err := a.deps.generate(ctx, auditorPrompt, userPrompt(message, actx, section("Inspection report", report)), []domain.Tool{inspect}, false)
	if err != nil {
		return domain.AgentResult{}, err
	}

	if report.Inspection != nil {
		a.deps.recordAction(ctx, a.Kind(), actx, ActionTechnicalAudit, message, map[string]any{
			"url":     report.URL,
			"verdict": report.Inspection.Verdict,
			"issues":  len(report.Issues),
		})
	}

	return domain.AgentResult{
		Agent:  a.Kind(),
		Output: resp.Text,
		Data:   report,
		Steps:  resp.Steps,
	}, nil
}

// TargetURL picks the first URL in the message that belongs to the site, or
// any URL when none does, falling back to the site's home page.
func TargetURL(message, siteURL string) string {
	found := urlPattern.FindAllString(message, -1)
	host := siteHost(siteURL)
	for _, u := range found {
		u = strings.TrimRight(u, ".,;:!?")
		if parsed, err := url.Parse(u); err == nil && sameSite(parsed.Hostname(), host) {
			return u
		}
	}
	if len(found) > 0 {
		return strings.TrimRight(found[0], ".,;:!?")
	}
	return "/"
}

func siteHost(siteURL string) string {
	if host, ok := strings.CutPrefix(siteURL, "sc-domain:"); ok {
		return host
	}
	if u, err := url.Parse(siteURL); err == nil {
		return u.Hostname()
	}
	return ""
}

func sameSite(host, site string) bool {
	host, site = strings.ToLower(host), strings.ToLower(site)
	return site != "" && (host == site || strings.HasSuffix(host, "."+site))
}

// InspectionIssues turns raw inspection states into ranked issues.
func InspectionIssues(r *domain.URLInspection) []AuditIssue {
	issues := []AuditIssue{}
	add := func(check string, sev scoring.Severity, format string, args ...any) {
		issues = append(issues, AuditIssue{Check: check, Severity: sev, Detail: fmt.Sprintf(format, args...)})
	}

	switch strings.ToUpper(r.Verdict) {
	case "FAIL":
		add("verdict", scoring.SeverityHigh, "page is not on Google: %s", r.CoverageState)
	case "PARTIAL", "NEUTRAL":
		add("verdict", scoring.SeverityMedium, "page is indexed with warnings or excluded: %s", r.CoverageState)
	}

	if strings.EqualFold(r.RobotsTxtState, "DISALLOWED") {
		add("robots_txt", scoring.SeverityHigh, "robots.txt blocks crawling")
	}
	if s := strings.ToUpper(r.IndexingState); strings.HasPrefix(s, "BLOCKED") {
		add("indexing", scoring.SeverityHigh, "indexing blocked (%s)", r.IndexingState)
	}
	if s := strings.ToUpper(r.PageFetchState); s != "" && s != "SUCCESSFUL" && s != "PAGE_FETCH_STATE_UNSPECIFIED" {
		sev := scoring.SeverityHigh
		if s == "SOFT_404" || s == "REDIRECT_ERROR" {
			sev = scoring.SeverityMedium
		}
		add("page_fetch", sev, "fetch failed with %s", r.PageFetchState)
	}

	if r.GoogleCanonical != "" && r.UserCanonical != "" && r.GoogleCanonical != r.UserCanonical {
		add("canonical", scoring.SeverityMedium, "Google chose %s over the declared canonical %s", r.GoogleCanonical, r.UserCanonical)
	}

	if strings.EqualFold(r.MobileUsabilityVerdict, "FAIL") {
		detail := "page fails mobile usability"
		if len(r.MobileIssues) > 0 {
			detail += ": " + strings.Join(r.MobileIssues, ", ")
		}
		add("mobile_usability", scoring.SeverityMedium, "%s", detail)
	}

	if len(issues) == 0 && r.Verdict != "" && !strings.EqualFold(r.Verdict, "PASS") {
		add("verdict", scoring.SeverityLow, "unrecognized verdict %s", r.Verdict)
	}
	return issues
}
