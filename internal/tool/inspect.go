package tool

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

const NameInspectURL = "inspect_url"

// InspectURL looks up the live index status of one page of the bound site.
type InspectURL struct {
	inspector domain.URLInspector
	siteURL   string
}

func NewInspectURL(inspector domain.URLInspector, siteURL string) *InspectURL {
	return &InspectURL{inspector: inspector, siteURL: siteURL}
}

func (t *InspectURL) Name() string { return NameInspectURL }

func (t *InspectURL) Description() string {
	return "Inspect a page's live index status: verdict, coverage state, robots.txt and fetch state, Google-selected versus declared canonical, mobile usability."
}

func (t *InspectURL) Parameters() *domain.Schema {
	return &domain.Schema{
		Type: domain.SchemaObject,
		Properties: map[string]*domain.Schema{
			"url": {Type: domain.SchemaString, Description: "Absolute page URL or a path on the selected site"},
		},
		Required: []string{"url"},
	}
}

func (t *InspectURL) Call(ctx context.Context, args map[string]any) (string, error) {
	res, err := t.Inspect(ctx, stringArg(args, "url"))
	if err != nil {
		return "", err
	}
	return render(res)
}

// Inspect resolves raw against the site and runs the inspection.
func (t *InspectURL) Inspect(ctx context.Context, raw string) (*domain.URLInspection, error) {
	if t.inspector == nil {
		return nil, fmt.Errorf("url inspection is not configured")
	}
	page, err := ResolvePageURL(t.siteURL, raw)
	if err != nil {
		return nil, err
	}
	res, err := t.inspector.Inspect(ctx, t.siteURL, page)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", page, err)
	}
	return res, nil
}

// ResolvePageURL turns a path or absolute URL into an absolute URL on site.
// Domain properties ("sc-domain:example.com") resolve against https.
func ResolvePageURL(site, raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("url is required")
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	base := site
	if host, ok := strings.CutPrefix(base, "sc-domain:"); ok {
		base = "https://" + host + "/"
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return "", fmt.Errorf("cannot resolve %q without an absolute site url", raw)
	}
	return b.ResolveReference(ref).String(), nil
}
