package domain

import (
	"time"

	"github.com/google/uuid"
)

// Property is a tenant-scoped site under analysis.
type Property struct {
	ID        uuid.UUID `json:"id"`
	SiteURL   string    `json:"site_url"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PropertySummary is the short context the router sees alongside a message.
type PropertySummary struct {
	SiteURL        string `json:"site_url"`
	RecentClicks   int64  `json:"recent_clicks"`
	DecliningPages int    `json:"declining_pages"`
}
