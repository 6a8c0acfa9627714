package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/Harshitk-cp/searchmind/internal/domain"
	"github.com/Harshitk-cp/searchmind/internal/store"
)

var (
	ErrInvalidSiteURL   = errors.New("site_url must be an absolute http(s) URL or sc-domain: property")
	ErrPropertyConflict = errors.New("property with this site_url already exists")
)

type PropertyService struct {
	store domain.PropertyStore
}

func NewPropertyService(s domain.PropertyStore) *PropertyService {
	return &PropertyService{store: s}
}

func (s *PropertyService) Create(ctx context.Context, p *domain.Property) error {
	site, err := normalizeSiteURL(p.SiteURL)
	if err != nil {
		return err
	}
	p.SiteURL = site
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = strings.TrimPrefix(site, "sc-domain:")
	}

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrPropertyConflict
		}
		return err
	}
	return nil
}

func (s *PropertyService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	return lookupProperty(ctx, s.store, id)
}

func lookupProperty(ctx context.Context, ps domain.PropertyStore, id uuid.UUID) (*domain.Property, error) {
	p, err := ps.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPropertyNotFound
	}
	return p, err
}

func (s *PropertyService) List(ctx context.Context) ([]domain.Property, error) {
	return s.store.List(ctx)
}

// normalizeSiteURL accepts URL-prefix properties, which must end in a
// slash, and domain properties.
func normalizeSiteURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if host, ok := strings.CutPrefix(raw, "sc-domain:"); ok {
		if host == "" || strings.ContainsAny(host, "/ ") {
			return "", ErrInvalidSiteURL
		}
		return "sc-domain:" + strings.ToLower(host), nil
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidSiteURL
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery, u.Fragment = "", ""
	return u.String(), nil
}
