package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sitehrm/internal/domain/apperr"
	"sitehrm/internal/platform/db"
)

func (s *Store) CreateSite(ctx context.Context, tenantID string, site Site) (*Site, error) {
	var out Site
	err := s.DB.QueryRow(ctx, `
    INSERT INTO sites (tenant_id, code, name, client_name)
    VALUES ($1,$2,$3,$4)
    RETURNING id, code, name, client_name, created_at
  `, tenantID, site.Code, site.Name, site.ClientName).Scan(&out.ID, &out.Code, &out.Name, &out.ClientName, &out.CreatedAt)
	if db.IsUniqueViolation(err) {
		return nil, apperr.Invalid("site code %q already exists", site.Code)
	}
	if err != nil {
		return nil, apperr.Storage("create site", err)
	}
	return &out, nil
}

func (s *Store) GetSite(ctx context.Context, tenantID, siteID string) (*Site, error) {
	var out Site
	err := s.DB.QueryRow(ctx, `
    SELECT id, code, name, client_name, created_at
    FROM sites
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, siteID).Scan(&out.ID, &out.Code, &out.Name, &out.ClientName, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
		return nil, fmt.Errorf("site %s: %w", siteID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Storage("get site", err)
	}
	return &out, nil
}

func (s *Store) ListSites(ctx context.Context, tenantID string) ([]Site, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, code, name, client_name, created_at
    FROM sites
    WHERE tenant_id = $1
    ORDER BY code
  `, tenantID)
	if err != nil {
		return nil, apperr.Storage("list sites", err)
	}
	defer rows.Close()

	var out []Site
	for rows.Next() {
		var site Site
		if err := rows.Scan(&site.ID, &site.Code, &site.Name, &site.ClientName, &site.CreatedAt); err != nil {
			return nil, apperr.Storage("scan site", err)
		}
		out = append(out, site)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list sites", err)
	}
	return out, nil
}

func (s *Store) SitesByIDs(ctx context.Context, tenantID string, ids []string) (map[string]Site, error) {
	out := make(map[string]Site, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, code, name, client_name, created_at
    FROM sites
    WHERE tenant_id = $1 AND id::text = ANY($2)
  `, tenantID, ids)
	if err != nil {
		return nil, apperr.Storage("sites by id", err)
	}
	defer rows.Close()
	for rows.Next() {
		var site Site
		if err := rows.Scan(&site.ID, &site.Code, &site.Name, &site.ClientName, &site.CreatedAt); err != nil {
			return nil, apperr.Storage("scan site", err)
		}
		out[site.ID] = site
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("sites by id", err)
	}
	return out, nil
}
