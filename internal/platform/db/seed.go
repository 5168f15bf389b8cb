package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sitehrm/internal/domain/auth"
	"sitehrm/internal/platform/config"
)

// Seed brings the bootstrap tenant in line with the role table compiled
// into the binary: the tenant, the permission catalogue, the four staffing
// roles with exactly their permissions, the first admin and optionally a
// first site. It runs in one transaction and is safe to repeat.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	return WithTransaction(ctx, pool, func(tx pgx.Tx) error {
		tenantID, err := upsertTenant(ctx, tx, cfg.SeedTenantName)
		if err != nil {
			return fmt.Errorf("seed tenant: %w", err)
		}
		permIDs, err := upsertPermissions(ctx, tx)
		if err != nil {
			return fmt.Errorf("seed permissions: %w", err)
		}
		roleIDs := make(map[string]string, len(auth.RolePermissions))
		for role, perms := range auth.RolePermissions {
			roleID, err := upsertRole(ctx, tx, tenantID, role)
			if err != nil {
				return fmt.Errorf("seed role %s: %w", role, err)
			}
			if err := syncRolePermissions(ctx, tx, roleID, perms, permIDs); err != nil {
				return fmt.Errorf("seed role %s permissions: %w", role, err)
			}
			roleIDs[role] = roleID
		}
		if err := seedAdmin(ctx, tx, tenantID, roleIDs[auth.RoleAdmin], cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if err := seedSite(ctx, tx, tenantID, cfg.SeedSiteCode, cfg.SeedSiteName); err != nil {
			return fmt.Errorf("seed site: %w", err)
		}
		return nil
	})
}

func upsertTenant(ctx context.Context, tx pgx.Tx, name string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
    INSERT INTO tenants (name) VALUES ($1)
    ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, name).Scan(&id)
	return id, err
}

func upsertPermissions(ctx context.Context, tx pgx.Tx) (map[string]string, error) {
	ids := make(map[string]string, len(auth.DefaultPermissions))
	for _, key := range auth.DefaultPermissions {
		var id string
		err := tx.QueryRow(ctx, `
      INSERT INTO permissions (key) VALUES ($1)
      ON CONFLICT (key) DO UPDATE SET key = EXCLUDED.key
      RETURNING id
    `, key).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids[key] = id
	}
	return ids, nil
}

func upsertRole(ctx context.Context, tx pgx.Tx, tenantID, name string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
    INSERT INTO roles (tenant_id, name) VALUES ($1, $2)
    ON CONFLICT (tenant_id, name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, tenantID, name).Scan(&id)
	return id, err
}

// syncRolePermissions grants perms and revokes anything else, so narrowing
// a role in code takes effect on the next boot.
func syncRolePermissions(ctx context.Context, tx pgx.Tx, roleID string, perms []string, permIDs map[string]string) error {
	granted := make([]string, 0, len(perms))
	for _, key := range perms {
		id, ok := permIDs[key]
		if !ok {
			return errors.New("permission not in catalogue: " + key)
		}
		granted = append(granted, id)
	}
	if _, err := tx.Exec(ctx, `
    DELETE FROM role_permissions
    WHERE role_id = $1 AND NOT (permission_id::text = ANY($2::text[]))
  `, roleID, granted); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
    INSERT INTO role_permissions (role_id, permission_id)
    SELECT $1::uuid, unnest($2::text[])::uuid
    ON CONFLICT DO NOTHING
  `, roleID, granted)
	return err
}

func seedAdmin(ctx context.Context, tx pgx.Tx, tenantID, roleID, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE tenant_id = $1 AND email = $2)", tenantID, email).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "INSERT INTO users (tenant_id, email, password_hash, role_id) VALUES ($1, $2, $3, $4)", tenantID, email, hash, roleID)
	return err
}

func seedSite(ctx context.Context, tx pgx.Tx, tenantID, code, name string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if strings.TrimSpace(name) == "" {
		name = code
	}
	_, err := tx.Exec(ctx, `
    INSERT INTO sites (tenant_id, code, name) VALUES ($1, $2, $3)
    ON CONFLICT (tenant_id, code) DO NOTHING
  `, tenantID, code, name)
	return err
}
