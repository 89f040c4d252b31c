package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
)

// PermissionRepository maps the permissions table, one (route_id, user_id)
// row per explicit Viewer/Editor grant. Owner is never a row: it's derived
// from routes.owner_id. Grounded on original_source's permission
// repository, which resolves the same way.
type PermissionRepository struct {
	pool *pgxpool.Pool
}

func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

// FindType returns the explicit grant for (routeID, userID), or
// PermissionNone if no row exists (the caller combines this with
// RouteInfo.OwnerID/IsPublic to get the EffectivePermission).
func (r *PermissionRepository) FindType(ctx context.Context, routeID model.RouteId, userID model.UserId) (model.PermissionType, error) {
	var typeStr string
	err := r.pool.QueryRow(ctx, `
		SELECT permission_type FROM permissions WHERE route_id = $1 AND user_id = $2`,
		string(routeID), string(userID)).Scan(&typeStr)
	if err == pgx.ErrNoRows {
		return model.PermissionNone, nil
	}
	if err != nil {
		return model.PermissionNone, apperr.Wrap(apperr.Database, "failed to load permission", err)
	}
	pt, ok := model.ParsePermissionType(typeStr)
	if !ok {
		return model.PermissionNone, apperr.Newf(apperr.Database, "invalid stored permission_type %q", typeStr)
	}
	return pt, nil
}

// FindByUserID lists every explicit grant on routeID.
func (r *PermissionRepository) FindByUserID(ctx context.Context, routeID model.RouteId) ([]model.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, permission_type FROM permissions WHERE route_id = $1`, string(routeID))
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed to list permissions", err)
	}
	defer rows.Close()

	var perms []model.Permission
	for rows.Next() {
		var userStr, typeStr string
		if err := rows.Scan(&userStr, &typeStr); err != nil {
			return nil, apperr.Wrap(apperr.Database, "failed to scan permission row", err)
		}
		pt, ok := model.ParsePermissionType(typeStr)
		if !ok {
			return nil, apperr.Newf(apperr.Database, "invalid stored permission_type %q", typeStr)
		}
		perms = append(perms, model.Permission{RouteID: routeID, UserID: model.UserId(userStr), PermissionType: pt})
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed reading permission rows", err)
	}
	return perms, nil
}

// AuthorizeUser reports whether userID's effective permission on the route
// described by info meets or exceeds target. Mirrors original_source's
// authorize_user, which compares target_type <= permission_type after
// resolving ownership/grant/public-visibility precedence.
func (r *PermissionRepository) AuthorizeUser(ctx context.Context, info model.RouteInfo, userID *model.UserId, target model.PermissionType) (bool, error) {
	var grant *model.Permission
	if userID != nil {
		pt, err := r.FindType(ctx, info.ID, *userID)
		if err != nil {
			return false, err
		}
		if pt != model.PermissionNone {
			grant = &model.Permission{RouteID: info.ID, UserID: *userID, PermissionType: pt}
		}
	}
	effective := model.EffectivePermission(info, userID, grant)
	return target <= effective, nil
}

// Upsert inserts or updates an explicit grant. Owner-level grants are
// rejected: ownership is conferred by routes.owner_id alone.
func (r *PermissionRepository) Upsert(ctx context.Context, tx Tx, p model.Permission) error {
	if p.PermissionType == model.PermissionOwner || p.PermissionType == model.PermissionNone {
		return apperr.Newf(apperr.Validation, "cannot grant permission type %q as an explicit row", p.PermissionType)
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO permissions (route_id, user_id, permission_type) VALUES ($1, $2, $3)
		ON CONFLICT (route_id, user_id) DO UPDATE SET permission_type = EXCLUDED.permission_type`,
		string(p.RouteID), string(p.UserID), p.PermissionType.String())
	if err != nil {
		return apperr.Wrap(apperr.Database, "failed to upsert permission", err)
	}
	return nil
}

// Delete removes the explicit grant for (routeID, userID), if any.
func (r *PermissionRepository) Delete(ctx context.Context, tx Tx, routeID model.RouteId, userID model.UserId) error {
	_, err := tx.Exec(ctx, `DELETE FROM permissions WHERE route_id = $1 AND user_id = $2`,
		string(routeID), string(userID))
	if err != nil {
		return apperr.Wrap(apperr.Database, "failed to delete permission", err)
	}
	return nil
}
