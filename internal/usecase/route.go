package usecase

import (
	"context"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
	"github.com/team-azb/route-bucket-backend-sub000/internal/repository"
)

// RouteUseCase implements the edit pipeline: load-with-locks, authorize,
// correct coordinate, push operation, interpolate, attach elevations,
// recompute totals, persist, commit.
type RouteUseCase struct {
	routes        RouteRepositoryApi
	permissions   PermissionRepositoryApi
	interpolation RouteInterpolationApi
	elevation     ElevationApi
	reservedIDs   ReservedUserIdCheckerApi
}

func NewRouteUseCase(routes RouteRepositoryApi, permissions PermissionRepositoryApi,
	interpolation RouteInterpolationApi, elevation ElevationApi, reservedIDs ReservedUserIdCheckerApi) *RouteUseCase {
	return &RouteUseCase{
		routes:        routes,
		permissions:   permissions,
		interpolation: interpolation,
		elevation:     elevation,
		reservedIDs:   reservedIDs,
	}
}

// Find returns a fully-hydrated RouteDetail, readable by anyone meeting
// at least Viewer (public routes need no grant at all).
func (uc *RouteUseCase) Find(ctx context.Context, routeID model.RouteId, callerID *model.UserId) (*RouteDetail, error) {
	route, err := uc.routes.Find(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if err := uc.authorizeRead(ctx, route.Info, callerID); err != nil {
		return nil, err
	}
	if err := route.SegList.AttachDistanceFromStart(ctx); err != nil {
		return nil, err
	}
	if err := uc.elevation.AttachElevations(ctx, route.SegList); err != nil {
		return nil, err
	}
	detail := toRouteDetail(route)
	return &detail, nil
}

// FindAll lists every public route plus the caller's own, per
// SPEC_FULL.md §6.1.
func (uc *RouteUseCase) FindAll(ctx context.Context, callerID *model.UserId) ([]model.RouteInfo, error) {
	infos, err := uc.routes.FindAllInfo(ctx)
	if err != nil {
		return nil, err
	}
	visible := infos[:0]
	for _, info := range infos {
		if info.IsPublic || (callerID != nil && info.OwnerID == *callerID) {
			visible = append(visible, info)
		}
	}
	return visible, nil
}

// Search runs a filtered, paged listing.
func (uc *RouteUseCase) Search(ctx context.Context, q model.RouteSearchQuery, callerID *model.UserId) ([]model.RouteInfo, error) {
	return uc.routes.Search(ctx, q, callerID)
}

// FindForGpxExport loads a route fully hydrated, identically to Find, for
// the GPX formatter to consume.
func (uc *RouteUseCase) FindForGpxExport(ctx context.Context, routeID model.RouteId, callerID *model.UserId) (*model.Route, error) {
	route, err := uc.routes.Find(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if err := uc.authorizeRead(ctx, route.Info, callerID); err != nil {
		return nil, err
	}
	if err := route.SegList.AttachDistanceFromStart(ctx); err != nil {
		return nil, err
	}
	if err := uc.elevation.AttachElevations(ctx, route.SegList); err != nil {
		return nil, err
	}
	return route, nil
}

// Create inserts a brand new, empty route owned by callerID.
func (uc *RouteUseCase) Create(ctx context.Context, callerID model.UserId, req RouteCreateRequest) (*RouteCreateResponse, error) {
	if req.Name == "" {
		return nil, apperr.New(apperr.Validation, "name is required")
	}
	route := model.NewRoute(req.Name, callerID, req.IsPublic)

	tx, err := uc.routes.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.routes.Create(ctx, tx, route); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed to commit route creation", err)
	}
	return &RouteCreateResponse{ID: route.Info.ID}, nil
}

// Rename updates a route's display name; requires Editor.
func (uc *RouteUseCase) Rename(ctx context.Context, routeID model.RouteId, callerID *model.UserId, req RouteRenameRequest) (*model.RouteInfo, error) {
	if req.Name == "" {
		return nil, apperr.New(apperr.Validation, "name is required")
	}

	route, tx, err := uc.loadForEdit(ctx, routeID, callerID, model.PermissionEditor)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	route.Info.Name = req.Name
	if err := uc.routes.Update(ctx, tx, route); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed to commit rename", err)
	}
	return &route.Info, nil
}

// AddPoint inserts a waypoint at pos.
func (uc *RouteUseCase) AddPoint(ctx context.Context, routeID model.RouteId, callerID *model.UserId, pos int, req NewPointRequest) (*RouteOpResult, error) {
	return uc.runEdit(ctx, routeID, callerID, func(route *model.Route) error {
		corrected, err := uc.interpolation.CorrectCoordinate(ctx, req.Coord, req.Mode)
		if err != nil {
			return err
		}
		op, err := model.NewAddOperation(pos, corrected, req.Mode, route.SegList)
		if err != nil {
			return err
		}
		route.PushOperation(op)
		return nil
	})
}

// RemovePoint deletes the waypoint at pos.
func (uc *RouteUseCase) RemovePoint(ctx context.Context, routeID model.RouteId, callerID *model.UserId, pos int, req RemovePointRequest) (*RouteOpResult, error) {
	return uc.runEdit(ctx, routeID, callerID, func(route *model.Route) error {
		op, err := model.NewRemoveOperation(pos, req.Mode, route.SegList)
		if err != nil {
			return err
		}
		route.PushOperation(op)
		return nil
	})
}

// MovePoint relocates the waypoint at pos to a new coordinate.
func (uc *RouteUseCase) MovePoint(ctx context.Context, routeID model.RouteId, callerID *model.UserId, pos int, req NewPointRequest) (*RouteOpResult, error) {
	return uc.runEdit(ctx, routeID, callerID, func(route *model.Route) error {
		corrected, err := uc.interpolation.CorrectCoordinate(ctx, req.Coord, req.Mode)
		if err != nil {
			return err
		}
		op, err := model.NewMoveOperation(pos, corrected, req.Mode, route.SegList)
		if err != nil {
			return err
		}
		route.PushOperation(op)
		return nil
	})
}

// ClearRoute removes every waypoint.
func (uc *RouteUseCase) ClearRoute(ctx context.Context, routeID model.RouteId, callerID *model.UserId, mode model.DrawingMode) (*RouteOpResult, error) {
	return uc.runEdit(ctx, routeID, callerID, func(route *model.Route) error {
		route.Clear(mode)
		return nil
	})
}

// UndoOperation reverses the last applied operation.
func (uc *RouteUseCase) UndoOperation(ctx context.Context, routeID model.RouteId, callerID *model.UserId) (*RouteOpResult, error) {
	return uc.runEdit(ctx, routeID, callerID, func(route *model.Route) error {
		return route.UndoOperation()
	})
}

// RedoOperation reapplies the next operation in the log.
func (uc *RouteUseCase) RedoOperation(ctx context.Context, routeID model.RouteId, callerID *model.UserId) (*RouteOpResult, error) {
	return uc.runEdit(ctx, routeID, callerID, func(route *model.Route) error {
		return route.RedoOperation()
	})
}

// Delete cascades to operations, segments, and permissions. Requires
// Owner.
func (uc *RouteUseCase) Delete(ctx context.Context, routeID model.RouteId, callerID *model.UserId) error {
	route, err := uc.routes.Find(ctx, routeID)
	if err != nil {
		return err
	}
	ok, err := uc.permissions.AuthorizeUser(ctx, route.Info, callerID, model.PermissionOwner)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.Authorization, "only the owner may delete a route")
	}

	tx, err := uc.routes.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.routes.Delete(ctx, tx, routeID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.Database, "failed to commit route deletion", err)
	}
	return nil
}

// UpdatePermission grants or updates a Viewer/Editor permission. Requires
// Owner.
func (uc *RouteUseCase) UpdatePermission(ctx context.Context, routeID model.RouteId, callerID *model.UserId, req UpdatePermissionRequest) error {
	pt, ok := model.ParsePermissionType(req.PermissionType)
	if !ok || pt == model.PermissionOwner {
		return apperr.Newf(apperr.Validation, "invalid permission_type %q", req.PermissionType)
	}
	if _, err := model.NewUserId(req.UserID.String()); err != nil {
		return err
	}

	reserved, err := uc.reservedIDs.CheckIfReserved(ctx, req.UserID)
	if err != nil {
		return err
	}
	if reserved {
		return apperr.Newf(apperr.Validation, "cannot grant permissions to reserved user id %q", req.UserID)
	}

	route, err := uc.routes.Find(ctx, routeID)
	if err != nil {
		return err
	}
	okAuth, err := uc.permissions.AuthorizeUser(ctx, route.Info, callerID, model.PermissionOwner)
	if err != nil {
		return err
	}
	if !okAuth {
		return apperr.New(apperr.Authorization, "only the owner may grant permissions")
	}

	tx, err := uc.routes.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.permissions.Upsert(ctx, tx, model.Permission{RouteID: routeID, UserID: req.UserID, PermissionType: pt}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.Database, "failed to commit permission update", err)
	}
	return nil
}

// DeletePermission revokes an explicit grant. Requires Owner.
func (uc *RouteUseCase) DeletePermission(ctx context.Context, routeID model.RouteId, callerID *model.UserId, req DeletePermissionRequest) error {
	route, err := uc.routes.Find(ctx, routeID)
	if err != nil {
		return err
	}
	okAuth, err := uc.permissions.AuthorizeUser(ctx, route.Info, callerID, model.PermissionOwner)
	if err != nil {
		return err
	}
	if !okAuth {
		return apperr.New(apperr.Authorization, "only the owner may revoke permissions")
	}

	tx, err := uc.routes.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.permissions.Delete(ctx, tx, routeID, req.UserID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.Database, "failed to commit permission deletion", err)
	}
	return nil
}

// runEdit is the shared shape of every mutating edit (SPEC_FULL.md §4.6):
// load with row locks, authorize Editor, run mutate (which builds and
// pushes one Operation), interpolate the segments it left empty, attach
// elevations, recompute cumulative distance and cached totals, persist
// the diff, commit.
func (uc *RouteUseCase) runEdit(ctx context.Context, routeID model.RouteId, callerID *model.UserId, mutate func(*model.Route) error) (*RouteOpResult, error) {
	route, tx, err := uc.loadForEdit(ctx, routeID, callerID, model.PermissionEditor)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := mutate(route); err != nil {
		return nil, err
	}

	if err := uc.interpolation.InterpolateEmptySegments(ctx, route.SegList); err != nil {
		return nil, err
	}
	if err := uc.elevation.AttachElevations(ctx, route.SegList); err != nil {
		return nil, err
	}
	if err := route.SegList.AttachDistanceFromStart(ctx); err != nil {
		return nil, err
	}
	route.RecomputeTotals()

	if err := uc.routes.Update(ctx, tx, route); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed to commit edit", err)
	}

	result := toRouteOpResult(route)
	return &result, nil
}

// loadForEdit begins a transaction, loads the aggregate under row locks,
// and authorizes callerID for at least required.
func (uc *RouteUseCase) loadForEdit(ctx context.Context, routeID model.RouteId, callerID *model.UserId, required model.PermissionType) (*model.Route, repository.Tx, error) {
	tx, err := uc.routes.BeginTx(ctx)
	if err != nil {
		return nil, nil, err
	}

	route, err := uc.routes.FindForUpdate(ctx, tx, routeID)
	if err != nil {
		tx.Rollback(ctx)
		return nil, nil, err
	}

	ok, err := uc.permissions.AuthorizeUser(ctx, route.Info, callerID, required)
	if err != nil {
		tx.Rollback(ctx)
		return nil, nil, err
	}
	if !ok {
		tx.Rollback(ctx)
		return nil, nil, apperr.New(apperr.Authorization, "caller lacks sufficient permission")
	}

	return route, tx, nil
}

func (uc *RouteUseCase) authorizeRead(ctx context.Context, info model.RouteInfo, callerID *model.UserId) error {
	ok, err := uc.permissions.AuthorizeUser(ctx, info, callerID, model.PermissionViewer)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.Authorization, "caller lacks sufficient permission")
	}
	return nil
}
