// Package usecase implements the edit pipeline of SPEC_FULL.md §4.6: for
// every mutating call it loads the Route aggregate under row locks,
// authorizes the caller, builds and pushes an Operation, reinterpolates and
// re-elevates the segments the edit touched, recomputes totals, and
// persists the diff — all inside one transaction. Grounded on
// original_source/api/usecase/src/route.rs's RouteUseCase trait impl.
package usecase

import (
	"context"

	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
	"github.com/team-azb/route-bucket-backend-sub000/internal/repository"
)

// RouteRepositoryApi is the persistence capability the edit pipeline runs
// against: load (plain or row-locked-within-tx), list, search, and persist
// a Route aggregate. Satisfied by *repository.RouteRepository; narrowed to
// an interface here so the pipeline can run against an in-memory fake in
// tests without a database.
type RouteRepositoryApi interface {
	BeginTx(ctx context.Context) (repository.Tx, error)
	Find(ctx context.Context, id model.RouteId) (*model.Route, error)
	FindForUpdate(ctx context.Context, tx repository.Tx, id model.RouteId) (*model.Route, error)
	FindAllInfo(ctx context.Context) ([]model.RouteInfo, error)
	Search(ctx context.Context, q model.RouteSearchQuery, callerID *model.UserId) ([]model.RouteInfo, error)
	Create(ctx context.Context, tx repository.Tx, route *model.Route) error
	Update(ctx context.Context, tx repository.Tx, route *model.Route) error
	Delete(ctx context.Context, tx repository.Tx, id model.RouteId) error
}

// PermissionRepositoryApi is the permission-grant capability: resolve an
// effective permission and persist explicit Viewer/Editor grants.
type PermissionRepositoryApi interface {
	AuthorizeUser(ctx context.Context, info model.RouteInfo, userID *model.UserId, target model.PermissionType) (bool, error)
	Upsert(ctx context.Context, tx repository.Tx, p model.Permission) error
	Delete(ctx context.Context, tx repository.Tx, routeID model.RouteId, userID model.UserId) error
}

// RouteInterpolationApi is the routing capability the core depends on:
// snapping a freshly-drawn coordinate onto the road graph, and filling in
// a segment's interior points along that graph. Freehand segments pass
// CorrectCoordinate through unchanged and interpolate to exactly
// [start, goal].
type RouteInterpolationApi interface {
	CorrectCoordinate(ctx context.Context, c model.Coordinate, mode model.DrawingMode) (model.Coordinate, error)

	// InterpolateEmptySegments fills every empty segment's points,
	// concurrently, with all-or-first-error semantics (SPEC_FULL.md §4.6
	// step 5).
	InterpolateEmptySegments(ctx context.Context, sl *model.SegmentList) error
}

// ElevationApi is the elevation capability: look up elevation for each
// point lacking one. A point outside the loaded dataset is left without
// elevation.
type ElevationApi interface {
	AttachElevations(ctx context.Context, sl *model.SegmentList) error
}

// UserAuthApi resolves a bearer token to a user id. Returns an
// Authentication-kind error for missing/malformed/invalid tokens.
type UserAuthApi interface {
	Authenticate(ctx context.Context, token string) (model.UserId, error)
}

// ReservedUserIdCheckerApi reports whether id is on the reserved-word
// list, so routes never grant permissions to a name the system treats
// specially.
type ReservedUserIdCheckerApi interface {
	CheckIfReserved(ctx context.Context, id model.UserId) (bool, error)
}
