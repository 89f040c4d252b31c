package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	"github.com/team-azb/route-bucket-backend-sub000/internal/gpxexport"
	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
	"github.com/team-azb/route-bucket-backend-sub000/internal/repository"
	"github.com/team-azb/route-bucket-backend-sub000/internal/usecase"
)

// fakeTx/fakeRouteRepo/fakePermissionRepo/fakeInterpolation/fakeElevation
// below mirror internal/usecase's own test fakes, duplicated here since
// they're unexported in that package: this is a thin end-to-end slice
// through the real RouteUseCase pipeline, driven over HTTP.

type fakeTx struct{}

func (fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) { return nil, nil }
func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row        { return nil }
func (fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeRouteRepo struct {
	routes map[model.RouteId]*model.Route
}

func newFakeRouteRepo(routes ...*model.Route) *fakeRouteRepo {
	r := &fakeRouteRepo{routes: make(map[model.RouteId]*model.Route)}
	for _, route := range routes {
		r.routes[route.Info.ID] = route
	}
	return r
}

func (r *fakeRouteRepo) BeginTx(ctx context.Context) (repository.Tx, error) { return fakeTx{}, nil }

func (r *fakeRouteRepo) Find(ctx context.Context, id model.RouteId) (*model.Route, error) {
	route, ok := r.routes[id]
	if !ok {
		return nil, apperr.Newf(apperr.ResourceNotFound, "route %s not found", id)
	}
	return route, nil
}

func (r *fakeRouteRepo) FindForUpdate(ctx context.Context, tx repository.Tx, id model.RouteId) (*model.Route, error) {
	return r.Find(ctx, id)
}

func (r *fakeRouteRepo) FindAllInfo(ctx context.Context) ([]model.RouteInfo, error) {
	var infos []model.RouteInfo
	for _, route := range r.routes {
		infos = append(infos, route.Info)
	}
	return infos, nil
}

func (r *fakeRouteRepo) Search(ctx context.Context, q model.RouteSearchQuery, callerID *model.UserId) ([]model.RouteInfo, error) {
	return r.FindAllInfo(ctx)
}

func (r *fakeRouteRepo) Create(ctx context.Context, tx repository.Tx, route *model.Route) error {
	r.routes[route.Info.ID] = route
	return nil
}

func (r *fakeRouteRepo) Update(ctx context.Context, tx repository.Tx, route *model.Route) error {
	r.routes[route.Info.ID] = route
	return nil
}

func (r *fakeRouteRepo) Delete(ctx context.Context, tx repository.Tx, id model.RouteId) error {
	delete(r.routes, id)
	return nil
}

type fakePermissionRepo struct{}

func (fakePermissionRepo) AuthorizeUser(ctx context.Context, info model.RouteInfo, userID *model.UserId, target model.PermissionType) (bool, error) {
	return target <= model.EffectivePermission(info, userID, nil), nil
}
func (fakePermissionRepo) Upsert(ctx context.Context, tx repository.Tx, p model.Permission) error {
	return nil
}
func (fakePermissionRepo) Delete(ctx context.Context, tx repository.Tx, routeID model.RouteId, userID model.UserId) error {
	return nil
}

type fakeInterpolation struct{}

func (fakeInterpolation) CorrectCoordinate(ctx context.Context, c model.Coordinate, mode model.DrawingMode) (model.Coordinate, error) {
	return c, nil
}

func (fakeInterpolation) InterpolateEmptySegments(ctx context.Context, sl *model.SegmentList) error {
	for i := 0; i < sl.Len(); i++ {
		seg := sl.At(i)
		if seg.IsEmpty() {
			if err := seg.SetPoints([]model.Coordinate{seg.Start(), seg.Goal()}); err != nil {
				return err
			}
		}
	}
	return nil
}

type fakeElevation struct{}

func (fakeElevation) AttachElevations(ctx context.Context, sl *model.SegmentList) error { return nil }

type fakeReservedIDs struct{}

func (fakeReservedIDs) CheckIfReserved(ctx context.Context, id model.UserId) (bool, error) {
	return false, nil
}

// fakeAuth resolves "tok-<id>" to UserId(id), matching no real bearer
// scheme - just enough to exercise authenticate's wiring.
type fakeAuth struct{}

func (fakeAuth) Authenticate(ctx context.Context, token string) (model.UserId, error) {
	id, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return "", apperr.New(apperr.Authentication, "unrecognized token")
	}
	return model.UserId(id), nil
}

func newTestRouter(routes ...*model.Route) (http.Handler, *fakeRouteRepo) {
	repo := newFakeRouteRepo(routes...)
	uc := usecase.NewRouteUseCase(repo, fakePermissionRepo{}, fakeInterpolation{}, fakeElevation{}, fakeReservedIDs{})
	handler := NewHandler(uc, gpxexport.NewFormatter())
	return NewRouter(handler, fakeAuth{}), repo
}

func doRequest(t *testing.T, router http.Handler, method, path, bearer string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateRoute_RequiresAuth(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(t, router, http.MethodPost, "/routes/", "", `{"name":"ride"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRoute_Succeeds(t *testing.T) {
	router, repo := newTestRouter()
	rec := doRequest(t, router, http.MethodPost, "/routes/", "tok-owner", `{"name":"ride","is_public":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp usecase.RouteCreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	_, ok := repo.routes[resp.ID]
	assert.True(t, ok)
}

func TestGetRoute_404ForUnknownID(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(t, router, http.MethodGet, "/routes/does-not-exist/", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRoute_ForbiddenOnPrivateRouteForStranger(t *testing.T) {
	route := model.NewRoute("secret", model.UserId("owner"), false)
	router, _ := newTestRouter(route)
	rec := doRequest(t, router, http.MethodGet, "/routes/"+route.Info.ID.String()+"/", "tok-stranger", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetRoute_OkForOwner(t *testing.T) {
	route := model.NewRoute("mine", model.UserId("owner"), false)
	router, _ := newTestRouter(route)
	rec := doRequest(t, router, http.MethodGet, "/routes/"+route.Info.ID.String()+"/", "tok-owner", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddPoint_ThenGetRoute_ReflectsEdit(t *testing.T) {
	route := model.NewRoute("ride", model.UserId("owner"), true)
	router, _ := newTestRouter(route)

	body := `{"mode":"follow_road","coord":{"latitude":35.46798,"longitude":139.62607}}`
	rec := doRequest(t, router, http.MethodPatch, "/routes/"+route.Info.ID.String()+"/add/0", "tok-owner", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/routes/"+route.Info.ID.String()+"/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var detail usecase.RouteDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Len(t, detail.Waypoints, 1)
}

func TestUpdatePermission_RejectsMalformedBody(t *testing.T) {
	route := model.NewRoute("ride", model.UserId("owner"), true)
	router, _ := newTestRouter(route)
	rec := doRequest(t, router, http.MethodPut, "/routes/"+route.Info.ID.String()+"/permissions/", "tok-owner", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRoute_RequiresAuth(t *testing.T) {
	route := model.NewRoute("ride", model.UserId("owner"), true)
	router, _ := newTestRouter(route)
	rec := doRequest(t, router, http.MethodDelete, "/routes/"+route.Info.ID.String()+"/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
