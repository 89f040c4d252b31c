package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
)

func mustCoord(t *testing.T, lat, lon float64) model.Coordinate {
	t.Helper()
	c, err := model.NewCoordinate(lat, lon)
	require.NoError(t, err)
	return *c
}

func TestCorrectCoordinate_PassesFreehandThroughWithoutRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	api := NewOsrmApi(srv.URL, 0)
	c := mustCoord(t, 35.0, 139.0)
	got, err := api.CorrectCoordinate(context.Background(), c, model.Freehand)
	require.NoError(t, err)
	assert.True(t, got.Equal(c))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestCorrectCoordinate_SnapsToNearestForFollowRoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/nearest/v1/bike/")
		w.Write([]byte(`{"waypoints":[{"location":[139.1,35.1]}]}`))
	}))
	defer srv.Close()

	api := NewOsrmApi(srv.URL, 0)
	c := mustCoord(t, 35.0, 139.0)
	got, err := api.CorrectCoordinate(context.Background(), c, model.FollowRoad)
	require.NoError(t, err)
	assert.InDelta(t, 35.1, got.Latitude().Value(), 1e-9)
	assert.InDelta(t, 139.1, got.Longitude().Value(), 1e-9)
}

func TestCorrectCoordinate_CachesRepeatedRequests(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"waypoints":[{"location":[139.1,35.1]}]}`))
	}))
	defer srv.Close()

	api := NewOsrmApi(srv.URL, 16)
	c := mustCoord(t, 35.0, 139.0)
	_, err := api.CorrectCoordinate(context.Background(), c, model.FollowRoad)
	require.NoError(t, err)
	_, err = api.CorrectCoordinate(context.Background(), c, model.FollowRoad)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestCorrectCoordinate_PropagatesOsrmErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down"))
	}))
	defer srv.Close()

	api := NewOsrmApi(srv.URL, 0)
	c := mustCoord(t, 35.0, 139.0)
	_, err := api.CorrectCoordinate(context.Background(), c, model.FollowRoad)
	assert.Error(t, err)
}

func TestInterpolateEmptySegments_FillsFromRouteGeometry(t *testing.T) {
	start := mustCoord(t, 35.0, 139.0)
	goal := mustCoord(t, 35.1, 139.1)
	geometry := model.EncodePolyline([]model.Coordinate{start, goal})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/route/v1/bike/")
		w.Write([]byte(`{"routes":[{"geometry":"` + geometry + `"}]}`))
	}))
	defer srv.Close()

	api := NewOsrmApi(srv.URL, 0)
	seg := model.NewEmptySegment(start, goal, model.FollowRoad)
	sl := model.NewSegmentList([]*model.Segment{seg})

	err := api.InterpolateEmptySegments(context.Background(), sl)
	require.NoError(t, err)
	assert.False(t, seg.IsEmpty())
	assert.Len(t, seg.Points(), 2)
}

func TestInterpolateEmptySegments_FreehandSkipsRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	start := mustCoord(t, 35.0, 139.0)
	goal := mustCoord(t, 35.1, 139.1)
	api := NewOsrmApi(srv.URL, 0)
	seg := model.NewEmptySegment(start, goal, model.Freehand)
	sl := model.NewSegmentList([]*model.Segment{seg})

	err := api.InterpolateEmptySegments(context.Background(), sl)
	require.NoError(t, err)
	assert.Equal(t, []model.Coordinate{start, goal}, seg.Points())
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestInterpolateEmptySegments_SkipsAlreadyFilledSegments(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"routes":[{"geometry":""}]}`))
	}))
	defer srv.Close()

	start := mustCoord(t, 35.0, 139.0)
	goal := mustCoord(t, 35.1, 139.1)
	seg := model.NewEmptySegment(start, goal, model.FollowRoad)
	require.NoError(t, seg.SetPoints([]model.Coordinate{start, goal}))

	api := NewOsrmApi(srv.URL, 0)
	sl := model.NewSegmentList([]*model.Segment{seg})
	err := api.InterpolateEmptySegments(context.Background(), sl)
	require.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(&hits))
}
