package gpxexport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
)

func mustCoord(t *testing.T, lat, lon float64, elev *int32) model.Coordinate {
	t.Helper()
	c, err := model.NewCoordinate(lat, lon)
	require.NoError(t, err)
	if elev != nil {
		require.NoError(t, c.SetElevation(model.NewElevation(*elev)))
	}
	return *c
}

func fixtureRoute(t *testing.T) *model.Route {
	t.Helper()
	elev := int32(12)
	start := mustCoord(t, 35.0, 139.0, &elev)
	goal := mustCoord(t, 35.1, 139.1, nil)
	seg := model.NewEmptySegment(start, goal, model.FollowRoad)
	require.NoError(t, seg.SetPoints([]model.Coordinate{start, goal}))
	tail := model.NewEmptySegment(goal, goal, model.FollowRoad)

	route := model.NewRoute("sunday ride", model.UserId("owner"), true)
	route.SegList = model.NewSegmentList([]*model.Segment{seg, tail})
	return route
}

func TestFormat_ProducesNamespacedGpxDocument(t *testing.T) {
	route := fixtureRoute(t)
	f := NewFormatter()

	body, err := f.Format(route)
	require.NoError(t, err)

	doc := string(body)
	assert.Contains(t, doc, `xmlns="http://www.topografix.com/GPX/1/1"`)
	assert.Contains(t, doc, `xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`)
	assert.Contains(t, doc, `xsi:schemaLocation="http://www.topografix.com/GPX/1/1 http://www.topografix.com/GPX/11.xsd"`)
	assert.Contains(t, doc, "<name>sunday ride</name>")
	assert.True(t, strings.Contains(doc, `lat="35`) && strings.Contains(doc, `lon="139`))
	assert.Contains(t, doc, "<ele>12</ele>")
}

func TestFormat_OmitsElevationForPointsWithoutIt(t *testing.T) {
	route := fixtureRoute(t)
	f := NewFormatter()

	body, err := f.Format(route)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(string(body), "<ele>"))
}

func TestInjectNamespaces_FailsOnNonGpxDocument(t *testing.T) {
	_, err := injectNamespaces([]byte(`<?xml version="1.0"?><notgpx/>`))
	assert.Error(t, err)
}
