// Package routing implements the route-interpolation capability against
// an OSRM server, grounded on original_source/api/infrastructure/src/
// external/osrm.rs (request shape, nearest/route endpoints) and
// cnpryer-nextmv-sdk/measure/osrm's Client (sha1-keyed LRU response cache,
// bounded-concurrency fan-out).
package routing

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
)

// maxConcurrentInterpolations bounds how many segments are interpolated
// against OSRM at once.
const maxConcurrentInterpolations = 8

// OsrmApi implements usecase.RouteInterpolationApi against a bike-profile
// OSRM server.
type OsrmApi struct {
	apiRoot    string
	httpClient *http.Client
	cache      *lru.Cache[string, []byte]
}

// NewOsrmApi builds an OsrmApi rooted at apiRoot (e.g.
// "http://localhost:5000"). cacheSize <= 0 disables response caching.
func NewOsrmApi(apiRoot string, cacheSize int) *OsrmApi {
	api := &OsrmApi{apiRoot: apiRoot, httpClient: http.DefaultClient}
	if cacheSize > 0 {
		cache, err := lru.New[string, []byte](cacheSize)
		if err == nil {
			api.cache = cache
		}
	}
	return api
}

func (a *OsrmApi) get(ctx context.Context, service, args string) ([]byte, error) {
	uri := fmt.Sprintf("%s/%s/v1/bike/%s", a.apiRoot, service, args)

	var key string
	if a.cache != nil {
		/* #nosec G401 -- cache key shortening only, not a security boundary */
		key = fmt.Sprintf("%x", sha1.Sum([]byte(uri)))
		if body, ok := a.cache.Get(key); ok {
			return body, nil
		}
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, fmt.Sprintf("failed to parse OSRM url %q", uri), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to build OSRM request", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, fmt.Sprintf("failed to request %s", uri), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to read OSRM response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.External, "OSRM returned status %d for %s: %s", resp.StatusCode, uri, body)
	}

	if a.cache != nil {
		a.cache.Add(key, body)
	}
	return body, nil
}

type nearestResponse struct {
	Waypoints []struct {
		Location [2]float64 `json:"location"`
	} `json:"waypoints"`
}

// CorrectCoordinate snaps c onto the nearest road node for FollowRoad, and
// passes it through unchanged for Freehand.
func (a *OsrmApi) CorrectCoordinate(ctx context.Context, c model.Coordinate, mode model.DrawingMode) (model.Coordinate, error) {
	if mode == model.Freehand {
		return c, nil
	}

	body, err := a.get(ctx, "nearest", fmt.Sprintf("%f,%f", c.Longitude().Value(), c.Latitude().Value()))
	if err != nil {
		return model.Coordinate{}, err
	}

	var parsed nearestResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Waypoints) == 0 {
		return model.Coordinate{}, apperr.New(apperr.External, "malformed OSRM nearest response")
	}
	loc := parsed.Waypoints[0].Location
	corrected, err := model.NewCoordinate(loc[1], loc[0])
	if err != nil {
		return model.Coordinate{}, err
	}
	return *corrected, nil
}

type routeResponse struct {
	Routes []struct {
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// InterpolateEmptySegments fills every segment with no points yet,
// concurrently, stopping at the first failure.
func (a *OsrmApi) InterpolateEmptySegments(ctx context.Context, sl *model.SegmentList) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentInterpolations)

	for i := 0; i < sl.Len(); i++ {
		seg := sl.At(i)
		if !seg.IsEmpty() {
			continue
		}
		group.Go(func() error {
			return a.interpolateSegment(ctx, seg)
		})
	}
	return group.Wait()
}

func (a *OsrmApi) interpolateSegment(ctx context.Context, seg *model.Segment) error {
	if seg.Mode() == model.Freehand {
		return seg.SetPoints([]model.Coordinate{seg.Start(), seg.Goal()})
	}

	encoded := model.EncodePolyline([]model.Coordinate{seg.Start(), seg.Goal()})
	body, err := a.get(ctx, "route", fmt.Sprintf("polyline(%s)?overview=full", url.QueryEscape(encoded)))
	if err != nil {
		return err
	}

	var parsed routeResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Routes) == 0 {
		return apperr.New(apperr.External, "malformed OSRM route response")
	}

	points, err := model.DecodePolyline(parsed.Routes[0].Geometry)
	if err != nil {
		return err
	}
	return seg.SetPoints(points)
}
