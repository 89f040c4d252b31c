package model

import (
	"encoding/json"
	"math"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	polyline "github.com/twpayne/go-polyline"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Coordinate is a single point of a route: a validated lat/lon pair with
// optional elevation and cumulative distance-from-start. Elevation may be
// set exactly once; distance-from-start is silently overwritable since it
// is recomputed on every edit (see SPEC_FULL.md §9, open question one).
type Coordinate struct {
	lat               Latitude
	lon               Longitude
	elevation         *Elevation
	distanceFromStart *Distance
}

func NewCoordinate(lat, lon float64) (*Coordinate, error) {
	validLat, err := NewLatitude(lat)
	if err != nil {
		return nil, err
	}
	validLon, err := NewLongitude(lon)
	if err != nil {
		return nil, err
	}
	return &Coordinate{lat: validLat, lon: validLon}, nil
}

func (c Coordinate) Latitude() Latitude   { return c.lat }
func (c Coordinate) Longitude() Longitude { return c.lon }

// Elevation returns nil when no elevation has been attached yet.
func (c Coordinate) Elevation() *Elevation { return c.elevation }

// SetElevation attaches an elevation. Fails with DomainError if one is
// already set: elevation, unlike distance-from-start, is write-once.
func (c *Coordinate) SetElevation(e Elevation) error {
	if c.elevation != nil {
		return apperr.New(apperr.Domain, "elevation is already set on this coordinate")
	}
	c.elevation = &e
	return nil
}

func (c Coordinate) DistanceFromStart() *Distance { return c.distanceFromStart }

// SetDistanceFromStart overwrites the cumulative distance unconditionally.
func (c *Coordinate) SetDistanceFromStart(d Distance) {
	c.distanceFromStart = &d
}

// Equal compares lat/lon only, matching the original's derive(PartialEq)
// on Coordinate which ignores elevation/distance for route-shape tests.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.lat == other.lat && c.lon == other.lon
}

// HaversineDistance returns the great-circle distance to other, in meters.
func (c Coordinate) HaversineDistance(other Coordinate) Distance {
	lat1, lat2 := c.lat.Value()*math.Pi/180, other.lat.Value()*math.Pi/180
	dLat := (other.lat.Value() - c.lat.Value()) * math.Pi / 180
	dLon := (other.lon.Value() - c.lon.Value()) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c2 := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return Distance(earthRadiusMeters * c2)
}

type coordinateWire struct {
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	Elevation         *int32   `json:"elevation,omitempty"`
	DistanceFromStart *float64 `json:"distance_from_start,omitempty"`
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	w := coordinateWire{Latitude: c.lat.Value(), Longitude: c.lon.Value()}
	if c.elevation != nil {
		v := c.elevation.Value()
		w.Elevation = &v
	}
	if c.distanceFromStart != nil {
		v := c.distanceFromStart.Value()
		w.DistanceFromStart = &v
	}
	return json.Marshal(w)
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var w coordinateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid coordinate payload", err)
	}
	coord, err := NewCoordinate(w.Latitude, w.Longitude)
	if err != nil {
		return err
	}
	if w.Elevation != nil {
		e := NewElevation(*w.Elevation)
		coord.elevation = &e
	}
	if w.DistanceFromStart != nil {
		d, err := NewDistance(*w.DistanceFromStart)
		if err != nil {
			return err
		}
		coord.distanceFromStart = &d
	}
	*c = *coord
	return nil
}

// EncodePolyline encodes coords with the Google polyline-5 codec. Per
// SPEC_FULL.md §3 the wire order is (lon, lat); elevation and distance are
// never encoded.
func EncodePolyline(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}
	pairs := make([][]float64, len(coords))
	for i, c := range coords {
		pairs[i] = []float64{c.lon.Value(), c.lat.Value()}
	}
	return string(polyline.EncodeCoords(pairs))
}

// DecodePolyline is the inverse of EncodePolyline.
func DecodePolyline(s string) ([]Coordinate, error) {
	if s == "" {
		return nil, nil
	}
	pairs, _, err := polyline.DecodeCoords([]byte(s))
	if err != nil {
		return nil, apperr.Wrap(apperr.Domain, "failed to decode polyline", err)
	}
	coords := make([]Coordinate, 0, len(pairs))
	for _, pair := range pairs {
		lon, lat := pair[0], pair[1]
		c, err := NewCoordinate(lat, lon)
		if err != nil {
			return nil, err
		}
		coords = append(coords, *c)
	}
	return coords, nil
}

// DecodeSinglePolylineCoordinate decodes s and returns its first point, or
// fails if the polyline is empty (SPEC_FULL.md §4.1).
func DecodeSinglePolylineCoordinate(s string) (*Coordinate, error) {
	coords, err := DecodePolyline(s)
	if err != nil {
		return nil, err
	}
	if len(coords) == 0 {
		return nil, apperr.New(apperr.Domain, "cannot take a single coordinate from an empty polyline")
	}
	return &coords[0], nil
}
