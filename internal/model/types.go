package model

import "github.com/team-azb/route-bucket-backend-sub000/internal/apperr"

// Latitude is a validated latitude in degrees, [-90, 90].
type Latitude float64

func NewLatitude(v float64) (Latitude, error) {
	if v < -90 || v > 90 {
		return 0, apperr.Newf(apperr.Validation, "latitude %v out of range [-90, 90]", v)
	}
	return Latitude(v), nil
}

func (l Latitude) Value() float64 { return float64(l) }

// Longitude is a validated longitude in degrees, [-180, 180].
type Longitude float64

func NewLongitude(v float64) (Longitude, error) {
	if v < -180 || v > 180 {
		return 0, apperr.Newf(apperr.Validation, "longitude %v out of range [-180, 180]", v)
	}
	return Longitude(v), nil
}

func (l Longitude) Value() float64 { return float64(l) }

// Distance is a non-negative length in meters.
type Distance float64

func NewDistance(v float64) (Distance, error) {
	if v < 0 {
		return 0, apperr.Newf(apperr.Validation, "distance %v must be non-negative", v)
	}
	return Distance(v), nil
}

func (d Distance) Value() float64 { return float64(d) }

func (d Distance) Add(other Distance) Distance { return d + other }

// Elevation is a signed elevation in whole meters.
type Elevation int32

func NewElevation(v int32) Elevation { return Elevation(v) }

func (e Elevation) Value() int32 { return int32(e) }
