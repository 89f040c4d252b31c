package model

import (
	"encoding/json"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
)

// Segment is a directed edge between two waypoints, with a drawing mode and
// a (possibly empty) sequence of interpolated points. See SPEC_FULL.md
// §4.2 for the invariants enforced here.
type Segment struct {
	id     SegmentId
	start  Coordinate
	goal   Coordinate
	mode   DrawingMode
	points []Coordinate
}

func NewEmptySegment(start, goal Coordinate, mode DrawingMode) *Segment {
	return &Segment{id: NewSegmentId(), start: start, goal: goal, mode: mode}
}

func (s *Segment) ID() SegmentId        { return s.id }
func (s *Segment) Start() Coordinate    { return s.start }
func (s *Segment) Goal() Coordinate     { return s.goal }
func (s *Segment) Mode() DrawingMode    { return s.mode }
func (s *Segment) Points() []Coordinate { return s.points }
func (s *Segment) IsEmpty() bool        { return len(s.points) == 0 }

// GetDistance returns the last point's cumulative distance, or 0 if the
// segment is empty or its points don't carry distance yet.
func (s *Segment) GetDistance() Distance {
	if len(s.points) == 0 {
		return 0
	}
	last := s.points[len(s.points)-1]
	if last.DistanceFromStart() == nil {
		return 0
	}
	return *last.DistanceFromStart()
}

// SetPoints fills in an empty segment's interior points. Fails with
// DomainError if the segment already has points (interpolated paths are
// immutable once set) or if the endpoints don't match start/goal.
func (s *Segment) SetPoints(points []Coordinate) error {
	if !s.IsEmpty() {
		return apperr.New(apperr.Domain, "cannot set_points on a segment which isn't empty")
	}
	if len(points) > 0 {
		if !points[0].Equal(s.start) {
			return apperr.New(apperr.Domain, "first point of segment must equal start")
		}
		if !points[len(points)-1].Equal(s.goal) {
			return apperr.New(apperr.Domain, "last point of segment must equal goal")
		}
	}
	s.points = points
	return nil
}

// CalcDistanceFromStart assigns cumulative haversine distance in-place,
// starting from 0 at the first point.
func (s *Segment) CalcDistanceFromStart() {
	if len(s.points) == 0 {
		return
	}
	zero := Distance(0)
	s.points[0].SetDistanceFromStart(zero)
	for i := 1; i < len(s.points); i++ {
		step := s.points[i-1].HaversineDistance(s.points[i])
		prev := *s.points[i-1].DistanceFromStart()
		s.points[i].SetDistanceFromStart(prev.Add(step))
	}
}

// SetDistanceOffset adds a constant to every point's cumulative distance;
// used to splice per-segment local distances into a global left-to-right
// scan (SPEC_FULL.md §4.3).
func (s *Segment) SetDistanceOffset(offset Distance) {
	for i := range s.points {
		cur := s.points[i].DistanceFromStart()
		var base Distance
		if cur != nil {
			base = *cur
		}
		s.points[i].SetDistanceFromStart(base.Add(offset))
	}
}

// ResetEndpoints replaces the endpoints (leaving nil args unchanged) and
// clears points, since a just-corrected template needs reinterpolation.
func (s *Segment) ResetEndpoints(newStart, newGoal *Coordinate) {
	if newStart != nil {
		s.start = *newStart
	}
	if newGoal != nil {
		s.goal = *newGoal
	}
	s.points = nil
}

// Equal compares segments ignoring id, matching the original's
// derivative(PartialEq) which skips the id field.
func (s *Segment) Equal(other *Segment) bool {
	if !s.start.Equal(other.start) || !s.goal.Equal(other.goal) || s.mode != other.mode {
		return false
	}
	if len(s.points) != len(other.points) {
		return false
	}
	for i := range s.points {
		if !s.points[i].Equal(other.points[i]) {
			return false
		}
	}
	return true
}

func (s *Segment) Template() SegmentTemplate {
	return SegmentTemplate{Start: s.start, Goal: s.goal, Mode: s.mode}
}

// SegmentFromColumns reconstructs a Segment from its three persisted
// columns: id, drawing mode, and the encoded polyline of points. Fails if
// the polyline decodes to zero points (a persisted segment is never
// recorded as empty).
func SegmentFromColumns(id SegmentId, modeStr, polylineStr string) (*Segment, error) {
	mode, err := ParseDrawingMode(modeStr)
	if err != nil {
		return nil, err
	}
	points, err := DecodePolyline(polylineStr)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, apperr.New(apperr.Domain, "cannot initialize a segment from an empty point list")
	}
	return &Segment{
		id:     id,
		start:  points[0],
		goal:   points[len(points)-1],
		mode:   mode,
		points: points,
	}, nil
}

// Polyline encodes the segment's points for persistence.
func (s *Segment) Polyline() string {
	return EncodePolyline(s.points)
}

type segmentWire struct {
	Points []Coordinate `json:"points"`
}

func (s *Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(segmentWire{Points: s.points})
}
