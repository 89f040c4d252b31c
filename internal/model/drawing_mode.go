package model

import "github.com/team-azb/route-bucket-backend-sub000/internal/apperr"

// DrawingMode controls how a segment's interior points are produced.
type DrawingMode string

const (
	FollowRoad DrawingMode = "follow_road"
	Freehand   DrawingMode = "freehand"
)

func ParseDrawingMode(s string) (DrawingMode, error) {
	switch DrawingMode(s) {
	case FollowRoad:
		return FollowRoad, nil
	case Freehand:
		return Freehand, nil
	default:
		return "", apperr.Newf(apperr.Validation, "invalid drawing mode %q", s)
	}
}

// SegmentTemplate is the minimal descriptor of a segment before
// interpolation: its endpoints and drawing mode. Expanding a template
// yields an empty Segment.
type SegmentTemplate struct {
	Start Coordinate
	Goal  Coordinate
	Mode  DrawingMode
}

func NewSegmentTemplate(start, goal Coordinate, mode DrawingMode) SegmentTemplate {
	return SegmentTemplate{Start: start, Goal: goal, Mode: mode}
}

func (t SegmentTemplate) Expand() *Segment {
	return NewEmptySegment(t.Start, t.Goal, t.Mode)
}
