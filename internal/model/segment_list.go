package model

import (
	"context"
	"math"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	"golang.org/x/sync/errgroup"
)

// IndexRange is a half-open [Start, End) range of segment indices.
type IndexRange struct {
	Start int
	End   int
}

func (r IndexRange) union(other IndexRange) IndexRange {
	return IndexRange{Start: min(r.Start, other.Start), End: max(r.End, other.End)}
}

// BoundingBox is the min/max latitude and longitude across a set of points.
type BoundingBox struct {
	MinLat, MaxLat Latitude
	MinLon, MaxLon Longitude
}

// ElevationGain is the pair of summed positive/negative consecutive
// elevation differences over all points of all segments.
type ElevationGain struct {
	Ascent  Distance
	Descent Distance
}

// SegmentList is the ordered list of segments making up a route. It tracks
// a dirty range (replacedRange) describing which indices were spliced
// since the last persist — nil when clean.
type SegmentList struct {
	segments      []*Segment
	replacedRange *IndexRange
}

func NewSegmentList(segments []*Segment) *SegmentList {
	return &SegmentList{segments: segments}
}

func (sl *SegmentList) Len() int             { return len(sl.segments) }
func (sl *SegmentList) At(i int) *Segment    { return sl.segments[i] }
func (sl *SegmentList) Segments() []*Segment { return sl.segments }

func (sl *SegmentList) ReplacedRange() *IndexRange { return sl.replacedRange }
func (sl *SegmentList) ClearDirty()                { sl.replacedRange = nil }

// Splice replaces seg_list[r.Start:r.End] with newSegs and extends the
// dirty range to cover both the removed and inserted indices.
func (sl *SegmentList) Splice(r IndexRange, newSegs []*Segment) {
	tail := append([]*Segment{}, sl.segments[r.End:]...)
	head := append([]*Segment{}, sl.segments[:r.Start]...)
	sl.segments = append(append(head, newSegs...), tail...)

	affected := IndexRange{Start: r.Start, End: max(r.End, r.Start+len(newSegs))}
	if sl.replacedRange == nil {
		sl.replacedRange = &affected
	} else {
		u := sl.replacedRange.union(affected)
		sl.replacedRange = &u
	}
}

// TotalDistance is the last point's cumulative distance, or 0 if empty.
func (sl *SegmentList) TotalDistance() Distance {
	if len(sl.segments) == 0 {
		return 0
	}
	return sl.segments[len(sl.segments)-1].GetDistance()
}

// CalcElevationGain sums positive/negative consecutive-elevation
// differences per segment, skipping points with no elevation, and combines
// the per-segment sums associatively (safe for parallel fold, though we
// just do it sequentially here since the per-segment cost is negligible).
func (sl *SegmentList) CalcElevationGain() ElevationGain {
	var total ElevationGain
	for _, seg := range sl.segments {
		var prev *Elevation
		for _, pt := range seg.Points() {
			e := pt.Elevation()
			if e == nil {
				continue
			}
			if prev != nil {
				diff := float64(e.Value() - prev.Value())
				if diff > 0 {
					total.Ascent += Distance(diff)
				} else {
					total.Descent += Distance(-diff)
				}
			}
			prev = e
		}
	}
	return total
}

// CalcBoundingBox returns the min/max lat/lon across all points of all
// segments. Fails on an empty list.
func (sl *SegmentList) CalcBoundingBox() (BoundingBox, error) {
	bb := BoundingBox{
		MinLat: Latitude(math.Inf(1)), MaxLat: Latitude(math.Inf(-1)),
		MinLon: Longitude(math.Inf(1)), MaxLon: Longitude(math.Inf(-1)),
	}
	found := false
	for _, seg := range sl.segments {
		for _, pt := range seg.Points() {
			found = true
			bb.MinLat = Latitude(math.Min(bb.MinLat.Value(), pt.Latitude().Value()))
			bb.MaxLat = Latitude(math.Max(bb.MaxLat.Value(), pt.Latitude().Value()))
			bb.MinLon = Longitude(math.Min(bb.MinLon.Value(), pt.Longitude().Value()))
			bb.MaxLon = Longitude(math.Max(bb.MaxLon.Value(), pt.Longitude().Value()))
		}
	}
	if !found {
		return BoundingBox{}, apperr.New(apperr.Domain, "cannot calculate bounding box of an empty segment list")
	}
	return bb, nil
}

// GatherWaypoints returns each segment's start, in order.
func (sl *SegmentList) GatherWaypoints() []Coordinate {
	waypoints := make([]Coordinate, len(sl.segments))
	for i, seg := range sl.segments {
		waypoints[i] = seg.Start()
	}
	return waypoints
}

// IntoSegmentsInBetween drops the last segment, which by construction is a
// degenerate "point segment" whose start == goal == the final waypoint.
func (sl *SegmentList) IntoSegmentsInBetween() []*Segment {
	if len(sl.segments) == 0 {
		return nil
	}
	return sl.segments[:len(sl.segments)-1]
}

// AttachDistanceFromStart runs the two-phase parallel/scan/parallel
// algorithm of SPEC_FULL.md §4.3: (1) in parallel, segments lacking
// cumulative distance compute their own local distance; (2) a sequential
// left-to-right scan computes each segment's starting offset; (3) in
// parallel, each segment's points are shifted by its offset.
func (sl *SegmentList) AttachDistanceFromStart(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, seg := range sl.segments {
		seg := seg
		if seg.IsEmpty() {
			continue
		}
		needsCalc := seg.Points()[0].DistanceFromStart() == nil
		if !needsCalc {
			continue
		}
		g.Go(func() error {
			seg.CalcDistanceFromStart()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	offsets := make([]Distance, len(sl.segments))
	var running Distance
	for i, seg := range sl.segments {
		offsets[i] = running
		running = running.Add(seg.GetDistance())
	}

	g2, _ := errgroup.WithContext(ctx)
	for i, seg := range sl.segments {
		seg, offset := seg, offsets[i]
		if offset == 0 {
			continue
		}
		g2.Go(func() error {
			seg.SetDistanceOffset(offset)
			return nil
		})
	}
	return g2.Wait()
}
