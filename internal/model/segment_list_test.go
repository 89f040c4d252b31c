package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledSegment(t *testing.T, start, goal Coordinate, mode DrawingMode) *Segment {
	t.Helper()
	seg := NewEmptySegment(start, goal, mode)
	require.NoError(t, seg.SetPoints([]Coordinate{start, goal}))
	return seg
}

func TestSegmentList_TotalDistance_YokohamaToChibaViaTokyo(t *testing.T) {
	seg1 := filledSegment(t, yokohama(t), tokyo(t), FollowRoad)
	seg2 := filledSegment(t, tokyo(t), chiba(t), FollowRoad)
	sl := NewSegmentList([]*Segment{seg1, seg2})

	require.NoError(t, sl.AttachDistanceFromStart(context.Background()))

	assert.InDelta(t, 58759.974, sl.TotalDistance().Value(), 1.0)
}

func TestSegmentList_TotalDistance_Empty(t *testing.T) {
	sl := NewSegmentList(nil)
	assert.Equal(t, Distance(0), sl.TotalDistance())
}

func TestSegmentList_CalcElevationGain(t *testing.T) {
	y, tk := yokohama(t), tokyo(t)
	require.NoError(t, y.SetElevation(NewElevation(1)))
	require.NoError(t, tk.SetElevation(NewElevation(4)))
	seg := NewEmptySegment(y, tk, FollowRoad)
	require.NoError(t, seg.SetPoints([]Coordinate{y, tk}))
	sl := NewSegmentList([]*Segment{seg})

	gain := sl.CalcElevationGain()
	assert.Equal(t, Distance(3), gain.Ascent)
	assert.Equal(t, Distance(0), gain.Descent)
}

func TestSegmentList_CalcBoundingBox_EmptyFails(t *testing.T) {
	sl := NewSegmentList(nil)
	_, err := sl.CalcBoundingBox()
	require.Error(t, err)
}

func TestSegmentList_GatherWaypoints(t *testing.T) {
	seg1 := filledSegment(t, yokohama(t), tokyo(t), FollowRoad)
	seg2 := filledSegment(t, tokyo(t), chiba(t), FollowRoad)
	sl := NewSegmentList([]*Segment{seg1, seg2})

	waypoints := sl.GatherWaypoints()
	require.Len(t, waypoints, 2)
	assert.True(t, waypoints[0].Equal(yokohama(t)))
	assert.True(t, waypoints[1].Equal(tokyo(t)))
}

func TestSegmentList_IntoSegmentsInBetween_DropsLast(t *testing.T) {
	seg1 := filledSegment(t, yokohama(t), tokyo(t), FollowRoad)
	pointSeg := NewEmptySegment(tokyo(t), tokyo(t), FollowRoad)
	sl := NewSegmentList([]*Segment{seg1, pointSeg})

	between := sl.IntoSegmentsInBetween()
	require.Len(t, between, 1)
	assert.True(t, between[0].Equal(seg1))
}

func TestSegmentList_Splice_TracksDirtyRange(t *testing.T) {
	seg1 := filledSegment(t, yokohama(t), tokyo(t), FollowRoad)
	sl := NewSegmentList([]*Segment{seg1})

	newSeg := NewEmptySegment(tokyo(t), chiba(t), FollowRoad)
	sl.Splice(IndexRange{Start: 1, End: 1}, []*Segment{newSeg})

	require.NotNil(t, sl.ReplacedRange())
	assert.Equal(t, IndexRange{Start: 1, End: 2}, *sl.ReplacedRange())
	assert.Equal(t, 2, sl.Len())
}
