package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
)

func TestSegment_SetPoints_OnceOnly(t *testing.T) {
	seg := NewEmptySegment(yokohama(t), tokyo(t), FollowRoad)
	require.NoError(t, seg.SetPoints([]Coordinate{yokohama(t), tokyo(t)}))

	err := seg.SetPoints([]Coordinate{yokohama(t), tokyo(t)})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Domain))
}

func TestSegment_GetDistance_EmptyIsZero(t *testing.T) {
	seg := NewEmptySegment(yokohama(t), tokyo(t), FollowRoad)
	assert.Equal(t, Distance(0), seg.GetDistance())
}

func TestSegment_CalcDistanceFromStart(t *testing.T) {
	seg := NewEmptySegment(yokohama(t), tokyo(t), FollowRoad)
	require.NoError(t, seg.SetPoints([]Coordinate{yokohama(t), tokyo(t)}))
	seg.CalcDistanceFromStart()
	assert.InDelta(t, 26936.426, seg.GetDistance().Value(), 1.0)
}

func TestSegment_SetDistanceOffset(t *testing.T) {
	seg := NewEmptySegment(yokohama(t), tokyo(t), FollowRoad)
	require.NoError(t, seg.SetPoints([]Coordinate{yokohama(t), tokyo(t)}))
	seg.CalcDistanceFromStart()
	before := seg.GetDistance()
	seg.SetDistanceOffset(Distance(1000))
	assert.InDelta(t, before.Value()+1000, seg.GetDistance().Value(), 1e-6)
}

func TestSegmentFromColumns_RoundTrip(t *testing.T) {
	seg := NewEmptySegment(yokohama(t), tokyo(t), FollowRoad)
	require.NoError(t, seg.SetPoints([]Coordinate{yokohama(t), tokyo(t)}))
	poly := seg.Polyline()

	reconstructed, err := SegmentFromColumns(seg.ID(), string(FollowRoad), poly)
	require.NoError(t, err)
	assert.True(t, seg.Equal(reconstructed))
}

func TestSegmentFromColumns_EmptyPolylineFails(t *testing.T) {
	_, err := SegmentFromColumns(NewSegmentId(), string(FollowRoad), "")
	require.Error(t, err)
}
