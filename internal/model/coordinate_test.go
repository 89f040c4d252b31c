package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
)

func mustCoord(t *testing.T, lat, lon float64) Coordinate {
	t.Helper()
	c, err := NewCoordinate(lat, lon)
	require.NoError(t, err)
	return *c
}

func yokohama(t *testing.T) Coordinate { return mustCoord(t, 35.46798, 139.62607) }
func tokyo(t *testing.T) Coordinate    { return mustCoord(t, 35.68048, 139.76906) }
func chiba(t *testing.T) Coordinate    { return mustCoord(t, 35.61311, 140.11135) }

func TestNewCoordinate_BoundaryValidation(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
	}{
		{"lat too high", 90.1, 0},
		{"lat too low", -90.1, 0},
		{"lon too high", 0, 180.1},
		{"lon too low", 0, -180.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCoordinate(tc.lat, tc.lon)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.Validation))
		})
	}
}

func TestCoordinate_SetElevation_OnceOnly(t *testing.T) {
	c := yokohama(t)
	require.NoError(t, c.SetElevation(NewElevation(1)))
	err := c.SetElevation(NewElevation(2))
	require.Error(t, err)
	assert.Equal(t, int32(1), c.Elevation().Value())
}

func TestCoordinate_SetDistanceFromStart_Overwritable(t *testing.T) {
	c := yokohama(t)
	c.SetDistanceFromStart(Distance(10))
	c.SetDistanceFromStart(Distance(20))
	require.NotNil(t, c.DistanceFromStart())
	assert.Equal(t, 20.0, c.DistanceFromStart().Value())
}

func TestHaversineDistance_YokohamaToTokyo(t *testing.T) {
	d := yokohama(t).HaversineDistance(tokyo(t))
	assert.InDelta(t, 26936.426, d.Value(), 1.0)
}

func TestHaversineDistance_TokyoToChiba(t *testing.T) {
	d := tokyo(t).HaversineDistance(chiba(t))
	assert.InDelta(t, 31823.548, d.Value(), 1.0)
}

func TestPolyline_RoundTrip(t *testing.T) {
	coords := []Coordinate{yokohama(t), tokyo(t), chiba(t)}
	encoded := EncodePolyline(coords)
	decoded, err := DecodePolyline(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(coords))
	for i := range coords {
		assert.InDelta(t, coords[i].Latitude().Value(), decoded[i].Latitude().Value(), 1e-5)
		assert.InDelta(t, coords[i].Longitude().Value(), decoded[i].Longitude().Value(), 1e-5)
	}
}

func TestDecodePolyline_Empty(t *testing.T) {
	decoded, err := DecodePolyline("")
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeSinglePolylineCoordinate_FailsOnEmpty(t *testing.T) {
	_, err := DecodeSinglePolylineCoordinate("")
	require.Error(t, err)
}
