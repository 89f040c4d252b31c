package usecase

import "github.com/team-azb/route-bucket-backend-sub000/internal/model"

// RouteCreateRequest is the POST /routes/ body.
type RouteCreateRequest struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

type RouteCreateResponse struct {
	ID model.RouteId `json:"id"`
}

// RouteRenameRequest is the PATCH /routes/{id}/rename/ body.
type RouteRenameRequest struct {
	Name string `json:"name"`
}

// NewPointRequest is the shared body shape of add/move: a drawing mode
// and the coordinate the caller placed (pre-correction).
type NewPointRequest struct {
	Mode  model.DrawingMode `json:"mode"`
	Coord model.Coordinate  `json:"coord"`
}

// RemovePointRequest is the PATCH /routes/{id}/remove/{pos} body: only the
// drawing mode for the merged segment is supplied.
type RemovePointRequest struct {
	Mode model.DrawingMode `json:"mode"`
}

// UpdatePermissionRequest is the PUT /routes/{id}/permissions/ body.
type UpdatePermissionRequest struct {
	UserID         model.UserId `json:"user_id"`
	PermissionType string       `json:"permission_type"`
}

// DeletePermissionRequest is the DELETE /routes/{id}/permissions/ body.
type DeletePermissionRequest struct {
	UserID model.UserId `json:"user_id"`
}

// RouteDetail is the GET /routes/{id} response: RouteInfo plus the
// current waypoints/segments/derived totals.
type RouteDetail struct {
	model.RouteInfo
	Waypoints     []model.Coordinate  `json:"waypoints"`
	Segments      []*model.Segment    `json:"segments"`
	ElevationGain model.ElevationGain `json:"elevation_gain"`
	TotalDistance model.Distance      `json:"total_distance"`
}

// RouteOpResult is the response shape every mutating edit returns: the
// same waypoint/segment/gain/distance subset as RouteDetail, without
// RouteInfo.
type RouteOpResult struct {
	Waypoints     []model.Coordinate  `json:"waypoints"`
	Segments      []*model.Segment    `json:"segments"`
	ElevationGain model.ElevationGain `json:"elevation_gain"`
	TotalDistance model.Distance      `json:"total_distance"`
}

func toRouteDetail(r *model.Route) RouteDetail {
	return RouteDetail{
		RouteInfo:     r.Info,
		Waypoints:     r.SegList.GatherWaypoints(),
		Segments:      r.SegList.IntoSegmentsInBetween(),
		ElevationGain: r.SegList.CalcElevationGain(),
		TotalDistance: r.SegList.TotalDistance(),
	}
}

func toRouteOpResult(r *model.Route) RouteOpResult {
	return RouteOpResult{
		Waypoints:     r.SegList.GatherWaypoints(),
		Segments:      r.SegList.IntoSegmentsInBetween(),
		ElevationGain: r.SegList.CalcElevationGain(),
		TotalDistance: r.SegList.TotalDistance(),
	}
}
