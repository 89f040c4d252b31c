package model

import (
	"regexp"

	"github.com/google/uuid"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
)

type RouteId string

func NewRouteId() RouteId { return RouteId(uuid.NewString()) }

func (id RouteId) String() string { return string(id) }

type SegmentId string

func NewSegmentId() SegmentId { return SegmentId(uuid.NewString()) }

func (id SegmentId) String() string { return string(id) }

type OperationId string

func NewOperationId() OperationId { return OperationId(uuid.NewString()) }

func (id OperationId) String() string { return string(id) }

// UserId is a validated, Firebase-assigned user identifier: non-empty and
// restricted to the charset Firebase itself generates (original:
// model/user.rs).
type UserId string

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

func NewUserId(s string) (UserId, error) {
	if !userIDPattern.MatchString(s) {
		return "", apperr.Newf(apperr.Validation, "invalid user id %q", s)
	}
	return UserId(s), nil
}

func (id UserId) String() string { return string(id) }
