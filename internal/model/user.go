package model

// User is the minimal identity the core needs: account management itself
// is out of scope (SPEC_FULL.md §1), but UserId appears throughout the
// permission and ownership model.
type User struct {
	ID   UserId
	Name string
}

// RouteSearchQuery backs GET /routes/search (SPEC_FULL.md §3.1).
type RouteSearchQuery struct {
	OwnerID    *UserId
	PageOffset int
	PageSize   int
	IsEditable *bool
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// NewRouteSearchQuery applies the default/max paging rules.
func NewRouteSearchQuery(ownerID *UserId, pageOffset, pageSize int, isEditable *bool) RouteSearchQuery {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if pageOffset < 0 {
		pageOffset = 0
	}
	return RouteSearchQuery{OwnerID: ownerID, PageOffset: pageOffset, PageSize: pageSize, IsEditable: isEditable}
}
