package model

// PermissionType ranks a user's access to a route. None < Viewer < Editor
// < Owner; Owner is implicit for user_id == route.owner_id and is never
// itself stored in the permissions table.
type PermissionType int

const (
	PermissionNone PermissionType = iota
	PermissionViewer
	PermissionEditor
	PermissionOwner
)

func (t PermissionType) String() string {
	switch t {
	case PermissionNone:
		return "none"
	case PermissionViewer:
		return "viewer"
	case PermissionEditor:
		return "editor"
	case PermissionOwner:
		return "owner"
	default:
		return "unknown"
	}
}

func ParsePermissionType(s string) (PermissionType, bool) {
	switch s {
	case "viewer":
		return PermissionViewer, true
	case "editor":
		return PermissionEditor, true
	case "owner":
		return PermissionOwner, true
	default:
		return PermissionNone, false
	}
}

// Permission is one (route, user) grant. Only Viewer/Editor grants are
// ever stored; Owner and None are derived, never persisted rows.
type Permission struct {
	RouteID        RouteId
	UserID         UserId
	PermissionType PermissionType
}

// EffectivePermission resolves the caller's permission on a route: Owner
// for the owner, the explicit grant if one exists, Viewer for public
// routes absent a grant, and None otherwise.
func EffectivePermission(info RouteInfo, userID *UserId, grant *Permission) PermissionType {
	if userID != nil && *userID == info.OwnerID {
		return PermissionOwner
	}
	if grant != nil {
		return grant.PermissionType
	}
	if info.IsPublic {
		return PermissionViewer
	}
	return PermissionNone
}
