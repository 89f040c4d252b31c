package model

import (
	"time"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
)

// RouteInfo is the route's metadata plus cached totals, fully derivable
// from seg_list but persisted so reads don't need to recompute them.
type RouteInfo struct {
	ID            RouteId   `json:"id"`
	Name          string    `json:"name"`
	OwnerID       UserId    `json:"owner_id"`
	OpCursor      int       `json:"op_cursor"`
	Ascent        Distance  `json:"ascent"`
	Descent       Distance  `json:"descent"`
	TotalDistance Distance  `json:"total_distance"`
	IsPublic      bool      `json:"is_public"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Route is the aggregate: RouteInfo plus the full operation log and the
// derived SegmentList. It enforces the undo/redo invariants of
// SPEC_FULL.md §4.5: 0 <= OpCursor <= len(OpLog), and replaying
// OpLog[0:OpCursor] on an empty SegmentList always yields seg_list's
// template sequence.
type Route struct {
	Info    RouteInfo
	OpLog   []*Operation
	SegList *SegmentList
}

// NewRoute creates an empty route owned by ownerID.
func NewRoute(name string, ownerID UserId, isPublic bool) *Route {
	now := time.Now()
	return &Route{
		Info: RouteInfo{
			ID:        NewRouteId(),
			Name:      name,
			OwnerID:   ownerID,
			IsPublic:  isPublic,
			CreatedAt: now,
			UpdatedAt: now,
		},
		OpLog:   nil,
		SegList: NewSegmentList(nil),
	}
}

// PushOperation truncates the redo tail, appends op, applies it to
// seg_list, and advances op_cursor.
func (r *Route) PushOperation(op *Operation) {
	r.OpLog = append(r.OpLog[:r.Info.OpCursor], op)
	op.Apply(r.SegList)
	r.Info.OpCursor++
}

// UndoOperation reverses and reapplies OpLog[OpCursor-1], decrementing
// OpCursor. Fails InvalidOperation if there's nothing to undo.
func (r *Route) UndoOperation() error {
	if r.Info.OpCursor == 0 {
		return apperr.New(apperr.InvalidOperation, "cannot undo: operation log is already at its start")
	}
	r.Info.OpCursor--
	op := r.OpLog[r.Info.OpCursor]
	op.Reverse().Apply(r.SegList)
	return nil
}

// RedoOperation reapplies OpLog[OpCursor], incrementing OpCursor. Fails
// InvalidOperation if there's nothing to redo.
func (r *Route) RedoOperation() error {
	if r.Info.OpCursor == len(r.OpLog) {
		return apperr.New(apperr.InvalidOperation, "cannot redo: operation log is already at its end")
	}
	op := r.OpLog[r.Info.OpCursor]
	op.Apply(r.SegList)
	r.Info.OpCursor++
	return nil
}

// Clear removes every waypoint by repeatedly pushing a remove-at-0
// operation, the way an explicit "clear" edit is expressed in terms of
// the same reversible primitive as every other edit.
func (r *Route) Clear(mode DrawingMode) {
	for r.SegList.Len() > 0 {
		op, err := NewRemoveOperation(0, mode, r.SegList)
		if err != nil {
			// SegList.Len() > 0 guarantees pos=0 is always in range.
			panic(err)
		}
		r.PushOperation(op)
	}
}

// RecomputeTotals refreshes Info's cached totals from seg_list; called
// after every edit per SPEC_FULL.md §4.6 step 7 ("derived state").
func (r *Route) RecomputeTotals() {
	gain := r.SegList.CalcElevationGain()
	r.Info.Ascent = gain.Ascent
	r.Info.Descent = gain.Descent
	r.Info.TotalDistance = r.SegList.TotalDistance()
	r.Info.UpdatedAt = time.Now()
}
