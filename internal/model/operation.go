package model

import "github.com/team-azb/route-bucket-backend-sub000/internal/apperr"

// OperationKind is the tag of a reversible Operation.
type OperationKind string

const (
	OpAdd    OperationKind = "add"
	OpRemove OperationKind = "remove"
	OpMove   OperationKind = "move"
)

func (k OperationKind) reversed() OperationKind {
	switch k {
	case OpAdd:
		return OpRemove
	case OpRemove:
		return OpAdd
	default:
		return OpMove
	}
}

// Operation is a reversible edit to a SegmentList: at SpliceIndex, it
// replaces the OrgTemplates with NewTemplates. See SPEC_FULL.md §4.4 for
// the branch-by-branch construction rules this file implements.
type Operation struct {
	id           OperationId
	kind         OperationKind
	pos          int
	spliceIndex  int
	orgTemplates []SegmentTemplate
	newTemplates []SegmentTemplate
}

func (op *Operation) ID() OperationId                 { return op.id }
func (op *Operation) Kind() OperationKind             { return op.kind }
func (op *Operation) Pos() int                        { return op.pos }
func (op *Operation) SpliceIndex() int                { return op.spliceIndex }
func (op *Operation) OrgTemplates() []SegmentTemplate { return op.orgTemplates }
func (op *Operation) NewTemplates() []SegmentTemplate { return op.newTemplates }

// NewOperation reconstructs an Operation from persisted fields (used by the
// repository when loading the operation log).
func NewOperation(id OperationId, kind OperationKind, pos, spliceIndex int, org, new []SegmentTemplate) *Operation {
	return &Operation{id: id, kind: kind, pos: pos, spliceIndex: spliceIndex, orgTemplates: org, newTemplates: new}
}

// NewAddOperation builds the Operation that inserts c at pos, branch by
// branch per SPEC_FULL.md §4.4.
func NewAddOperation(pos int, c Coordinate, mode DrawingMode, sl *SegmentList) (*Operation, error) {
	l := sl.Len()
	if pos > l {
		return nil, apperr.Newf(apperr.InvalidOperation, "add position %d out of range (len=%d)", pos, l)
	}

	op := &Operation{id: NewOperationId(), kind: OpAdd, pos: pos}

	switch {
	case pos == 0 && l == 0:
		op.orgTemplates = nil
		op.newTemplates = []SegmentTemplate{NewSegmentTemplate(c, c, mode)}
		op.spliceIndex = 0
	case pos == 0 && l > 0:
		head := sl.At(0).Start()
		op.orgTemplates = nil
		op.newTemplates = []SegmentTemplate{NewSegmentTemplate(c, head, mode)}
		op.spliceIndex = 0
	case pos > 0 && pos < l:
		prev := sl.At(pos - 1)
		next := sl.At(pos)
		op.orgTemplates = []SegmentTemplate{prev.Template()}
		op.newTemplates = []SegmentTemplate{
			NewSegmentTemplate(prev.Start(), c, mode),
			NewSegmentTemplate(c, next.Start(), mode),
		}
		op.spliceIndex = pos - 1
	default: // pos > 0 && pos == l
		prev := sl.At(pos - 1)
		op.orgTemplates = []SegmentTemplate{prev.Template()}
		op.newTemplates = []SegmentTemplate{
			NewSegmentTemplate(prev.Start(), c, mode),
			NewSegmentTemplate(c, c, mode),
		}
		op.spliceIndex = pos - 1
	}
	return op, nil
}

// NewRemoveOperation builds the Operation that removes the waypoint at pos.
func NewRemoveOperation(pos int, mode DrawingMode, sl *SegmentList) (*Operation, error) {
	l := sl.Len()
	if pos >= l {
		return nil, apperr.Newf(apperr.InvalidOperation, "remove position %d out of range (len=%d)", pos, l)
	}

	op := &Operation{id: NewOperationId(), kind: OpRemove, pos: pos}

	if pos == 0 {
		op.orgTemplates = []SegmentTemplate{sl.At(0).Template()}
		op.newTemplates = nil
		op.spliceIndex = 0
	} else {
		prev := sl.At(pos - 1)
		cur := sl.At(pos)
		op.orgTemplates = []SegmentTemplate{prev.Template(), cur.Template()}
		op.newTemplates = []SegmentTemplate{NewSegmentTemplate(prev.Start(), cur.Goal(), mode)}
		op.spliceIndex = pos - 1
	}
	return op, nil
}

// NewMoveOperation builds the Operation that relocates the waypoint at pos
// to c.
func NewMoveOperation(pos int, c Coordinate, mode DrawingMode, sl *SegmentList) (*Operation, error) {
	l := sl.Len()
	if pos >= l {
		return nil, apperr.Newf(apperr.InvalidOperation, "move position %d out of range (len=%d)", pos, l)
	}

	op := &Operation{id: NewOperationId(), kind: OpMove, pos: pos}

	nextStartOrC := func() Coordinate {
		if l > 1 {
			return sl.At(1).Start()
		}
		return c
	}

	if pos == 0 {
		op.orgTemplates = []SegmentTemplate{sl.At(0).Template()}
		op.newTemplates = []SegmentTemplate{NewSegmentTemplate(c, nextStartOrC(), mode)}
		op.spliceIndex = 0
	} else {
		prev := sl.At(pos - 1)
		cur := sl.At(pos)
		nextStart := c
		if pos+1 < l {
			nextStart = sl.At(pos + 1).Start()
		}
		op.orgTemplates = []SegmentTemplate{prev.Template(), cur.Template()}
		op.newTemplates = []SegmentTemplate{
			NewSegmentTemplate(prev.Start(), c, mode),
			NewSegmentTemplate(c, nextStart, mode),
		}
		op.spliceIndex = pos - 1
	}
	return op, nil
}

// Apply performs the splice this Operation describes against sl.
func (op *Operation) Apply(sl *SegmentList) {
	newSegs := make([]*Segment, len(op.newTemplates))
	for i, t := range op.newTemplates {
		newSegs[i] = t.Expand()
	}
	r := IndexRange{Start: op.spliceIndex, End: op.spliceIndex + len(op.orgTemplates)}
	sl.Splice(r, newSegs)
}

// Reverse returns the Operation that undoes op: org/new templates swap and
// Add<->Remove toggle (Move stays Move).
func (op *Operation) Reverse() *Operation {
	return &Operation{
		id:           NewOperationId(),
		kind:         op.kind.reversed(),
		pos:          op.pos,
		spliceIndex:  op.spliceIndex,
		orgTemplates: op.newTemplates,
		newTemplates: op.orgTemplates,
	}
}

// Equal compares operations ignoring id.
func (op *Operation) Equal(other *Operation) bool {
	if op.kind != other.kind || op.pos != other.pos || op.spliceIndex != other.spliceIndex {
		return false
	}
	return templatesEqual(op.orgTemplates, other.orgTemplates) && templatesEqual(op.newTemplates, other.newTemplates)
}

func templatesEqual(a, b []SegmentTemplate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].Goal.Equal(b[i].Goal) || a[i].Mode != b[i].Mode {
			return false
		}
	}
	return true
}

// TemplateSequence returns the (start, goal, mode) of every segment in sl,
// used to compare "template sequences" per the invariants in SPEC_FULL.md
// §8 without requiring interpolated points to match.
func TemplateSequence(sl *SegmentList) []SegmentTemplate {
	out := make([]SegmentTemplate, sl.Len())
	for i, seg := range sl.Segments() {
		out[i] = seg.Template()
	}
	return out
}
