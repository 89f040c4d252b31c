package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
)

// querier is the subset of *pgxpool.Pool and pgx.Tx that repository
// queries need, so the same code path works whether or not it is running
// inside a transaction. Grounded on orangefrg-b11k/internal/pggeo's raw
// SQL style, generalized to be tx-agnostic.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Tx is the subset of pgx.Tx the usecase layer needs to hold across a
// load-mutate-persist edit: query access for the SELECT ... FOR UPDATE
// load, plus commit/rollback. A narrower interface than pgx.Tx itself so
// the usecase package can depend on it without importing pgx, and so
// tests can satisfy it with an in-memory fake.
type Tx interface {
	querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RouteRepository maps the Route aggregate onto the routes/operations/
// segments tables.
type RouteRepository struct {
	pool *pgxpool.Pool
}

func NewRouteRepository(pool *pgxpool.Pool) *RouteRepository {
	return &RouteRepository{pool: pool}
}

// BeginTx starts the single transaction each edit runs under.
func (r *RouteRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed to begin transaction", err)
	}
	return tx, nil
}

// Find loads a route without taking row locks, for read-only endpoints.
func (r *RouteRepository) Find(ctx context.Context, id model.RouteId) (*model.Route, error) {
	return r.load(ctx, r.pool, id, false)
}

// FindForUpdate loads a route within tx, taking "SELECT ... FOR UPDATE"
// row locks on all three tables so concurrent edits to the same route
// serialize (SPEC_FULL.md §5).
func (r *RouteRepository) FindForUpdate(ctx context.Context, tx Tx, id model.RouteId) (*model.Route, error) {
	return r.load(ctx, tx, id, true)
}

func (r *RouteRepository) load(ctx context.Context, q querier, id model.RouteId, forUpdate bool) (*model.Route, error) {
	lockClause := ""
	if forUpdate {
		lockClause = " FOR UPDATE"
	}

	info, err := r.findInfo(ctx, q, id, lockClause)
	if err != nil {
		return nil, err
	}

	opLog, err := r.findOpLog(ctx, q, id, lockClause)
	if err != nil {
		return nil, err
	}

	segList, err := r.findSegList(ctx, q, id, lockClause)
	if err != nil {
		return nil, err
	}

	return &model.Route{Info: *info, OpLog: opLog, SegList: segList}, nil
}

func (r *RouteRepository) findInfo(ctx context.Context, q querier, id model.RouteId, lockClause string) (*model.RouteInfo, error) {
	row := q.QueryRow(ctx, `
		SELECT id, name, owner_id, op_cursor, ascent, descent, total_distance, is_public, created_at, updated_at
		FROM routes WHERE id = $1`+lockClause, string(id))

	var info model.RouteInfo
	var idStr, ownerStr string
	if err := row.Scan(&idStr, &info.Name, &ownerStr, &info.OpCursor, &info.Ascent, &info.Descent,
		&info.TotalDistance, &info.IsPublic, &info.CreatedAt, &info.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Newf(apperr.ResourceNotFound, "route %s not found", id)
		}
		return nil, apperr.Wrap(apperr.Database, "failed to load route info", err)
	}
	info.ID = model.RouteId(idStr)
	info.OwnerID = model.UserId(ownerStr)
	return &info, nil
}

func (r *RouteRepository) findOpLog(ctx context.Context, q querier, id model.RouteId, lockClause string) ([]*model.Operation, error) {
	rows, err := q.Query(ctx, `
		SELECT id, code, pos, splice_index, mode, polyline
		FROM operations WHERE route_id = $1 ORDER BY index ASC`+lockClause, string(id))
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed to load operation log", err)
	}
	defer rows.Close()

	var opLog []*model.Operation
	for rows.Next() {
		var idStr, code, modeStr, polyline string
		var pos, spliceIndex int
		if err := rows.Scan(&idStr, &code, &pos, &spliceIndex, &modeStr, &polyline); err != nil {
			return nil, apperr.Wrap(apperr.Database, "failed to scan operation row", err)
		}
		op, err := operationFromColumns(idStr, code, pos, spliceIndex, modeStr, polyline)
		if err != nil {
			return nil, err
		}
		opLog = append(opLog, op)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed reading operation rows", err)
	}
	return opLog, nil
}

func (r *RouteRepository) findSegList(ctx context.Context, q querier, id model.RouteId, lockClause string) (*model.SegmentList, error) {
	rows, err := q.Query(ctx, `
		SELECT id, mode, polyline FROM segments WHERE route_id = $1 ORDER BY index ASC`+lockClause, string(id))
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed to load segment list", err)
	}
	defer rows.Close()

	var segments []*model.Segment
	for rows.Next() {
		var idStr, modeStr, polyline string
		if err := rows.Scan(&idStr, &modeStr, &polyline); err != nil {
			return nil, apperr.Wrap(apperr.Database, "failed to scan segment row", err)
		}
		seg, err := model.SegmentFromColumns(model.SegmentId(idStr), modeStr, polyline)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed reading segment rows", err)
	}
	return model.NewSegmentList(segments), nil
}

// FindAllInfo lists every route's info, public and private, newest first,
// for GET /routes/; the use case filters out what the caller may not see.
func (r *RouteRepository) FindAllInfo(ctx context.Context) ([]model.RouteInfo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, owner_id, op_cursor, ascent, descent, total_distance, is_public, created_at, updated_at
		FROM routes ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed to list routes", err)
	}
	defer rows.Close()
	return scanRouteInfos(rows)
}

// Search lists routes matching q, restricted to what the caller may see.
func (r *RouteRepository) Search(ctx context.Context, q model.RouteSearchQuery, callerID *model.UserId) ([]model.RouteInfo, error) {
	clauses := []string{"(is_public = TRUE OR owner_id = $1)"}
	args := []any{""}
	if callerID != nil {
		args[0] = string(*callerID)
	}

	argN := 2
	if q.OwnerID != nil {
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", argN))
		args = append(args, string(*q.OwnerID))
		argN++
	}
	if q.IsEditable != nil && *q.IsEditable {
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", argN))
		if callerID == nil {
			return nil, apperr.New(apperr.Validation, "is_editable filter requires authentication")
		}
		args = append(args, string(*callerID))
		argN++
	}

	sql := fmt.Sprintf(`
		SELECT id, name, owner_id, op_cursor, ascent, descent, total_distance, is_public, created_at, updated_at
		FROM routes WHERE %s ORDER BY created_at DESC OFFSET $%d LIMIT $%d`,
		strings.Join(clauses, " AND "), argN, argN+1)
	args = append(args, q.PageOffset, q.PageSize)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed to search routes", err)
	}
	defer rows.Close()
	return scanRouteInfos(rows)
}

func scanRouteInfos(rows pgx.Rows) ([]model.RouteInfo, error) {
	var infos []model.RouteInfo
	for rows.Next() {
		var info model.RouteInfo
		var idStr, ownerStr string
		if err := rows.Scan(&idStr, &info.Name, &ownerStr, &info.OpCursor, &info.Ascent, &info.Descent,
			&info.TotalDistance, &info.IsPublic, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Database, "failed to scan route info row", err)
		}
		info.ID = model.RouteId(idStr)
		info.OwnerID = model.UserId(ownerStr)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Database, "failed reading route info rows", err)
	}
	return infos, nil
}

// Create inserts a brand-new, empty route.
func (r *RouteRepository) Create(ctx context.Context, tx Tx, route *model.Route) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO routes (id, name, owner_id, op_cursor, ascent, descent, total_distance, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(route.Info.ID), route.Info.Name, string(route.Info.OwnerID), route.Info.OpCursor,
		route.Info.Ascent, route.Info.Descent, route.Info.TotalDistance, route.Info.IsPublic,
		route.Info.CreatedAt, route.Info.UpdatedAt)
	if err != nil {
		return apperr.Wrap(apperr.Database, "failed to insert route", err)
	}
	return nil
}

// Update persists the diff of an edit: routes row, a truncate-then-append
// onto operations, and a splice onto segments across the dirty range. All
// calls are expected to run inside tx, the ambient per-edit transaction.
func (r *RouteRepository) Update(ctx context.Context, tx Tx, route *model.Route) error {
	if err := r.updateRouteRow(ctx, tx, route.Info); err != nil {
		return err
	}
	if err := r.appendLastOperation(ctx, tx, route); err != nil {
		return err
	}
	if err := r.spliceSegments(ctx, tx, route.Info.ID, route.SegList); err != nil {
		return err
	}
	route.SegList.ClearDirty()
	return nil
}

func (r *RouteRepository) updateRouteRow(ctx context.Context, tx Tx, info model.RouteInfo) error {
	_, err := tx.Exec(ctx, `
		UPDATE routes SET name = $2, op_cursor = $3, ascent = $4, descent = $5, total_distance = $6,
			is_public = $7, updated_at = $8
		WHERE id = $1`,
		string(info.ID), info.Name, info.OpCursor, info.Ascent, info.Descent, info.TotalDistance,
		info.IsPublic, info.UpdatedAt)
	if err != nil {
		return apperr.Wrap(apperr.Database, "failed to update route row", err)
	}
	return nil
}

// appendLastOperation writes only the most recently pushed operation to
// the log, at index op_cursor-1, truncating any operations at indices >=
// that position first — this is the "only persist the last op when at the
// tip of history" rule from original_source's repository, and the
// truncate-on-append rule of SPEC_FULL.md §4.7. If op_cursor is behind
// len(op_log) (we're replaying history, e.g. after undo/redo with no new
// push), there's nothing new to append.
func (r *RouteRepository) appendLastOperation(ctx context.Context, tx Tx, route *model.Route) error {
	if route.Info.OpCursor != len(route.OpLog) {
		return nil
	}
	if route.Info.OpCursor == 0 {
		return nil
	}
	index := route.Info.OpCursor - 1
	op := route.OpLog[index]

	if _, err := tx.Exec(ctx, `DELETE FROM operations WHERE route_id = $1 AND index >= $2`,
		string(route.Info.ID), index); err != nil {
		return apperr.Wrap(apperr.Database, "failed to truncate operation log tail", err)
	}

	polyline := encodeOperationPolyline(op.OrgTemplates(), op.NewTemplates())
	_, err := tx.Exec(ctx, `
		INSERT INTO operations (route_id, index, id, code, pos, splice_index, mode, polyline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(route.Info.ID), index, string(op.ID()), operationCode(op.Kind()), op.Pos(), op.SpliceIndex(),
		string(operationMode(op)), polyline)
	if err != nil {
		return apperr.Wrap(apperr.Database, "failed to insert operation", err)
	}
	return nil
}

// spliceSegments replaces the segments rows covering sl's dirty range.
// Because (route_id, index) is the primary key, shifting the tail must
// move in the collision-avoiding direction before the insert: shift-right
// happens in descending index order, shift-left in ascending order.
// SPEC_FULL.md §4.7.
func (r *RouteRepository) spliceSegments(ctx context.Context, tx Tx, routeID model.RouteId, sl *model.SegmentList) error {
	dirty := sl.ReplacedRange()
	if dirty == nil {
		return nil
	}

	oldCount, err := r.countSegments(ctx, tx, routeID)
	if err != nil {
		return err
	}

	// The dirty range spans max(removed, inserted) indices from its start;
	// the row-count change tells the two apart.
	delta := sl.Len() - oldCount
	inserted := max(0, dirty.End-dirty.Start+min(delta, 0))
	removed := inserted - delta
	newSegs := sl.Segments()[dirty.Start : dirty.Start+inserted]
	tailStart := dirty.Start + removed

	if _, err := tx.Exec(ctx, `DELETE FROM segments WHERE route_id = $1 AND index >= $2 AND index < $3`,
		string(routeID), dirty.Start, tailStart); err != nil {
		return apperr.Wrap(apperr.Database, "failed to delete spliced segment range", err)
	}

	if delta > 0 {
		// Shift-right: descending index order avoids colliding with a row
		// that hasn't moved yet.
		for idx := oldCount - 1; idx >= tailStart; idx-- {
			if _, err := tx.Exec(ctx, `UPDATE segments SET index = index + $1 WHERE route_id = $2 AND index = $3`,
				delta, string(routeID), idx); err != nil {
				return apperr.Wrap(apperr.Database, "failed to shift segments right", err)
			}
		}
	} else if delta < 0 {
		// Shift-left: ascending index order, same reasoning in reverse.
		for idx := tailStart; idx < oldCount; idx++ {
			if _, err := tx.Exec(ctx, `UPDATE segments SET index = index + $1 WHERE route_id = $2 AND index = $3`,
				delta, string(routeID), idx); err != nil {
				return apperr.Wrap(apperr.Database, "failed to shift segments left", err)
			}
		}
	}

	for i, seg := range newSegs {
		index := dirty.Start + i
		_, err := tx.Exec(ctx, `
			INSERT INTO segments (route_id, index, id, mode, polyline) VALUES ($1, $2, $3, $4, $5)`,
			string(routeID), index, string(seg.ID()), string(seg.Mode()), seg.Polyline())
		if err != nil {
			return apperr.Wrap(apperr.Database, "failed to insert spliced segment", err)
		}
	}
	return nil
}

func (r *RouteRepository) countSegments(ctx context.Context, tx Tx, routeID model.RouteId) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM segments WHERE route_id = $1`, string(routeID)).Scan(&count)
	if err != nil {
		return 0, apperr.Wrap(apperr.Database, "failed to count segments", err)
	}
	return count, nil
}

// Delete cascades to operations, segments, then the routes row, the order
// SPEC_FULL.md §4.7 specifies.
func (r *RouteRepository) Delete(ctx context.Context, tx Tx, id model.RouteId) error {
	for _, table := range []string{"operations", "segments", "routes"} {
		column := "route_id"
		if table == "routes" {
			column = "id"
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, column), string(id)); err != nil {
			return apperr.Wrap(apperr.Database, fmt.Sprintf("failed to delete from %s", table), err)
		}
	}
	return nil
}

func operationCode(kind model.OperationKind) string {
	switch kind {
	case model.OpAdd:
		return "ad"
	case model.OpRemove:
		return "rm"
	default:
		return "mv"
	}
}

func operationKindFromCode(code string) (model.OperationKind, error) {
	switch code {
	case "ad":
		return model.OpAdd, nil
	case "rm":
		return model.OpRemove, nil
	case "mv":
		return model.OpMove, nil
	default:
		return "", apperr.Newf(apperr.Database, "invalid operation code %q", code)
	}
}

// operationMode returns the single drawing mode stored for op: taken from
// whichever template list is non-empty (new templates for add/move, org
// templates for a plain remove).
func operationMode(op *model.Operation) model.DrawingMode {
	if len(op.NewTemplates()) > 0 {
		return op.NewTemplates()[0].Mode
	}
	if len(op.OrgTemplates()) > 0 {
		return op.OrgTemplates()[0].Mode
	}
	return model.FollowRoad
}

func encodeOperationPolyline(org, new []model.SegmentTemplate) string {
	return model.EncodePolyline(templatesToCoords(org)) + " " + model.EncodePolyline(templatesToCoords(new))
}

func operationFromColumns(idStr, code string, pos, spliceIndex int, modeStr, polyline string) (*model.Operation, error) {
	kind, err := operationKindFromCode(code)
	if err != nil {
		return nil, err
	}
	mode, err := model.ParseDrawingMode(modeStr)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(polyline, " ", 2)
	if len(parts) != 2 {
		return nil, apperr.Newf(apperr.Database, "malformed operation polyline %q", polyline)
	}
	orgCoords, err := model.DecodePolyline(parts[0])
	if err != nil {
		return nil, err
	}
	newCoords, err := model.DecodePolyline(parts[1])
	if err != nil {
		return nil, err
	}
	org := coordsToTemplates(orgCoords, mode)
	new := coordsToTemplates(newCoords, mode)
	return model.NewOperation(model.OperationId(idStr), kind, pos, spliceIndex, org, new), nil
}

// templatesToCoords flattens a chain of templates into its waypoint list:
// the first template's start, then every template's goal. Templates
// produced by Operation construction always chain this way (each
// template's goal equals the next one's start).
func templatesToCoords(templates []model.SegmentTemplate) []model.Coordinate {
	if len(templates) == 0 {
		return nil
	}
	coords := make([]model.Coordinate, 0, len(templates)+1)
	coords = append(coords, templates[0].Start)
	for _, t := range templates {
		coords = append(coords, t.Goal)
	}
	return coords
}

func coordsToTemplates(coords []model.Coordinate, mode model.DrawingMode) []model.SegmentTemplate {
	if len(coords) < 2 {
		return nil
	}
	templates := make([]model.SegmentTemplate, 0, len(coords)-1)
	for i := 0; i < len(coords)-1; i++ {
		templates = append(templates, model.NewSegmentTemplate(coords[i], coords[i+1], mode))
	}
	return templates
}
