package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	"github.com/team-azb/route-bucket-backend-sub000/internal/gpxexport"
	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
	"github.com/team-azb/route-bucket-backend-sub000/internal/usecase"
)

// Handler wires the route use case and GPX formatter to the HTTP surface
// of SPEC_FULL.md §6.
type Handler struct {
	routes *usecase.RouteUseCase
	gpx    *gpxexport.Formatter
}

func NewHandler(routes *usecase.RouteUseCase, gpx *gpxexport.Formatter) *Handler {
	return &Handler{routes: routes, gpx: gpx}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid request body", err)
	}
	return nil
}

func routeIDParam(r *http.Request) model.RouteId {
	return model.RouteId(chi.URLParam(r, "id"))
}

func posParam(r *http.Request) (int, error) {
	pos, err := strconv.Atoi(chi.URLParam(r, "pos"))
	if err != nil {
		return 0, apperr.New(apperr.Validation, "pos must be an integer")
	}
	return pos, nil
}

func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	infos, err := h.routes.FindAll(r.Context(), callerFromContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *Handler) SearchRoutes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var ownerID *model.UserId
	if v := q.Get("owner_id"); v != "" {
		id := model.UserId(v)
		ownerID = &id
	}
	var isEditable *bool
	if v := q.Get("is_editable"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, apperr.New(apperr.Validation, "is_editable must be a boolean"))
			return
		}
		isEditable = &b
	}
	pageOffset, pageSize := 0, 0
	if v := q.Get("page_offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, apperr.New(apperr.Validation, "page_offset must be an integer"))
			return
		}
		pageOffset = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, apperr.New(apperr.Validation, "page_size must be an integer"))
			return
		}
		pageSize = n
	}

	query := model.NewRouteSearchQuery(ownerID, pageOffset, pageSize, isEditable)
	infos, err := h.routes.Search(r.Context(), query, callerFromContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *Handler) GetRoute(w http.ResponseWriter, r *http.Request) {
	detail, err := h.routes.Find(r.Context(), routeIDParam(r), callerFromContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) GetRouteGpx(w http.ResponseWriter, r *http.Request) {
	route, err := h.routes.FindForGpxExport(r.Context(), routeIDParam(r), callerFromContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := h.gpx.Format(route)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/gpx+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.gpx"`, route.Info.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req usecase.RouteCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.routes.Create(r.Context(), caller, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) RenameRoute(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req usecase.RouteRenameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	info, err := h.routes.Rename(r.Context(), routeIDParam(r), &caller, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) AddPoint(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pos, err := posParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req usecase.NewPointRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.routes.AddPoint(r.Context(), routeIDParam(r), &caller, pos, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) RemovePoint(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pos, err := posParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req usecase.RemovePointRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.routes.RemovePoint(r.Context(), routeIDParam(r), &caller, pos, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) MovePoint(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pos, err := posParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req usecase.NewPointRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.routes.MovePoint(r.Context(), routeIDParam(r), &caller, pos, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ClearRoute(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.routes.ClearRoute(r.Context(), routeIDParam(r), &caller, model.FollowRoad)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) UndoOperation(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.routes.UndoOperation(r.Context(), routeIDParam(r), &caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) RedoOperation(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.routes.RedoOperation(r.Context(), routeIDParam(r), &caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.routes.Delete(r.Context(), routeIDParam(r), &caller); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req usecase.UpdatePermissionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.routes.UpdatePermission(r.Context(), routeIDParam(r), &caller, req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req usecase.DeletePermissionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.routes.DeletePermission(r.Context(), routeIDParam(r), &caller, req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
