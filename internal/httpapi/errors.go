package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
)

// kindToStatus maps an AppError Kind to the HTTP status SPEC_FULL.md §7
// specifies.
func kindToStatus(kind apperr.Kind) int {
	switch kind {
	case apperr.Authentication:
		return http.StatusUnauthorized
	case apperr.Authorization:
		return http.StatusForbidden
	case apperr.Validation, apperr.InvalidOperation:
		return http.StatusBadRequest
	case apperr.ResourceNotFound:
		return http.StatusNotFound
	default: // Domain, Database, External
		return http.StatusInternalServerError
	}
}

// errorBody is the wire shape of every error response.
type errorBody struct {
	Message string `json:"message"`
}

// writeError serializes err as {"message": "..."}, with the
// Content-Type the spec requires (text/html, not application/json — a
// deliberate oddity carried over unchanged from the original).
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	body, _ := json.Marshal(errorBody{Message: err.Error()})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(kindToStatus(kind))
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.Domain, "failed to serialize response", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
