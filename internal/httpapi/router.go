package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/team-azb/route-bucket-backend-sub000/internal/usecase"
)

// NewRouter builds the full HTTP surface of SPEC_FULL.md §6: chi routing,
// request logging in the teacher's style, and bearer-token authentication
// applied globally (individual handlers enforce "required" via
// requireCaller).
func NewRouter(h *Handler, auth usecase.UserAuthApi) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(authenticate(auth))

	r.Route("/routes", func(r chi.Router) {
		r.Get("/", h.ListRoutes)
		r.Get("/search", h.SearchRoutes)
		r.Post("/", h.CreateRoute)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetRoute)
			r.Get("/gpx/", h.GetRouteGpx)
			r.Delete("/", h.DeleteRoute)

			r.Patch("/rename/", h.RenameRoute)
			r.Patch("/add/{pos}", h.AddPoint)
			r.Patch("/remove/{pos}", h.RemovePoint)
			r.Patch("/move/{pos}", h.MovePoint)
			r.Patch("/clear/", h.ClearRoute)
			r.Patch("/undo/", h.UndoOperation)
			r.Patch("/redo/", h.RedoOperation)

			r.Put("/permissions/", h.UpdatePermission)
			r.Delete("/permissions/", h.DeletePermission)
		})
	})

	return r
}
