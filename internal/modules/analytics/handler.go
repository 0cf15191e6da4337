package analytics

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
)

type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterAdminRoutes mounts the dashboard report behind the admin guard.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/analytics", h.report) // GET /api/admin/analytics?range=week | ?range=custom&from=2024-01-01&to=2024-01-31
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := ParseRange(q.Get("range"), q.Get("from"), q.Get("to"), h.service.Now())
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rep, err := h.service.Report(r.Context(), rng)
	if err != nil {
		respond(w, backend.StatusCode(err), map[string]string{"error": backend.UserMessage(err, "Unable to load analytics")})
		return
	}
	respond(w, http.StatusOK, rep)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
