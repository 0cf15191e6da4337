package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
	"github.com/georgemunganga/footcare-storefront/internal/middleware"
	"github.com/georgemunganga/footcare-storefront/internal/modules/order"
)

// Handler exposes the order form endpoints. Routes must sit behind middleware.Session.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/checkout", func(r chi.Router) {
		r.Get("/districts", h.districts)
		r.Get("/draft", h.getDraft)
		r.Delete("/draft", h.resetDraft)
		r.Post("/draft/quantity", h.updateQuantity) // {"productKey": "...", "delta": 1}
		r.Put("/draft/contact", h.setContact)
		r.Post("/draft/validate", h.validate)
		r.Post("/draft/submit", h.submit)
	})
}

type quantityRequest struct {
	ProductKey string `json:"productKey"`
	Delta      int    `json:"delta"`
}

func (h *Handler) districts(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string][]string{"districts": h.service.Districts()})
}

func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Draft(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, v)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	v, err := h.service.UpdateQuantity(r.Context(), middleware.SessionID(r.Context()), req.ProductKey, req.Delta)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, v)
}

func (h *Handler) setContact(w http.ResponseWriter, r *http.Request) {
	var c order.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	v, err := h.service.SetContact(r.Context(), middleware.SessionID(r.Context()), c)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, v)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Validate(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Submit(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) resetDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context(), middleware.SessionID(r.Context())); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNoSession) {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) || errors.Is(err, backend.ErrTransport) {
		respond(w, backend.StatusCode(err), map[string]string{"error": backend.UserMessage(err, "")})
		return
	}
	status, body := order.HTTPError(err)
	respond(w, status, body)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
