package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
	"github.com/georgemunganga/footcare-storefront/internal/middleware"
	"github.com/georgemunganga/footcare-storefront/internal/modules/catalog"
)

// Handler exposes cart, wishlist and page state. Routes must sit behind middleware.Session.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Post("/items", h.addItem) // {"productId": "...", "quantity": 1}
		r.Put("/items/{productId}", h.setQuantity)
		r.Delete("/items/{productId}", h.removeItem)
		r.Post("/toggle", h.toggle)
	})
	r.Route("/api/wishlist", func(r chi.Router) {
		r.Get("/", h.getWishlist)
		r.Post("/items", h.addWish)
		r.Delete("/items/{productId}", h.removeWish)
	})
	r.Route("/api/page", func(r chi.Router) {
		r.Get("/", h.getPage)
		r.Put("/", h.setPage)
		r.Delete("/", h.resetPage)
	})
}

type itemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func session(r *http.Request) string { return middleware.SessionID(r.Context()) }

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Cart(r.Context(), session(r))
	reply(w, v, err)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.service.Add(r.Context(), session(r), req.ProductID, req.Quantity)
	reply(w, v, err)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.service.SetQuantity(r.Context(), session(r), chi.URLParam(r, "productId"), req.Quantity)
	reply(w, v, err)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Remove(r.Context(), session(r), chi.URLParam(r, "productId"))
	reply(w, v, err)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Toggle(r.Context(), session(r))
	reply(w, v, err)
}

func (h *Handler) getWishlist(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Wishlist(r.Context(), session(r))
	reply(w, v, err)
}

func (h *Handler) addWish(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.service.AddToWishlist(r.Context(), session(r), req.ProductID)
	reply(w, v, err)
}

func (h *Handler) removeWish(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.RemoveFromWishlist(r.Context(), session(r), chi.URLParam(r, "productId"))
	reply(w, v, err)
}

func (h *Handler) getPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Page(r.Context(), session(r))
	reply(w, p, err)
}

func (h *Handler) setPage(w http.ResponseWriter, r *http.Request) {
	var req Page
	if !decode(w, r, &req) {
		return
	}
	p, err := h.service.SetPage(r.Context(), session(r), req.CurrentPage)
	reply(w, p, err)
}

func (h *Handler) resetPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.ResetPage(r.Context(), session(r))
	reply(w, p, err)
}

func reply(w http.ResponseWriter, body any, err error) {
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, body)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoSession), errors.Is(err, ErrInvalidPage), errors.Is(err, catalog.ErrInvalidID):
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrOutOfStock):
		respond(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotInCart):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case backend.IsNotFound(err):
		respond(w, http.StatusNotFound, map[string]string{"error": "product not found"})
	default:
		respond(w, backend.StatusCode(err), map[string]string{"error": backend.UserMessage(err, "")})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
