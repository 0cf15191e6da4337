package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the storefront product routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)                              // GET /api/products?page=&limit=&sortBy=
		r.Get("/search", h.searchProducts)                      // GET /api/products/search?q=
		r.Get("/by-product-id/{productId}", h.getByProductID)   // GET /api/products/by-product-id/{productId}
		r.Get("/{id}", h.getProduct)                            // GET /api/products/{id}
	})
}

// RegisterAdminRoutes mounts product CRUD. r must already be behind the admin guard.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
}

func listQuery(r *http.Request) ListQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return ListQuery{Query: q.Get("q"), Page: page, Limit: limit, SortBy: q.Get("sortBy")}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	pg, err := h.service.ListProducts(r.Context(), listQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, pg)
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	pg, err := h.service.SearchProducts(r.Context(), listQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, pg)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) getByProductID(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProductByProductID(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "product deleted"})
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidInput):
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
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
