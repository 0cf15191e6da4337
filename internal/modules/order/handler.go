package order

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
)

// Handler exposes the admin order endpoints.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdminRoutes mounts the order views. r must already be behind the admin guard.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/pending", h.listView(ViewPending))     // GET  /api/admin/orders/pending
		r.Get("/accepted", h.listView(ViewAccepted))   // GET  /api/admin/orders/accepted
		r.Get("/cancelled", h.listView(ViewCancelled)) // GET  /api/admin/orders/cancelled
		r.Get("/all", h.listView(ViewAll))             // GET  /api/admin/orders/all
		r.Get("/{orderId}", h.getOrder)                // GET  /api/admin/orders/{orderId}
		r.Post("/{orderId}/confirm", h.confirmOrder)   // POST /api/admin/orders/{orderId}/confirm
		r.Post("/{orderId}/cancel", h.cancelOrder)     // POST /api/admin/orders/{orderId}/cancel {"confirmOrderId": ...}
		r.Get("/{orderId}/invoice", h.invoice)
		r.Get("/{orderId}/invoice/download", h.downloadInvoice)
	})
}

func (h *Handler) listView(view View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sv, err := h.service.ListView(r.Context(), view)
		if err != nil {
			h.respondError(w, err)
			return
		}
		h.respond(w, http.StatusOK, sv)
	}
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, d)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Confirm(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	res, err := h.service.Cancel(r.Context(), chi.URLParam(r, "orderId"), req.ConfirmOrderID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.InvoiceURL(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

func (h *Handler) downloadInvoice(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.OpenInvoice(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	defer f.Body.Close()

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Filename+`"`)
	if f.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if n, err := io.Copy(w, f.Body); err != nil {
		h.logger.Warn("Invoice stream interrupted",
			zap.String("file", f.Filename),
			zap.Int64("written", n),
			zap.Error(err),
		)
	}
}

// HTTPError maps an order workflow error onto a status code and JSON body.
// Checkout reuses it for submission failures.
func HTTPError(err error) (int, any) {
	var verrs ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, map[string]any{"error": ValidationSummary, "fields": verrs}
	case errors.Is(err, ErrNoProductsSelected):
		return http.StatusUnprocessableEntity, map[string]string{"error": "Please select at least one product"}
	case errors.Is(err, ErrActionNotAllowed), errors.Is(err, ErrSubmissionInFlight):
		return http.StatusConflict, map[string]string{"error": err.Error()}
	case errors.Is(err, ErrCancelNotConfirmed), errors.Is(err, ErrInvalidOrderID), errors.Is(err, ErrUnknownView):
		return http.StatusBadRequest, map[string]string{"error": err.Error()}
	case errors.Is(err, ErrInvoiceUnavailable):
		return http.StatusNotFound, map[string]string{"error": "Invoice not available for this order"}
	case backend.IsNotFound(err):
		return http.StatusNotFound, map[string]string{"error": "order not found"}
	default:
		return backend.StatusCode(err), map[string]string{"error": backend.UserMessage(err, "")}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status, body := HTTPError(err)
	h.respond(w, status, body)
}

func (h *Handler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("Failed to write response", zap.Int("status", status), zap.Error(err))
	}
}
