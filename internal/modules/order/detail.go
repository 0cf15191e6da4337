package order

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
	"github.com/georgemunganga/footcare-storefront/internal/middleware"
	"github.com/georgemunganga/footcare-storefront/internal/notify"
	"github.com/georgemunganga/footcare-storefront/internal/querycache"
)

// Detail is a single order plus what the admin may do with it.
type Detail struct {
	Order
	Actions            Actions `json:"actions"`
	ItemCount          int     `json:"itemCount"`
	Subtotal           float64 `json:"subtotal"`
	PaymentMethodLabel string  `json:"paymentMethodLabel"`
}

func NewDetail(o Order) *Detail {
	return &Detail{
		Order:              o,
		Actions:            AllowedActions(o),
		ItemCount:          o.ItemCount(),
		Subtotal:           round2(o.TotalAmount - o.ShippingCost + o.Discount),
		PaymentMethodLabel: paymentMethodLabel(o.PaymentMethod),
	}
}

func paymentMethodLabel(m string) string {
	switch strings.ToLower(m) {
	case "cod":
		return "Cash on Delivery"
	case "":
		return "-"
	default:
		return m
	}
}

// ActionResult is returned by confirm and cancel. Redirect names the view the
// admin should land on, empty to stay on the detail view.
type ActionResult struct {
	Order        *Detail             `json:"order"`
	Redirect     string              `json:"redirect,omitempty"`
	Notification notify.Notification `json:"notification"`
}

// InvoiceFile is an open invoice download. Close Body when done.
type InvoiceFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

func InvoiceFilename(orderID string) string {
	return fmt.Sprintf("invoice_%s.pdf", orderID)
}

func detailKey(orderID string) string { return cachePrefix + "detail:" + orderID }

func (s *service) GetOrder(ctx context.Context, orderID string) (*Detail, error) {
	orderID, err := checkOrderID(orderID)
	if err != nil {
		return nil, err
	}
	o, err := querycache.Fetch(ctx, s.cache, detailKey(orderID), s.ttl, func(ctx context.Context) (*Order, error) {
		return s.repo.GetByOrderID(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return NewDetail(*o), nil
}

// current always reads through to the API; transitions must not act on a cached status.
func (s *service) current(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.GetByOrderID(ctx, orderID)
}

func (s *service) Confirm(ctx context.Context, orderID string) (*ActionResult, error) {
	orderID, err := checkOrderID(orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, orderID, transition{
		action:   "confirm",
		past:     "confirmed",
		allowed:  func(a Actions) bool { return a.CanConfirm },
		call:     s.repo.Confirm,
		redirect: "/api/admin/orders/" + string(ViewAccepted),
		success:  "Order confirmed successfully!",
		failure:  "Error confirming order. Please try again.",
	})
}

func (s *service) Cancel(ctx context.Context, orderID, confirmation string) (*ActionResult, error) {
	orderID, err := checkOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(confirmation) != orderID {
		return nil, ErrCancelNotConfirmed
	}
	return s.transition(ctx, orderID, transition{
		action:  "cancel",
		past:    "cancelled",
		allowed: func(a Actions) bool { return a.CanCancel },
		call:    s.repo.Cancel,
		success: "Order cancelled successfully!",
		failure: "Error cancelling order. Please try again.",
	})
}

type transition struct {
	action   string
	past     string
	allowed  func(Actions) bool
	call     func(ctx context.Context, orderID string) error
	redirect string
	success  string
	failure  string
}

// transition checks the order's live status, fires the call and re-fetches.
// Two admins acting at once still race upstream; the last write wins.
func (s *service) transition(ctx context.Context, orderID string, t transition) (*ActionResult, error) {
	o, err := s.current(ctx, orderID)
	if err != nil {
		middleware.RecordOrderTransition(t.action, "failed")
		s.notifier.Notify(ctx, notify.Error("Error", backend.UserMessage(err, t.failure)).ForOrder(orderID))
		return nil, err
	}
	if !t.allowed(AllowedActions(*o)) {
		middleware.RecordOrderTransition(t.action, "rejected")
		s.notifier.Notify(ctx, notify.Error("Error",
			fmt.Sprintf("Order #%s is %s and cannot be %s", orderID, o.OrderStatus, t.past)).ForOrder(orderID))
		return nil, fmt.Errorf("%w: %s is %s", ErrActionNotAllowed, orderID, o.OrderStatus)
	}

	if err := t.call(ctx, orderID); err != nil {
		middleware.RecordOrderTransition(t.action, "failed")
		s.logger.Warn("Order transition failed",
			zap.String("action", t.action),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		s.notifier.Notify(ctx, notify.Error("Error", backend.UserMessage(err, t.failure)).ForOrder(orderID))
		return nil, err
	}

	middleware.RecordOrderTransition(t.action, "ok")
	s.invalidate(ctx)
	n := s.notifier.Notify(ctx, notify.Success(t.success, fmt.Sprintf("Order #%s", orderID)).ForOrder(orderID))

	res := &ActionResult{Redirect: t.redirect, Notification: n}
	refreshed, err := s.current(ctx, orderID)
	if err != nil {
		// The transition went through; the refetch is best effort.
		s.logger.Warn("Refetch after transition failed", zap.String("order_id", orderID), zap.Error(err))
		res.Order = NewDetail(*o)
		return res, nil
	}
	res.Order = NewDetail(*refreshed)
	return res, nil
}

func (s *service) invoiceOrder(ctx context.Context, orderID string) (*Detail, error) {
	d, err := s.GetOrder(ctx, orderID)
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Error", backend.UserMessage(err, "")).ForOrder(orderID))
		return nil, err
	}
	if d.InvoiceURL != "" {
		if _, err := backend.CheckURL(d.InvoiceURL); err != nil {
			s.logger.Warn("Ignoring unsupported invoice URL", zap.String("order_id", d.OrderID), zap.Error(err))
			d.InvoiceURL = ""
		}
	}
	if d.InvoiceURL == "" {
		s.notifier.Notify(ctx, notify.Error("Error", "Invoice not available for this order").ForOrder(d.OrderID))
		return nil, ErrInvoiceUnavailable
	}
	return d, nil
}

func (s *service) InvoiceURL(ctx context.Context, orderID string) (string, error) {
	d, err := s.invoiceOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	return d.InvoiceURL, nil
}

func (s *service) OpenInvoice(ctx context.Context, orderID string) (*InvoiceFile, error) {
	d, err := s.invoiceOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp, err := s.repo.OpenInvoice(ctx, d.InvoiceURL)
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Error", "Failed to download invoice. Please try again.").ForOrder(d.OrderID))
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}
	s.notifier.Notify(ctx, notify.Success("Invoice download started!", InvoiceFilename(d.OrderID)).ForOrder(d.OrderID))
	return &InvoiceFile{
		Filename:    InvoiceFilename(d.OrderID),
		ContentType: contentType,
		Size:        resp.ContentLength,
		Body:        resp.Body,
	}, nil
}
