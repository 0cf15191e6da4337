package order

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
)

// Repository defines access to the upstream order endpoints.
type Repository interface {
	// Create submits a new order and returns what the API echoed back (at least orderId).
	Create(ctx context.Context, req CreateOrderRequest) (*Order, error)

	// List fetches one server-partitioned status view.
	List(ctx context.Context, view View) ([]Order, error)

	GetByOrderID(ctx context.Context, orderID string) (*Order, error)

	// Confirm moves a Pending order to Confirmed.
	Confirm(ctx context.Context, orderID string) error

	Cancel(ctx context.Context, orderID string) error

	// OpenInvoice streams the invoice document. The caller closes the body.
	OpenInvoice(ctx context.Context, invoiceURL string) (*http.Response, error)
}

var viewEndpoints = map[View]string{
	ViewPending:   "/order/pending-orders",
	ViewAccepted:  "/order/accepted-orders",
	ViewCancelled: "/order/cancelled-orders",
	ViewAll:       "/order/all-orders",
}

type backendRepo struct{ client *backend.Client }

func NewBackendRepository(client *backend.Client) Repository { return &backendRepo{client: client} }

func (r *backendRepo) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	var o Order
	if err := r.client.Post(ctx, "/order/add-order", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// orderList accepts a bare array or an {orders: [...]} object.
type orderList []Order

func (l *orderList) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Orders []Order `json:"orders"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return err
		}
		*l = wrapped.Orders
		return nil
	}
	var orders []Order
	if err := json.Unmarshal(b, &orders); err != nil {
		return err
	}
	*l = orders
	return nil
}

func (r *backendRepo) List(ctx context.Context, view View) ([]Order, error) {
	path, ok := viewEndpoints[view]
	if !ok {
		return nil, ErrUnknownView
	}
	var list orderList
	if err := r.client.Get(ctx, path, nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		return []Order{}, nil
	}
	return list, nil
}

func (r *backendRepo) GetByOrderID(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	if err := r.client.Get(ctx, "/order/order-by-orderid/"+url.PathEscape(orderID), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *backendRepo) Confirm(ctx context.Context, orderID string) error {
	return r.client.Patch(ctx, "/order/confirm-order/"+url.PathEscape(orderID), struct{}{}, nil)
}

func (r *backendRepo) Cancel(ctx context.Context, orderID string) error {
	return r.client.Patch(ctx, "/order/cancel-order/"+url.PathEscape(orderID), nil, nil)
}

func (r *backendRepo) OpenInvoice(ctx context.Context, invoiceURL string) (*http.Response, error) {
	return r.client.Open(ctx, invoiceURL)
}
