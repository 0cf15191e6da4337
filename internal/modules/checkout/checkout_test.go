package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
	"github.com/georgemunganga/footcare-storefront/internal/middleware"
	"github.com/georgemunganga/footcare-storefront/internal/modules/catalog"
	"github.com/georgemunganga/footcare-storefront/internal/modules/order"
	"github.com/georgemunganga/footcare-storefront/internal/modules/selection"
	"github.com/georgemunganga/footcare-storefront/internal/notify"
	"github.com/georgemunganga/footcare-storefront/internal/store"
)

const (
	creamKey = "product_64b7f0c2a1b2c3d4e5f60718"
	aloeKey  = "product_64b7f0c2a1b2c3d4e5f60719"
)

type stubProducts []catalog.Product

func (s stubProducts) OrderFormProducts(context.Context) ([]catalog.Product, error) {
	return s, nil
}

type stubOrders struct {
	mu   sync.Mutex
	reqs []order.CreateOrderRequest
	err  error

	// entered and block, when set, hold Submit open
	entered chan struct{}
	block   chan struct{}
}

func (s *stubOrders) Submit(_ context.Context, _ string, req order.CreateOrderRequest) (*order.Order, error) {
	if s.block != nil {
		select {
		case s.entered <- struct{}{}:
		default:
		}
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.reqs = append(s.reqs, req)
	return &order.Order{OrderID: "ORD-1001", OrderStatus: order.StatusPending, TotalAmount: req.TotalAmount}, nil
}

func product(hex, title string, main, discount float64, stock int) catalog.Product {
	id, _ := primitive.ObjectIDFromHex(hex)
	return catalog.Product{ID: id, Title: title, MainPrice: main, DiscountAmount: discount, FinalPrice: main - discount, StockQuantity: stock}
}

func catalogProducts() stubProducts {
	return stubProducts{
		product("64b7f0c2a1b2c3d4e5f60718", "Anti Crack", 1000, 450, 3),
		product("64b7f0c2a1b2c3d4e5f60719", "Aloe", 650, 0, 10),
		product("64b7f0c2a1b2c3d4e5f6071a", "Honey", 800, 100, 7),
		product("64b7f0c2a1b2c3d4e5f6071b", "Vanilla", 700, 50, 5),
	}
}

type fixture struct {
	router *chi.Mux
	orders *stubOrders
	bus    *notify.Bus
}

func newFixture(t *testing.T, pack FamilyPack) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	orders := &stubOrders{}
	bus := notify.NewBus(logger)
	svc := NewService(catalogProducts(), orders, store.NewMemory(), pack, bus, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithSessionID(r.Context(), "sess-1")))
		})
	})
	NewHandler(svc).RegisterRoutes(r)
	return &fixture{router: r, orders: orders, bus: bus}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) draft(t *testing.T, rec *httptest.ResponseRecorder) DraftView {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var v DraftView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (f *fixture) bump(t *testing.T, key string, delta int) DraftView {
	t.Helper()
	body, _ := json.Marshal(quantityRequest{ProductKey: key, Delta: delta})
	return f.draft(t, f.do(http.MethodPost, "/api/checkout/draft/quantity", string(body)))
}

const validContact = `{"customerName":"Rahim Uddin","customerPhone":"017-1234-5678","deliverAddress":"House 4, Road 7","area":"Dhaka"}`

func TestDraft_StartsEmpty(t *testing.T) {
	f := newFixture(t, FamilyPack{})

	v := f.draft(t, f.do(http.MethodGet, "/api/checkout/draft", ""))
	assert.Len(t, v.Items, 4)
	assert.Empty(t, v.Lines)
	assert.Equal(t, selection.Totals{}, v.Totals)
	assert.False(t, v.CanSubmit)
}

func TestUpdateQuantity_PersistsAndClamps(t *testing.T) {
	f := newFixture(t, FamilyPack{})

	f.bump(t, aloeKey, 1)
	v := f.bump(t, aloeKey, 1)
	assert.Equal(t, selection.Totals{Subtotal: 1300, TotalItems: 2}, v.Totals)
	assert.True(t, v.CanSubmit)

	v = f.bump(t, creamKey, 50)
	assert.Equal(t, 3, v.Quantities[creamKey])

	v = f.draft(t, f.do(http.MethodGet, "/api/checkout/draft", ""))
	assert.Equal(t, 2, v.Quantities[aloeKey])
	assert.Equal(t, 3, v.Quantities[creamKey])
}

func TestUpdateQuantity_FamilyPackIsExclusive(t *testing.T) {
	f := newFixture(t, FamilyPack{Enabled: true, Discount: 750})

	v := f.bump(t, aloeKey, 2)
	require.Equal(t, selection.FamilyPackKey, v.Items[0].Key)

	v = f.bump(t, selection.FamilyPackKey, 1)
	assert.Equal(t, 0, v.Quantities[aloeKey])
	assert.Equal(t, 1, v.Quantities[selection.FamilyPackKey])
	assert.Equal(t, 1800.0, v.Totals.Subtotal)

	v = f.bump(t, creamKey, 1)
	assert.Equal(t, 0, v.Quantities[selection.FamilyPackKey])
}

func TestSetContact_NormalisesPhone(t *testing.T) {
	f := newFixture(t, FamilyPack{})

	v := f.draft(t, f.do(http.MethodPut, "/api/checkout/draft/contact", validContact))
	assert.Equal(t, "01712345678", v.Contact.CustomerPhone)

	rec := f.do(http.MethodPost, "/api/checkout/draft/validate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Valid)
}

func TestSubmit_InvalidNeverReachesOrders(t *testing.T) {
	f := newFixture(t, FamilyPack{})
	events, cancel := f.bus.Subscribe()
	defer cancel()

	f.bump(t, aloeKey, 1)
	f.do(http.MethodPut, "/api/checkout/draft/contact", `{"customerName":"Rahim","customerPhone":"017123456","deliverAddress":"House 4","area":"Dhaka"}`)

	rec := f.do(http.MethodPost, "/api/checkout/draft/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Enter a valid 11-digit mobile number (01XXXXXXXXX)")
	assert.Empty(t, f.orders.reqs)

	n := <-events
	assert.Equal(t, order.ValidationSummary, n.Message)
}

func TestSubmit_EmptySelectionBlocked(t *testing.T) {
	f := newFixture(t, FamilyPack{})
	f.do(http.MethodPut, "/api/checkout/draft/contact", validContact)

	rec := f.do(http.MethodPost, "/api/checkout/draft/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, f.orders.reqs)
}

func TestSubmit_SendsPayloadAndClearsDraft(t *testing.T) {
	f := newFixture(t, FamilyPack{})
	f.bump(t, aloeKey, 2)
	f.bump(t, creamKey, 1)
	f.do(http.MethodPut, "/api/checkout/draft/contact", validContact)

	rec := f.do(http.MethodPost, "/api/checkout/draft/submit", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, f.orders.reqs, 1)
	req := f.orders.reqs[0]
	assert.Equal(t, 1850.0, req.TotalAmount)
	assert.Equal(t, "01712345678", req.CustomerPhone)
	require.Len(t, req.Products, 2)
	assert.Equal(t, "Anti Crack", req.Products[0].ProductName)
	assert.Equal(t, 550.0, req.Products[0].ProductPrice)

	v := f.draft(t, f.do(http.MethodGet, "/api/checkout/draft", ""))
	assert.Empty(t, v.Lines)
	assert.Empty(t, v.Contact.CustomerName)
}

func TestSubmit_RepeatedClickDuringSubmissionIsRejected(t *testing.T) {
	f := newFixture(t, FamilyPack{})
	f.bump(t, aloeKey, 1)
	f.do(http.MethodPut, "/api/checkout/draft/contact", validContact)

	f.orders.entered = make(chan struct{}, 1)
	f.orders.block = make(chan struct{})
	first := make(chan *httptest.ResponseRecorder, 1)
	go func() { first <- f.do(http.MethodPost, "/api/checkout/draft/submit", "") }()
	<-f.orders.entered

	rec := f.do(http.MethodPost, "/api/checkout/draft/submit", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(f.orders.block)
	assert.Equal(t, http.StatusCreated, (<-first).Code)

	// the draft is gone, so a late click has nothing to resend
	rec = f.do(http.MethodPost, "/api/checkout/draft/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	f.orders.mu.Lock()
	defer f.orders.mu.Unlock()
	assert.Len(t, f.orders.reqs, 1)
}

func TestSubmit_FailureKeepsDraft(t *testing.T) {
	f := newFixture(t, FamilyPack{})
	f.orders.err = &backend.APIError{Status: http.StatusBadRequest, Message: "Product out of stock"}
	f.bump(t, aloeKey, 1)
	f.do(http.MethodPut, "/api/checkout/draft/contact", validContact)

	rec := f.do(http.MethodPost, "/api/checkout/draft/submit", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product out of stock")

	v := f.draft(t, f.do(http.MethodGet, "/api/checkout/draft", ""))
	assert.Equal(t, 1, v.Quantities[aloeKey])
}

func TestResetDraft(t *testing.T) {
	f := newFixture(t, FamilyPack{})
	f.bump(t, aloeKey, 1)

	rec := f.do(http.MethodDelete, "/api/checkout/draft", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	v := f.draft(t, f.do(http.MethodGet, "/api/checkout/draft", ""))
	assert.Equal(t, 0, v.Quantities[aloeKey])
}

func TestDistricts(t *testing.T) {
	f := newFixture(t, FamilyPack{})
	rec := f.do(http.MethodGet, "/api/checkout/districts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body["districts"], 64)
}
