package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
	"github.com/georgemunganga/footcare-storefront/internal/middleware"
	"github.com/georgemunganga/footcare-storefront/internal/modules/catalog"
	"github.com/georgemunganga/footcare-storefront/internal/notify"
	"github.com/georgemunganga/footcare-storefront/internal/store"
)

const (
	creamID = "64b7f0c2a1b2c3d4e5f60718"
	aloeID  = "64b7f0c2a1b2c3d4e5f60719"
)

type stubCatalog map[string]catalog.Product

func (s stubCatalog) GetProduct(_ context.Context, id string) (*catalog.ProductView, error) {
	p, ok := s[id]
	if !ok {
		return nil, &backend.APIError{Status: http.StatusNotFound, Message: "Product not found"}
	}
	v := catalog.NewView(p)
	return &v, nil
}

func testCatalog() stubCatalog {
	mk := func(hex, title string, main, discount float64, stock int) catalog.Product {
		id, _ := primitive.ObjectIDFromHex(hex)
		return catalog.Product{ID: id, Title: title, MainPrice: main, DiscountAmount: discount, FinalPrice: main - discount, StockQuantity: stock}
	}
	return stubCatalog{
		creamID: mk(creamID, "Anti Crack", 1000, 450, 3),
		aloeID:  mk(aloeID, "Aloe", 650, 0, 0),
	}
}

func newRouter(t *testing.T, st store.Store) *chi.Mux {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := NewService(testCatalog(), st, notify.NewBus(logger), logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithSessionID(r.Context(), "sess-1")))
		})
	})
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) View {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var v View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestCart_AddMergesByID(t *testing.T) {
	r := newRouter(t, store.NewMemory())

	decodeView(t, do(r, http.MethodPost, "/api/cart/items", `{"productId":"`+creamID+`"}`))
	v := decodeView(t, do(r, http.MethodPost, "/api/cart/items", `{"productId":"`+creamID+`","quantity":2}`))

	require.Len(t, v.Items, 1)
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.Equal(t, 550.0, v.Items[0].Price)
	assert.Equal(t, 3, v.TotalItems)
	assert.Equal(t, 1650.0, v.Subtotal)
}

func TestCart_AddRejectsOutOfStockAndUnknown(t *testing.T) {
	r := newRouter(t, store.NewMemory())

	rec := do(r, http.MethodPost, "/api/cart/items", `{"productId":"`+aloeID+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, http.MethodPost, "/api/cart/items", `{"productId":"64b7f0c2a1b2c3d4e5f6071f"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_SetQuantityAndRemove(t *testing.T) {
	r := newRouter(t, store.NewMemory())
	do(r, http.MethodPost, "/api/cart/items", `{"productId":"`+creamID+`"}`)

	v := decodeView(t, do(r, http.MethodPut, "/api/cart/items/"+creamID, `{"quantity":5}`))
	assert.Equal(t, 5, v.Items[0].Quantity)

	v = decodeView(t, do(r, http.MethodPut, "/api/cart/items/"+creamID, `{"quantity":0}`))
	assert.Empty(t, v.Items)

	rec := do(r, http.MethodPut, "/api/cart/items/"+creamID, `{"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	do(r, http.MethodPost, "/api/cart/items", `{"productId":"`+creamID+`"}`)
	v = decodeView(t, do(r, http.MethodDelete, "/api/cart/items/"+creamID, ""))
	assert.Empty(t, v.Items)
}

func TestCart_Toggle(t *testing.T) {
	r := newRouter(t, store.NewMemory())

	assert.True(t, decodeView(t, do(r, http.MethodPost, "/api/cart/toggle", "")).IsOpen)
	assert.False(t, decodeView(t, do(r, http.MethodPost, "/api/cart/toggle", "")).IsOpen)
}

func TestCart_MigratesBrowserShape(t *testing.T) {
	st := store.NewMemory()
	legacy := `{"cartItems":[{"_id":"` + creamID + `","title":"Anti Crack","finalPrice":550,"quantity":2},{"id":"` + creamID + `","title":"Anti Crack","finalPrice":550}],"isOpen":true}`
	require.NoError(t, st.Save(context.Background(), "cart", "sess-1", store.Record{Version: 1, Data: json.RawMessage(legacy)}))

	v := decodeView(t, do(newRouter(t, st), http.MethodGet, "/api/cart", ""))
	require.Len(t, v.Items, 1)
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.True(t, v.IsOpen)
}

func TestWishlist_AddIsIdempotent(t *testing.T) {
	r := newRouter(t, store.NewMemory())

	do(r, http.MethodPost, "/api/wishlist/items", `{"productId":"`+creamID+`"}`)
	rec := do(r, http.MethodPost, "/api/wishlist/items", `{"productId":"`+creamID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var w Wishlist
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w))
	assert.Len(t, w.Items, 1)

	rec = do(r, http.MethodDelete, "/api/wishlist/items/"+creamID, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &w))
	assert.Empty(t, w.Items)
}

func TestPage(t *testing.T) {
	r := newRouter(t, store.NewMemory())
	page := func(rec *httptest.ResponseRecorder) int {
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p Page
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		return p.CurrentPage
	}

	assert.Equal(t, 1, page(do(r, http.MethodGet, "/api/page", "")))
	assert.Equal(t, 4, page(do(r, http.MethodPut, "/api/page", `{"currentPage":4}`)))
	assert.Equal(t, 4, page(do(r, http.MethodGet, "/api/page", "")))
	assert.Equal(t, 1, page(do(r, http.MethodDelete, "/api/page", "")))

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/page", `{"currentPage":0}`).Code)
}
