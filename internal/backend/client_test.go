package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 2*time.Second, zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel)))
}

func TestClient_Get_UnwrapsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order/pending-orders", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`{"success":true,"data":[{"orderId":"A1"},{"orderId":"A2"}]}`))
	})

	var out []struct {
		OrderID string `json:"orderId"`
	}
	err := c.Get(context.Background(), "/order/pending-orders", url.Values{"page": {"2"}}, &out)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "A2", out[1].OrderID)
}

func TestClient_Post_BodyWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Rahim", body["customerName"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"orderId":"ORD-1001","message":"created"}`))
	})

	var out struct {
		OrderID string `json:"orderId"`
	}
	err := c.Post(context.Background(), "/order/add-order", map[string]string{"customerName": "Rahim"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1001", out.OrderID)
}

func TestClient_BusinessError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"insufficient stock"}`))
	})

	err := c.Post(context.Background(), "/order/add-order", map[string]string{}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "insufficient stock", UserMessage(err, "fallback"))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(err))
}

func TestClient_ServerErrorWithoutMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.Get(context.Background(), "/order/all-orders", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "fallback", UserMessage(err, "fallback"))
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
}

func TestClient_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"order not found"}`))
	})

	err := c.Get(context.Background(), "/order/order-by-orderid/X", nil, nil)
	assert.True(t, IsNotFound(err))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c := New(srv.URL, time.Second, zaptest.NewLogger(t))

	err := c.Get(context.Background(), "/order/all-orders", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, GenericFailure, UserMessage(err, ""))
}

func TestClient_CancelledContext(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Get(ctx, "/order/order-by-orderid/A1", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestClient_ForwardsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":null}`))
	})

	err := c.Patch(WithBearer(context.Background(), "tkn"), "/order/confirm-order/A1", struct{}{}, nil)
	require.NoError(t, err)
}

func TestClient_Open(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	})

	resp, err := c.Open(context.Background(), c.baseURL+"/files/invoice.pdf")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-1.4", string(body))
}

func TestClient_OpenRejectsNonHTTPURLs(t *testing.T) {
	hit := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { hit = true })

	for _, raw := range []string{
		"file:///etc/passwd",
		"javascript:alert(1)",
		"ftp://files.example.com/invoice.pdf",
		"//files.example.com/invoice.pdf",
		"/files/invoice.pdf",
	} {
		_, err := c.Open(context.Background(), raw)
		assert.ErrorIs(t, err, ErrUnsupportedURL, raw)
	}
	assert.False(t, hit)
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "/order/confirm-order", endpointLabel("/order/confirm-order/ORD-1"))
	assert.Equal(t, "/order/all-orders", endpointLabel("/order/all-orders"))
	assert.Equal(t, "/health", endpointLabel("health"))
}
