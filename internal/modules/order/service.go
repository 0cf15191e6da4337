package order

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/georgemunganga/footcare-storefront/internal/notify"
	"github.com/georgemunganga/footcare-storefront/internal/querycache"
)

var (
	ErrInvalidOrderID     = errors.New("invalid order id")
	ErrUnknownView        = errors.New("unknown order view")
	ErrActionNotAllowed   = errors.New("action not allowed for the current order status")
	ErrCancelNotConfirmed = errors.New("cancellation must be confirmed with the order id")
	ErrInvoiceUnavailable = errors.New("invoice not available for this order")
	ErrSubmissionInFlight = errors.New("an order submission is already in progress")
)

const (
	cachePrefix = "orders:"

	sharedFetchTimeout = 30 * time.Second
)

// Service defines the order workflow: submission from the storefront and the
// admin lifecycle (status views, detail, confirm, cancel, invoices).
type Service interface {
	// Submit sends one create-order request per key at a time. Callers pass a
	// payload built by BuildPayload from a validated draft.
	Submit(ctx context.Context, key string, req CreateOrderRequest) (*Order, error)

	// ListView fetches one status view and its statistics.
	ListView(ctx context.Context, view View) (*StatusView, error)

	// ListAll returns every order, for analytics.
	ListAll(ctx context.Context) ([]Order, error)

	GetOrder(ctx context.Context, orderID string) (*Detail, error)
	Confirm(ctx context.Context, orderID string) (*ActionResult, error)

	// Cancel requires confirmation to equal orderID.
	Cancel(ctx context.Context, orderID, confirmation string) (*ActionResult, error)

	InvoiceURL(ctx context.Context, orderID string) (string, error)
	OpenInvoice(ctx context.Context, orderID string) (*InvoiceFile, error)
}

type service struct {
	repo     Repository
	cache    querycache.Cache
	ttl      time.Duration
	notifier notify.Notifier
	logger   *zap.Logger

	lists singleflight.Group

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService creates a new order service.
func NewService(repo Repository, cache querycache.Cache, ttl time.Duration, notifier notify.Notifier, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		cache:    cache,
		ttl:      ttl,
		notifier: notifier,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

func checkOrderID(orderID string) (string, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" || strings.ContainsAny(orderID, "/?#") {
		return "", ErrInvalidOrderID
	}
	return orderID, nil
}

// invalidate drops every cached order list and detail.
func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cachePrefix); err != nil {
		s.logger.Warn("Failed to invalidate order cache", zap.Error(err))
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
