// Package checkout backs the storefront order form: one persisted draft per
// session, the selection model built from the live catalog, and submission.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/georgemunganga/footcare-storefront/internal/middleware"
	"github.com/georgemunganga/footcare-storefront/internal/modules/catalog"
	"github.com/georgemunganga/footcare-storefront/internal/modules/order"
	"github.com/georgemunganga/footcare-storefront/internal/modules/selection"
	"github.com/georgemunganga/footcare-storefront/internal/notify"
	"github.com/georgemunganga/footcare-storefront/internal/store"
)

const (
	draftNamespace = "checkout_draft"
	draftVersion   = 1
)

// ErrNoSession is returned when a request reaches checkout without a session id.
var ErrNoSession = errors.New("no session")

// ProductSource supplies the products offered on the form.
type ProductSource interface {
	OrderFormProducts(ctx context.Context) ([]catalog.Product, error)
}

// OrderSubmitter sends a built order to the API.
type OrderSubmitter interface {
	Submit(ctx context.Context, key string, req order.CreateOrderRequest) (*order.Order, error)
}

// FamilyPack configures the optional bundle line.
type FamilyPack struct {
	Enabled  bool
	Discount float64
}

// DraftView is everything the order form renders.
type DraftView struct {
	Contact    order.Contact          `json:"contact"`
	Items      []selection.Item       `json:"items"`
	Quantities selection.Quantities   `json:"quantities"`
	Lines      []selection.Line       `json:"lines"`
	Totals     selection.Totals       `json:"totals"`
	Errors     order.ValidationErrors `json:"errors,omitempty"`
	CanSubmit  bool                   `json:"canSubmit"`
}

// ValidationResult is the answer to an explicit validate call.
type ValidationResult struct {
	Valid  bool                   `json:"valid"`
	Errors order.ValidationErrors `json:"errors,omitempty"`
}

type Service interface {
	Districts() []string
	Draft(ctx context.Context, session string) (*DraftView, error)
	UpdateQuantity(ctx context.Context, session, key string, delta int) (*DraftView, error)
	SetContact(ctx context.Context, session string, c order.Contact) (*DraftView, error)
	Validate(ctx context.Context, session string) (*ValidationResult, error)
	// Submit validates the draft, builds the payload and sends it. The draft is
	// cleared only after the API accepted the order.
	Submit(ctx context.Context, session string) (*order.Order, error)
	Reset(ctx context.Context, session string) error
}

type service struct {
	products ProductSource
	orders   OrderSubmitter
	drafts   *store.Typed[order.Draft]
	pack     FamilyPack
	notifier notify.Notifier
	logger   *zap.Logger

	mu         sync.Mutex
	submitting map[string]struct{}
}

func NewService(products ProductSource, orders OrderSubmitter, st store.Store, pack FamilyPack, notifier notify.Notifier, logger *zap.Logger) Service {
	return &service{
		products:   products,
		orders:     orders,
		drafts:     store.NewTyped[order.Draft](st, draftNamespace, draftVersion, nil),
		pack:       pack,
		notifier:   notifier,
		logger:     logger,
		submitting: make(map[string]struct{}),
	}
}

func (s *service) Districts() []string { return order.Districts }

// model builds the selection model from the current catalog.
func (s *service) model(ctx context.Context) (*selection.Model, error) {
	products, err := s.products.OrderFormProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load order form products: %w", err)
	}
	items := make([]selection.Item, 0, len(products)+1)
	rule := selection.Rule(selection.Independent)
	if s.pack.Enabled {
		if pack, ok := selection.FamilyPack(products, s.pack.Discount); ok {
			items = append(items, pack)
			rule = selection.ApplyExclusivity
		}
	}
	for _, p := range products {
		items = append(items, selection.FromProduct(p))
	}
	return selection.NewModel(items, rule), nil
}

func (s *service) load(ctx context.Context, session string) (order.Draft, error) {
	if session == "" {
		return order.Draft{}, ErrNoSession
	}
	return s.drafts.Get(ctx, session, order.NewDraft)
}

func view(d order.Draft, m *selection.Model, errs order.ValidationErrors) *DraftView {
	q := m.Normalize(d.Quantities)
	totals := m.Totals(q)
	lines := m.Lines(q)
	if lines == nil {
		lines = []selection.Line{}
	}
	return &DraftView{
		Contact:    d.Contact,
		Items:      m.Items(),
		Quantities: q,
		Lines:      lines,
		Totals:     totals,
		Errors:     errs,
		CanSubmit:  totals.Subtotal > 0,
	}
}

func (s *service) Draft(ctx context.Context, session string) (*DraftView, error) {
	d, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}
	m, err := s.model(ctx)
	if err != nil {
		return nil, err
	}
	return view(d, m, nil), nil
}

func (s *service) UpdateQuantity(ctx context.Context, session, key string, delta int) (*DraftView, error) {
	if session == "" {
		return nil, ErrNoSession
	}
	m, err := s.model(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.drafts.Update(ctx, session, order.NewDraft, func(d *order.Draft) error {
		d.Quantities = m.UpdateQuantity(d.Quantities, key, delta)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view(d, m, nil), nil
}

func (s *service) SetContact(ctx context.Context, session string, c order.Contact) (*DraftView, error) {
	if session == "" {
		return nil, ErrNoSession
	}
	d, err := s.drafts.Update(ctx, session, order.NewDraft, func(d *order.Draft) error {
		d.SetContact(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m, err := s.model(ctx)
	if err != nil {
		return nil, err
	}
	return view(d, m, nil), nil
}

func (s *service) Validate(ctx context.Context, session string) (*ValidationResult, error) {
	d, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}
	errs := d.Validate()
	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}, nil
}

// begin claims the session for one submission. The claim spans loading the
// draft through clearing it, so a repeated click cannot resend the same draft.
func (s *service) begin(session string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.submitting[session]; busy {
		return false
	}
	s.submitting[session] = struct{}{}
	return true
}

func (s *service) end(session string) {
	s.mu.Lock()
	delete(s.submitting, session)
	s.mu.Unlock()
}

func (s *service) Submit(ctx context.Context, session string) (*order.Order, error) {
	if session == "" {
		return nil, ErrNoSession
	}
	if !s.begin(session) {
		return nil, order.ErrSubmissionInFlight
	}
	defer s.end(session)

	d, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}
	if errs := d.Validate(); len(errs) > 0 {
		middleware.RecordOrderSubmitted("invalid")
		s.notifier.Notify(ctx, notify.Error("Error", order.ValidationSummary))
		return nil, errs
	}

	m, err := s.model(ctx)
	if err != nil {
		return nil, err
	}
	req, err := order.BuildPayload(d, m)
	if err != nil {
		middleware.RecordOrderSubmitted("empty")
		s.notifier.Notify(ctx, notify.Error("Error", "Please select at least one product"))
		return nil, err
	}

	created, err := s.orders.Submit(ctx, session, req)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Delete(ctx, session); err != nil {
		s.logger.Warn("Failed to clear submitted draft",
			zap.String("session", session),
			zap.String("order_id", created.OrderID),
			zap.Error(err),
		)
	}
	return created, nil
}

func (s *service) Reset(ctx context.Context, session string) error {
	if strings.TrimSpace(session) == "" {
		return ErrNoSession
	}
	return s.drafts.Delete(ctx, session)
}
