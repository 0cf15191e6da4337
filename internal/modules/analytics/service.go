// Package analytics summarises sales for the admin dashboard. Everything is
// computed here from the upstream all-orders list.
package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/georgemunganga/footcare-storefront/internal/modules/order"
)

// OrderLister returns every order regardless of status.
type OrderLister interface {
	ListAll(ctx context.Context) ([]order.Order, error)
}

type Service interface {
	Report(ctx context.Context, r Range) (*Report, error)
	// Now is the clock ranges are resolved against.
	Now() time.Time
}

type service struct {
	orders OrderLister
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewService reports in loc; day buckets and range edges use its calendar.
func NewService(orders OrderLister, loc *time.Location, logger *zap.Logger) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{orders: orders, loc: loc, now: time.Now, logger: logger}
}

func (s *service) Now() time.Time { return s.now().In(s.loc) }

func (s *service) Report(ctx context.Context, r Range) (*Report, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rep := Compute(orders, r)
	s.logger.Debug("Analytics computed",
		zap.String("range", string(r.Kind)),
		zap.Int("orders", len(orders)),
		zap.Int("in_range", rep.TotalOrders),
		zap.Duration("took", time.Since(start)),
	)
	return &rep, nil
}
