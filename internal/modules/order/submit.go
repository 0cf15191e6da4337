package order

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
	"github.com/georgemunganga/footcare-storefront/internal/middleware"
	"github.com/georgemunganga/footcare-storefront/internal/notify"
)

func (s *service) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *service) end(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

func (s *service) Submit(ctx context.Context, key string, req CreateOrderRequest) (*Order, error) {
	if len(req.Products) == 0 || req.TotalAmount <= 0 {
		middleware.RecordOrderSubmitted("empty")
		s.notifier.Notify(ctx, notify.Error("Error", "Please select at least one product"))
		return nil, ErrNoProductsSelected
	}
	if !s.begin(key) {
		return nil, ErrSubmissionInFlight
	}
	defer s.end(key)

	created, err := s.repo.Create(ctx, req)
	if err != nil {
		middleware.RecordOrderSubmitted("failed")
		s.logger.Warn("Order submission failed", zap.String("session", key), zap.Error(err))
		s.notifier.Notify(ctx, notify.Error("Error", backend.UserMessage(err, "")))
		return nil, err
	}

	middleware.RecordOrderSubmitted("created")
	s.invalidate(ctx)
	s.logger.Info("Order submitted",
		zap.String("order_id", created.OrderID),
		zap.Int("lines", len(req.Products)),
		zap.Float64("total", req.TotalAmount),
	)
	s.notifier.Notify(ctx, notify.Success(
		"Order placed successfully!",
		fmt.Sprintf("Your order #%s has been received. We will contact you shortly.", created.OrderID),
	).ForOrder(created.OrderID))
	return created, nil
}
