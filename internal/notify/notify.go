// Package notify is the publish/subscribe channel for user-facing notifications.
// Emitters depend on Notifier; renderers (SSE streams) and sinks (log, Kafka)
// subscribe to the Bus without the emitter knowing about them.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Notification struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	OrderID string    `json:"orderId,omitempty"`
	At      time.Time `json:"at"`
}

func Success(title, message string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Message: message}
}

func Error(title, message string) Notification {
	return Notification{Level: LevelError, Title: title, Message: message}
}

func Info(title, message string) Notification {
	return Notification{Level: LevelInfo, Title: title, Message: message}
}

// ForOrder tags the notification with the order it concerns.
func (n Notification) ForOrder(orderID string) Notification {
	n.OrderID = orderID
	return n
}

// Notifier is what services depend on to emit notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) Notification
}

// Sink receives every published notification synchronously.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

const defaultSubscriberBuffer = 16

type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan Notification
	sinks  []Sink
	logger *zap.Logger
	now    func() time.Time
}

func NewBus(logger *zap.Logger, sinks ...Sink) *Bus {
	return &Bus{
		subs:   make(map[string]chan Notification),
		sinks:  sinks,
		logger: logger,
		now:    time.Now,
	}
}

// Notify stamps the notification with an id and time, hands it to every sink
// and fans it out to subscribers. Slow subscribers miss notifications rather
// than block the emitter.
func (b *Bus) Notify(ctx context.Context, n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.At.IsZero() {
		n.At = b.now().UTC()
	}

	for _, s := range b.sinks {
		if err := s.Deliver(ctx, n); err != nil {
			b.logger.Warn("Notification sink failed", zap.String("id", n.ID), zap.Error(err))
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- n:
		default:
			b.logger.Debug("Dropping notification for slow subscriber", zap.String("subscriber", id))
		}
	}
	return n
}

// Subscribe registers a listener. The returned cancel func must be called to
// release it; the channel is closed afterwards.
func (b *Bus) Subscribe() (<-chan Notification, func()) {
	id := uuid.NewString()
	ch := make(chan Notification, defaultSubscriberBuffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
