package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type recordingSink struct {
	got []Notification
	err error
}

func (s *recordingSink) Deliver(_ context.Context, n Notification) error {
	s.got = append(s.got, n)
	return s.err
}

func TestBus_NotifyStampsAndFansOut(t *testing.T) {
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	sink := &recordingSink{}
	failing := &recordingSink{err: errors.New("boom")}
	bus := NewBus(logger, failing, sink)

	ch, cancel := bus.Subscribe()
	defer cancel()

	sent := bus.Notify(context.Background(), Success("Order placed", "Order ORD-1 placed").ForOrder("ORD-1"))

	assert.NotEmpty(t, sent.ID)
	assert.False(t, sent.At.IsZero())
	require.Len(t, sink.got, 1)
	assert.Equal(t, sent, sink.got[0])

	select {
	case got := <-ch:
		assert.Equal(t, "ORD-1", got.OrderID)
		assert.Equal(t, LevelSuccess, got.Level)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive notification")
	}
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t))
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultSubscriberBuffer*3; i++ {
			bus.Notify(context.Background(), Info("tick", "tick"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full subscriber")
	}
}

func TestBus_CancelUnsubscribes(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t))
	ch, cancel := bus.Subscribe()
	assert.Equal(t, 1, bus.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, bus.Subscribers())
	_, open := <-ch
	assert.False(t, open)
}

func TestKafkaSink_PublishesOrderEventsOnly(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer func() { assert.NoError(t, producer.Close()) }()

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var n Notification
		if err := json.Unmarshal(val, &n); err != nil {
			return err
		}
		if n.OrderID != "ORD-9" {
			return errors.New("unexpected order id " + n.OrderID)
		}
		return nil
	})

	sink := NewKafkaSink(producer, "storefront_notifications", zaptest.NewLogger(t))

	require.NoError(t, sink.Deliver(context.Background(), Error("Validation", "name is required")))
	require.NoError(t, sink.Deliver(context.Background(), Success("Order confirmed", "ok").ForOrder("ORD-9")))
}

func TestStreamHandler_WritesServerSentEvents(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t))
	srv := httptest.NewServer(bus.StreamHandler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	bus.Notify(context.Background(), Success("Order cancelled", "Order ORD-3 cancelled").ForOrder("ORD-3"))

	reader := bufio.NewReader(resp.Body)
	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}

	var got Notification
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, "ORD-3", got.OrderID)
	assert.Equal(t, "Order cancelled", got.Title)
}
