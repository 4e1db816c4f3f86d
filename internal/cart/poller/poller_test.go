package poller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/events"
)

type fakeReader struct {
	messages chan kafka.Message
	closed   bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-f.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

type recordingUpdater struct {
	m       sync.Mutex
	removed []string
	err     error
}

func (r *recordingUpdater) RemoveItem(_ context.Context, sessionID, productID, variant string) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.removed = append(r.removed, sessionID+"/"+productID+"/"+variant)
	return r.err
}

func (r *recordingUpdater) calls() []string {
	r.m.Lock()
	defer r.m.Unlock()
	return append([]string(nil), r.removed...)
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func message(t *testing.T, eventType string, payload events.CheckoutCompleted) kafka.Message {
	value, err := json.Marshal(payload)
	require.NoError(t, err)
	return kafka.Message{
		Value:   value,
		Headers: []kafka.Header{{Key: events.HeaderEventType, Value: []byte(eventType)}},
	}
}

func TestPoller_RemovesPurchasedLine(t *testing.T) {
	reader := &fakeReader{messages: make(chan kafka.Message, 4)}
	carts := &recordingUpdater{}
	p := NewPollerWithReader(carts, reader, quietLog())

	reader.messages <- message(t, events.TypeCheckoutCompleted, events.CheckoutCompleted{
		OrderNumber: "ORD-1", SessionID: "s1", ProductID: "p1", Variant: "Black",
	})
	reader.messages <- message(t, "something.else", events.CheckoutCompleted{SessionID: "s2"})
	reader.messages <- message(t, events.TypeCheckoutCompleted, events.CheckoutCompleted{OrderNumber: "ORD-3"})
	reader.messages <- kafka.Message{Value: []byte("not json")}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(reader.messages) == 0
	}, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"s1/p1/Black"}, carts.calls())
}

func TestPoller_UpdateFailureIsNotFatal(t *testing.T) {
	reader := &fakeReader{messages: make(chan kafka.Message, 2)}
	carts := &recordingUpdater{err: errors.New("mongo down")}
	p := NewPollerWithReader(carts, reader, quietLog())

	reader.messages <- message(t, events.TypeCheckoutCompleted, events.CheckoutCompleted{SessionID: "s1"})
	reader.messages <- message(t, events.TypeCheckoutCompleted, events.CheckoutCompleted{SessionID: "s2"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(carts.calls()) == 2
	}, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestPoller_Close(t *testing.T) {
	reader := &fakeReader{messages: make(chan kafka.Message)}
	p := NewPollerWithReader(&recordingUpdater{}, reader, quietLog())

	p.Close()
	assert.True(t, reader.closed)
}
