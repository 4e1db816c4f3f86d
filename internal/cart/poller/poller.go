// Package poller removes purchased lines from carts once their checkout has completed.
package poller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/events"
)

// MessageReader is the part of *kafka.Reader the poller uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// CartUpdater drops the purchased line; the rest of the cart stays.
type CartUpdater interface {
	RemoveItem(ctx context.Context, sessionID, productID, variant string) error
}

type Poller struct {
	carts  CartUpdater
	reader MessageReader
	log    *logrus.Entry
}

func NewPoller(carts CartUpdater, log *logrus.Entry, topic string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "storefront-cart-cleaner",
		MaxBytes: 10e6, // 10MB
	})
	return NewPollerWithReader(carts, reader, log)
}

func NewPollerWithReader(carts CartUpdater, reader MessageReader, log *logrus.Entry) *Poller {
	return &Poller{carts: carts, reader: reader, log: log.WithField("component", "cart-poller")}
}

// Run consumes until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		p.getMessageAndUpdateCart(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.WithError(err).Warn("error closing reader")
	}
}

func (p *Poller) getMessageAndUpdateCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			p.log.WithError(err).Error("error reading message")
		}
		return
	}

	if eventType := header(m, events.HeaderEventType); eventType != "" && eventType != events.TypeCheckoutCompleted {
		return
	}

	var payload events.CheckoutCompleted
	if errUnmarshal := json.Unmarshal(m.Value, &payload); errUnmarshal != nil {
		p.log.WithError(errUnmarshal).Warn("error parsing message")
		return
	}
	if payload.SessionID == "" {
		p.log.WithField("order_number", payload.OrderNumber).Debug("checkout event without session, no cart to update")
		return
	}

	log := p.log.WithFields(logrus.Fields{
		"session_id":   payload.SessionID,
		"order_number": payload.OrderNumber,
		"product_id":   payload.ProductID,
		"variant":      payload.Variant,
	})
	if errRemove := p.carts.RemoveItem(ctx, payload.SessionID, payload.ProductID, payload.Variant); errRemove != nil {
		log.WithError(errRemove).Error("failed to remove purchased item from cart")
		return
	}
	log.Info("purchased item removed from cart")
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
