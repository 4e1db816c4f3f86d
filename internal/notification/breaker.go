package notification

import (
	"context"

	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
)

// BreakerTransport stops calling next after repeated failures and fails fast
// with circuitbreaker.ErrOpen until the open period has passed.
type BreakerTransport struct {
	next    Transport
	breaker *circuitbreaker.Breaker[string]
}

func NewBreakerTransport(next Transport, settings circuitbreaker.Settings) *BreakerTransport {
	if settings.Name == "" {
		settings.Name = "mail"
	}
	return &BreakerTransport{
		next:    next,
		breaker: circuitbreaker.New[string](settings),
	}
}

func (b *BreakerTransport) Send(ctx context.Context, msg Message) (string, error) {
	return b.breaker.Execute(func() (string, error) {
		return b.next.Send(ctx, msg)
	})
}

func (b *BreakerTransport) State() string {
	return b.breaker.State()
}
