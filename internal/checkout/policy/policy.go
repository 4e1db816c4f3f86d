// Package policy decides the simulated outcome of a payment.
package policy

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/fjod/go_cart/storefront/internal/checkout/domain"
)

type Policy interface {
	Decide(ctx context.Context, order *domain.Order) domain.Outcome
}

// Fixed always returns the same outcome.
type Fixed domain.Outcome

func (f Fixed) Decide(context.Context, *domain.Order) domain.Outcome {
	return domain.Outcome(f)
}

// AlwaysApprove is the default policy.
var AlwaysApprove = Fixed(domain.OutcomeApproved)

// Random approves 95% of payments, declines most of the rest and reports a
// processor error for one value in 101.
type Random struct{}

func (Random) Decide(context.Context, *domain.Order) domain.Outcome {
	return calcOutcome(rand.Intn(101)) // 101 because Intn is exclusive of the upper bound
}

func calcOutcome(randomInt int) domain.Outcome {
	if randomInt < 95 {
		return domain.OutcomeApproved
	}
	if randomInt == 95 {
		return domain.OutcomeError
	}
	return domain.OutcomeDeclined
}

// FromName maps the PAYMENT_POLICY setting to a policy.
func FromName(name string) (Policy, error) {
	switch name {
	case "", "approve":
		return AlwaysApprove, nil
	case "decline":
		return Fixed(domain.OutcomeDeclined), nil
	case "error":
		return Fixed(domain.OutcomeError), nil
	case "random":
		return Random{}, nil
	}
	return nil, fmt.Errorf("unknown payment policy %q", name)
}
