package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/checkout/domain"
)

type CheckoutService interface {
	Checkout(ctx context.Context, req domain.Request) (*domain.Result, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
}

func NewCheckoutHandler(checkout CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

var outcomeStatus = map[domain.Outcome]int{
	domain.OutcomeApproved: http.StatusCreated,
	domain.OutcomeDeclined: http.StatusPaymentRequired,
	domain.OutcomeError:    http.StatusBadGateway,
}

// Checkout handles POST /api/checkout. Every decided outcome returns a
// Result body; only invalid input and unexpected failures use ErrorResponse.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.checkout.Checkout(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	status, ok := outcomeStatus[result.Outcome]
	if !ok {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, result)
}
