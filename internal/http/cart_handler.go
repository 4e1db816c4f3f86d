package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_cart/storefront/internal/cart/domain"
	"github.com/fjod/go_cart/storefront/internal/cart/service"
)

type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, in service.AddItemInput) (*domain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type CartHandler struct {
	carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// GetCart handles GET /api/cart/{sessionId}. A session without a cart gets an
// empty one.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// AddItem handles POST /api/cart/{sessionId}/add
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var in service.AddItemInput
	if !decodeJSON(w, r, &in) {
		return
	}
	cart, err := h.carts.AddItem(r.Context(), chi.URLParam(r, "sessionId"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// ClearCart handles DELETE /api/cart/{sessionId}/clear
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Cart cleared successfully"})
}
