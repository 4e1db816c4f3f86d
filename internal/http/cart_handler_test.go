package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/cart/domain"
	"github.com/fjod/go_cart/storefront/internal/cart/service"
)

func TestGetCart_EmptyCart(t *testing.T) {
	f := newFixture()
	f.carts.cart = domain.NewCart("s1", time.Unix(0, 0))

	rec := f.do(http.MethodGet, "/api/cart/s1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", f.carts.gotSession)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "s1", body["sessionId"])
	assert.Equal(t, []any{}, body["items"])
}

func TestAddItem(t *testing.T) {
	f := newFixture()
	f.carts.cart = domain.NewCart("s1", time.Unix(0, 0))

	rec := f.do(http.MethodPost, "/api/cart/s1/add",
		`{"productId":"p1","name":"Chuck 70 Hi","variant":"Black","quantity":2,"price":85}`)

	require.Equal(t, http.StatusOK, rec.Code)
	in := f.carts.gotInput
	assert.Equal(t, "p1", in.ProductID)
	assert.Equal(t, "Black", in.Variant)
	assert.Equal(t, 2, in.Quantity)
	require.NotNil(t, in.Price)
	assert.Equal(t, "85", in.Price.String())
}

func TestAddItem_Conflict(t *testing.T) {
	f := newFixture()
	f.carts.err = service.ErrConcurrentUpdate

	rec := f.do(http.MethodPost, "/api/cart/s1/add", `{"productId":"p1","variant":"Black","quantity":1}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddItem_Validation(t *testing.T) {
	f := newFixture()
	v := apperr.NewValidationError()
	v.Add("quantity", "must be at least 1")
	f.carts.err = v

	rec := f.do(http.MethodPost, "/api/cart/s1/add", `{"productId":"p1","variant":"Black","quantity":0}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity":"must be at least 1"`)
}

func TestClearCart(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodDelete, "/api/cart/s1/clear", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Cart cleared successfully"}`, rec.Body.String())
	assert.Equal(t, 1, f.carts.cleared)
}

func TestCartRoutes_SessionRequired(t *testing.T) {
	f := newFixture()
	f.carts.cart = domain.NewCart("s-new", time.Unix(0, 0))

	rec := f.doWith(true, http.MethodGet, "/api/cart/unknown", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.carts.gotSession)

	rec = f.doWith(true, http.MethodPost, "/api/session", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.doWith(true, http.MethodGet, "/api/cart/s-new", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s-new", f.carts.gotSession)
}
