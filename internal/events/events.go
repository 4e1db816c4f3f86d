// Package events defines the messages the storefront publishes to Kafka.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeCheckoutCompleted = "checkout.completed"
	// HeaderEventType carries the event type on every Kafka message.
	HeaderEventType = "event_type"
)

type CheckoutCompleted struct {
	OrderNumber string          `json:"order_number"`
	SessionID   string          `json:"session_id,omitempty"`
	Email       string          `json:"email"`
	ProductID   string          `json:"product_id"`
	Variant     string          `json:"variant"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PlacedAt    time.Time       `json:"placed_at"`
}
