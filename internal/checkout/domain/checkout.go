package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeDeclined Outcome = "declined"
	OutcomeError    Outcome = "error"
)

func (o Outcome) String() string {
	return string(o)
}

type Customer struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	ZipCode  string `json:"zipCode" validate:"required"`
}

// ShippingAddress renders "address, city, state zip".
func (c Customer) ShippingAddress() string {
	return fmt.Sprintf("%s, %s, %s %s", c.Address, c.City, c.State, c.ZipCode)
}

// Payment is the card form. It is only validated, never stored or logged.
type Payment struct {
	CardNumber string `json:"cardNumber" validate:"required,number,min=12,max=19"`
	// ExpiryDate is YYYY-MM.
	ExpiryDate string `json:"expiryDate" validate:"required"`
	CVV        string `json:"cvv" validate:"required,number,min=3,max=4"`
}

type Item struct {
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Variant   string          `json:"variant" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
}

type Request struct {
	SessionID string   `json:"sessionId,omitempty"`
	Customer  Customer `json:"customer"`
	Payment   Payment  `json:"payment"`
	Item      Item     `json:"item"`
}

// Order exists only for the lifetime of a checkout; it is never persisted.
type Order struct {
	OrderNumber string          `json:"orderNumber"`
	Customer    Customer        `json:"customer"`
	Item        Item            `json:"item"`
	Total       decimal.Decimal `json:"total"`
	PlacedAt    time.Time       `json:"placedAt"`
}

// Result tells the caller what to show next. Navigate is "confirmation" after
// an approved payment and empty otherwise.
type Result struct {
	Outcome  Outcome `json:"outcome"`
	Navigate string  `json:"navigate,omitempty"`
	Alert    string  `json:"alert,omitempty"`
	Order    *Order  `json:"order,omitempty"`
}

const (
	NavigateConfirmation = "confirmation"

	AlertDeclined = "Transaction declined. Please check your payment details and try again."
	AlertError    = "An error occurred while processing your payment. Please try again later."
)
