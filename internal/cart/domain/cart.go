package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fjod/go_cart/storefront/internal/money"
)

type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"sessionId"`
	Items     []LineItem         `bson:"items" json:"items"`
	// Version is bumped on every save; a save against a stale version is rejected.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

type LineItem struct {
	ProductID string          `bson:"product_id" json:"productId"`
	Name      string          `bson:"name" json:"name"`
	Variant   string          `bson:"variant" json:"variant"`
	Price     decimal.Decimal `bson:"price" json:"price"`
	Quantity  int             `bson:"quantity" json:"quantity"`
	Total     decimal.Decimal `bson:"total" json:"total"`
}

func NewCart(sessionID string, now time.Time) *Cart {
	return &Cart{
		SessionID: sessionID,
		Items:     []LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetItem puts item into the cart. A line with the same product and variant
// gets the new quantity (not the sum) and a recomputed total; otherwise the
// line is appended.
func (c *Cart) SetItem(item LineItem, now time.Time) {
	for i := range c.Items {
		line := &c.Items[i]
		if line.ProductID == item.ProductID && line.Variant == item.Variant {
			line.Quantity = item.Quantity
			line.Price = item.Price
			line.Total = money.LineTotal(line.Price, line.Quantity)
			c.UpdatedAt = now
			return
		}
	}
	item.Total = money.LineTotal(item.Price, item.Quantity)
	c.Items = append(c.Items, item)
	c.UpdatedAt = now
}

// RemoveItem drops the (productId, variant) line and reports whether one was there.
func (c *Cart) RemoveItem(productID, variant string, now time.Time) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Variant == variant {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = now
			return true
		}
	}
	return false
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Total)
	}
	return sum
}

func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]LineItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}

// MarshalJSON always emits items as an array.
func (c Cart) MarshalJSON() ([]byte, error) {
	type plain Cart
	if c.Items == nil {
		c.Items = []LineItem{}
	}
	return json.Marshal(plain(c))
}
