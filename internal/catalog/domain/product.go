package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/validation"
)

type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name           string             `bson:"name" json:"name" validate:"required"`
	Brand          string             `bson:"brand" json:"brand" validate:"required"`
	Description    string             `bson:"description" json:"description" validate:"required"`
	Price          decimal.Decimal    `bson:"price" json:"price" validate:"gte=0"`
	Image          string             `bson:"image" json:"image" validate:"required"`
	Variants       []string           `bson:"variants" json:"variants" validate:"min=1,dive,required"`
	DefaultVariant string             `bson:"default_variant" json:"defaultVariant" validate:"required"`
	Stock          int                `bson:"stock" json:"stock" validate:"gte=0"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

func (p *Product) HasVariant(variant string) bool {
	for _, v := range p.Variants {
		if v == variant {
			return true
		}
	}
	return false
}

// ProductFields is the input for create and partial update. A nil field was
// not supplied by the caller.
type ProductFields struct {
	Name           *string          `json:"name" yaml:"name"`
	Brand          *string          `json:"brand" yaml:"brand"`
	Description    *string          `json:"description" yaml:"description"`
	Price          *decimal.Decimal `json:"price" yaml:"price"`
	Image          *string          `json:"image" yaml:"image"`
	Variants       []string         `json:"variants" yaml:"variants"`
	DefaultVariant *string          `json:"defaultVariant" yaml:"defaultVariant"`
	Stock          *int             `json:"stock" yaml:"stock"`
}

// NewProduct builds a product from fields. Every field except stock
// (default 0) is required.
func NewProduct(f ProductFields, now time.Time) (*Product, error) {
	v := apperr.NewValidationError()
	if f.Price == nil {
		v.Add("price", "is required")
	}

	p := &Product{CreatedAt: now, UpdatedAt: now}
	p.Apply(f)
	p.validateInto(v)
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply copies every supplied field onto p, trimming strings.
func (p *Product) Apply(f ProductFields) {
	if f.Name != nil {
		p.Name = strings.TrimSpace(*f.Name)
	}
	if f.Brand != nil {
		p.Brand = strings.TrimSpace(*f.Brand)
	}
	if f.Description != nil {
		p.Description = strings.TrimSpace(*f.Description)
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	if f.Image != nil {
		p.Image = strings.TrimSpace(*f.Image)
	}
	if f.Variants != nil {
		variants := make([]string, len(f.Variants))
		for i, variant := range f.Variants {
			variants[i] = strings.TrimSpace(variant)
		}
		p.Variants = variants
	}
	if f.DefaultVariant != nil {
		p.DefaultVariant = strings.TrimSpace(*f.DefaultVariant)
	}
	if f.Stock != nil {
		p.Stock = *f.Stock
	}
}

// Validate checks every invariant of a stored product and reports all
// offending fields at once.
func (p *Product) Validate() error {
	v := apperr.NewValidationError()
	p.validateInto(v)
	return v.OrNil()
}

func (p *Product) validateInto(v *apperr.ValidationError) {
	validation.Into(v, p)
	if p.DefaultVariant != "" && len(p.Variants) > 0 && !p.HasVariant(p.DefaultVariant) {
		v.Add("defaultVariant", "must be one of variants")
	}
}

// Page is one slice of the catalog listing.
type Page struct {
	Products      []*Product `json:"products"`
	CurrentPage   int        `json:"currentPage"`
	TotalPages    int        `json:"totalPages"`
	TotalProducts int64      `json:"totalProducts"`
}
