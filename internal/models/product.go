package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The inventory contract carries prices as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a stock item. JSON keys follow the inventory service contract.
type Product struct {
	Code      string          `json:"codigo" gorm:"primaryKey;type:varchar(64)" validate:"required,max=64"`
	Name      string          `json:"nome" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Price     decimal.Decimal `json:"preco" gorm:"type:decimal(12,2);not null" validate:"gte=0"`
	Quantity  int             `json:"qtd" gorm:"not null" validate:"gte=0"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}

// NormalizeCode trims and upper-cases a product code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Normalize returns a copy of the product with its code normalized.
func (p Product) Normalize() Product {
	p.Code = NormalizeCode(p.Code)
	return p
}

// WithQuantity returns a copy of the product carrying the given quantity.
func (p Product) WithQuantity(quantity int) Product {
	p.Quantity = quantity
	return p
}

// ProductRequest is the body of the upsert and edit operations. Pointer fields
// tell a missing key apart from a zero value.
type ProductRequest struct {
	Code     *string          `json:"codigo" validate:"required"`
	Name     *string          `json:"nome" validate:"required"`
	Price    *decimal.Decimal `json:"preco" validate:"required"`
	Quantity *int             `json:"qtd" validate:"required"`
}

// Product converts a validated request. Missing fields become zero values.
func (r ProductRequest) Product() Product {
	var p Product
	if r.Code != nil {
		p.Code = *r.Code
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Quantity != nil {
		p.Quantity = *r.Quantity
	}
	return p.Normalize()
}
