package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one entry of the sales ledger kept by the inventory service.
type Sale struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code      string          `json:"codigo" gorm:"type:varchar(64);index;not null"`
	Quantity  int             `json:"quantidade" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"preco_unitario" gorm:"type:decimal(12,2);not null"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(14,2);not null"`
	CreatedAt time.Time       `json:"criado_em"`
}

// SellRequest is the body of the sell operation. A missing quantity means one
// unit; an explicit zero is rejected.
type SellRequest struct {
	Code     string `json:"codigo"`
	Quantity *int   `json:"quantidade,omitempty"`
}

// DeleteRequest is the body of the delete operation.
type DeleteRequest struct {
	Code string `json:"codigo"`
}
