package repositories

import (
	"stockroom/internal/models"
)

// ProductRepository defines the interface for product data access.
// Codes passed in are expected to be normalized already.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByCode(code string) (*models.Product, error)
	Upsert(product *models.Product) error
	Update(product *models.Product) error
	// Decrement atomically removes quantity units and returns the updated product.
	Decrement(code string, quantity int) (*models.Product, error)
	Delete(code string) error
}

// SaleRepository stores the sales ledger.
type SaleRepository interface {
	GetAll() ([]models.Sale, error)
	Create(sale *models.Sale) error
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByID(id string) (*models.User, error)
}
