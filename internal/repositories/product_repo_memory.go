package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"stockroom/internal/models"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns all products ordered by code.
func (r *MemoryProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	sort.Slice(productList, func(i, j int) bool { return productList[i].Code < productList[j].Code })
	return productList, nil
}

// GetByCode returns a product by its code.
func (r *MemoryProductRepository) GetByCode(code string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[code]
	if !ok {
		return nil, fmt.Errorf("product with code %s: %w", code, models.ErrProductNotFound)
	}
	return &product, nil
}

// Upsert stores the product, replacing any existing one with the same code.
func (r *MemoryProductRepository) Upsert(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.products[product.Code]; ok {
		product.CreatedAt = existing.CreatedAt
	} else {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.products[product.Code] = *product
	return nil
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.Code]
	if !ok {
		return fmt.Errorf("product with code %s: %w", product.Code, models.ErrProductNotFound)
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	r.products[product.Code] = *product
	return nil
}

// Decrement removes quantity units under the write lock.
func (r *MemoryProductRepository) Decrement(code string, quantity int) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[code]
	if !ok {
		return nil, fmt.Errorf("product with code %s: %w", code, models.ErrProductNotFound)
	}
	if product.Quantity < quantity {
		return nil, &models.InsufficientStockError{Available: product.Quantity}
	}
	product.Quantity -= quantity
	product.UpdatedAt = time.Now().UTC()
	r.products[code] = product
	return &product, nil
}

// Delete removes a product by its code.
func (r *MemoryProductRepository) Delete(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[code]; !ok {
		return fmt.Errorf("product with code %s: %w", code, models.ErrProductNotFound)
	}
	delete(r.products, code)
	return nil
}
