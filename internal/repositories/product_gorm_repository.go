package repositories

import (
	"errors"
	"fmt"

	"stockroom/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products ordered by code.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Order("code").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByCode retrieves a single product by its code.
func (r *GORMProductRepository) GetByCode(code string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with code %s: %w", code, models.ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by code %s: %w", code, err)
	}
	return &product, nil
}

// Upsert inserts the product or overwrites every column of an existing one.
func (r *GORMProductRepository) Upsert(product *models.Product) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price", "quantity", "updated_at"}),
	}).Create(product).Error
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

// Update modifies an existing product.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Model(&models.Product{}).Where("code = ?", product.Code).Updates(map[string]interface{}{
		"name":     product.Name,
		"price":    product.Price,
		"quantity": product.Quantity,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with code %s: %w", product.Code, models.ErrProductNotFound)
	}
	return nil
}

// Decrement removes quantity units with a conditional update so concurrent
// sales can never drive the stock below zero.
func (r *GORMProductRepository) Decrement(code string, quantity int) (*models.Product, error) {
	var product models.Product
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("code = ? AND quantity >= ?", code, quantity).
			Update("quantity", gorm.Expr("quantity - ?", quantity))
		if res.Error != nil {
			return fmt.Errorf("failed to decrement stock: %w", res.Error)
		}
		if err := tx.First(&product, "code = ?", code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product with code %s: %w", code, models.ErrProductNotFound)
			}
			return fmt.Errorf("failed to reload product %s: %w", code, err)
		}
		if res.RowsAffected == 0 {
			return &models.InsufficientStockError{Available: product.Quantity}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete deletes a product by its code.
func (r *GORMProductRepository) Delete(code string) error {
	res := r.db.Delete(&models.Product{}, "code = ?", code)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with code %s: %w", code, models.ErrProductNotFound)
	}
	return nil
}
