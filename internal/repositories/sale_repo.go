package repositories

import (
	"fmt"
	"sync"

	"stockroom/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMSaleRepository is a GORM implementation of SaleRepository.
type GORMSaleRepository struct {
	db *gorm.DB
}

// NewGORMSaleRepository creates a new instance of GORMSaleRepository.
func NewGORMSaleRepository(db *gorm.DB) *GORMSaleRepository {
	return &GORMSaleRepository{db: db}
}

// GetAll returns the ledger, oldest first.
func (r *GORMSaleRepository) GetAll() ([]models.Sale, error) {
	var sales []models.Sale
	if err := r.db.Order("created_at").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("failed to get sales: %w", err)
	}
	return sales, nil
}

// Create appends a sale to the ledger.
func (r *GORMSaleRepository) Create(sale *models.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	if err := r.db.Create(sale).Error; err != nil {
		return fmt.Errorf("failed to record sale: %w", err)
	}
	return nil
}

// MemorySaleRepository is an in-memory implementation of SaleRepository.
type MemorySaleRepository struct {
	sales []models.Sale
	mu    sync.RWMutex
}

// NewMemorySaleRepository creates a new instance of MemorySaleRepository.
func NewMemorySaleRepository() *MemorySaleRepository {
	return &MemorySaleRepository{}
}

// GetAll returns a copy of the ledger, oldest first.
func (r *MemorySaleRepository) GetAll() ([]models.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sales := make([]models.Sale, len(r.sales))
	copy(sales, r.sales)
	return sales, nil
}

// Create appends a sale to the ledger.
func (r *MemorySaleRepository) Create(sale *models.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	r.sales = append(r.sales, *sale)
	return nil
}
