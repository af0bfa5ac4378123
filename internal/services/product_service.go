package services

import (
	"errors"
	"fmt"
	"time"

	"stockroom/internal/models"
	"stockroom/internal/repositories"
	"stockroom/pkg/logging"
	"stockroom/pkg/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventPublisher receives stock events after successful mutations.
type EventPublisher interface {
	PublishStockEvent(event models.StockEvent) error
}

// ProductService handles the stock rules of the inventory service.
type ProductService struct {
	repo      repositories.ProductRepository
	sales     repositories.SaleRepository
	publisher EventPublisher
	metrics   *metrics.Collectors
	log       *zap.Logger
}

// NewProductService creates a new ProductService. publisher, collectors and
// logger may be nil.
func NewProductService(
	repo repositories.ProductRepository,
	sales repositories.SaleRepository,
	publisher EventPublisher,
	collectors *metrics.Collectors,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		repo:      repo,
		sales:     sales,
		publisher: publisher,
		metrics:   collectors,
		log:       logging.OrNop(logger),
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProduct retrieves a single product by its code.
func (s *ProductService) GetProduct(code string) (*models.Product, error) {
	return s.repo.GetByCode(models.NormalizeCode(code))
}

// UpsertProduct creates the product or replaces the one with the same code.
// It reports whether a new product was created.
func (s *ProductService) UpsertProduct(product *models.Product) (bool, error) {
	*product = product.Normalize()

	created := false
	if _, err := s.repo.GetByCode(product.Code); err != nil {
		if !errors.Is(err, models.ErrProductNotFound) {
			s.metrics.ObserveMutation("upsert", metrics.OutcomeError)
			return false, err
		}
		created = true
	}

	if err := s.repo.Upsert(product); err != nil {
		s.metrics.ObserveMutation("upsert", metrics.OutcomeError)
		return false, err
	}
	s.metrics.ObserveMutation("upsert", metrics.OutcomeSuccess)
	s.publish(models.NewStockEvent(models.EventStockUpserted, product.Code, 0, product.Quantity))
	return created, nil
}

// UpdateProduct replaces an existing product; it never creates one.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	*product = product.Normalize()
	if err := s.repo.Update(product); err != nil {
		s.metrics.ObserveMutation("update", outcomeOf(err))
		return err
	}
	s.metrics.ObserveMutation("update", metrics.OutcomeSuccess)
	s.publish(models.NewStockEvent(models.EventStockUpserted, product.Code, 0, product.Quantity))
	return nil
}

// SellProduct removes quantity units of a product and records the sale.
func (s *ProductService) SellProduct(code string, quantity int) (*models.Product, *models.Sale, error) {
	code = models.NormalizeCode(code)
	if quantity <= 0 {
		s.metrics.ObserveSale(metrics.OutcomeInvalid)
		return nil, nil, models.ErrInvalidQuantity
	}

	product, err := s.repo.Decrement(code, quantity)
	if err != nil {
		s.metrics.ObserveSale(outcomeOf(err))
		return nil, nil, err
	}
	s.metrics.ObserveSale(metrics.OutcomeSuccess)

	sale := &models.Sale{
		Code:      product.Code,
		Quantity:  quantity,
		UnitPrice: product.Price,
		Total:     product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sales.Create(sale); err != nil {
		// The stock already moved; a missing ledger line must not fail the sale.
		s.log.Warn("sale_ledger_write_failed",
			zap.String("code", product.Code),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
	}

	s.log.Info("sale_registered",
		zap.String("code", product.Code),
		zap.Int("quantity", quantity),
		zap.Int("remaining", product.Quantity),
	)
	s.publish(models.NewStockEvent(models.EventStockSold, product.Code, -quantity, product.Quantity))
	return product, sale, nil
}

// DeleteProduct deletes a product by its code.
func (s *ProductService) DeleteProduct(code string) error {
	code = models.NormalizeCode(code)
	if err := s.repo.Delete(code); err != nil {
		s.metrics.ObserveMutation("delete", outcomeOf(err))
		return err
	}
	s.metrics.ObserveMutation("delete", metrics.OutcomeSuccess)
	s.publish(models.NewStockEvent(models.EventStockDeleted, code, 0, 0))
	return nil
}

// GetSales returns the sales ledger.
func (s *ProductService) GetSales() ([]models.Sale, error) {
	return s.sales.GetAll()
}

func (s *ProductService) publish(event models.StockEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishStockEvent(event); err != nil {
		s.log.Warn("stock_event_publish_failed",
			zap.String("type", event.Type),
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, models.ErrInsufficientStock):
		return metrics.OutcomeInsufficientStock
	case errors.Is(err, models.ErrInvalidQuantity):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}

// SaleMessage renders the confirmation returned for a successful sale.
func SaleMessage(product *models.Product, quantity int) string {
	return fmt.Sprintf("Sale of %d unit(s) of %s registered.", quantity, product.Name)
}
