package services

import (
	"stockroom/internal/models"
	"stockroom/pkg/logging"

	"go.uber.org/zap"
)

// LowStockHandler returns a stock event handler that warns when a sale leaves
// a product at or below threshold units.
func LowStockHandler(threshold int, logger *zap.Logger) func(models.StockEvent) error {
	logger = logging.OrNop(logger)
	return func(event models.StockEvent) error {
		if event.Type != models.EventStockSold {
			logger.Debug("stock_event_received",
				zap.String("type", event.Type),
				zap.String("code", event.Code),
			)
			return nil
		}
		if event.Remaining <= threshold {
			logger.Warn("low_stock",
				zap.String("code", event.Code),
				zap.Int("remaining", event.Remaining),
				zap.Int("threshold", threshold),
			)
		}
		return nil
	}
}
