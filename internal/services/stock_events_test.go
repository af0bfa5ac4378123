package services_test

import (
	"testing"

	"stockroom/internal/models"
	"stockroom/internal/services"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLowStockHandler(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	handler := services.LowStockHandler(2, zap.New(core))

	assert.NoError(t, handler(models.NewStockEvent(models.EventStockSold, "SKU1", -1, 5)))
	assert.Equal(t, 0, logs.FilterMessage("low_stock").Len())

	assert.NoError(t, handler(models.NewStockEvent(models.EventStockSold, "SKU1", -3, 2)))
	assert.Equal(t, 1, logs.FilterMessage("low_stock").Len())

	assert.NoError(t, handler(models.NewStockEvent(models.EventStockDeleted, "SKU1", 0, 0)))
	assert.Equal(t, 1, logs.FilterMessage("low_stock").Len())
}
