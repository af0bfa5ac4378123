package models

import "time"

// Stock event types published after a successful mutation.
const (
	EventStockUpserted = "stock.upserted"
	EventStockSold     = "stock.sold"
	EventStockDeleted  = "stock.deleted"
)

// StockEvent describes a change to a product's stock.
type StockEvent struct {
	Type       string    `json:"type"`
	Code       string    `json:"code"`
	Delta      int       `json:"delta"`
	Remaining  int       `json:"remaining"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewStockEvent stamps a stock event with the current time.
func NewStockEvent(eventType, code string, delta, remaining int) StockEvent {
	return StockEvent{
		Type:       eventType,
		Code:       code,
		Delta:      delta,
		Remaining:  remaining,
		OccurredAt: time.Now().UTC(),
	}
}
