// Package metrics holds the prometheus collectors of the inventory service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the stock collectors.
const (
	OutcomeSuccess           = "success"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeInvalid           = "invalid"
	OutcomeError             = "error"
)

// Collectors groups the counters updated by the stock services.
type Collectors struct {
	Sales     *prometheus.CounterVec
	Mutations *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Sales: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_sales_total",
				Help: "Total number of sale attempts by outcome.",
			},
			[]string{"outcome"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_mutations_total",
				Help: "Total number of product mutations by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(c.Sales, c.Mutations)
	}
	return c
}

// ObserveSale counts one sale attempt. Safe on a nil receiver.
func (c *Collectors) ObserveSale(outcome string) {
	if c == nil {
		return
	}
	c.Sales.WithLabelValues(outcome).Inc()
}

// ObserveMutation counts one upsert, update or delete. Safe on a nil receiver.
func (c *Collectors) ObserveMutation(operation, outcome string) {
	if c == nil {
		return
	}
	c.Mutations.WithLabelValues(operation, outcome).Inc()
}
