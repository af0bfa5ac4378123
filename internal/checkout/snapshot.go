package checkout

import (
	"sort"

	"stockroom/internal/models"
)

// Snapshot is the last fetched view of the stock, keyed by normalized code.
// It is never modified after construction.
type Snapshot struct {
	items map[string]models.Product
}

// NewSnapshot indexes products by normalized code. Later duplicates win.
func NewSnapshot(products []models.Product) Snapshot {
	items := make(map[string]models.Product, len(products))
	for _, p := range products {
		p = p.Normalize()
		items[p.Code] = p
	}
	return Snapshot{items: items}
}

// Get looks up a product by code, normalizing it first.
func (s Snapshot) Get(code string) (models.Product, bool) {
	p, ok := s.items[models.NormalizeCode(code)]
	return p, ok
}

func (s Snapshot) Len() int {
	return len(s.items)
}

// Products returns a copy of the snapshot ordered by code.
func (s Snapshot) Products() []models.Product {
	products := make([]models.Product, 0, len(s.items))
	for _, p := range s.items {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].Code < products[j].Code
	})
	return products
}
