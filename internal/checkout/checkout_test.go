package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"stockroom/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend keeps the stock in memory and counts every call.
type fakeBackend struct {
	stock map[string]models.Product

	sellUnsupported bool
	sellErr         error
	upsertErr       error
	listErr         error

	sells, upserts, lists int
	upserted              []models.Product
}

func newFakeBackend(products ...models.Product) *fakeBackend {
	b := &fakeBackend{stock: make(map[string]models.Product)}
	for _, p := range products {
		b.stock[p.Code] = p
	}
	return b
}

func (b *fakeBackend) calls() int {
	return b.sells + b.upserts + b.lists
}

func (b *fakeBackend) List(ctx context.Context) ([]models.Product, error) {
	b.lists++
	if b.listErr != nil {
		return nil, b.listErr
	}
	products := make([]models.Product, 0, len(b.stock))
	for _, p := range b.stock {
		products = append(products, p)
	}
	return products, nil
}

func (b *fakeBackend) Upsert(ctx context.Context, product models.Product) (string, error) {
	b.upserts++
	if b.upsertErr != nil {
		return "", b.upsertErr
	}
	b.upserted = append(b.upserted, product)
	b.stock[product.Code] = product
	return "Product updated successfully!", nil
}

func (b *fakeBackend) Sell(ctx context.Context, code string, quantity int) (string, error) {
	b.sells++
	if b.sellUnsupported {
		return "", fmt.Errorf("POST /estoque/venda: %w", ErrSellUnsupported)
	}
	if b.sellErr != nil {
		return "", b.sellErr
	}
	p := b.stock[code]
	p.Quantity -= quantity
	b.stock[code] = p
	return fmt.Sprintf("Sale of %d unit(s) of %s registered.", quantity, code), nil
}

type replyError struct{ msg string }

func (e *replyError) Error() string          { return "backend replied: " + e.msg }
func (e *replyError) BackendMessage() string { return e.msg }

func sku1() models.Product {
	return models.Product{Code: "SKU1", Name: "X", Price: decimal.NewFromInt(10), Quantity: 5}
}

func TestPlan(t *testing.T) {
	snapshot := NewSnapshot([]models.Product{sku1()})

	t.Run("valid", func(t *testing.T) {
		sale, err := Plan(snapshot, "sku1", 2)
		require.NoError(t, err)
		assert.Equal(t, 3, sale.NewQuantity)
		assert.Equal(t, 2, sale.Quantity)

		record := sale.Record()
		assert.Equal(t, "SKU1", record.Code)
		assert.Equal(t, "X", record.Name)
		assert.True(t, record.Price.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, 3, record.Quantity)
	})

	t.Run("whole stock", func(t *testing.T) {
		sale, err := Plan(snapshot, "SKU1", 5)
		require.NoError(t, err)
		assert.Equal(t, 0, sale.NewQuantity)
	})

	t.Run("invalid quantity checked first", func(t *testing.T) {
		for _, q := range []int{0, -1, -100} {
			_, err := Plan(snapshot, "MISSING", q)
			assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", q)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := Plan(snapshot, "NOPE", 1)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = Plan(snapshot, "  ", 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("insufficient", func(t *testing.T) {
		_, err := Plan(snapshot, "SKU1", 6)
		require.ErrorIs(t, err, ErrInsufficientStock)

		var stockErr *InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, 5, stockErr.Current)
		assert.Equal(t, "SKU1", stockErr.Code)
	})
}

func TestWorkflow_SellPersistsExactQuantity(t *testing.T) {
	for _, mode := range []Mode{ModeSell, ModeUpsert} {
		for q := 1; q <= 5; q++ {
			t.Run(fmt.Sprintf("%s/%d", mode, q), func(t *testing.T) {
				backend := newFakeBackend(sku1())
				w := New(backend, mode, nil)
				snapshot := NewSnapshot([]models.Product{sku1()})

				result, err := w.Sell(context.Background(), snapshot, "SKU1", q)
				require.NoError(t, err)
				assert.Equal(t, 5-q, backend.stock["SKU1"].Quantity)
				assert.Equal(t, mode, result.Mode)
				assert.False(t, result.Stale)

				got, ok := result.Snapshot.Get("SKU1")
				require.True(t, ok)
				assert.Equal(t, 5-q, got.Quantity)

				// input snapshot is never touched
				before, _ := snapshot.Get("SKU1")
				assert.Equal(t, 5, before.Quantity)
			})
		}
	}
}

func TestWorkflow_RejectionsMakeNoCalls(t *testing.T) {
	cases := []struct {
		name     string
		code     string
		quantity int
		want     error
	}{
		{"zero quantity", "SKU1", 0, ErrInvalidQuantity},
		{"negative quantity", "SKU1", -3, ErrInvalidQuantity},
		{"absent code", "SKU2", 1, ErrNotFound},
		{"too many", "SKU1", 6, ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := newFakeBackend(sku1())
			w := New(backend, ModeSell, nil)
			snapshot := NewSnapshot([]models.Product{sku1()})

			result, err := w.Sell(context.Background(), snapshot, tc.code, tc.quantity)
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, backend.calls())
			assert.Equal(t, snapshot, result.Snapshot)
			assert.Equal(t, 5, backend.stock["SKU1"].Quantity)
		})
	}
}

func TestWorkflow_CodeNormalization(t *testing.T) {
	product := models.Product{Code: "ABC001", Name: "Widget", Price: decimal.RequireFromString("2.50"), Quantity: 3}

	lower := newFakeBackend(product)
	upper := newFakeBackend(product)
	snapshot := NewSnapshot([]models.Product{product})

	r1, err1 := New(lower, ModeSell, nil).Sell(context.Background(), snapshot, "abc001", 1)
	r2, err2 := New(upper, ModeSell, nil).Sell(context.Background(), snapshot, "ABC001", 1)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r2.Message, r1.Message)
	assert.Equal(t, upper.stock, lower.stock)
	assert.Equal(t, 2, lower.stock["ABC001"].Quantity)
}

func TestWorkflow_ScenarioSKU1(t *testing.T) {
	backend := newFakeBackend(sku1())
	w := New(backend, ModeUpsert, nil)
	snapshot := NewSnapshot([]models.Product{sku1()})

	result, err := w.Sell(context.Background(), snapshot, "sku1", 1)
	require.NoError(t, err)
	require.Len(t, backend.upserted, 1)
	assert.Equal(t, 4, backend.upserted[0].Quantity)
	assert.Equal(t, "SKU1", backend.upserted[0].Code)
	assert.Equal(t, "X", backend.upserted[0].Name)
	assert.Equal(t, 1, backend.lists, "re-fetch after write")

	_, err = w.Sell(context.Background(), snapshot, "SKU1", 6)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Current)
	assert.Equal(t, 1, backend.upserts)

	got, _ := result.Snapshot.Get("SKU1")
	assert.Equal(t, 4, got.Quantity)
}

func TestWorkflow_FallsBackWhenSellUnsupported(t *testing.T) {
	backend := newFakeBackend(sku1())
	backend.sellUnsupported = true
	w := New(backend, ModeSell, nil)

	result, err := w.Sell(context.Background(), NewSnapshot([]models.Product{sku1()}), "SKU1", 2)
	require.NoError(t, err)
	assert.Equal(t, ModeUpsert, result.Mode)
	assert.Equal(t, 1, backend.sells)
	assert.Equal(t, 1, backend.upserts)
	assert.Equal(t, 3, backend.stock["SKU1"].Quantity)
}

func TestWorkflow_TransportFailure(t *testing.T) {
	t.Run("backend message verbatim", func(t *testing.T) {
		backend := newFakeBackend(sku1())
		backend.sellErr = &replyError{msg: "Insufficient stock. Only 1 units left."}
		w := New(backend, ModeSell, nil)
		snapshot := NewSnapshot([]models.Product{sku1()})

		result, err := w.Sell(context.Background(), snapshot, "SKU1", 2)
		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "Insufficient stock. Only 1 units left.", te.Error())
		assert.Equal(t, "sell", te.Op)
		assert.Zero(t, backend.lists, "no read-back after failure")
		assert.Equal(t, snapshot, result.Snapshot)
	})

	t.Run("generic fallback", func(t *testing.T) {
		backend := newFakeBackend(sku1())
		backend.upsertErr = errors.New("dial tcp: connection refused")
		w := New(backend, ModeUpsert, nil)

		_, err := w.Sell(context.Background(), NewSnapshot([]models.Product{sku1()}), "SKU1", 1)
		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, genericTransportMessage, te.Message)
		assert.Equal(t, 1, backend.upserts, "no retries")
	})
}

func TestWorkflow_RefreshFailureKeepsConfirmation(t *testing.T) {
	backend := newFakeBackend(sku1())
	backend.listErr = errors.New("timeout")
	w := New(backend, ModeSell, nil)
	snapshot := NewSnapshot([]models.Product{sku1()})

	result, err := w.Sell(context.Background(), snapshot, "SKU1", 1)
	require.ErrorIs(t, err, ErrRefreshFailed)
	assert.True(t, result.Stale)
	assert.NotEmpty(t, result.Message)
	assert.Equal(t, snapshot, result.Snapshot)
	assert.Equal(t, 4, backend.stock["SKU1"].Quantity)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSell, m)

	m, err = ParseMode(" Upsert ")
	require.NoError(t, err)
	assert.Equal(t, ModeUpsert, m)

	_, err = ParseMode("patch")
	assert.Error(t, err)
}
