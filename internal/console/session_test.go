package console

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"stockroom/internal/checkout"
	"stockroom/internal/client"
	"stockroom/internal/models"
	"stockroom/internal/server"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, mode checkout.Mode) *Session {
	t.Helper()
	repos, err := server.OpenRepositories(server.DriverMemory, "")
	require.NoError(t, err)
	app := server.New(server.Options{Repositories: repos})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	c := client.New(client.Config{BaseURL: "http://" + ln.Addr().String()}, nil)
	return NewSession(c, mode, nil)
}

func seed(t *testing.T, s *Session) {
	t.Helper()
	n := s.Add(context.Background(), models.Product{Code: "sku1", Name: "X", Price: decimal.NewFromInt(10), Quantity: 5})
	require.Equal(t, LevelSuccess, n.Level, n.Text)
}

func TestSession_AddRefreshRender(t *testing.T) {
	s := newSession(t, checkout.ModeSell)
	seed(t, s)

	p, ok := s.Snapshot().Get("SKU1")
	require.True(t, ok, "snapshot refreshed after add")
	assert.Equal(t, 5, p.Quantity)

	n := s.Refresh(context.Background())
	assert.Equal(t, LevelInfo, n.Level)
	assert.Equal(t, "1 product(s) loaded.", n.Text)

	var out bytes.Buffer
	require.NoError(t, s.Render(&out))
	assert.Contains(t, out.String(), "CODE")
	assert.Contains(t, out.String(), "SKU1")
	assert.Contains(t, out.String(), "10.00")

	n = s.Add(context.Background(), models.Product{Code: "B2", Quantity: -1})
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, 1, s.Snapshot().Len())
}

func TestSession_RenderEmpty(t *testing.T) {
	s := NewSession(client.New(client.Config{BaseURL: "http://127.0.0.1:1"}, nil), checkout.ModeSell, nil)
	var out bytes.Buffer
	require.NoError(t, s.Render(&out))
	assert.Equal(t, "No products in stock.\n", out.String())
}

func TestSession_Sell(t *testing.T) {
	for _, mode := range []checkout.Mode{checkout.ModeSell, checkout.ModeUpsert} {
		t.Run(mode.String(), func(t *testing.T) {
			s := newSession(t, mode)
			seed(t, s)

			n := s.Sell(context.Background(), "sku1", 1)
			assert.Equal(t, LevelSuccess, n.Level, n.Text)
			p, _ := s.Snapshot().Get("SKU1")
			assert.Equal(t, 4, p.Quantity)

			n = s.Sell(context.Background(), "SKU1", 6)
			assert.Equal(t, Notice{LevelError, "Insufficient stock. Only 4 units left."}, n)

			n = s.Sell(context.Background(), "SKU1", 0)
			assert.Equal(t, "Quantity must be greater than zero.", n.Text)

			n = s.Sell(context.Background(), "NOPE", 1)
			assert.Equal(t, "Code not found.", n.Text)
			assert.Equal(t, n, s.Notice())

			s.Dismiss()
			assert.True(t, s.Notice().IsZero())
		})
	}
}

func TestSession_EditAndDelete(t *testing.T) {
	s := newSession(t, checkout.ModeSell)
	seed(t, s)
	ctx := context.Background()

	n := s.Edit(ctx, models.Product{Code: "SKU1", Name: "Renamed", Price: decimal.RequireFromString("9.90"), Quantity: 7})
	require.Equal(t, LevelSuccess, n.Level, n.Text)
	p, _ := s.Snapshot().Get("SKU1")
	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, 7, p.Quantity)

	n = s.Edit(ctx, models.Product{Code: "MISSING", Name: "Ghost"})
	assert.Equal(t, Notice{LevelError, "Code not found."}, n)

	var asked models.Product
	n = s.Delete(ctx, "sku1", func(p models.Product) bool {
		asked = p
		return false
	})
	assert.Equal(t, "Deletion cancelled.", n.Text)
	assert.Equal(t, "Renamed", asked.Name)
	assert.Equal(t, 1, s.Snapshot().Len())

	n = s.Delete(ctx, "sku1", func(models.Product) bool { return true })
	assert.Equal(t, LevelSuccess, n.Level, n.Text)
	assert.Zero(t, s.Snapshot().Len())

	n = s.Delete(ctx, "sku1", nil)
	assert.Equal(t, "Code not found.", n.Text)
}

func TestSession_ScanAndSales(t *testing.T) {
	s := newSession(t, checkout.ModeSell)
	seed(t, s)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, s.Scan(ctx, strings.NewReader("SKU1\nsku1\r\n\nNOPE\n"), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "[ok]"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[ok]"), lines[1])
	assert.Equal(t, "[warning] Empty scan ignored.", lines[2])
	assert.Equal(t, "[error] Code not found.", lines[3])

	p, _ := s.Snapshot().Get("SKU1")
	assert.Equal(t, 3, p.Quantity)

	var ledger bytes.Buffer
	n := s.Sales(ctx, &ledger)
	assert.Equal(t, "2 sale(s), 2 unit(s).", n.Text)
	assert.Contains(t, ledger.String(), "SKU1")
	assert.Contains(t, ledger.String(), "10.00")
}

func TestSession_TransportFailure(t *testing.T) {
	c := client.New(client.Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil)
	s := NewSession(c, checkout.ModeSell, nil)

	n := s.Refresh(context.Background())
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "Could not reach the inventory service.", n.Text)
	assert.Zero(t, s.Snapshot().Len())
}

func TestSession_FailedSellKeepsSnapshot(t *testing.T) {
	s := newSession(t, checkout.ModeSell)
	seed(t, s)
	ctx := context.Background()

	stored := s.snapshot.Load()
	for _, tc := range []struct {
		code     string
		quantity int
	}{
		{"NOPE", 1},
		{"SKU1", 0},
		{"SKU1", 6},
	} {
		n := s.Sell(ctx, tc.code, tc.quantity)
		assert.Equal(t, LevelError, n.Level, n.Text)
		assert.Same(t, stored, s.snapshot.Load(), "%s x%d", tc.code, tc.quantity)
	}

	n := s.Sell(ctx, "SKU1", 1)
	require.Equal(t, LevelSuccess, n.Level, n.Text)
	assert.NotSame(t, stored, s.snapshot.Load())
}
