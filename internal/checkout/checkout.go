// Package checkout validates a sale against the known stock and persists it
// through an inventory backend.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockroom/internal/models"
	"stockroom/pkg/logging"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "stockroom/checkout"

// Backend is the inventory service as seen by the workflow. Write operations
// return the confirmation message of the service.
type Backend interface {
	List(ctx context.Context) ([]models.Product, error)
	Upsert(ctx context.Context, product models.Product) (string, error)
	Sell(ctx context.Context, code string, quantity int) (string, error)
}

// Mode selects how a sale is persisted.
type Mode int

const (
	// ModeSell calls the dedicated sell operation and falls back to
	// ModeUpsert when the backend does not offer it.
	ModeSell Mode = iota
	// ModeUpsert writes the full record with the computed quantity.
	ModeUpsert
)

func (m Mode) String() string {
	switch m {
	case ModeSell:
		return "sell"
	case ModeUpsert:
		return "upsert"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "sell" or "upsert". Empty means ModeSell.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sell":
		return ModeSell, nil
	case "upsert":
		return ModeUpsert, nil
	}
	return ModeSell, fmt.Errorf("unknown sell mode %q", s)
}

// Sale is a validated sale, ready to persist.
type Sale struct {
	Product     models.Product
	Quantity    int
	NewQuantity int
}

// Record is the full product record carrying the new quantity.
func (s Sale) Record() models.Product {
	return s.Product.WithQuantity(s.NewQuantity)
}

// Result is the outcome of Sell.
type Result struct {
	Sale    Sale
	Message string
	// Mode is the persistence path that was actually used.
	Mode     Mode
	Snapshot Snapshot
	// Stale is set when Snapshot is the input snapshot because the read-back failed.
	Stale bool
}

// Plan validates a sale against the snapshot without touching any backend.
func Plan(snapshot Snapshot, code string, quantity int) (Sale, error) {
	if quantity <= 0 {
		return Sale{}, ErrInvalidQuantity
	}
	code = models.NormalizeCode(code)
	product, ok := snapshot.Get(code)
	if !ok {
		return Sale{}, fmt.Errorf("%w: %q", ErrNotFound, code)
	}
	if product.Quantity-quantity < 0 {
		return Sale{}, &InsufficientStockError{Code: code, Current: product.Quantity}
	}
	return Sale{
		Product:     product,
		Quantity:    quantity,
		NewQuantity: product.Quantity - quantity,
	}, nil
}

// Workflow runs sales against a Backend.
type Workflow struct {
	backend Backend
	mode    Mode
	log     *zap.Logger
	tracer  trace.Tracer
}

// New creates a Workflow. A nil logger disables logging.
func New(backend Backend, mode Mode, logger *zap.Logger) *Workflow {
	return &Workflow{
		backend: backend,
		mode:    mode,
		log:     logging.OrNop(logger),
		tracer:  otel.Tracer(tracerName),
	}
}

// Refresh fetches the full stock from the backend.
func (w *Workflow) Refresh(ctx context.Context) (Snapshot, error) {
	products, err := w.backend.List(ctx)
	if err != nil {
		return Snapshot{}, NewTransportError("list", err)
	}
	return NewSnapshot(products), nil
}

// Sell validates the sale against snapshot, persists it and re-fetches the
// stock. On any error before the write is confirmed the returned Result holds
// the input snapshot unchanged.
func (w *Workflow) Sell(ctx context.Context, snapshot Snapshot, code string, quantity int) (Result, error) {
	code = models.NormalizeCode(code)
	ctx, span := w.tracer.Start(ctx, "checkout.Sell", trace.WithAttributes(
		attribute.String("product.code", code),
		attribute.Int("sale.quantity", quantity),
	))
	defer span.End()

	sale, err := Plan(snapshot, code, quantity)
	if err != nil {
		span.SetStatus(codes.Error, "rejected")
		w.log.Info("sale_rejected", zap.String("code", code), zap.Int("quantity", quantity), zap.Error(err))
		return Result{Snapshot: snapshot}, err
	}

	message, mode, err := w.persist(ctx, sale)
	span.SetAttributes(attribute.String("checkout.mode", mode.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		w.log.Warn("sale_failed", zap.String("code", code), zap.Stringer("mode", mode), zap.Error(err))
		return Result{Snapshot: snapshot}, err
	}
	if message == "" {
		message = fmt.Sprintf("Sale of %d unit(s) of %s registered.", sale.Quantity, code)
	}

	result := Result{Sale: sale, Message: message, Mode: mode, Snapshot: snapshot}
	fresh, err := w.Refresh(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		w.log.Warn("stock_refresh_failed", zap.String("code", code), zap.Error(err))
		result.Stale = true
		return result, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	result.Snapshot = fresh

	span.SetStatus(codes.Ok, "sold")
	w.log.Info("sale_registered",
		zap.String("code", code),
		zap.Int("quantity", sale.Quantity),
		zap.Int("remaining", sale.NewQuantity),
		zap.Stringer("mode", mode),
	)
	return result, nil
}

func (w *Workflow) persist(ctx context.Context, sale Sale) (string, Mode, error) {
	if w.mode == ModeSell {
		message, err := w.backend.Sell(ctx, sale.Product.Code, sale.Quantity)
		if err == nil {
			return message, ModeSell, nil
		}
		if !errors.Is(err, ErrSellUnsupported) {
			return "", ModeSell, NewTransportError("sell", err)
		}
		w.log.Info("sell_unsupported_falling_back", zap.String("code", sale.Product.Code))
	}

	message, err := w.backend.Upsert(ctx, sale.Record())
	if err != nil {
		return "", ModeUpsert, NewTransportError("upsert", err)
	}
	return message, ModeUpsert, nil
}
