// Package console is the operator front end: it keeps the current stock
// snapshot and turns every operation into a notice.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"text/tabwriter"

	"stockroom/internal/checkout"
	"stockroom/internal/models"
	"stockroom/internal/scanner"
	"stockroom/pkg/logging"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Inventory is the service the console drives.
type Inventory interface {
	checkout.Backend
	Update(ctx context.Context, product models.Product) (string, error)
	Delete(ctx context.Context, code string) (string, error)
	Sales(ctx context.Context) ([]models.Sale, error)
}

// ConfirmFunc asks the operator before a product is deleted.
type ConfirmFunc func(product models.Product) bool

// Session holds the console state. The snapshot is only ever replaced whole.
type Session struct {
	inventory Inventory
	workflow  *checkout.Workflow
	validate  *validator.Validate
	log       *zap.Logger

	snapshot atomic.Pointer[checkout.Snapshot]
	notice   atomic.Pointer[Notice]
}

// NewSession creates a session with an empty snapshot.
func NewSession(inventory Inventory, mode checkout.Mode, logger *zap.Logger) *Session {
	log := logging.OrNop(logger)
	s := &Session{
		inventory: inventory,
		workflow:  checkout.New(inventory, mode, log),
		validate:  models.NewValidator(),
		log:       log,
	}
	s.setSnapshot(checkout.NewSnapshot(nil))
	return s
}

// Snapshot returns the stock as last fetched.
func (s *Session) Snapshot() checkout.Snapshot {
	return *s.snapshot.Load()
}

func (s *Session) setSnapshot(snapshot checkout.Snapshot) {
	s.snapshot.Store(&snapshot)
}

// Notice returns the last notice, zero when dismissed.
func (s *Session) Notice() Notice {
	if n := s.notice.Load(); n != nil {
		return *n
	}
	return Notice{}
}

// Dismiss clears the last notice.
func (s *Session) Dismiss() {
	s.notice.Store(nil)
}

func (s *Session) post(n Notice) Notice {
	s.notice.Store(&n)
	return n
}

func (s *Session) fail(op string, err error) Notice {
	s.log.Info("console_operation_failed", zap.String("op", op), zap.Error(err))
	return s.post(noticeFor(err))
}

// Refresh reloads the snapshot from the service.
func (s *Session) Refresh(ctx context.Context) Notice {
	snapshot, err := s.workflow.Refresh(ctx)
	if err != nil {
		return s.fail("refresh", err)
	}
	s.setSnapshot(snapshot)
	return s.post(info(fmt.Sprintf("%d product(s) loaded.", snapshot.Len())))
}

// Render writes the stock table.
func (s *Session) Render(w io.Writer) error {
	products := s.Snapshot().Products()
	if len(products) == 0 {
		_, err := fmt.Fprintln(w, "No products in stock.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tPRICE\tQTY")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.Code, p.Name, p.Price.StringFixed(2), p.Quantity)
	}
	return tw.Flush()
}

// Add creates a product, or replaces the one with the same code.
func (s *Session) Add(ctx context.Context, product models.Product) Notice {
	product = product.Normalize()
	if err := s.validate.Struct(product); err != nil {
		return s.fail("add", err)
	}
	message, err := s.inventory.Upsert(ctx, product)
	if err != nil {
		return s.fail("add", checkout.NewTransportError("upsert", err))
	}
	return s.afterWrite(ctx, message)
}

// Edit changes an existing product.
func (s *Session) Edit(ctx context.Context, product models.Product) Notice {
	product = product.Normalize()
	if err := s.validate.Struct(product); err != nil {
		return s.fail("edit", err)
	}
	message, err := s.inventory.Update(ctx, product)
	if err != nil {
		return s.fail("edit", checkout.NewTransportError("update", err))
	}
	return s.afterWrite(ctx, message)
}

// Delete removes a product once confirm agrees. A nil confirm deletes directly.
func (s *Session) Delete(ctx context.Context, code string, confirm ConfirmFunc) Notice {
	code = models.NormalizeCode(code)
	product, ok := s.Snapshot().Get(code)
	if !ok {
		return s.fail("delete", fmt.Errorf("%w: %q", checkout.ErrNotFound, code))
	}
	if confirm != nil && !confirm(product) {
		return s.post(info("Deletion cancelled."))
	}
	message, err := s.inventory.Delete(ctx, code)
	if err != nil {
		return s.fail("delete", checkout.NewTransportError("delete", err))
	}
	return s.afterWrite(ctx, message)
}

// Sell runs the checkout workflow against the current snapshot.
func (s *Session) Sell(ctx context.Context, code string, quantity int) Notice {
	result, err := s.workflow.Sell(ctx, s.Snapshot(), code, quantity)
	if result.Stale {
		return s.post(Notice{LevelWarning, result.Message + " The stock list could not be refreshed."})
	}
	if err != nil {
		return s.fail("sell", err)
	}
	s.setSnapshot(result.Snapshot)
	return s.post(success(result.Message))
}

// Scan sells one unit per line read from r until EOF or ctx ends. Every
// scan's notice is written to out.
func (s *Session) Scan(ctx context.Context, r io.Reader, out io.Writer) error {
	var last Notice
	buf := scanner.NewBuffer(func(ctx context.Context, code string, quantity int) error {
		last = s.Sell(ctx, code, quantity)
		if last.Level == LevelError {
			return errors.New(last.Text)
		}
		return nil
	})
	return buf.Run(ctx, r, func(code string, err error) {
		n := last
		if code == "" {
			n = s.fail("scan", err)
		}
		fmt.Fprintln(out, n)
	})
}

// Sales writes the sales ledger.
func (s *Session) Sales(ctx context.Context, w io.Writer) Notice {
	sales, err := s.inventory.Sales(ctx)
	if err != nil {
		return s.fail("sales", checkout.NewTransportError("sales", err))
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tCODE\tQTY\tUNIT\tTOTAL")
	total := 0
	for _, sale := range sales {
		total += sale.Quantity
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			sale.CreatedAt.Format("2006-01-02 15:04"),
			sale.Code,
			sale.Quantity,
			sale.UnitPrice.StringFixed(2),
			sale.Total.StringFixed(2),
		)
	}
	if err := tw.Flush(); err != nil {
		return s.fail("sales", err)
	}
	return s.post(info(fmt.Sprintf("%d sale(s), %d unit(s).", len(sales), total)))
}

func (s *Session) afterWrite(ctx context.Context, message string) Notice {
	snapshot, err := s.workflow.Refresh(ctx)
	if err != nil {
		s.log.Warn("stock_refresh_failed", zap.Error(err))
		return s.post(Notice{LevelWarning, message + " The stock list could not be refreshed."})
	}
	s.setSnapshot(snapshot)
	return s.post(success(message))
}

