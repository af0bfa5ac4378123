// Package scanner turns keyboard-wedge barcode input into sales.
package scanner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"stockroom/internal/models"
)

// ErrEmptyScan is reported when a terminator arrives with nothing buffered.
var ErrEmptyScan = errors.New("empty scan")

// SellFunc sells quantity units of code. Scans always pass quantity 1.
type SellFunc func(ctx context.Context, code string, quantity int) error

// Buffer accumulates scanned runes until a line terminator. It is not safe
// for concurrent use.
type Buffer struct {
	sell    SellFunc
	pending strings.Builder
	lastCR  bool
}

func NewBuffer(sell SellFunc) *Buffer {
	return &Buffer{sell: sell}
}

// Feed adds one rune. On '\n' or '\r' the buffered code is cleared and then
// sold; a '\n' right after '\r' is ignored. done reports whether a scan ended.
func (b *Buffer) Feed(ctx context.Context, r rune) (done bool, code string, err error) {
	if r == '\n' && b.lastCR {
		b.lastCR = false
		return false, "", nil
	}
	b.lastCR = r == '\r'

	if r != '\n' && r != '\r' {
		b.pending.WriteRune(r)
		return false, "", nil
	}

	code = models.NormalizeCode(b.pending.String())
	b.pending.Reset()
	if code == "" {
		return true, "", ErrEmptyScan
	}
	return true, code, b.sell(ctx, code, 1)
}

// Pending returns the text buffered so far.
func (b *Buffer) Pending() string {
	return b.pending.String()
}

// Run feeds r into the buffer until EOF or ctx is done. report, when not nil,
// receives every completed scan; errors from individual scans never stop Run.
func (b *Buffer) Run(ctx context.Context, r io.Reader, report func(code string, err error)) error {
	reader := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ch, _, err := reader.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		done, code, scanErr := b.Feed(ctx, ch)
		if done && report != nil {
			report(code, scanErr)
		}
	}
}
