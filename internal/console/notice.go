package console

import (
	"errors"
	"fmt"

	"stockroom/internal/checkout"
	"stockroom/internal/scanner"

	"github.com/go-playground/validator/v10"
)

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "ok"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a transient message for the operator.
type Notice struct {
	Level Level
	Text  string
}

func (n Notice) String() string {
	return fmt.Sprintf("[%s] %s", n.Level, n.Text)
}

// IsZero reports whether there is nothing to show.
func (n Notice) IsZero() bool {
	return n.Text == ""
}

func success(text string) Notice { return Notice{Level: LevelSuccess, Text: text} }
func info(text string) Notice    { return Notice{Level: LevelInfo, Text: text} }

// noticeFor turns a failed operation into the text shown to the operator.
func noticeFor(err error) Notice {
	var (
		stockErr     *checkout.InsufficientStockError
		transportErr *checkout.TransportError
		validErr     validator.ValidationErrors
	)
	switch {
	case errors.Is(err, checkout.ErrInvalidQuantity):
		return Notice{LevelError, "Quantity must be greater than zero."}
	case errors.Is(err, checkout.ErrNotFound):
		return Notice{LevelError, "Code not found."}
	case errors.As(err, &stockErr):
		return Notice{LevelError, fmt.Sprintf("Insufficient stock. Only %d units left.", stockErr.Current)}
	case errors.Is(err, scanner.ErrEmptyScan):
		return Notice{LevelWarning, "Empty scan ignored."}
	case errors.As(err, &validErr):
		return Notice{LevelError, "Fill in every field with valid values."}
	case errors.As(err, &transportErr):
		return Notice{LevelError, transportErr.Message}
	}
	return Notice{LevelError, err.Error()}
}
