// Package execerr defines the error taxonomy shared across the execution
// engine: order management, indicators, strategies, execution algorithms,
// and the backtester all return errors wrapped with one of these kinds so
// callers (and, eventually, an HTTP layer) can switch on cause rather than
// string-match messages.
package execerr

import (
	"errors"
	"fmt"
)

// Kind identifies the taxonomy bucket of an Error, independent of message text.
type Kind string

const (
	OrderNotFound      Kind = "order_not_found"
	DataNotFound       Kind = "data_not_found"
	InvalidParameter   Kind = "invalid_parameter"
	InvalidStrategy    Kind = "invalid_strategy"
	DuplicateStrategy  Kind = "duplicate_strategy"
	StrategyNotFound   Kind = "strategy_not_found"
	AlreadyRunning     Kind = "already_running"
	InsufficientBalance Kind = "insufficient_balance"
	InsufficientData   Kind = "insufficient_data"
	MissingData        Kind = "missing_data"
	CalculationError   Kind = "calculation_error"
	RiskLimitExceeded  Kind = "risk_limit_exceeded"
	ExchangeError      Kind = "exchange_error"
	ConfigError        Kind = "config_error"
	ParseError         Kind = "parse_error"
	IoError            Kind = "io_error"
	NotConnected       Kind = "not_connected"
	NotSubscribed      Kind = "not_subscribed"
	ChannelNotFound    Kind = "channel_not_found"
	TaskNotFound       Kind = "task_not_found"
	NoAvailableProvider Kind = "no_available_provider"
	LockError          Kind = "lock_error"
	Unauthorized       Kind = "unauthorized"
	Unknown            Kind = "unknown"
)

// Error is a taxonomy-tagged error. The Kind survives wrapping so callers
// can recover it with errors.As regardless of how many times the error was
// wrapped with fmt.Errorf("%w").
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error carrying kind and a plain message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error, preserving it for Unwrap.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether the first *Error in err's chain (the one KindOf reads)
// carries the given Kind; *Error values wrapped beneath it are not checked.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or Unknown if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
