package execerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessageWithAndWithoutCause(t *testing.T) {
	plain := New(OrderNotFound, "no such order")
	if plain.Error() != "order_not_found: no such order" {
		t.Errorf("unexpected message: %s", plain.Error())
	}

	wrapped := Wrap(ExchangeError, "submit failed", errors.New("timeout"))
	if wrapped.Error() != "exchange_error: submit failed: timeout" {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}

func TestNewfFormats(t *testing.T) {
	err := Newf(InvalidParameter, "quantity %s below minimum %s", "0.0001", "0.01")
	want := "invalid_parameter: quantity 0.0001 below minimum 0.01"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestIsSurvivesFmtWrapping(t *testing.T) {
	base := New(StrategyNotFound, "missing")
	wrapped := fmt.Errorf("registering: %w", base)

	if !Is(wrapped, StrategyNotFound) {
		t.Error("expected Is to unwrap through fmt.Errorf and find the kind")
	}
	if Is(wrapped, OrderNotFound) {
		t.Error("expected Is to reject the wrong kind")
	}
}

func TestIsFalseForPlainError(t *testing.T) {
	if Is(errors.New("plain"), Unknown) {
		t.Error("a plain error should never match any Kind")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(New(RiskLimitExceeded, "too big")); got != RiskLimitExceeded {
		t.Errorf("KindOf = %v, want RiskLimitExceeded", got)
	}
	if got := KindOf(errors.New("plain")); got != Unknown {
		t.Errorf("KindOf on a plain error = %v, want Unknown", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := Wrap(IoError, "read failed", cause)
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the wrapped cause via Unwrap")
	}
}
