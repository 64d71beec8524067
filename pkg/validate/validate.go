// Package validate implements an order validator chain: pure precondition
// checks run in declaration order by the order manager, the first failure
// short-circuiting the chain. Grounded on policy.PolicyEngine.CheckOrder's
// sequence-of-checks style.
package validate

import (
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
)

// Validator is a pure function over an Order; it must not mutate state.
type Validator interface {
	Validate(o *order.Order) error
}

// ValidatorFunc adapts a function to a Validator.
type ValidatorFunc func(o *order.Order) error

func (f ValidatorFunc) Validate(o *order.Order) error { return f(o) }

// Chain runs validators in order, short-circuiting on the first failure.
type Chain struct {
	validators []Validator
}

// NewChain builds a chain from the given validators, run in the order given.
func NewChain(validators ...Validator) *Chain {
	return &Chain{validators: validators}
}

// Check runs the chain against o.
func (c *Chain) Check(o *order.Order) error {
	for _, v := range c.validators {
		if err := v.Validate(o); err != nil {
			return err
		}
	}
	return nil
}

// Basic validates quantity and price preconditions: quantity > 0, quantity
// within [min, max], and price >= 0 (price is only meaningful for
// non-Market types, but the check runs unconditionally).
type Basic struct {
	MinQuantity decimal.Decimal
	MaxQuantity decimal.Decimal
}

func (b Basic) Validate(o *order.Order) error {
	if !o.Quantity.IsPositive() {
		return execerr.New(execerr.InvalidParameter, "quantity must be > 0")
	}
	if b.MinQuantity.IsPositive() && o.Quantity.LessThan(b.MinQuantity) {
		return execerr.Newf(execerr.InvalidParameter, "quantity %s below minimum %s", o.Quantity, b.MinQuantity)
	}
	if b.MaxQuantity.IsPositive() && o.Quantity.GreaterThan(b.MaxQuantity) {
		return execerr.Newf(execerr.InvalidParameter, "quantity %s above maximum %s", o.Quantity, b.MaxQuantity)
	}
	if o.Price.IsNegative() {
		return execerr.New(execerr.InvalidParameter, "price must be >= 0")
	}
	return nil
}

// Risk validates position-size and notional caps.
type Risk struct {
	MaxPositionSize  decimal.Decimal
	MaxNotionalValue decimal.Decimal
}

func (r Risk) Validate(o *order.Order) error {
	if r.MaxPositionSize.IsPositive() && o.Quantity.GreaterThan(r.MaxPositionSize) {
		return execerr.Newf(execerr.RiskLimitExceeded, "quantity %s exceeds max position size %s", o.Quantity, r.MaxPositionSize)
	}
	if r.MaxNotionalValue.IsPositive() {
		notional := o.Quantity.Mul(o.Price)
		if notional.GreaterThan(r.MaxNotionalValue) {
			return execerr.Newf(execerr.RiskLimitExceeded, "notional %s exceeds max %s", notional, r.MaxNotionalValue)
		}
	}
	return nil
}
