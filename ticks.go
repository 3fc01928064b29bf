package match

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var maxPrice = decimal.NewFromInt(math.MaxInt64)

// TickSize converts between integer book prices (ticks) and decimal prices.
type TickSize struct {
	size decimal.Decimal
}

// NewTickSize parses a positive decimal tick size such as "0.01".
func NewTickSize(s string) (TickSize, error) {
	size, err := decimal.NewFromString(s)
	if err != nil {
		return TickSize{}, fmt.Errorf("%w: tick size %q: %v", ErrInvalidParam, s, err)
	}
	if !size.IsPositive() {
		return TickSize{}, fmt.Errorf("%w: tick size %q must be positive", ErrInvalidParam, s)
	}
	return TickSize{size: size}, nil
}

// ToDecimal returns the decimal price of a tick price.
func (t TickSize) ToDecimal(price int64) decimal.Decimal {
	return decimal.NewFromInt(price).Mul(t.size)
}

// ToPrice converts a decimal price into ticks. The price must be a whole number of ticks.
func (t TickSize) ToPrice(price decimal.Decimal) (int64, error) {
	ticks := price.Div(t.size)
	if !ticks.IsInteger() {
		return 0, fmt.Errorf("%w: price %s is not a multiple of tick size %s", ErrInvalidParam, price, t.size)
	}
	if ticks.Abs().GreaterThan(maxPrice) {
		return 0, fmt.Errorf("%w: price %s out of range", ErrInvalidParam, price)
	}
	return ticks.IntPart(), nil
}

func (t TickSize) String() string {
	return t.size.String()
}
