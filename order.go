package match

import (
	"fmt"
	"time"
)

// Order is a resting or incoming order. Once submitted it is owned by the
// price level it rests in; only matching mutates it.
type Order struct {
	ID        string    `json:"id"`
	Side      Side      `json:"side"`
	Type      OrderType `json:"type"`
	Price     int64     `json:"price"`     // order book ticks
	Quantity  uint64    `json:"quantity"`  // initial size
	Remaining uint64    `json:"remaining"` // never increases
	Timestamp int64     `json:"timestamp"` // Unix nano, admission time

	// Intrusive linked list pointers. Together with level they are the stable
	// position handle used for O(1) cancellation.
	next  *Order
	prev  *Order
	level *priceUnit
}

// NewOrder creates an order whose remaining quantity equals its quantity.
func NewOrder(id string, orderType OrderType, side Side, price int64, quantity uint64) *Order {
	return &Order{
		ID:        id,
		Side:      side,
		Type:      orderType,
		Price:     price,
		Quantity:  quantity,
		Remaining: quantity,
	}
}

// Filled returns the quantity already traded.
func (o *Order) Filled() uint64 {
	return o.Quantity - o.Remaining
}

func (o *Order) IsFilled() bool {
	return o.Remaining == 0
}

// Fill reduces the remaining quantity. Filling more than what remains means the
// matching accounting is broken, so it panics.
func (o *Order) Fill(quantity uint64) {
	if quantity > o.Remaining {
		panic(fmt.Errorf("%w: order %s fill %d, remaining %d", ErrOverfill, o.ID, quantity, o.Remaining))
	}
	o.Remaining -= quantity
}

func (o *Order) isValid() bool {
	return o != nil &&
		len(o.ID) > 0 &&
		o.Side.isValid() &&
		o.Type.isValid() &&
		o.Remaining > 0 &&
		o.Remaining <= o.Quantity
}

// clone returns a detached copy of the order.
func (o *Order) clone() *Order {
	cpy := *o
	cpy.next = nil
	cpy.prev = nil
	cpy.level = nil
	return &cpy
}

func (o *Order) stamp() {
	o.Timestamp = time.Now().UnixNano()
}
