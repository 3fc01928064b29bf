package match

import (
	"github.com/huandu/skiplist"
)

// priceUnit is a single price level: a FIFO of orders resting at one price.
type priceUnit struct {
	price     int64
	totalSize uint64
	head      *Order
	tail      *Order
	count     int64
	elem      *skiplist.Element
}

// queue is one side of the book. Levels are kept in priority order, so the
// front of depthList is always the best price.
type queue struct {
	side        Side
	totalOrders int64
	depths      int64
	depthList   *skiplist.SkipList
	priceList   map[int64]*priceUnit
}

// NewBuyerQueue creates a new queue for buy orders (bids).
// The orders are sorted by price in descending order (highest price first).
func NewBuyerQueue() *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(int64)
			p2, _ := rhs.(int64)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[int64]*priceUnit),
	}
}

// NewSellerQueue creates a new queue for sell orders (asks).
// The orders are sorted by price in ascending order (lowest price first).
func NewSellerQueue() *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(int64)
			p2, _ := rhs.(int64)

			if p1 > p2 {
				return 1
			} else if p1 < p2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[int64]*priceUnit),
	}
}

// insertOrder appends an order to the back of its price level,
// creating the level if it does not exist yet.
func (q *queue) insertOrder(order *Order) {
	unit, ok := q.priceList[order.Price]
	if !ok {
		unit = &priceUnit{price: order.Price}
		unit.elem = q.depthList.Set(order.Price, unit)
		q.priceList[order.Price] = unit
		q.depths++
	}

	order.prev = unit.tail
	order.next = nil
	if unit.tail != nil {
		unit.tail.next = order
	}
	unit.tail = order
	if unit.head == nil {
		unit.head = order
	}
	order.level = unit

	unit.totalSize += order.Remaining
	unit.count++
	q.totalOrders++
}

// removeOrder unlinks an order from its level using the order's own links.
// The level is dropped the moment it becomes empty.
func (q *queue) removeOrder(order *Order) {
	unit := order.level
	if unit == nil {
		return
	}

	if order.prev != nil {
		order.prev.next = order.next
	} else {
		unit.head = order.next
	}

	if order.next != nil {
		order.next.prev = order.prev
	} else {
		unit.tail = order.prev
	}

	order.next = nil
	order.prev = nil
	order.level = nil

	unit.totalSize -= order.Remaining
	unit.count--
	q.totalOrders--

	if unit.count == 0 {
		q.depthList.RemoveElement(unit.elem)
		delete(q.priceList, unit.price)
		q.depths--
	}
}

// fill trades quantity against a resting order and keeps the level total in sync.
func (q *queue) fill(order *Order, quantity uint64) {
	order.Fill(quantity)
	if order.level != nil {
		order.level.totalSize -= quantity
	}
}

// bestUnit returns the best price level, or nil if the side is empty.
func (q *queue) bestUnit() *priceUnit {
	el := q.depthList.Front()
	if el == nil {
		return nil
	}

	unit, _ := el.Value.(*priceUnit)
	return unit
}

// peekHeadOrder returns the order at the front of the best level without removing it.
func (q *queue) peekHeadOrder() *Order {
	unit := q.bestUnit()
	if unit == nil {
		return nil
	}
	return unit.head
}

// crosses reports whether an order at price on the opposite side would match
// this side's best level.
func (q *queue) crosses(price int64) bool {
	unit := q.bestUnit()
	if unit == nil {
		return false
	}
	if q.side == Sell {
		return price >= unit.price
	}
	return price <= unit.price
}

// orderCount returns the total number of orders in the queue.
func (q *queue) orderCount() int64 {
	return q.totalOrders
}

// depthCount returns the number of price levels in the queue.
func (q *queue) depthCount() int64 {
	return q.depths
}

// depth aggregates the remaining size of each level in priority order.
// A limit of zero or less returns every level.
func (q *queue) depth(limit int) []*DepthItem {
	size := int(q.depths)
	if limit > 0 && limit < size {
		size = limit
	}
	result := make([]*DepthItem, 0, size)

	for el := q.depthList.Front(); el != nil && len(result) < size; el = el.Next() {
		unit, _ := el.Value.(*priceUnit)
		result = append(result, &DepthItem{
			Price: unit.price,
			Size:  unit.totalSize,
			Count: unit.count,
		})
	}

	return result
}
