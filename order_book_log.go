package match

import (
	"sync"
	"time"
)

// BookLog represents an event in the order book.
// SequenceID increases by one for every event of a book, which lets downstream
// consumers order, deduplicate and detect gaps.
// Use LogType to determine if the event affects order book state:
// - Open, Match, Cancel, Amend: affect order book state
// - Reject: does not affect order book state
type BookLog struct {
	SequenceID   uint64       `json:"seq_id"`
	TradeID      uint64       `json:"trade_id,omitempty"` // only set for Match events
	Type         LogType      `json:"type"`
	MarketID     string       `json:"market_id"`
	OrderID      string       `json:"order_id,omitempty"`
	OrderType    OrderType    `json:"order_type,omitempty"`
	Side         Side         `json:"side,omitempty"`
	Price        int64        `json:"price"`
	Size         uint64       `json:"size"`
	OldSide      Side         `json:"old_side,omitempty"` // Amend: where the replaced order rested
	OldPrice     int64        `json:"old_price,omitempty"`
	OldSize      uint64       `json:"old_size,omitempty"`
	BidOrderID   string       `json:"bid_order_id,omitempty"` // Match only
	BidPrice     int64        `json:"bid_price,omitempty"`
	AskOrderID   string       `json:"ask_order_id,omitempty"`
	AskPrice     int64        `json:"ask_price,omitempty"`
	RejectReason RejectReason `json:"reject_reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

var bookLogPool = sync.Pool{
	New: func() any {
		return new(BookLog)
	},
}

func acquireBookLog() *BookLog {
	return bookLogPool.Get().(*BookLog)
}

func releaseBookLog(log *BookLog) {
	*log = BookLog{}
	bookLogPool.Put(log)
}

func NewOpenLog(seqID uint64, marketID string, order *Order) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeOpen
	log.MarketID = marketID
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Remaining
	log.CreatedAt = time.Now().UTC()
	return log
}

// NewMatchLog records one trade. Size is the traded quantity; each side keeps its own price.
func NewMatchLog(seqID uint64, marketID string, trade *Trade) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.TradeID = trade.ID
	log.Type = LogTypeMatch
	log.MarketID = marketID
	log.Size = trade.Bid.Quantity
	log.BidOrderID = trade.Bid.OrderID
	log.BidPrice = trade.Bid.Price
	log.AskOrderID = trade.Ask.OrderID
	log.AskPrice = trade.Ask.Price
	log.CreatedAt = time.Now().UTC()
	return log
}

// NewCancelLog records the removal of a resting order. Size is what was still resting.
func NewCancelLog(seqID uint64, marketID string, order *Order) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeCancel
	log.MarketID = marketID
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Remaining
	log.CreatedAt = time.Now().UTC()
	return log
}

// NewAmendLog records that oldOrder left the book to be replaced by order.
// The replacement is admitted afterwards and produces its own open or reject log.
func NewAmendLog(seqID uint64, marketID string, order *Order, oldOrder *Order) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeAmend
	log.MarketID = marketID
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Remaining
	log.OldSide = oldOrder.Side
	log.OldPrice = oldOrder.Price
	log.OldSize = oldOrder.Remaining
	log.CreatedAt = time.Now().UTC()
	return log
}

func NewRejectLog(seqID uint64, marketID string, order *Order, reason RejectReason) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeReject
	log.MarketID = marketID
	if order != nil {
		log.OrderID = order.ID
		log.OrderType = order.Type
		log.Side = order.Side
		log.Price = order.Price
		log.Size = order.Remaining
	}
	log.RejectReason = reason
	log.CreatedAt = time.Now().UTC()
	return log
}
