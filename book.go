package match

import "log/slog"

// Book is a single-instrument limit order book matched under price-time priority.
//
// Book is not safe for concurrent use. Every call must complete before the next
// one starts; OrderBook provides that single-writer boundary.
type Book struct {
	marketID   string
	seqID      uint64 // last BookLog sequence ID
	tradeID    uint64 // last trade ID
	bidQueue   *queue
	askQueue   *queue
	orders     map[string]*Order
	publishLog PublishLog
}

// NewBook creates an empty book. A nil publisher discards every log.
func NewBook(marketID string, publishLog PublishLog) *Book {
	if publishLog == nil {
		publishLog = NewDiscardPublishLog()
	}
	return &Book{
		marketID:   marketID,
		bidQueue:   NewBuyerQueue(),
		askQueue:   NewSellerQueue(),
		orders:     make(map[string]*Order),
		publishLog: publishLog,
	}
}

// AddOrder admits an order and runs matching. Rejected orders (malformed,
// duplicate ID, FillAndKill without crossing liquidity) leave the book
// untouched and return no trades.
func (book *Book) AddOrder(order *Order) Trades {
	logs := make([]*BookLog, 0, 8)
	trades, logs := book.addOrder(order, logs)
	book.publish(logs)
	return trades
}

// CancelOrder removes a resting order. Unknown IDs are ignored.
func (book *Book) CancelOrder(id string) {
	logs := book.cancelOrder(id, make([]*BookLog, 0, 1))
	book.publish(logs)
}

// ModifyOrder replaces a resting order with a new one that keeps the ID and
// order type. The replacement always goes to the back of its level, so time
// priority is lost even when only the quantity changes.
func (book *Book) ModifyOrder(id string, side Side, price int64, quantity uint64) Trades {
	existing, ok := book.orders[id]
	if !ok {
		return nil
	}

	logs := make([]*BookLog, 0, 8)
	book.removeOrder(existing)

	order := NewOrder(id, existing.Type, side, price, quantity)
	logs = append(logs, NewAmendLog(book.nextSeqID(), book.marketID, order, existing))

	trades, logs := book.addOrder(order, logs)
	book.publish(logs)
	return trades
}

// DepthSnapshot returns every price level of both sides in priority order.
func (book *Book) DepthSnapshot() *Depth {
	return book.Depth(0)
}

// Depth returns up to limit levels per side. A limit of zero or less returns all levels.
func (book *Book) Depth(limit int) *Depth {
	return &Depth{
		UpdateID: book.seqID,
		Bids:     book.bidQueue.depth(limit),
		Asks:     book.askQueue.depth(limit),
	}
}

// Size returns the number of resting orders.
func (book *Book) Size() int {
	return len(book.orders)
}

func (book *Book) Stats() BookStats {
	return BookStats{
		AskDepthCount: book.askQueue.depthCount(),
		AskOrderCount: book.askQueue.orderCount(),
		BidDepthCount: book.bidQueue.depthCount(),
		BidOrderCount: book.bidQueue.orderCount(),
	}
}

// Order returns a copy of a resting order.
func (book *Book) Order(id string) (Order, bool) {
	order, ok := book.orders[id]
	if !ok {
		return Order{}, false
	}
	return *order.clone(), true
}

// SequenceID returns the sequence ID of the last published log.
func (book *Book) SequenceID() uint64 {
	return book.seqID
}

func (book *Book) addOrder(order *Order, logs []*BookLog) (Trades, []*BookLog) {
	if !order.isValid() {
		return nil, book.reject(order, RejectReasonInvalidOrder, logs)
	}

	if _, ok := book.orders[order.ID]; ok {
		return nil, book.reject(order, RejectReasonDuplicateID, logs)
	}

	if order.Type == FillAndKill {
		target := book.queueOf(order.Side.Opposite())
		if target.orderCount() == 0 {
			return nil, book.reject(order, RejectReasonNoLiquidity, logs)
		}
		if !target.crosses(order.Price) {
			return nil, book.reject(order, RejectReasonPriceMismatch, logs)
		}
	}

	order.stamp()
	book.queueOf(order.Side).insertOrder(order)
	book.orders[order.ID] = order
	logs = append(logs, NewOpenLog(book.nextSeqID(), book.marketID, order))

	return book.matchOrders(logs)
}

func (book *Book) cancelOrder(id string, logs []*BookLog) []*BookLog {
	order, ok := book.orders[id]
	if !ok {
		return logs
	}

	book.removeOrder(order)
	return append(logs, NewCancelLog(book.nextSeqID(), book.marketID, order))
}

// removeOrder takes an order out of its level and the index.
func (book *Book) removeOrder(order *Order) {
	book.queueOf(order.Side).removeOrder(order)
	delete(book.orders, order.ID)
}

func (book *Book) reject(order *Order, reason RejectReason, logs []*BookLog) []*BookLog {
	if order == nil {
		logger.Debug("order rejected", slog.String("market_id", book.marketID), slog.String("reason", string(reason)))
		return append(logs, NewRejectLog(book.nextSeqID(), book.marketID, nil, reason))
	}

	logger.Debug("order rejected",
		slog.String("market_id", book.marketID),
		slog.String("order_id", order.ID),
		slog.String("side", order.Side.String()),
		slog.Int64("price", order.Price),
		slog.String("reason", string(reason)),
	)
	return append(logs, NewRejectLog(book.nextSeqID(), book.marketID, order, reason))
}

func (book *Book) queueOf(side Side) *queue {
	if side == Buy {
		return book.bidQueue
	}
	return book.askQueue
}

func (book *Book) publish(logs []*BookLog) {
	if len(logs) == 0 {
		return
	}

	book.publishLog.Publish(logs...)
	for _, log := range logs {
		releaseBookLog(log)
	}
}

func (book *Book) nextSeqID() uint64 {
	book.seqID++
	return book.seqID
}

func (book *Book) nextTradeID() uint64 {
	book.tradeID++
	return book.tradeID
}
