package match

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
)

// CommandType represents the type of command sent to the order book.
type CommandType int

const (
	CmdPlaceOrder CommandType = iota
	CmdCancelOrder
	CmdModifyOrder
	CmdDepth
	CmdSize
	CmdGetStats
)

// Command represents a unified command sent to the order book.
// A single channel keeps every command in arrival order.
type Command struct {
	Type    CommandType
	Payload any
	Resp    chan any
}

type ModifyRequest struct {
	OrderID  string
	Side     Side
	Price    int64
	Quantity uint64
}

// OrderBook owns a Book and serializes every call to it through one goroutine.
// Depth and stats are computed inside that goroutine too, so they are always a
// consistent point-in-time view.
type OrderBook struct {
	marketID         string
	isShutdown       atomic.Bool
	book             *Book
	cmdChan          chan Command
	done             chan struct{}
	shutdownComplete chan struct{}
}

// NewOrderBook creates a new order book instance. Call Start to run it.
func NewOrderBook(marketID string, publishLog PublishLog) *OrderBook {
	return &OrderBook{
		marketID:         marketID,
		book:             NewBook(marketID, publishLog),
		cmdChan:          make(chan Command, 32768),
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
	}
}

// AddOrder submits a copy of the order and waits for the resulting trades.
func (book *OrderBook) AddOrder(ctx context.Context, order *Order) (Trades, error) {
	if !order.isValid() {
		return nil, ErrInvalidParam
	}

	res, err := book.send(ctx, CmdPlaceOrder, order.clone())
	if err != nil {
		return nil, err
	}
	trades, _ := res.(Trades)
	return trades, nil
}

// CancelOrder removes a resting order. Unknown IDs are not an error.
func (book *OrderBook) CancelOrder(ctx context.Context, id string) error {
	if len(id) == 0 {
		return nil
	}

	_, err := book.send(ctx, CmdCancelOrder, id)
	return err
}

// ModifyOrder replaces a resting order and waits for the resulting trades.
func (book *OrderBook) ModifyOrder(ctx context.Context, id string, side Side, price int64, quantity uint64) (Trades, error) {
	if len(id) == 0 || !side.isValid() || quantity == 0 {
		return nil, ErrInvalidParam
	}

	res, err := book.send(ctx, CmdModifyOrder, &ModifyRequest{OrderID: id, Side: side, Price: price, Quantity: quantity})
	if err != nil {
		return nil, err
	}
	trades, _ := res.(Trades)
	return trades, nil
}

// Depth returns up to limit levels per side; zero or less returns all of them.
func (book *OrderBook) Depth(ctx context.Context, limit int) (*Depth, error) {
	res, err := book.send(ctx, CmdDepth, limit)
	if err != nil {
		return nil, err
	}
	depth, _ := res.(*Depth)
	return depth, nil
}

// Size returns the number of resting orders.
func (book *OrderBook) Size(ctx context.Context) (int, error) {
	res, err := book.send(ctx, CmdSize, nil)
	if err != nil {
		return 0, err
	}
	size, _ := res.(int)
	return size, nil
}

// GetStats returns usage statistics for the order book.
func (book *OrderBook) GetStats(ctx context.Context) (*BookStats, error) {
	res, err := book.send(ctx, CmdGetStats, nil)
	if err != nil {
		return nil, err
	}
	stats, _ := res.(*BookStats)
	return stats, nil
}

// Start runs the order book loop until Shutdown is called and pending commands are drained.
func (book *OrderBook) Start() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	logger.Info("order book started", slog.String("market_id", book.marketID))

	for {
		select {
		case <-book.done:
			return book.drain()
		case cmd := <-book.cmdChan:
			book.handle(cmd)
		}
	}
}

// Shutdown signals the order book to stop accepting new commands and waits for all pending ones to be processed.
// Returns nil if shutdown completed successfully, or ctx.Err() if the context was cancelled.
func (book *OrderBook) Shutdown(ctx context.Context) error {
	if book.isShutdown.CompareAndSwap(false, true) {
		close(book.done)
	}

	select {
	case <-book.shutdownComplete:
		logger.Info("order book stopped",
			slog.String("market_id", book.marketID),
			slog.Int("resting_orders", book.book.Size()),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain processes all remaining commands before returning.
func (book *OrderBook) drain() error {
	defer close(book.shutdownComplete)

	for {
		select {
		case cmd := <-book.cmdChan:
			book.handle(cmd)
		default:
			return nil
		}
	}
}

func (book *OrderBook) handle(cmd Command) {
	var result any

	switch cmd.Type {
	case CmdPlaceOrder:
		if order, ok := cmd.Payload.(*Order); ok {
			result = book.book.AddOrder(order)
		}
	case CmdCancelOrder:
		if id, ok := cmd.Payload.(string); ok {
			book.book.CancelOrder(id)
		}
	case CmdModifyOrder:
		if req, ok := cmd.Payload.(*ModifyRequest); ok {
			result = book.book.ModifyOrder(req.OrderID, req.Side, req.Price, req.Quantity)
		}
	case CmdDepth:
		if limit, ok := cmd.Payload.(int); ok {
			result = book.book.Depth(limit)
		}
	case CmdSize:
		result = book.book.Size()
	case CmdGetStats:
		stats := book.book.Stats()
		result = &stats
	}

	if cmd.Resp == nil {
		return
	}
	select {
	case cmd.Resp <- result:
	default:
		logger.Warn("order book reply dropped", slog.String("market_id", book.marketID), slog.Int("cmd", int(cmd.Type)))
	}
}

// send enqueues a command and waits for its reply.
func (book *OrderBook) send(ctx context.Context, cmdType CommandType, payload any) (any, error) {
	if book.isShutdown.Load() {
		return nil, ErrShutdown
	}

	resp := make(chan any, 1)
	select {
	case book.cmdChan <- Command{Type: cmdType, Payload: payload, Resp: resp}:
	case <-book.done:
		return nil, ErrShutdown
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}

	select {
	case res := <-resp:
		return res, nil
	case <-book.shutdownComplete:
		// The command may have been handled by the final drain.
		select {
		case res := <-resp:
			return res, nil
		default:
			return nil, ErrShutdown
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
}
