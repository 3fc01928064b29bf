package match

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OrderBookTestSuite struct {
	suite.Suite
	ctx        context.Context
	orderBook  *OrderBook
	publishLog *MemoryPublishLog
}

func TestOrderBookTestSuite(t *testing.T) {
	suite.Run(t, new(OrderBookTestSuite))
}

func (s *OrderBookTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.publishLog = NewMemoryPublishLog()
	s.orderBook = NewOrderBook("BTC-USDT", s.publishLog)
	go func() {
		_ = s.orderBook.Start()
	}()

	orders := []*Order{
		NewOrder("buy-1", GoodTillCancel, Buy, 90, 1),
		NewOrder("buy-2", GoodTillCancel, Buy, 80, 1),
		NewOrder("buy-3", GoodTillCancel, Buy, 70, 1),
		NewOrder("sell-1", GoodTillCancel, Sell, 110, 1),
		NewOrder("sell-2", GoodTillCancel, Sell, 120, 1),
		NewOrder("sell-3", GoodTillCancel, Sell, 130, 1),
	}
	for _, order := range orders {
		_, err := s.orderBook.AddOrder(s.ctx, order)
		s.Require().NoError(err)
	}
}

func (s *OrderBookTestSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.NoError(s.orderBook.Shutdown(ctx))
}

func (s *OrderBookTestSuite) TestAddOrder() {
	size, err := s.orderBook.Size(s.ctx)
	s.Require().NoError(err)
	s.Equal(6, size)

	trades, err := s.orderBook.AddOrder(s.ctx, NewOrder("buy-4", GoodTillCancel, Buy, 115, 2))
	s.Require().NoError(err)
	s.Require().Len(trades, 1)
	s.Equal("sell-1", trades[0].Ask.OrderID)
	s.Equal(int64(110), trades[0].Ask.Price)
	s.Equal(int64(115), trades[0].Bid.Price)

	depth, err := s.orderBook.Depth(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(depth.Bids, 1)
	s.Equal(DepthItem{Price: 115, Size: 1, Count: 1}, *depth.Bids[0])
	s.Require().Len(depth.Asks, 1)
	s.Equal(int64(120), depth.Asks[0].Price)
}

func (s *OrderBookTestSuite) TestAddOrderDoesNotRetainCaller() {
	order := NewOrder("buy-4", GoodTillCancel, Buy, 60, 5)
	_, err := s.orderBook.AddOrder(s.ctx, order)
	s.Require().NoError(err)

	// mutating the caller's copy must not reach the book
	order.Remaining = 1

	depth, err := s.orderBook.Depth(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(depth.Bids, 4)
	s.Equal(uint64(5), depth.Bids[3].Size)
}

func (s *OrderBookTestSuite) TestInvalidParams() {
	_, err := s.orderBook.AddOrder(s.ctx, NewOrder("", GoodTillCancel, Buy, 100, 1))
	s.ErrorIs(err, ErrInvalidParam)

	_, err = s.orderBook.AddOrder(s.ctx, NewOrder("x", GoodTillCancel, Buy, 100, 0))
	s.ErrorIs(err, ErrInvalidParam)

	_, err = s.orderBook.AddOrder(s.ctx, NewOrder("x", OrderType("fok"), Buy, 100, 1))
	s.ErrorIs(err, ErrInvalidParam)

	_, err = s.orderBook.AddOrder(s.ctx, nil)
	s.ErrorIs(err, ErrInvalidParam)

	_, err = s.orderBook.ModifyOrder(s.ctx, "buy-1", Side(0), 100, 1)
	s.ErrorIs(err, ErrInvalidParam)

	_, err = s.orderBook.ModifyOrder(s.ctx, "buy-1", Buy, 100, 0)
	s.ErrorIs(err, ErrInvalidParam)

	_, err = s.orderBook.ModifyOrder(s.ctx, "", Buy, 100, 1)
	s.ErrorIs(err, ErrInvalidParam)

	size, err := s.orderBook.Size(s.ctx)
	s.Require().NoError(err)
	s.Equal(6, size)
}

func (s *OrderBookTestSuite) TestDuplicateIsIgnored() {
	trades, err := s.orderBook.AddOrder(s.ctx, NewOrder("sell-1", GoodTillCancel, Buy, 200, 5))
	s.Require().NoError(err)
	s.Empty(trades)

	stats, err := s.orderBook.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), stats.AskOrderCount)
	s.Equal(int64(3), stats.BidOrderCount)
}

func (s *OrderBookTestSuite) TestCancelOrder() {
	s.Require().NoError(s.orderBook.CancelOrder(s.ctx, "buy-1"))
	s.Require().NoError(s.orderBook.CancelOrder(s.ctx, "buy-1"))
	s.Require().NoError(s.orderBook.CancelOrder(s.ctx, "missing"))
	s.Require().NoError(s.orderBook.CancelOrder(s.ctx, ""))

	stats, err := s.orderBook.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(BookStats{AskDepthCount: 3, AskOrderCount: 3, BidDepthCount: 2, BidOrderCount: 2}, *stats)

	s.Len(s.publishLog.LogsOfType(LogTypeCancel), 1)
}

func (s *OrderBookTestSuite) TestModifyOrder() {
	trades, err := s.orderBook.ModifyOrder(s.ctx, "sell-3", Sell, 90, 3)
	s.Require().NoError(err)
	s.Require().Len(trades, 1)
	s.Equal("buy-1", trades[0].Bid.OrderID)
	s.Equal(int64(90), trades[0].Bid.Price)
	s.Equal("sell-3", trades[0].Ask.OrderID)

	depth, err := s.orderBook.Depth(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(depth.Asks, 3)
	s.Equal(DepthItem{Price: 90, Size: 2, Count: 1}, *depth.Asks[0])
	s.Equal(int64(120), depth.Asks[2].Price)

	amends := s.publishLog.LogsOfType(LogTypeAmend)
	s.Require().Len(amends, 1)
	s.Equal(int64(130), amends[0].OldPrice)
	s.Equal(uint64(1), amends[0].OldSize)

	trades, err = s.orderBook.ModifyOrder(s.ctx, "missing", Sell, 90, 3)
	s.Require().NoError(err)
	s.Empty(trades)
}

func (s *OrderBookTestSuite) TestFillAndKill() {
	trades, err := s.orderBook.AddOrder(s.ctx, NewOrder("fak", FillAndKill, Sell, 75, 5))
	s.Require().NoError(err)
	s.Require().Len(trades, 2)
	s.Equal(uint64(2), trades.Quantity())

	size, err := s.orderBook.Size(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, size)

	trades, err = s.orderBook.AddOrder(s.ctx, NewOrder("fak-2", FillAndKill, Sell, 75, 5))
	s.Require().NoError(err)
	s.Empty(trades)
}

func (s *OrderBookTestSuite) TestConcurrentProducers() {
	const producers = 8
	const ordersPerProducer = 100

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < ordersPerProducer; i++ {
				id := fmt.Sprintf("p%d-%d", p, i)
				_, err := s.orderBook.AddOrder(s.ctx, NewOrder(id, GoodTillCancel, Buy, int64(10+i), 1))
				assert.NoError(s.T(), err)
			}
		}(p)
	}
	wg.Wait()

	size, err := s.orderBook.Size(s.ctx)
	s.Require().NoError(err)
	s.Equal(6+producers*ordersPerProducer, size)

	depth, err := s.orderBook.Depth(s.ctx, 0)
	s.Require().NoError(err)
	for i := 1; i < len(depth.Bids); i++ {
		s.Greater(depth.Bids[i-1].Price, depth.Bids[i].Price)
	}
}

func TestOrderBookShutdown(t *testing.T) {
	ctx := context.Background()
	orderBook := NewOrderBook("BTC-USDT", nil)
	go func() {
		_ = orderBook.Start()
	}()

	_, err := orderBook.AddOrder(ctx, NewOrder("buy-1", GoodTillCancel, Buy, 90, 1))
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, orderBook.Shutdown(shutdownCtx))
	// a second shutdown is harmless
	require.NoError(t, orderBook.Shutdown(shutdownCtx))

	_, err = orderBook.AddOrder(ctx, NewOrder("buy-2", GoodTillCancel, Buy, 90, 1))
	assert.ErrorIs(t, err, ErrShutdown)
	assert.ErrorIs(t, orderBook.CancelOrder(ctx, "buy-1"), ErrShutdown)
	_, err = orderBook.Size(ctx)
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestOrderBookTimeout(t *testing.T) {
	// never started, so nothing answers
	orderBook := NewOrderBook("BTC-USDT", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := orderBook.AddOrder(ctx, NewOrder("buy-1", GoodTillCancel, Buy, 90, 1))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer shutdownCancel()
	assert.ErrorIs(t, orderBook.Shutdown(shutdownCtx), context.DeadlineExceeded)
}

func TestOrderBookDrainsPendingCommands(t *testing.T) {
	orderBook := NewOrderBook("BTC-USDT", nil)
	ctx := context.Background()

	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			_, err := orderBook.AddOrder(ctx, NewOrder(fmt.Sprintf("o-%d", i), GoodTillCancel, Sell, int64(100+i), 1))
			results <- err
		}(i)
	}

	require.Eventually(t, func() bool {
		return len(orderBook.cmdChan) == 10
	}, time.Second, time.Millisecond)

	go func() {
		_ = orderBook.Start()
	}()
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, orderBook.Shutdown(shutdownCtx))

	for i := 0; i < 10; i++ {
		assert.NoError(t, <-results)
	}
	assert.Equal(t, 10, orderBook.book.Size())
}
