package match

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/igrmk/treemap/v2"
)

// AggregatedBook maintains a simplified view of the order book,
// tracking only price levels and their aggregated sizes (depth).
// It is designed for downstream services that need to rebuild
// order book state from BookLog events.
type AggregatedBook struct {
	mu    sync.RWMutex
	seqID uint64 // Last applied SequenceID for gap detection and deduplication
	ask   *treemap.TreeMap[int64, uint64]
	bid   *treemap.TreeMap[int64, uint64]
}

// NewAggregatedBook creates a new AggregatedBook instance with empty ask and bid sides.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		ask: newAskTree(),
		bid: newBidTree(),
	}
}

func newAskTree() *treemap.TreeMap[int64, uint64] {
	return treemap.New[int64, uint64]()
}

// Bids iterate from the highest price.
func newBidTree() *treemap.TreeMap[int64, uint64] {
	return treemap.NewWithKeyCompare[int64, uint64](func(a, b int64) bool {
		return a > b
	})
}

// SequenceID returns the last applied sequence ID.
func (ab *AggregatedBook) SequenceID() uint64 {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	return ab.seqID
}

// Replay applies a BookLog event to the aggregated state.
// Events already applied are ignored. Events with LogType == LogTypeReject do not
// change depth but still advance the sequence ID.
// Returns ErrSequenceGap if events are missing between the last applied one and log.
func (ab *AggregatedBook) Replay(log *BookLog) error {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if log.SequenceID <= ab.seqID {
		return nil
	}
	if log.SequenceID != ab.seqID+1 {
		return fmt.Errorf("%w: expected %d, got %d", ErrSequenceGap, ab.seqID+1, log.SequenceID)
	}

	for _, change := range CalculateDepthChanges(log) {
		ab.apply(change)
	}
	ab.seqID = log.SequenceID
	return nil
}

// OnEvent lets the aggregated book consume logs from a RingBuffer.
func (ab *AggregatedBook) OnEvent(log *BookLog) {
	if err := ab.Replay(log); err != nil {
		logger.Error("aggregated book replay failed",
			slog.String("market_id", log.MarketID),
			slog.Uint64("seq_id", log.SequenceID),
			slog.Any("err", err),
		)
	}
}

// Rebuild resets the aggregated book from a depth snapshot.
// Replay continues from depth.UpdateID + 1.
func (ab *AggregatedBook) Rebuild(depth *Depth) {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	ab.ask = newAskTree()
	ab.bid = newBidTree()
	for _, item := range depth.Bids {
		ab.bid.Set(item.Price, item.Size)
	}
	for _, item := range depth.Asks {
		ab.ask.Set(item.Price, item.Size)
	}
	ab.seqID = depth.UpdateID
}

// Depth returns the aggregated size at a specific price level for the given side.
// Returns zero if the price level does not exist.
func (ab *AggregatedBook) Depth(side Side, price int64) uint64 {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	size, _ := ab.tree(side).Get(price)
	return size
}

// Levels returns every level of a side in priority order. Order counts are not tracked.
func (ab *AggregatedBook) Levels(side Side) []*DepthItem {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	tree := ab.tree(side)
	items := make([]*DepthItem, 0, tree.Len())
	for it := tree.Iterator(); it.Valid(); it.Next() {
		items = append(items, &DepthItem{Price: it.Key(), Size: it.Value()})
	}
	return items
}

func (ab *AggregatedBook) apply(change DepthChange) {
	tree := ab.tree(change.Side)
	current, _ := tree.Get(change.Price)

	size := int64(current) + change.SizeDiff
	if size <= 0 {
		tree.Del(change.Price)
		return
	}
	tree.Set(change.Price, uint64(size))
}

func (ab *AggregatedBook) tree(side Side) *treemap.TreeMap[int64, uint64] {
	if side == Buy {
		return ab.bid
	}
	return ab.ask
}
