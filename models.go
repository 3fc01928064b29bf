package match

type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) isValid() bool {
	return s == Buy || s == Sell
}

type OrderType string

const (
	GoodTillCancel OrderType = "gtc" // rests until filled or canceled
	// FillAndKill is admitted only when some opposing liquidity crosses its price,
	// and whatever is left after matching is canceled. It does not require the
	// whole quantity to be fillable, so it behaves as immediate-or-cancel.
	FillAndKill OrderType = "fak"
)

func (t OrderType) isValid() bool {
	return t == GoodTillCancel || t == FillAndKill
}

type LogType string

const (
	LogTypeOpen   LogType = "open"
	LogTypeMatch  LogType = "match"
	LogTypeCancel LogType = "cancel"
	LogTypeAmend  LogType = "amend"
	LogTypeReject LogType = "reject"
)

// RejectReason represents the reason why an order was rejected.
type RejectReason string

const (
	RejectReasonNone          RejectReason = ""
	RejectReasonInvalidOrder  RejectReason = "invalid_order"
	RejectReasonDuplicateID   RejectReason = "duplicate_order_id"
	RejectReasonNoLiquidity   RejectReason = "no_liquidity"   // FillAndKill: opposite side is empty
	RejectReasonPriceMismatch RejectReason = "price_mismatch" // FillAndKill: best opposite price does not cross
)

// TradeInfo is one side of a trade.
type TradeInfo struct {
	OrderID  string `json:"order_id"`
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// Trade records a single matching event. Each side keeps its own price;
// there is no single execution price.
type Trade struct {
	ID  uint64    `json:"id"`
	Bid TradeInfo `json:"bid"`
	Ask TradeInfo `json:"ask"`
}

type Trades []Trade

// Quantity returns the total traded quantity.
func (trades Trades) Quantity() uint64 {
	var total uint64
	for _, trade := range trades {
		total += trade.Bid.Quantity
	}
	return total
}

type DepthItem struct {
	Price int64  `json:"price"`
	Size  uint64 `json:"size"`
	Count int64  `json:"count"`
}

type Depth struct {
	UpdateID uint64       `json:"update_id"`
	Bids     []*DepthItem `json:"bids"`
	Asks     []*DepthItem `json:"asks"`
}

// BookStats contains statistics about the order book queues
type BookStats struct {
	AskDepthCount int64 `json:"ask_depth_count"`
	AskOrderCount int64 `json:"ask_order_count"`
	BidDepthCount int64 `json:"bid_depth_count"`
	BidOrderCount int64 `json:"bid_order_count"`
}

// DepthChange represents a change in the order book depth.
type DepthChange struct {
	Side     Side
	Price    int64
	SizeDiff int64
}
