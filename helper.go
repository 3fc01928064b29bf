package match

// CalculateDepthChanges derives the per-level size changes a book log implies.
// A match reduces both the bid level and the ask level, each at its own price.
func CalculateDepthChanges(log *BookLog) []DepthChange {
	switch log.Type {
	case LogTypeOpen:
		return []DepthChange{{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: int64(log.Size),
		}}
	case LogTypeCancel:
		return []DepthChange{{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: -int64(log.Size),
		}}
	case LogTypeMatch:
		return []DepthChange{
			{Side: Buy, Price: log.BidPrice, SizeDiff: -int64(log.Size)},
			{Side: Sell, Price: log.AskPrice, SizeDiff: -int64(log.Size)},
		}
	case LogTypeAmend:
		// The replaced order always leaves the book; its replacement is
		// accounted for by the open (or reject) log that follows.
		return []DepthChange{{
			Side:     log.OldSide,
			Price:    log.OldPrice,
			SizeDiff: -int64(log.OldSize),
		}}
	case LogTypeReject:
		// Rejected orders never entered the book, so no depth change.
		return nil
	}

	return nil
}
