package match

// matchOrders crosses the best bid and ask levels until one side is empty or
// the best bid is below the best ask. Each fill produces one trade carrying both
// sides' own prices. Filled orders leave their level and the index at once, and
// empty levels are dropped.
func (book *Book) matchOrders(logs []*BookLog) (Trades, []*BookLog) {
	var trades Trades

	for {
		bidUnit := book.bidQueue.bestUnit()
		askUnit := book.askQueue.bestUnit()
		if bidUnit == nil || askUnit == nil || bidUnit.price < askUnit.price {
			break
		}

		for bidUnit.head != nil && askUnit.head != nil {
			bid := bidUnit.head
			ask := askUnit.head

			quantity := min(bid.Remaining, ask.Remaining)
			book.bidQueue.fill(bid, quantity)
			book.askQueue.fill(ask, quantity)

			trade := Trade{
				ID:  book.nextTradeID(),
				Bid: TradeInfo{OrderID: bid.ID, Price: bid.Price, Quantity: quantity},
				Ask: TradeInfo{OrderID: ask.ID, Price: ask.Price, Quantity: quantity},
			}
			trades = append(trades, trade)
			logs = append(logs, NewMatchLog(book.nextSeqID(), book.marketID, &trade))

			if bid.IsFilled() {
				book.removeOrder(bid)
			}
			if ask.IsFilled() {
				book.removeOrder(ask)
			}
		}
	}

	// Whatever a FillAndKill order could not take is discarded instead of resting.
	// Only the front of each best level is inspected: an unfilled FillAndKill
	// order is always the one matching stopped at.
	logs = book.cancelResidual(book.bidQueue, logs)
	logs = book.cancelResidual(book.askQueue, logs)

	return trades, logs
}

func (book *Book) cancelResidual(q *queue, logs []*BookLog) []*BookLog {
	order := q.peekHeadOrder()
	if order != nil && order.Type == FillAndKill {
		return book.cancelOrder(order.ID, logs)
	}
	return logs
}
