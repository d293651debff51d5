package core

import (
	"time"

	"github.com/shopspring/decimal"

	"spotcore/pkg/core/book"
)

// match runs the continuous double auction until no cross remains: while
// both queues are non-empty and bestBid >= bestAsk, trade min of the two
// remaining amounts at the resting ask's price. Deterministic given the book
// state, and idempotent: once no cross remains another call trades nothing.
//
// Settlement per fill: the buyer is credited the base amount, the seller is
// credited amount*price of quote. The matching debits happened at placement
// time (escrow reservation), so only the received side is credited here,
// plus a quote refund to the buyer when the bid's reserved price exceeds the
// execution price, which keeps total system value conserved.
//
// Caller must hold e.mu.
func (e *Exchange) match() []Trade {
	var fills []Trade
	for {
		bid := e.book.BestBid()
		ask := e.book.BestAsk()
		if bid == nil || ask == nil {
			break
		}
		if bid.Price.LessThan(ask.Price) {
			break
		}

		qty := decimal.Min(bid.Amount, ask.Amount)
		px := ask.Price

		// Credits cannot fail: amounts are positive by construction.
		e.ledger.Credit(bid.User, e.cfg.BaseAsset, qty)
		e.ledger.Credit(ask.User, e.cfg.QuoteAsset, qty.Mul(px))
		if improvement := bid.Price.Sub(px); improvement.Sign() > 0 {
			e.ledger.Credit(bid.User, e.cfg.QuoteAsset, qty.Mul(improvement))
		}

		fills = append(fills, Trade{
			Price:  px,
			Amount: qty,
			Buyer:  bid.User,
			Seller: ask.User,
			BidID:  bid.ID,
			AskID:  ask.ID,
			Time:   time.Now().UnixMilli(),
		})

		e.book.ReduceTop(book.Buy, qty)
		e.book.ReduceTop(book.Sell, qty)
	}
	return fills
}
