package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Trade is one fill produced by the matching engine. Trades are kept in a
// bounded in-memory ring for the market-data feed; nothing survives a
// restart.
type Trade struct {
	Price  decimal.Decimal // execution price (the resting ask's quote)
	Amount decimal.Decimal // base quantity exchanged
	Buyer  common.Address
	Seller common.Address
	BidID  uint64
	AskID  uint64
	Time   int64 // unix milliseconds
}

// recordTrades appends fills to the ring, dropping the oldest entries once
// the configured capacity is exceeded. Caller must hold e.mu.
func (e *Exchange) recordTrades(fills []Trade) {
	e.trades = append(e.trades, fills...)
	if n := len(e.trades) - e.cfg.TradeHistory; n > 0 {
		e.trades = append(e.trades[:0], e.trades[n:]...)
	}
}

// RecentTrades returns up to n most recent fills, newest last.
func (e *Exchange) RecentTrades(n int) []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := 0
	if n > 0 && len(e.trades) > n {
		start = len(e.trades) - n
	}
	out := make([]Trade, len(e.trades)-start)
	copy(out, e.trades[start:])
	return out
}
