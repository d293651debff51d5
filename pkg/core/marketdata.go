package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"spotcore/pkg/core/book"
)

// Snapshot is a read-only view of the book top and, when a user is named,
// that user's custodial balances. Values travel as decimals end to end; the
// API layer serializes them as strings so nothing degrades to floats.
type Snapshot struct {
	Bids     []book.Level
	Asks     []book.Level
	Balances map[string]decimal.Decimal // nil when no user was requested
}

// MarketData returns the top-of-book levels (bounded by the configured depth
// limit) and, if user is non-nil, the user's balances, all read under the
// same lock so the view is consistent.
func (e *Exchange) MarketData(user *common.Address) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Bids: e.book.BidLevels(e.cfg.DepthLimit),
		Asks: e.book.AskLevels(e.cfg.DepthLimit),
	}
	if user != nil {
		snap.Balances = e.ledger.Balances(*user)
	}
	return snap
}

// Balance returns the user's balance for one asset.
func (e *Exchange) Balance(user common.Address, symbol string) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Balance(user, symbol)
}
