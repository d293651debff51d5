package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned when a debit exceeds the available balance.
// The ledger is left unchanged when this is returned.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger holds custodial balances per (user, asset symbol).
//
// The ledger is NOT internally synchronized: the owning Exchange serializes
// all access so that check-then-debit is atomic with respect to every other
// balance and book mutation in the same request.
type Ledger struct {
	balances map[common.Address]map[string]decimal.Decimal
}

func New() *Ledger {
	return &Ledger{balances: make(map[common.Address]map[string]decimal.Decimal)}
}

// Balance returns the balance for (user, asset). Unknown users and assets
// report zero; Balance never fails.
func (l *Ledger) Balance(user common.Address, asset string) decimal.Decimal {
	return l.balances[user][asset]
}

// Credit increases the balance for (user, asset). Negative amounts are
// rejected; there is no upper bound.
func (l *Ledger) Credit(user common.Address, asset string, amount decimal.Decimal) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("credit amount must be non-negative: %s", amount)
	}
	acct, ok := l.balances[user]
	if !ok {
		acct = make(map[string]decimal.Decimal)
		l.balances[user] = acct
	}
	acct[asset] = acct[asset].Add(amount)
	return nil
}

// Debit decreases the balance for (user, asset), failing with
// ErrInsufficientFunds when the balance does not cover the amount.
// A failed debit leaves the ledger unchanged; a balance can never go negative.
func (l *Ledger) Debit(user common.Address, asset string, amount decimal.Decimal) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("debit amount must be non-negative: %s", amount)
	}
	acct, ok := l.balances[user]
	if !ok {
		acct = make(map[string]decimal.Decimal)
		l.balances[user] = acct
	}
	have := acct[asset]
	if have.LessThan(amount) {
		return fmt.Errorf("%w: have %s %s, need %s", ErrInsufficientFunds, have, asset, amount)
	}
	acct[asset] = have.Sub(amount)
	return nil
}

// Balances returns a copy of all balances held by user. The copy is safe to
// hand across the synchronization boundary.
func (l *Ledger) Balances(user common.Address) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.balances[user]))
	for asset, amt := range l.balances[user] {
		out[asset] = amt
	}
	return out
}
