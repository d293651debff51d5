package book

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Side is the order side.
type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Order is a resting limit order. Amount is the remaining (unfilled)
// quantity and is mutated in place as the order matches; the order leaves
// its queue when Amount reaches zero. There is no cancellation path.
type Order struct {
	ID     uint64 // monotonically increasing, >= 1
	User   common.Address
	Side   Side
	Price  decimal.Decimal
	Amount decimal.Decimal // remaining quantity, mutable
	Seq    uint64          // arrival sequence, breaks price ties (FIFO)

	CreatedAt int64 // unix milliseconds
}
