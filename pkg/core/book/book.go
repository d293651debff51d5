package book

import (
	"container/heap"
	"sort"

	"github.com/shopspring/decimal"
)

// Level is an aggregated price level: the total resting quantity across all
// orders at one price on one side.
type Level struct {
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// Book holds the two priority queues of resting orders for a single trading
// pair. An order lives in exactly one queue and is discarded once fully
// filled; no history is retained.
//
// The book is NOT internally synchronized: the owning Exchange serializes
// access together with the ledger so that a placement is atomic end to end.
type Book struct {
	bids bidQueue
	asks askQueue
}

func New() *Book {
	b := &Book{}
	heap.Init(&b.bids)
	heap.Init(&b.asks)
	return b
}

// Insert adds o to the queue for its side, in price-time priority position.
func (b *Book) Insert(o *Order) {
	if o.Side == Buy {
		heap.Push(&b.bids, o)
	} else {
		heap.Push(&b.asks, o)
	}
}

// BestBid returns the highest-priority resting bid without removing it,
// or nil when the bid queue is empty.
func (b *Book) BestBid() *Order {
	if len(b.bids) == 0 {
		return nil
	}
	return b.bids[0]
}

// BestAsk returns the highest-priority resting ask without removing it,
// or nil when the ask queue is empty.
func (b *Book) BestAsk() *Order {
	if len(b.asks) == 0 {
		return nil
	}
	return b.asks[0]
}

// ReduceTop decreases the remaining amount of the top order on side by
// amount, removing the order from its queue when nothing remains. Only the
// current top order is touched; the rest of the queue keeps its order.
func (b *Book) ReduceTop(side Side, amount decimal.Decimal) {
	var top *Order
	if side == Buy {
		top = b.BestBid()
	} else {
		top = b.BestAsk()
	}
	if top == nil {
		return
	}
	top.Amount = top.Amount.Sub(amount)
	if top.Amount.Sign() > 0 {
		return
	}
	if side == Buy {
		heap.Pop(&b.bids)
	} else {
		heap.Pop(&b.asks)
	}
}

// Depth returns the number of resting orders on side.
func (b *Book) Depth(side Side) int {
	if side == Buy {
		return len(b.bids)
	}
	return len(b.asks)
}

// BidLevels returns up to n aggregated bid levels, best (highest) first.
func (b *Book) BidLevels(n int) []Level {
	levels := aggregate(b.bids)
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Price.GreaterThan(levels[j].Price)
	})
	return truncate(levels, n)
}

// AskLevels returns up to n aggregated ask levels, best (lowest) first.
func (b *Book) AskLevels(n int) []Level {
	levels := aggregate(b.asks)
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Price.LessThan(levels[j].Price)
	})
	return truncate(levels, n)
}

func aggregate(orders []*Order) []Level {
	totals := make(map[string]decimal.Decimal)
	prices := make(map[string]decimal.Decimal)
	for _, o := range orders {
		key := o.Price.String()
		totals[key] = totals[key].Add(o.Amount)
		prices[key] = o.Price
	}
	levels := make([]Level, 0, len(totals))
	for key, total := range totals {
		levels = append(levels, Level{Price: prices[key], Amount: total})
	}
	return levels
}

func truncate(levels []Level, n int) []Level {
	if n > 0 && len(levels) > n {
		return levels[:n]
	}
	return levels
}
