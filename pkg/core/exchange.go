package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spotcore/pkg/core/asset"
	"spotcore/pkg/core/book"
	"spotcore/pkg/core/ledger"
)

// Signer signs withdrawal digests with the custodial key. Satisfied by
// pkg/crypto.Signer; an interface so tests can inject signing failures.
type Signer interface {
	Sign(hash []byte) ([]byte, error)
	Address() common.Address
}

// Config carries the static parameters of the single trading pair the
// exchange serves.
type Config struct {
	BaseAsset  string // e.g. "BTC"
	QuoteAsset string // e.g. "USDT"

	// SettlementContract is bound into every withdrawal digest; the core
	// never calls it, it only names it.
	SettlementContract common.Address

	DepthLimit   int // market-data book depth, default 10
	TradeHistory int // recent-trade ring capacity, default 128
}

func (c *Config) normalize() error {
	if c.BaseAsset == "" || c.QuoteAsset == "" || c.BaseAsset == c.QuoteAsset {
		return fmt.Errorf("invalid pair %q/%q", c.BaseAsset, c.QuoteAsset)
	}
	if c.DepthLimit <= 0 {
		c.DepthLimit = 10
	}
	if c.TradeHistory <= 0 {
		c.TradeHistory = 128
	}
	return nil
}

// Exchange owns all mutable exchange state: the balance ledger, the order
// book, per-user withdrawal nonces, and the recent-trade ring. A single
// mutex guards the whole state so that each of {Deposit, PlaceOrder,
// Withdraw, MarketData} runs as one atomic unit: no interleaving of
// check-then-debit or peek-then-reduce across two requests is possible.
type Exchange struct {
	mu sync.Mutex

	cfg    Config
	ledger *ledger.Ledger
	book   *book.Book
	assets *asset.Registry
	signer Signer

	nextOrderID uint64
	nonces      map[common.Address]uint64
	trades      []Trade

	log *zap.SugaredLogger

	// OnTrade, when set, is invoked after each placement for every fill it
	// produced, outside the state lock. The API layer uses it to feed the
	// websocket hub.
	OnTrade func(Trade)
}

func New(cfg Config, assets *asset.Registry, signer Signer, log *zap.SugaredLogger) (*Exchange, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if assets == nil || assets.Len() == 0 {
		return nil, fmt.Errorf("asset registry is empty")
	}
	if signer == nil {
		return nil, fmt.Errorf("withdrawal signer is required")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	for _, sym := range []string{cfg.BaseAsset, cfg.QuoteAsset} {
		if _, ok := assets.Get(sym); !ok {
			return nil, fmt.Errorf("pair asset %q not in registry", sym)
		}
	}
	return &Exchange{
		cfg:         cfg,
		ledger:      ledger.New(),
		book:        book.New(),
		assets:      assets,
		signer:      signer,
		nextOrderID: 1,
		nonces:      make(map[common.Address]uint64),
		log:         log,
	}, nil
}

// Pair returns the configured base and quote symbols.
func (e *Exchange) Pair() (base, quote string) {
	return e.cfg.BaseAsset, e.cfg.QuoteAsset
}

// Deposit credits the ledger from an external deposit notification.
//
// Trust boundary: the caller (a blockchain deposit watcher) is trusted to
// report only genuine on-chain deposits; the core performs no verification.
func (e *Exchange) Deposit(user common.Address, symbol string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: deposit amount must be positive: %s", ErrInvalidInput, amount)
	}
	if _, ok := e.assets.Get(symbol); !ok {
		return fmt.Errorf("%w: unknown asset %q", ErrInvalidInput, symbol)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.Credit(user, symbol, amount); err != nil {
		return err
	}
	e.log.Infow("deposit_credited", "user", user.Hex(), "asset", symbol, "amount", amount.String())
	return nil
}

// PlaceResult reports the outcome of an order placement.
type PlaceResult struct {
	OrderID uint64
	Fills   []Trade
}

// PlaceOrder reserves the opposing asset, rests the order, and runs the
// matching loop.
//
// Escrow reservation: a buy debits price*amount of the quote asset, a sell
// debits amount of the base asset, before the order enters the book. A
// resting order therefore always represents fully collateralized funds; on
// insufficient balance the order is never created and the book is unchanged.
func (e *Exchange) PlaceOrder(user common.Address, side book.Side, price, amount decimal.Decimal) (*PlaceResult, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("%w: unknown side", ErrInvalidInput)
	}
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: price must be positive: %s", ErrInvalidInput, price)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive: %s", ErrInvalidInput, amount)
	}

	e.mu.Lock()

	var err error
	if side == book.Buy {
		err = e.ledger.Debit(user, e.cfg.QuoteAsset, price.Mul(amount))
	} else {
		err = e.ledger.Debit(user, e.cfg.BaseAsset, amount)
	}
	if err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("reserve order funds: %w", err)
	}

	id := e.nextOrderID
	e.nextOrderID++
	e.book.Insert(&book.Order{
		ID:        id,
		User:      user,
		Side:      side,
		Price:     price,
		Amount:    amount,
		Seq:       id,
		CreatedAt: time.Now().UnixMilli(),
	})

	fills := e.match()
	e.recordTrades(fills)
	e.mu.Unlock()

	e.log.Infow("order_placed",
		"order_id", id,
		"user", user.Hex(),
		"side", side.String(),
		"price", price.String(),
		"amount", amount.String(),
		"fills", len(fills))

	if e.OnTrade != nil {
		for _, t := range fills {
			e.OnTrade(t)
		}
	}
	return &PlaceResult{OrderID: id, Fills: fills}, nil
}
