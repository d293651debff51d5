package api

// Request/response types for the REST boundary and WebSocket feed. All
// prices and amounts travel as decimal strings so no precision is lost at
// the wire; the core never sees a float.

// ==============================
// REST Request Types
// ==============================

// DepositRequest is the payload for POST /api/v1/deposits. The endpoint is
// meant for the trusted deposit watcher, not end users: the credit is
// applied unconditionally.
type DepositRequest struct {
	User   string `json:"user"`   // 0x-prefixed address
	Asset  string `json:"asset"`  // asset symbol
	Amount string `json:"amount"` // decimal string
}

// PlaceOrderRequest is the payload for POST /api/v1/orders.
type PlaceOrderRequest struct {
	User   string `json:"user"`
	Side   string `json:"side"` // "buy" or "sell"
	Price  string `json:"price"`
	Amount string `json:"amount"`
}

// WithdrawRequest is the payload for POST /api/v1/withdrawals.
type WithdrawRequest struct {
	User   string `json:"user"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// ==============================
// REST Response Types
// ==============================

// PriceLevel is one aggregated [price, amount] book level.
type PriceLevel struct {
	Price  string `json:"price"`
	Amount string `json:"amount"`
}

// MarketSnapshot is the read-only market view: top-of-book levels plus the
// requesting user's balances when a user was named.
type MarketSnapshot struct {
	Symbol    string            `json:"symbol"`
	Bids      []PriceLevel      `json:"bids"` // best (highest) first
	Asks      []PriceLevel      `json:"asks"` // best (lowest) first
	Balances  map[string]string `json:"balances,omitempty"`
	Timestamp int64             `json:"timestamp"` // unix milliseconds
}

// PlaceOrderResponse reports the assigned order ID and any immediate fills.
type PlaceOrderResponse struct {
	OrderID uint64      `json:"orderId"`
	Fills   []TradeInfo `json:"fills"`
}

// WithdrawResponse carries the signed authorization the caller submits to
// the settlement contract.
type WithdrawResponse struct {
	Signature string `json:"signature"` // 0x-prefixed, 65 bytes [R||S||V]
	Nonce     uint64 `json:"nonce"`
}

// TradeInfo is one executed fill.
type TradeInfo struct {
	Price     string `json:"price"`
	Amount    string `json:"amount"`
	Buyer     string `json:"buyer"`
	Seller    string `json:"seller"`
	Timestamp int64  `json:"timestamp"`
}

// BalancesResponse lists a user's custodial balances.
type BalancesResponse struct {
	Address  string            `json:"address"`
	Balances map[string]string `json:"balances"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by a client to manage channel subscriptions,
// e.g. {"op":"subscribe","channels":["orderbook:BTC-USDT","trades:BTC-USDT"]}.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// OrderbookUpdate is broadcast after every placement that changed the book.
type OrderbookUpdate struct {
	Type      string       `json:"type"` // "orderbook"
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

// TradeUpdate is broadcast for each fill.
type TradeUpdate struct {
	Type      string `json:"type"` // "trade"
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Amount    string `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}
