package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spotcore/pkg/core"
	"spotcore/pkg/core/book"
	"spotcore/pkg/core/ledger"
)

// Server is the thin HTTP/WebSocket boundary over the exchange core. It
// parses and serializes; every decision (validation, escrow, matching,
// signing) lives in pkg/core.
type Server struct {
	ex      *core.Exchange
	router  *mux.Router
	hub     *Hub
	limiter *hostLimiter
	log     *zap.SugaredLogger

	symbol  string // "BASE-QUOTE", used as the ws channel suffix
	origins []string
}

type Options struct {
	AllowedOrigins []string
	RateLimit      float64 // requests/sec per client host, 0 disables
	RateBurst      int
}

func NewServer(ex *core.Exchange, log *zap.SugaredLogger, opts Options) *Server {
	base, quote := ex.Pair()
	s := &Server{
		ex:      ex,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		limiter: newHostLimiter(opts.RateLimit, opts.RateBurst),
		log:     log,
		symbol:  base + "-" + quote,
		origins: opts.AllowedOrigins,
	}

	// Trades flow to the feed through the core's hook so REST and ws stay
	// consistent about what actually executed.
	ex.OnTrade = func(t core.Trade) {
		s.hub.BroadcastToChannel("trades:"+s.symbol, TradeUpdate{
			Type:      "trade",
			Symbol:    s.symbol,
			Price:     t.Price.String(),
			Amount:    t.Amount.String(),
			Timestamp: t.Time,
		})
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/market", s.handleGetMarket).Methods("GET")
	api.HandleFunc("/accounts/{address}", s.handleGetBalances).Methods("GET")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")

	api.HandleFunc("/orders", s.handlePlaceOrder).Methods("POST")
	api.HandleFunc("/withdrawals", s.handleWithdraw).Methods("POST")

	// Deposit intake for the trusted watcher. Deploy behind a private
	// listener or network ACL; the core credits unconditionally.
	api.HandleFunc("/deposits", s.handleDeposit).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the fully wrapped HTTP handler (CORS + rate limiting).
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.limiter.middleware(s.router))
}

// Start runs the hub and serves HTTP on addr. Blocks.
func (s *Server) Start(addr string) error {
	go s.hub.Run()
	s.log.Infow("api_server_starting", "addr", addr, "symbol", s.symbol)
	return http.ListenAndServe(addr, s.Handler())
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	var user *common.Address
	if q := r.URL.Query().Get("user"); q != "" {
		if !common.IsHexAddress(q) {
			respondError(w, http.StatusBadRequest, "invalid_input", "invalid user address")
			return
		}
		addr := common.HexToAddress(q)
		user = &addr
	}

	snap := s.ex.MarketData(user)
	resp := MarketSnapshot{
		Symbol:    s.symbol,
		Bids:      toPriceLevels(snap.Bids),
		Asks:      toPriceLevels(snap.Asks),
		Timestamp: time.Now().UnixMilli(),
	}
	if snap.Balances != nil {
		resp.Balances = make(map[string]string, len(snap.Balances))
		for asset, amt := range snap.Balances {
			resp.Balances[asset] = amt.String()
		}
	}
	respondJSON(w, resp)
}

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	addrStr := mux.Vars(r)["address"]
	if !common.IsHexAddress(addrStr) {
		respondError(w, http.StatusBadRequest, "invalid_input", "invalid address")
		return
	}
	addr := common.HexToAddress(addrStr)

	snap := s.ex.MarketData(&addr)
	balances := make(map[string]string, len(snap.Balances))
	for asset, amt := range snap.Balances {
		balances[asset] = amt.String()
	}
	respondJSON(w, BalancesResponse{Address: addr.Hex(), Balances: balances})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}
	trades := s.ex.RecentTrades(limit)
	out := make([]TradeInfo, len(trades))
	for i, t := range trades {
		out[i] = toTradeInfo(t)
	}
	respondJSON(w, out)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	user, amount, err := parseUserAmount(req.User, req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	if err := s.ex.Deposit(user, req.Asset, amount); err != nil {
		s.respondCoreError(w, err)
		return
	}
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	user, amount, err := parseUserAmount(req.User, req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", "invalid price")
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	res, err := s.ex.PlaceOrder(user, side, price, amount)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}

	s.broadcastBook()

	fills := make([]TradeInfo, len(res.Fills))
	for i, t := range res.Fills {
		fills[i] = toTradeInfo(t)
	}
	respondJSON(w, PlaceOrderResponse{OrderID: res.OrderID, Fills: fills})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	user, amount, err := parseUserAmount(req.User, req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	auth, err := s.ex.Withdraw(user, req.Asset, amount)
	if err != nil {
		s.respondCoreError(w, err)
		return
	}
	respondJSON(w, WithdrawResponse{
		Signature: hexutil.Encode(auth.Signature),
		Nonce:     auth.Nonce,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// broadcastBook pushes a fresh book snapshot to the orderbook channel.
func (s *Server) broadcastBook() {
	snap := s.ex.MarketData(nil)
	s.hub.BroadcastToChannel("orderbook:"+s.symbol, OrderbookUpdate{
		Type:      "orderbook",
		Symbol:    s.symbol,
		Bids:      toPriceLevels(snap.Bids),
		Asks:      toPriceLevels(snap.Asks),
		Timestamp: time.Now().UnixMilli(),
	})
}

// ==============================
// Helpers
// ==============================

func parseUserAmount(userStr, amountStr string) (common.Address, decimal.Decimal, error) {
	if !common.IsHexAddress(userStr) {
		return common.Address{}, decimal.Decimal{}, fmt.Errorf("invalid user address %q", userStr)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return common.Address{}, decimal.Decimal{}, fmt.Errorf("invalid amount %q", amountStr)
	}
	return common.HexToAddress(userStr), amount, nil
}

func parseSide(s string) (book.Side, error) {
	switch s {
	case "buy":
		return book.Buy, nil
	case "sell":
		return book.Sell, nil
	default:
		return 0, fmt.Errorf("invalid side %q", s)
	}
}

func toPriceLevels(levels []book.Level) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = PriceLevel{Price: l.Price.String(), Amount: l.Amount.String()}
	}
	return out
}

func toTradeInfo(t core.Trade) TradeInfo {
	return TradeInfo{
		Price:     t.Price.String(),
		Amount:    t.Amount.String(),
		Buyer:     t.Buyer.Hex(),
		Seller:    t.Seller.Hex(),
		Timestamp: t.Time,
	}
}

// respondCoreError maps the core error taxonomy onto HTTP statuses.
func (s *Server) respondCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		respondError(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error())
	case errors.Is(err, core.ErrSigningFailed):
		// Retryable infrastructure fault; the debit has been compensated.
		respondError(w, http.StatusBadGateway, "signing_failed", err.Error())
	default:
		s.log.Errorw("request_failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}
