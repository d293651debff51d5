package core

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"spotcore/pkg/crypto"
)

// WithdrawalAuth is the ephemeral artifact a withdrawal produces: a signed
// claim the caller submits to the settlement contract. It is not stored;
// the signature plus the nonce are its canonical record.
type WithdrawalAuth struct {
	Signature []byte
	Nonce     uint64
}

// Withdraw debits the ledger, allocates the user's next nonce, and signs a
// packed authorization digest binding {user, token address, scaled amount,
// nonce, settlement contract}.
//
// If signing fails after the debit, the debited amount is credited back in
// full and ErrSigningFailed is returned; the allocated nonce stays burned.
// A burned nonce is acceptable, a reused one is not.
func (e *Exchange) Withdraw(user common.Address, symbol string, amount decimal.Decimal) (*WithdrawalAuth, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive: %s", ErrInvalidInput, amount)
	}
	a, ok := e.assets.Get(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: unknown asset %q", ErrInvalidInput, symbol)
	}
	// The debited amount and the claimed on-chain units must be the same
	// value; an amount finer than the token's decimals cannot satisfy that.
	if !a.FitsChainPrecision(amount) {
		return nil, fmt.Errorf("%w: amount %s exceeds %s's precision of %d decimals",
			ErrInvalidInput, amount, symbol, a.Decimals)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.Debit(user, symbol, amount); err != nil {
		return nil, fmt.Errorf("withdraw %s %s: %w", amount, symbol, err)
	}

	e.nonces[user]++
	nonce := e.nonces[user]

	claim := &crypto.WithdrawalClaim{
		User:     user,
		Token:    a.Address,
		Amount:   a.ScaleToChain(amount),
		Nonce:    nonce,
		Contract: e.cfg.SettlementContract,
	}
	digest, err := claim.Digest()
	if err == nil {
		var sig []byte
		sig, err = e.signer.Sign(digest)
		if err == nil {
			e.log.Infow("withdrawal_authorized",
				"user", user.Hex(), "asset", symbol,
				"amount", amount.String(), "nonce", nonce)
			return &WithdrawalAuth{Signature: sig, Nonce: nonce}, nil
		}
	}

	// Compensate the debit exactly; the nonce is intentionally not rolled
	// back so it can never be issued twice.
	e.ledger.Credit(user, symbol, amount)
	e.log.Errorw("withdrawal_signing_failed",
		"user", user.Hex(), "asset", symbol, "nonce", nonce, "err", err)
	return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
}

// Nonce returns the last nonce issued to user (0 if none). Exposed for the
// read-only API surface.
func (e *Exchange) Nonce(user common.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nonces[user]
}
