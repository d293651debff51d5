package core_test

import (
	"errors"
	"math/big"
	"sort"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotcore/pkg/core"
	"spotcore/pkg/core/ledger"
	"spotcore/pkg/crypto"
)

// flakySigner wraps a real signer and fails on demand, to exercise the
// withdrawal compensation path.
type flakySigner struct {
	inner *crypto.Signer

	mu       sync.Mutex
	failNext int
}

func newFlakySigner(t *testing.T) *flakySigner {
	t.Helper()
	inner, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &flakySigner{inner: inner}
}

func (f *flakySigner) Sign(hash []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return nil, errors.New("hsm unavailable")
	}
	return f.inner.Sign(hash)
}

func (f *flakySigner) Address() common.Address {
	return f.inner.Address()
}

func TestWithdrawAuthorizes(t *testing.T) {
	signer := newFlakySigner(t)
	ex := newTestExchange(t, signer)
	require.NoError(t, ex.Deposit(buyer, "USDT", dec("100")))

	auth, err := ex.Withdraw(buyer, "USDT", dec("40"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), auth.Nonce, "first nonce is 1")
	assert.Len(t, auth.Signature, 65)
	assert.True(t, ex.Balance(buyer, "USDT").Equal(dec("60")))

	// The signature must verify against the custodial address over the
	// exact packed claim the settlement contract will rebuild: 40 USDT at
	// 6 decimals = 40000000 on-chain units.
	claim := &crypto.WithdrawalClaim{
		User:     buyer,
		Token:    usdtToken,
		Amount:   big.NewInt(40_000_000),
		Nonce:    auth.Nonce,
		Contract: settlement,
	}
	digest, err := claim.Digest()
	require.NoError(t, err)
	assert.True(t, crypto.VerifySignature(signer.Address(), digest, auth.Signature))
}

func TestWithdrawInsufficient(t *testing.T) {
	ex := newTestExchange(t, nil)
	require.NoError(t, ex.Deposit(buyer, "USDT", dec("10")))

	_, err := ex.Withdraw(buyer, "USDT", dec("10.01"))
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	assert.True(t, ex.Balance(buyer, "USDT").Equal(dec("10")), "failed withdrawal must not change the balance")
	assert.Equal(t, uint64(0), ex.Nonce(buyer), "no nonce allocated on a failed debit")
}

func TestWithdrawValidation(t *testing.T) {
	ex := newTestExchange(t, nil)

	_, err := ex.Withdraw(buyer, "USDT", dec("0"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = ex.Withdraw(buyer, "DOGE", dec("1"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

// An amount finer than the token's on-chain decimals cannot be claimed
// faithfully: debiting 1.5 micro-units against a claim for 2 would mint
// unbacked units, and debiting 0.4 against a claim for 0 would destroy the
// user's funds. Both are rejected before any state changes.
func TestWithdrawRejectsSubUnitPrecision(t *testing.T) {
	ex := newTestExchange(t, nil)
	require.NoError(t, ex.Deposit(buyer, "USDT", dec("100")))

	for _, amount := range []string{"0.0000015", "0.0000004", "1.0000001"} {
		_, err := ex.Withdraw(buyer, "USDT", dec(amount))
		assert.ErrorIs(t, err, core.ErrInvalidInput, "amount %s", amount)
	}

	assert.True(t, ex.Balance(buyer, "USDT").Equal(dec("100")), "rejected withdrawal must not touch the balance")
	assert.Equal(t, uint64(0), ex.Nonce(buyer), "rejected withdrawal must not allocate a nonce")

	// The coarsest representable amount still goes through.
	auth, err := ex.Withdraw(buyer, "USDT", dec("0.000001"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), auth.Nonce)
}

func TestNonceMonotonicSequential(t *testing.T) {
	ex := newTestExchange(t, nil)
	require.NoError(t, ex.Deposit(buyer, "USDT", dec("100")))

	first, err := ex.Withdraw(buyer, "USDT", dec("10"))
	require.NoError(t, err)
	second, err := ex.Withdraw(buyer, "USDT", dec("10"))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.Nonce)
	assert.Equal(t, uint64(2), second.Nonce)
}

func TestNoncePerUser(t *testing.T) {
	ex := newTestExchange(t, nil)
	require.NoError(t, ex.Deposit(buyer, "USDT", dec("50")))
	require.NoError(t, ex.Deposit(seller, "USDT", dec("50")))

	a, err := ex.Withdraw(buyer, "USDT", dec("10"))
	require.NoError(t, err)
	b, err := ex.Withdraw(seller, "USDT", dec("10"))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), a.Nonce)
	assert.Equal(t, uint64(1), b.Nonce, "nonces are per user")
}

// Concurrent withdrawals by the same user serialize: the issued nonces are
// exactly 1..n with no repeats.
func TestNonceMonotonicConcurrent(t *testing.T) {
	const n = 20

	ex := newTestExchange(t, nil)
	require.NoError(t, ex.Deposit(buyer, "USDT", dec("1000")))

	nonces := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			auth, err := ex.Withdraw(buyer, "USDT", dec("1"))
			if err != nil {
				t.Errorf("concurrent withdraw: %v", err)
				return
			}
			nonces[i] = auth.Nonce
		}(i)
	}
	wg.Wait()

	sort.Slice(nonces, func(i, j int) bool { return nonces[i] < nonces[j] })
	for i, nonce := range nonces {
		assert.Equal(t, uint64(i+1), nonce, "nonces must be 1..n with no repeats")
	}
	assert.True(t, ex.Balance(buyer, "USDT").Equal(dec("980")))
}

// A signing failure after the debit must restore the balance exactly and
// burn the allocated nonce.
func TestSigningFailureRollsBack(t *testing.T) {
	signer := newFlakySigner(t)
	ex := newTestExchange(t, signer)
	require.NoError(t, ex.Deposit(buyer, "USDT", dec("100")))

	signer.mu.Lock()
	signer.failNext = 1
	signer.mu.Unlock()

	_, err := ex.Withdraw(buyer, "USDT", dec("25"))
	require.ErrorIs(t, err, core.ErrSigningFailed)
	assert.True(t, ex.Balance(buyer, "USDT").Equal(dec("100")), "debit must be compensated exactly")
	assert.Equal(t, uint64(1), ex.Nonce(buyer), "the failed attempt burns its nonce")

	// The next successful withdrawal skips the burned nonce.
	auth, err := ex.Withdraw(buyer, "USDT", dec("25"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), auth.Nonce)
	assert.True(t, ex.Balance(buyer, "USDT").Equal(dec("75")))
}
