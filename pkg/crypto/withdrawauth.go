package crypto

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// WithdrawalClaim is the canonical authorization message for one custodial
// withdrawal. The settlement contract recomputes the same packed digest,
// recovers the custodial signer from the signature, and marks the nonce
// consumed, so the claim itself is never persisted here.
type WithdrawalClaim struct {
	User     common.Address // recipient on-chain
	Token    common.Address // asset's token contract
	Amount   *big.Int       // scaled to the token's decimals
	Nonce    uint64         // per-user replay protection
	Contract common.Address // settlement contract the claim is bound to
}

// Digest returns keccak256 of the tightly packed claim fields, in the fixed
// order {user, token, amount, nonce, contract}. Amount and nonce are packed
// as 32-byte big-endian words, matching abi.encodePacked on the contract side.
func (c *WithdrawalClaim) Digest() ([]byte, error) {
	if c.Amount == nil || c.Amount.Sign() < 0 {
		return nil, fmt.Errorf("claim amount must be non-negative")
	}
	buf := make([]byte, 0, common.AddressLength*3+64)
	buf = append(buf, c.User.Bytes()...)
	buf = append(buf, c.Token.Bytes()...)
	buf = append(buf, common.LeftPadBytes(c.Amount.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(new(big.Int).SetUint64(c.Nonce).Bytes(), 32)...)
	buf = append(buf, c.Contract.Bytes()...)
	return crypto.Keccak256(buf), nil
}

// SignClaim hashes the claim and signs the digest with the custodial key.
func SignClaim(signer *Signer, claim *WithdrawalClaim) ([]byte, error) {
	digest, err := claim.Digest()
	if err != nil {
		return nil, err
	}
	return signer.Sign(digest)
}
