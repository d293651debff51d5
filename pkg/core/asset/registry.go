package asset

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Asset describes one custodial asset and its on-chain representation.
// The token address is only ever used as opaque bytes inside withdrawal
// authorization digests; the core never talks to the chain itself.
type Asset struct {
	Symbol   string         // ledger symbol, e.g. "USDT"
	Address  common.Address // on-chain token contract
	Decimals int32          // on-chain decimal precision
}

// ScaleToChain converts a ledger amount into on-chain integer units. The
// amount must be representable exactly at the token's decimals (check with
// FitsChainPrecision first); any finer residue is truncated, never rounded
// up, so a claim can never exceed what was debited.
func (a Asset) ScaleToChain(amount decimal.Decimal) *big.Int {
	return amount.Shift(a.Decimals).BigInt()
}

// FitsChainPrecision reports whether amount converts to on-chain units with
// no remainder. Amounts finer than the token's decimals cannot be settled
// faithfully: the claim would either mint unbacked units or destroy user
// funds.
func (a Asset) FitsChainPrecision(amount decimal.Decimal) bool {
	return amount.Shift(a.Decimals).IsInteger()
}

// Registry maps asset symbols to their on-chain descriptions.
type Registry struct {
	assets map[string]Asset
}

// Get returns the asset for symbol, and whether it is known.
func (r *Registry) Get(symbol string) (Asset, bool) {
	a, ok := r.assets[symbol]
	return a, ok
}

// Len returns the number of registered assets.
func (r *Registry) Len() int {
	return len(r.assets)
}

// FromAssets builds a registry from an in-memory asset list.
func FromAssets(assets []Asset) (*Registry, error) {
	r := &Registry{assets: make(map[string]Asset, len(assets))}
	for _, a := range assets {
		if err := validate(a); err != nil {
			return nil, err
		}
		if _, dup := r.assets[a.Symbol]; dup {
			return nil, fmt.Errorf("duplicate asset symbol %q", a.Symbol)
		}
		r.assets[a.Symbol] = a
	}
	return r, nil
}

type assetFile struct {
	Assets []assetEntry `yaml:"assets"`
}

type assetEntry struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int32  `yaml:"decimals"`
}

// Load reads the asset table from a YAML file.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read asset file: %w", err)
	}
	var file assetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse asset file: %w", err)
	}
	if len(file.Assets) == 0 {
		return nil, fmt.Errorf("asset file %s defines no assets", path)
	}

	assets := make([]Asset, 0, len(file.Assets))
	for _, e := range file.Assets {
		if !common.IsHexAddress(e.Address) {
			return nil, fmt.Errorf("asset %q: invalid token address %q", e.Symbol, e.Address)
		}
		assets = append(assets, Asset{
			Symbol:   e.Symbol,
			Address:  common.HexToAddress(e.Address),
			Decimals: e.Decimals,
		})
	}
	return FromAssets(assets)
}

func validate(a Asset) error {
	if a.Symbol == "" {
		return fmt.Errorf("asset with empty symbol")
	}
	if a.Decimals < 0 || a.Decimals > 36 {
		return fmt.Errorf("asset %q: decimals out of range: %d", a.Symbol, a.Decimals)
	}
	return nil
}
