package asset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const sampleYAML = `
assets:
  - symbol: BTC
    address: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"
    decimals: 8
  - symbol: USDT
    address: "0xdAC17F958D2ee523a2206206994597C13D831ec7"
    decimals: 6
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	r, err := Load(writeFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("assets = %d, want 2", r.Len())
	}

	btc, ok := r.Get("BTC")
	if !ok {
		t.Fatal("BTC not found")
	}
	if btc.Address != common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599") {
		t.Errorf("BTC address = %s", btc.Address.Hex())
	}
	if btc.Decimals != 8 {
		t.Errorf("BTC decimals = %d, want 8", btc.Decimals)
	}

	if _, ok := r.Get("DOGE"); ok {
		t.Error("unknown symbol resolved")
	}
}

func TestLoadRejectsBadAddress(t *testing.T) {
	bad := `
assets:
  - symbol: BTC
    address: "not-an-address"
    decimals: 8
`
	if _, err := Load(writeFile(t, bad)); err == nil {
		t.Fatal("bad address accepted")
	}
}

func TestLoadRejectsEmpty(t *testing.T) {
	if _, err := Load(writeFile(t, "assets: []\n")); err == nil {
		t.Fatal("empty asset file accepted")
	}
}

func TestFromAssetsRejectsDuplicates(t *testing.T) {
	_, err := FromAssets([]Asset{
		{Symbol: "BTC", Decimals: 8},
		{Symbol: "BTC", Decimals: 8},
	})
	if err == nil {
		t.Fatal("duplicate symbol accepted")
	}
}

func TestScaleToChain(t *testing.T) {
	usdt := Asset{Symbol: "USDT", Decimals: 6}

	for _, tt := range []struct {
		amount string
		want   string
	}{
		{"1", "1000000"},
		{"0.000001", "1"},
		{"123.456789", "123456789"},
		{"40", "40000000"},
	} {
		got := usdt.ScaleToChain(mustDec(t, tt.amount))
		if got.String() != tt.want {
			t.Errorf("ScaleToChain(%s) = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

// Scaling must never round up: a claim for more units than were debited
// would be an unbacked mint against the reserve.
func TestScaleToChainNeverRoundsUp(t *testing.T) {
	usdt := Asset{Symbol: "USDT", Decimals: 6}

	for _, tt := range []struct {
		amount string
		want   string
	}{
		{"0.0000015", "1"}, // 1.5 micro-units truncates to 1, never 2
		{"0.0000004", "0"},
		{"0.0000019999", "1"},
	} {
		got := usdt.ScaleToChain(mustDec(t, tt.amount))
		if got.String() != tt.want {
			t.Errorf("ScaleToChain(%s) = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestFitsChainPrecision(t *testing.T) {
	usdt := Asset{Symbol: "USDT", Decimals: 6}

	for _, tt := range []struct {
		amount string
		want   bool
	}{
		{"1", true},
		{"0.000001", true},
		{"40.123456", true},
		{"0.0000015", false},
		{"0.0000004", false},
		{"1.0000001", false},
	} {
		if got := usdt.FitsChainPrecision(mustDec(t, tt.amount)); got != tt.want {
			t.Errorf("FitsChainPrecision(%s) = %v, want %v", tt.amount, got, tt.want)
		}
	}
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}
