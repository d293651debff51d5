package params

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Pair struct {
	Base  string
	Quote string
}

type API struct {
	Addr           string
	AllowedOrigins []string
	// RateLimit is requests per second per client host; RateBurst is the
	// token-bucket burst.
	RateLimit float64
	RateBurst int
}

type Config struct {
	Pair Pair
	API  API

	// AssetFile is the YAML table of asset symbol -> on-chain token
	// address + decimals.
	AssetFile string

	// SettlementContract is the on-chain contract withdrawal claims are
	// bound to (hex address).
	SettlementContract string

	// SignerKey is the custodial withdrawal signing key (hex, no 0x).
	// Startup fails fast when it is absent.
	SignerKey string

	DepthLimit   int
	TradeHistory int
	LogLevel     string
	LogFile      string
}

func Default() Config {
	return Config{
		Pair: Pair{Base: "BTC", Quote: "USDT"},
		API: API{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimit:      20,
			RateBurst:      40,
		},
		AssetFile:    "configs/assets.yaml",
		DepthLimit:   10,
		TradeHistory: 128,
		LogLevel:     "info",
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // .env in current directory, optional
	}

	if v := os.Getenv("PAIR_BASE"); v != "" {
		cfg.Pair.Base = v
	}
	if v := os.Getenv("PAIR_QUOTE"); v != "" {
		cfg.Pair.Quote = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.API.RateLimit = f
		}
	}
	if v := os.Getenv("API_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.RateBurst = n
		}
	}
	if v := os.Getenv("ASSET_FILE"); v != "" {
		cfg.AssetFile = v
	}
	if v := os.Getenv("SETTLEMENT_CONTRACT"); v != "" {
		cfg.SettlementContract = v
	}
	if v := os.Getenv("WITHDRAWAL_SIGNER_KEY"); v != "" {
		cfg.SignerKey = v
	}
	if v := os.Getenv("DEPTH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DepthLimit = n
		}
	}
	if v := os.Getenv("TRADE_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TradeHistory = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	return cfg
}
