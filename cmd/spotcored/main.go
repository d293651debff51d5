package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"spotcore/params"
	"spotcore/pkg/api"
	"spotcore/pkg/core"
	"spotcore/pkg/core/asset"
	"spotcore/pkg/crypto"
	"spotcore/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("") // "" means load .env from current directory

	var (
		logger *zap.Logger
		err    error
	)
	if cfg.LogFile != "" {
		logger, err = util.NewLoggerWithFile(cfg.LogFile, cfg.LogLevel)
	} else {
		logger, err = util.NewLogger(cfg.LogLevel)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// The custodial signing key is a startup precondition: without it no
	// withdrawal can ever be authorized, so refuse to start.
	if cfg.SignerKey == "" {
		sugar.Fatalw("missing_signer_key", "hint", "set WITHDRAWAL_SIGNER_KEY")
	}
	signer, err := crypto.FromPrivateKeyHex(cfg.SignerKey)
	if err != nil {
		sugar.Fatalw("bad_signer_key", "err", err)
	}

	if !common.IsHexAddress(cfg.SettlementContract) {
		sugar.Fatalw("bad_settlement_contract", "value", cfg.SettlementContract)
	}

	assets, err := asset.Load(cfg.AssetFile)
	if err != nil {
		sugar.Fatalw("asset_file_load_failed", "path", cfg.AssetFile, "err", err)
	}

	ex, err := core.New(core.Config{
		BaseAsset:          cfg.Pair.Base,
		QuoteAsset:         cfg.Pair.Quote,
		SettlementContract: common.HexToAddress(cfg.SettlementContract),
		DepthLimit:         cfg.DepthLimit,
		TradeHistory:       cfg.TradeHistory,
	}, assets, signer, sugar)
	if err != nil {
		sugar.Fatalw("exchange_init_failed", "err", err)
	}

	sugar.Infow("exchange_started",
		"pair", cfg.Pair.Base+"-"+cfg.Pair.Quote,
		"assets", assets.Len(),
		"signer", signer.Address().Hex(),
		"settlement_contract", cfg.SettlementContract)

	server := api.NewServer(ex, sugar, api.Options{
		AllowedOrigins: cfg.API.AllowedOrigins,
		RateLimit:      cfg.API.RateLimit,
		RateBurst:      cfg.API.RateBurst,
	})

	go func() {
		if err := server.Start(cfg.API.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	sugar.Info("shutting down")
}
