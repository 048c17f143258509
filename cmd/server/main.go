package main

import (
	"context"
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/handlers"
	"fintrack/internal/ledger"
	"fintrack/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	policy, err := ledger.ParseOversellPolicy(cfg.OversellPolicy)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := database.OpenStore(ctx, cfg.PostgresURL, cfg.DataDir, logger)
	if err != nil {
		logger.Fatalf("store open failed: %v", err)
	}
	defer store.Close()

	if cfg.FinnhubAPIKey == "" {
		logger.Warn("FINNHUB_API_KEY is missing; quotes will be unavailable")
	}
	provider := service.NewFinnhub(cfg.QuoteBaseURL, cfg.FinnhubAPIKey, cfg.QuoteTimeout)
	quoteSvc, err := service.NewQuoteService(provider, store, cfg.QuoteCacheTTL, cfg.QuoteTimeout, logger)
	if err != nil {
		logger.Fatalf("quote service: %v", err)
	}
	defer quoteSvc.Close()

	if cfg.PriceUpdateInterval > 0 && cfg.FinnhubAPIKey != "" {
		quoteSvc.Start(ctx, cfg.PriceUpdateInterval, func(ctx context.Context) ([]string, error) {
			h, err := store.Holdings(ctx)
			if err != nil {
				return nil, err
			}
			return h.Symbols(), nil
		})
	}

	h := handlers.NewHandler(store, quoteSvc, policy, logger)

	rg := gin.Default()
	h.Register(rg)

	logger.Infof("server starting on :%s (oversell policy %s)", cfg.Port, policy)
	if err := rg.Run(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		logger.Errorf("server stopped: %v", err)
	}
}
