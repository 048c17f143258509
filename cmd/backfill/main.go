package main

import (
	"context"
	"flag"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/ledger"
	"fintrack/internal/models"
	"github.com/sirupsen/logrus"
)

var months = flag.Int("months", 3, "number of past months to backfill")

type entry struct {
	day      int
	amount   float64
	category string
	typ      models.TransactionType
}

// One month of demo activity.
var monthly = []entry{
	{1, 52000, "salary", models.Income},
	{2, 180, "food", models.Expense},
	{5, 1280, "transport", models.Expense},
	{9, 2400, "shopping", models.Expense},
	{14, 320, "food", models.Expense},
	{18, 650, "entertainment", models.Expense},
	{22, 1500, "others", models.Income},
	{27, 410, "food", models.Expense},
}

var trades = []ledger.Trade{
	{Symbol: "AAPL", Shares: 10, Price: 150, Side: ledger.Buy},
	{Symbol: "MSFT", Shares: 5, Price: 310, Side: ledger.Buy},
	{Symbol: "AAPL", Shares: 5, Price: 180, Side: ledger.Buy},
	{Symbol: "NVDA", Shares: 2.5, Price: 420, Side: ledger.Buy},
	{Symbol: "MSFT", Shares: 2, Price: 330, Side: ledger.Sell},
}

func main() {
	flag.Parse()
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	store, err := database.OpenStore(ctx, cfg.PostgresURL, cfg.DataDir, logger)
	if err != nil {
		logger.Fatalf("store open failed: %v", err)
	}
	defer store.Close()

	now := time.Now()
	count := 0
	for m := *months; m > 0; m-- {
		first := time.Date(now.Year(), now.Month(), 1, 12, 0, 0, 0, now.Location()).AddDate(0, -m, 0)
		for _, e := range monthly {
			tx, err := models.NewTransaction(e.amount, e.category, first.AddDate(0, 0, e.day-1), e.typ, "")
			if err != nil {
				logger.Fatalf("bad demo entry: %v", err)
			}
			if _, err := store.AddTransaction(ctx, tx); err != nil {
				logger.Warnf("could not insert transaction for %s: %v", tx.Date.Format("2006-01-02"), err)
				continue
			}
			count++
		}
	}
	logger.Infof("backfilled %d transactions over %d months", count, *months)

	holdings, err := store.UpdateHoldings(ctx, func(h ledger.Holdings) (ledger.Holdings, error) {
		for _, t := range trades {
			next, _, err := ledger.Apply(h, t)
			if err != nil {
				return h, err
			}
			h = next
		}
		return h, nil
	})
	if err != nil {
		logger.Fatalf("could not apply demo trades: %v", err)
	}
	for _, h := range holdings.Sorted() {
		logger.Infof("holding %s: %v shares at %.2f", h.Symbol, h.TotalShares, h.AvgCost)
	}
}
