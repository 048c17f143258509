package database

import (
	"context"
	"time"

	"fintrack/internal/ledger"
	"fintrack/internal/models"
)

// Store persists the transaction list, the holdings and the quote history.
// Writes are serialised: one logical writer at a time.
//
// Transaction lists are in recording order, most recently added first,
// whatever the transaction dates are.
type Store interface {
	Transactions(ctx context.Context) ([]models.Transaction, error)
	AddTransaction(ctx context.Context, tx models.Transaction) ([]models.Transaction, error)
	Holdings(ctx context.Context) (ledger.Holdings, error)
	// UpdateHoldings loads the holdings, passes them to fn and saves what fn
	// returns. An error from fn leaves the stored holdings untouched.
	UpdateHoldings(ctx context.Context, fn func(ledger.Holdings) (ledger.Holdings, error)) (ledger.Holdings, error)
	SaveQuotes(ctx context.Context, quotes []ledger.Quote, ts time.Time) error
	LatestQuote(ctx context.Context, symbol string) (ledger.Quote, time.Time, error)
	Close() error
}
