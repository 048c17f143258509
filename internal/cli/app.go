// Package cli implements the fintrack command line: recording transactions,
// trading into the portfolio and printing summaries from the same store the
// server uses.
package cli

import (
	"fmt"
	"io"
	"time"

	"fintrack/internal/database"
	"fintrack/internal/ledger"
	"fintrack/internal/service"
	"github.com/Rhymond/go-money"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// App carries what every command needs.
type App struct {
	Store    database.Store
	Quotes   service.QuoteSource // nil disables live prices
	Currency string
	Oversell ledger.OversellPolicy
	Out      io.Writer
	Err      io.Writer
	Now      func() time.Time
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// Register adds every command to c.
func Register(c *subcommands.Commander, a *App) {
	c.Register(&recordCmd{app: a}, "transactions")
	c.Register(&transactionsCmd{app: a}, "transactions")
	c.Register(&summaryCmd{app: a}, "transactions")
	c.Register(&categoriesCmd{app: a}, "transactions")

	c.Register(&tradeCmd{app: a, side: ledger.Buy}, "portfolio")
	c.Register(&tradeCmd{app: a, side: ledger.Sell}, "portfolio")
	c.Register(&holdingsCmd{app: a}, "portfolio")
}

// format renders v in the app currency, rounded to the currency's minor unit.
func (a *App) format(v float64) string {
	cur := *money.New(0, a.Currency).Currency()
	minor := decimal.NewFromFloat(v).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func (a *App) errorf(format string, args ...interface{}) {
	fmt.Fprintf(a.Err, "Error: "+format+"\n", args...)
}
