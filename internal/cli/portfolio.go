package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"

	"fintrack/internal/ledger"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// tradeCmd serves both "buy" and "sell".
type tradeCmd struct {
	app  *App
	side ledger.Side
}

func (c *tradeCmd) Name() string { return c.side.String() }
func (c *tradeCmd) Synopsis() string {
	return fmt.Sprintf("%s shares of a symbol at a unit price", c.side)
}
func (c *tradeCmd) Usage() string {
	return fmt.Sprintf(`fintrack %s <SYMBOL> <SHARES> <PRICE>

  Updates the holdings with a %s trade. Shares may be fractional.
`, c.side, c.side)
}

func (*tradeCmd) SetFlags(*flag.FlagSet) {}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		c.app.errorf("%s expects SYMBOL SHARES PRICE", c.side)
		return subcommands.ExitUsageError
	}
	shares, err := decimal.NewFromString(f.Arg(1))
	if err != nil {
		c.app.errorf("invalid shares %q", f.Arg(1))
		return subcommands.ExitUsageError
	}
	price, err := decimal.NewFromString(f.Arg(2))
	if err != nil {
		c.app.errorf("invalid price %q", f.Arg(2))
		return subcommands.ExitUsageError
	}
	trade := ledger.Trade{
		Symbol: ledger.NormalizeSymbol(f.Arg(0)),
		Shares: shares.InexactFloat64(),
		Price:  price.InexactFloat64(),
		Side:   c.side,
	}

	var res ledger.Result
	holdings, err := c.app.Store.UpdateHoldings(ctx, func(cur ledger.Holdings) (ledger.Holdings, error) {
		var next ledger.Holdings
		var err error
		next, res, err = ledger.Apply(cur, trade, ledger.WithOversellPolicy(c.app.Oversell))
		return next, err
	})
	switch {
	case errors.Is(err, ledger.ErrInvalidTrade):
		c.app.errorf("%v", err)
		return subcommands.ExitUsageError
	case err != nil:
		c.app.errorf("%v", err)
		return subcommands.ExitFailure
	}

	switch res.Outcome {
	case ledger.Ignored:
		fmt.Fprintf(c.app.Out, "%s is not held, nothing sold\n", trade.Symbol)
	case ledger.Closed:
		fmt.Fprintf(c.app.Out, "%s position closed\n", trade.Symbol)
		if res.Shortfall > 0 {
			fmt.Fprintf(c.app.Err, "Warning: sold %v more shares than held\n", res.Shortfall)
		}
	default:
		h := holdings[trade.Symbol]
		fmt.Fprintf(c.app.Out, "%s %s: %v shares at %s\n", trade.Symbol, res.Outcome, h.TotalShares, c.app.format(h.AvgCost))
	}
	return subcommands.ExitSuccess
}

type holdingsCmd struct {
	app     *App
	offline bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "show the holdings with their market value" }
func (*holdingsCmd) Usage() string {
	return `fintrack holdings [-offline]

  Lists every holding with its cost basis. Live prices are fetched unless -offline is set.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.offline, "offline", false, "do not fetch live prices")
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	holdings, err := c.app.Store.Holdings(ctx)
	if err != nil {
		c.app.errorf("loading holdings: %v", err)
		return subcommands.ExitFailure
	}
	quotes := ledger.Quotes{}
	if !c.offline && c.app.Quotes != nil && len(holdings) > 0 {
		quotes = c.app.Quotes.Quotes(ctx, holdings.Symbols())
	}
	v := ledger.Value(holdings, quotes)

	w := tabwriter.NewWriter(c.app.Out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "SYMBOL\tSHARES\tAVG COST\tCOST\tPRICE\tVALUE\tGAIN\t")
	for _, p := range v.Positions {
		price, value, gain := "-", "-", "-"
		if p.Live {
			price = c.app.format(p.Price)
			value = c.app.format(p.MarketValue)
			gain = fmt.Sprintf("%s (%.2f%%)", c.app.format(p.Gain), p.GainPercent)
		}
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%s\t%s\t%s\t\n", p.Symbol, p.TotalShares, c.app.format(p.AvgCost), c.app.format(p.Cost), price, value, gain)
	}
	w.Flush()

	fmt.Fprintf(c.app.Out, "total cost: %s\n", c.app.format(v.TotalCost))
	if v.HasLivePrices {
		fmt.Fprintf(c.app.Out, "market value: %s\n", c.app.format(v.TotalMarketValue))
		fmt.Fprintf(c.app.Out, "P/L: %s (%.2f%%)\n", c.app.format(v.TotalPL), v.TotalPLPercent)
	}
	return subcommands.ExitSuccess
}
