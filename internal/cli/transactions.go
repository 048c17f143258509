package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/summary"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type recordCmd struct {
	app      *App
	amount   string
	category string
	typ      string
	date     string
	note     string
}

func (*recordCmd) Name() string     { return "record" }
func (*recordCmd) Synopsis() string { return "record an expense or an income" }
func (*recordCmd) Usage() string {
	return `fintrack record -a <amount> [-t EXPENSE|INCOME] [-c <category>] [-d <YYYY-MM-DD>] [-n <note>]

  Records a transaction. The category defaults to the first one allowed for the type.
`
}

func (c *recordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "a", "", "amount, must be positive")
	f.StringVar(&c.typ, "t", string(models.Expense), "transaction type")
	f.StringVar(&c.category, "c", "", "category id, see 'fintrack categories'")
	f.StringVar(&c.date, "d", "", "date of the transaction, defaults to now")
	f.StringVar(&c.note, "n", "", "free note, defaults to the category name")
}

func (c *recordCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		c.app.errorf("invalid amount %q", c.amount)
		return subcommands.ExitUsageError
	}
	typ, err := models.ParseTransactionType(c.typ)
	if err != nil {
		c.app.errorf("%v", err)
		return subcommands.ExitUsageError
	}
	date := c.app.now()
	if c.date != "" {
		if date, err = time.ParseInLocation("2006-01-02", c.date, date.Location()); err != nil {
			c.app.errorf("invalid date %q", c.date)
			return subcommands.ExitUsageError
		}
	}

	tx, err := models.NewTransaction(amount.InexactFloat64(), c.category, date, typ, c.note)
	if err != nil {
		c.app.errorf("%v", err)
		return subcommands.ExitFailure
	}
	if _, err := c.app.Store.AddTransaction(ctx, tx); err != nil {
		c.app.errorf("saving transaction: %v", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(c.app.Out, "recorded %s %s %s (%s)\n", strings.ToLower(string(tx.Type)), c.app.format(tx.Amount), tx.Category, tx.ID)
	return subcommands.ExitSuccess
}

type transactionsCmd struct {
	app  *App
	head int
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list transactions, most recent first" }
func (*transactionsCmd) Usage() string {
	return `fintrack transactions [-head <n>]
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.head, "head", 0, "show only the first N transactions")
}

func (c *transactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	txs, err := c.app.Store.Transactions(ctx)
	if err != nil {
		c.app.errorf("loading transactions: %v", err)
		return subcommands.ExitFailure
	}
	if c.head > 0 {
		txs = summary.Recent(txs, c.head)
	}
	w := tabwriter.NewWriter(c.app.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTYPE\tCATEGORY\tAMOUNT\tNOTE")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", tx.Date.Format("2006-01-02"), tx.Type, tx.Category, c.app.format(tx.Amount), tx.Note)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	app   *App
	month string
	typ   string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "monthly income, expense and balance with a category breakdown" }
func (*summaryCmd) Usage() string {
	return `fintrack summary [-m <YYYY-MM>] [-t EXPENSE|INCOME]
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "month to summarise, defaults to the current month")
	f.StringVar(&c.typ, "t", string(models.Expense), "type used for the category breakdown")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	now := c.app.now()
	if c.month != "" {
		m, err := time.ParseInLocation("2006-01", c.month, now.Location())
		if err != nil {
			c.app.errorf("invalid month %q", c.month)
			return subcommands.ExitUsageError
		}
		now = m
	}
	typ, err := models.ParseTransactionType(c.typ)
	if err != nil {
		c.app.errorf("%v", err)
		return subcommands.ExitUsageError
	}
	txs, err := c.app.Store.Transactions(ctx)
	if err != nil {
		c.app.errorf("loading transactions: %v", err)
		return subcommands.ExitFailure
	}

	m := summary.Monthly(txs, now)
	fmt.Fprintf(c.app.Out, "%04d-%02d\n", m.Year, m.Month)
	fmt.Fprintf(c.app.Out, "income:  %s\nexpense: %s\nnet:     %s\n", c.app.format(m.Income), c.app.format(m.Expense), c.app.format(m.Net))

	w := tabwriter.NewWriter(c.app.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "\nCATEGORY\t%s\tSHARE\n", typ)
	for _, ct := range summary.ByCategory(monthOf(txs, now), typ) {
		fmt.Fprintf(w, "%s\t%s\t%.1f%%\n", ct.Category, c.app.format(ct.Amount), ct.Percentage)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

func monthOf(txs []models.Transaction, now time.Time) []models.Transaction {
	y, m, _ := now.Date()
	res := []models.Transaction{}
	for _, tx := range txs {
		ty, tm, _ := tx.Date.In(now.Location()).Date()
		if ty == y && tm == m {
			res = append(res, tx)
		}
	}
	return res
}

type categoriesCmd struct {
	app *App
	typ string
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list the transaction categories" }
func (*categoriesCmd) Usage() string {
	return `fintrack categories [-t EXPENSE|INCOME]
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.typ, "t", "", "only categories allowed for this type")
}

func (c *categoriesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cats := models.Categories
	if c.typ != "" {
		typ, err := models.ParseTransactionType(c.typ)
		if err != nil {
			c.app.errorf("%v", err)
			return subcommands.ExitUsageError
		}
		cats = models.CategoriesFor(typ)
	}
	for _, cat := range cats {
		fmt.Fprintf(c.app.Out, "%s\t%s\n", cat.ID, cat.Name)
	}
	return subcommands.ExitSuccess
}
