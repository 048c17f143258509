package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fintrack/internal/ledger"
	"fintrack/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Repo is the Postgres store. Holdings are keyed by symbol and transactions
// by id, so a trade only rewrites the rows it touches.
type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

func Open(ctx context.Context, dsn string, log *logrus.Logger) (*Repo, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return New(db, log), nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) Transactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, amount, category, date, type, note FROM transactions ORDER BY seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.Transaction{}
	for rows.Next() {
		var row transactionRow
		if err := rows.StructScan(&row); err != nil {
			r.log.Warnf("scan transaction failed: %v", err)
			continue
		}
		res = append(res, row.transaction())
	}
	return res, rows.Err()
}

func (r *Repo) AddTransaction(ctx context.Context, tx models.Transaction) ([]models.Transaction, error) {
	q := `INSERT INTO transactions (id, amount, category, date, type, note, created_at) VALUES ($1, $2::numeric, $3, $4, $5, $6, now()) ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, q, tx.ID, decimal.NewFromFloat(tx.Amount).String(), tx.Category, tx.Date, string(tx.Type), tx.Note); err != nil {
		return nil, err
	}
	return r.Transactions(ctx)
}

func (r *Repo) Holdings(ctx context.Context) (ledger.Holdings, error) {
	return r.holdings(ctx, r.db, `SELECT symbol, total_shares, avg_cost FROM holdings`)
}

func (r *Repo) holdings(ctx context.Context, q sqlx.QueryerContext, query string) (ledger.Holdings, error) {
	rows, err := q.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []ledger.Holding{}
	for rows.Next() {
		var row holdingRow
		if err := rows.StructScan(&row); err != nil {
			r.log.Warnf("scan holding failed: %v", err)
			continue
		}
		list = append(list, row.holding())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ledger.FromList(list), nil
}

func (r *Repo) UpdateHoldings(ctx context.Context, fn func(ledger.Holdings) (ledger.Holdings, error)) (ledger.Holdings, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Row locks alone would let two writers insert the same new symbol.
	if _, err := tx.ExecContext(ctx, `LOCK TABLE holdings IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, err
	}
	current, err := r.holdings(ctx, tx, `SELECT symbol, total_shares, avg_cost FROM holdings FOR UPDATE`)
	if err != nil {
		return nil, err
	}
	updated, err := fn(current)
	if err != nil {
		return current, err
	}

	for symbol := range current {
		if _, ok := updated[symbol]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM holdings WHERE symbol = $1`, symbol); err != nil {
			return nil, err
		}
	}

	upsert := `INSERT INTO holdings (symbol, total_shares, avg_cost, last_updated) VALUES ($1, $2::numeric, $3::numeric, now()) ON CONFLICT (symbol) DO UPDATE SET total_shares = EXCLUDED.total_shares, avg_cost = EXCLUDED.avg_cost, last_updated = now()`
	for symbol, h := range updated {
		if old, ok := current[symbol]; ok && old == h {
			continue
		}
		if _, err := tx.ExecContext(ctx, upsert, symbol, decimal.NewFromFloat(h.TotalShares).String(), decimal.NewFromFloat(h.AvgCost).String()); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repo) SaveQuotes(ctx context.Context, quotes []ledger.Quote, ts time.Time) error {
	for _, q := range quotes {
		_, err := r.db.ExecContext(ctx, `INSERT INTO quote_history (symbol, price, change_percent, timestamp) VALUES ($1, $2::numeric, $3::numeric, $4)`,
			q.Symbol, decimal.NewFromFloat(q.Price).StringFixed(4), decimal.NewFromFloat(q.ChangePercent).StringFixed(4), ts)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) LatestQuote(ctx context.Context, symbol string) (ledger.Quote, time.Time, error) {
	var row quoteRow
	err := r.db.GetContext(ctx, &row, `SELECT symbol, price, change_percent, timestamp FROM quote_history WHERE symbol = $1 ORDER BY timestamp DESC LIMIT 1`, symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Quote{}, time.Time{}, ErrNotFound
	}
	if err != nil {
		return ledger.Quote{}, time.Time{}, err
	}
	return ledger.Quote{Symbol: row.Symbol, Price: row.Price.InexactFloat64(), ChangePercent: row.ChangePercent.InexactFloat64()}, row.Timestamp, nil
}
