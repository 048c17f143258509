package database

import (
	"time"

	"fintrack/internal/ledger"
	"fintrack/internal/models"
	"github.com/shopspring/decimal"
)

type holdingRow struct {
	Symbol      string          `db:"symbol"`
	TotalShares decimal.Decimal `db:"total_shares"`
	AvgCost     decimal.Decimal `db:"avg_cost"`
}

func (r holdingRow) holding() ledger.Holding {
	return ledger.Holding{Symbol: r.Symbol, TotalShares: r.TotalShares.InexactFloat64(), AvgCost: r.AvgCost.InexactFloat64()}
}

type transactionRow struct {
	ID       string          `db:"id"`
	Amount   decimal.Decimal `db:"amount"`
	Category string          `db:"category"`
	Date     time.Time       `db:"date"`
	Type     string          `db:"type"`
	Note     string          `db:"note"`
}

func (r transactionRow) transaction() models.Transaction {
	return models.Transaction{
		ID:       r.ID,
		Amount:   r.Amount.InexactFloat64(),
		Category: r.Category,
		Date:     r.Date,
		Type:     models.TransactionType(r.Type),
		Note:     r.Note,
	}
}

type quoteRow struct {
	Symbol        string          `db:"symbol"`
	Price         decimal.Decimal `db:"price"`
	ChangePercent decimal.Decimal `db:"change_percent"`
	Timestamp     time.Time       `db:"timestamp"`
}

type quoteBlob struct {
	ledger.Quote
	Timestamp time.Time `json:"timestamp"`
}
