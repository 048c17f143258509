package summary

import (
	"sort"
	"time"

	"fintrack/internal/models"
)

type MonthlyTotals struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// Monthly sums the transactions dated in the calendar month of now. Dates are
// compared in now's location. Anything that is not income counts as expense.
func Monthly(txs []models.Transaction, now time.Time) MonthlyTotals {
	year, month, _ := now.Date()
	res := MonthlyTotals{Year: year, Month: int(month)}
	for _, tx := range txs {
		y, m, _ := tx.Date.In(now.Location()).Date()
		if y != year || m != month {
			continue
		}
		if tx.Type == models.Income {
			res.Income += tx.Amount
		} else {
			res.Expense += tx.Amount
		}
	}
	res.Net = res.Income - res.Expense
	return res
}

type CategoryTotal struct {
	Category   string  `json:"category"`
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	Icon       string  `json:"icon,omitempty"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// ByCategory totals the transactions of one type per category, largest first.
func ByCategory(txs []models.Transaction, typ models.TransactionType) []CategoryTotal {
	amounts := map[string]float64{}
	var total float64
	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		amounts[tx.Category] += tx.Amount
		total += tx.Amount
	}

	res := make([]CategoryTotal, 0, len(amounts))
	for id, amount := range amounts {
		ct := CategoryTotal{Category: id, Name: id, Color: "#999", Amount: amount}
		if c, ok := models.CategoryByID(id); ok {
			ct.Name, ct.Color, ct.Icon = c.Name, c.Color, c.Icon
		}
		if total > 0 {
			ct.Percentage = amount / total * 100
		}
		res = append(res, ct)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Amount != res[j].Amount {
			return res[i].Amount > res[j].Amount
		}
		return res[i].Category < res[j].Category
	})
	return res
}

// Recent returns a copy of the first n transactions of a list already in
// store order, most recently recorded first. A backdated entry still counts
// as recent.
func Recent(txs []models.Transaction, n int) []models.Transaction {
	if n < 0 || n > len(txs) {
		n = len(txs)
	}
	res := make([]models.Transaction, n)
	copy(res, txs[:n])
	return res
}
