package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidTransaction = errors.New("invalid transaction")

type TransactionType string

const (
	Expense TransactionType = "EXPENSE"
	Income  TransactionType = "INCOME"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case Expense:
		return Expense, nil
	case Income:
		return Income, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, s)
	}
}

type Transaction struct {
	ID       string          `db:"id" json:"id"`
	Amount   float64         `db:"amount" json:"amount"`
	Category string          `db:"category" json:"category"`
	Date     time.Time       `db:"date" json:"date"`
	Type     TransactionType `db:"type" json:"type"`
	Note     string          `db:"note" json:"note"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var Categories = []Category{
	{ID: "salary", Name: "薪水", Icon: "Banknote", Color: "#10B981"},
	{ID: "food", Name: "餐飲", Icon: "Utensils", Color: "#EF4444"},
	{ID: "transport", Name: "交通", Icon: "Bus", Color: "#3B82F6"},
	{ID: "shopping", Name: "購物", Icon: "ShoppingBag", Color: "#F59E0B"},
	{ID: "entertainment", Name: "娛樂", Icon: "Film", Color: "#EC4899"},
	{ID: "others", Name: "其他", Icon: "MoreHorizontal", Color: "#6B7280"},
}

func CategoryByID(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoriesFor lists the categories a transaction of type t may use:
// salary is income only, others is shared.
func CategoriesFor(t TransactionType) []Category {
	res := []Category{}
	for _, c := range Categories {
		switch {
		case t == Income && (c.ID == "salary" || c.ID == "others"):
			res = append(res, c)
		case t == Expense && c.ID != "salary":
			res = append(res, c)
		}
	}
	return res
}

func allowed(t TransactionType, category string) bool {
	for _, c := range CategoriesFor(t) {
		if c.ID == category {
			return true
		}
	}
	return false
}

// NewTransaction validates the input and builds a transaction with a fresh id.
// An empty category picks the first category allowed for the type, an empty
// note takes the category name.
func NewTransaction(amount float64, category string, date time.Time, typ TransactionType, note string) (Transaction, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return Transaction{}, fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidTransaction, amount)
	}
	if typ != Expense && typ != Income {
		return Transaction{}, fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, typ)
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = CategoriesFor(typ)[0].ID
	}
	if !allowed(typ, category) {
		return Transaction{}, fmt.Errorf("%w: category %q not allowed for %s", ErrInvalidTransaction, category, typ)
	}
	if date.IsZero() {
		date = time.Now()
	}
	if strings.TrimSpace(note) == "" {
		c, _ := CategoryByID(category)
		note = c.Name
	}
	return Transaction{
		ID:       uuid.NewString(),
		Amount:   amount,
		Category: category,
		Date:     date,
		Type:     typ,
		Note:     note,
	}, nil
}
