package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/ledger"
	"fintrack/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlobStore(t *testing.T) (*BlobStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewBlobStore(dir, logrus.New())
	require.NoError(t, err)
	return s, dir
}

func TestBlobStore_Empty(t *testing.T) {
	s, _ := newBlobStore(t)
	ctx := context.Background()

	txs, err := s.Transactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.NotNil(t, txs)

	h, err := s.Holdings(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)

	_, _, err = s.LatestQuote(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlobStore_AddTransactionPrepends(t *testing.T) {
	s, _ := newBlobStore(t)
	ctx := context.Background()
	first := models.Transaction{ID: "1", Amount: 10, Category: "food", Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Type: models.Expense, Note: "lunch"}
	second := models.Transaction{ID: "2", Amount: 3000, Category: "salary", Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Type: models.Income}

	_, err := s.AddTransaction(ctx, first)
	require.NoError(t, err)
	updated, err := s.AddTransaction(ctx, second)
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, "2", updated[0].ID)

	reloaded, err := s.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded, 2)
	assert.Equal(t, "2", reloaded[0].ID)
	assert.Equal(t, first.Note, reloaded[1].Note)
	assert.True(t, first.Date.Equal(reloaded[1].Date))
}

func TestBlobStore_UpdateHoldings(t *testing.T) {
	s, _ := newBlobStore(t)
	ctx := context.Background()
	buy := func(h ledger.Holdings) (ledger.Holdings, error) {
		return ledger.ApplyTransaction(h, "AAPL", 10, 100, true)
	}

	_, err := s.UpdateHoldings(ctx, buy)
	require.NoError(t, err)
	h, err := s.UpdateHoldings(ctx, func(h ledger.Holdings) (ledger.Holdings, error) {
		return ledger.ApplyTransaction(h, "AAPL", 10, 200, true)
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Holding{Symbol: "AAPL", TotalShares: 20, AvgCost: 150}, h["AAPL"])

	stored, err := s.Holdings(ctx)
	require.NoError(t, err)
	assert.Equal(t, h, stored)

	boom := errors.New("boom")
	_, err = s.UpdateHoldings(ctx, func(ledger.Holdings) (ledger.Holdings, error) { return ledger.Holdings{}, boom })
	assert.ErrorIs(t, err, boom)
	stored, err = s.Holdings(ctx)
	require.NoError(t, err)
	assert.Contains(t, stored, "AAPL")

	_, err = s.UpdateHoldings(ctx, func(h ledger.Holdings) (ledger.Holdings, error) {
		return ledger.ApplyTransaction(h, "AAPL", 25, 1, false)
	})
	require.NoError(t, err)
	stored, err = s.Holdings(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestBlobStore_MalformedBlobIsEmpty(t *testing.T) {
	s, dir := newBlobStore(t)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(dir, expensesKey+".json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, portfolioKey+".json"), []byte(`[{"symbol":"AAPL","totalShares":"ten"}]`), 0o644))

	txs, err := s.Transactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)

	h, err := s.Holdings(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)

	// the next write replaces the corrupt blob
	_, err = s.UpdateHoldings(ctx, func(h ledger.Holdings) (ledger.Holdings, error) {
		return ledger.ApplyTransaction(h, "msft", 1, 400, true)
	})
	require.NoError(t, err)
	h, err = s.Holdings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT"}, h.Symbols())
}

func TestBlobStore_PersistedLayout(t *testing.T) {
	s, dir := newBlobStore(t)
	ctx := context.Background()
	_, err := s.UpdateHoldings(ctx, func(h ledger.Holdings) (ledger.Holdings, error) {
		return ledger.ApplyTransaction(h, "AAPL", 2, 10, true)
	})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, portfolioKey+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"symbol":"AAPL","totalShares":2,"avgCost":10}]`, string(b))
}

func TestBlobStore_Quotes(t *testing.T) {
	s, _ := newBlobStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveQuotes(ctx, nil, ts))
	require.NoError(t, s.SaveQuotes(ctx, []ledger.Quote{{Symbol: "AAPL", Price: 190.5, ChangePercent: 1.2}}, ts))
	require.NoError(t, s.SaveQuotes(ctx, []ledger.Quote{{Symbol: "AAPL", Price: 191, ChangePercent: 1.4}}, ts.Add(time.Minute)))

	q, at, err := s.LatestQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 191.0, q.Price)
	assert.True(t, ts.Add(time.Minute).Equal(at))
}
