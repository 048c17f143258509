package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/database"
	"fintrack/internal/ledger"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu     sync.Mutex
	calls  map[string]int
	prices map[string]float64
	slow   map[string]bool
}

func newFakeProvider(prices map[string]float64) *fakeProvider {
	return &fakeProvider{calls: map[string]int{}, prices: prices, slow: map[string]bool{}}
}

func (f *fakeProvider) Quote(ctx context.Context, symbol string) (ledger.Quote, error) {
	f.mu.Lock()
	f.calls[symbol]++
	slow := f.slow[symbol]
	price, ok := f.prices[symbol]
	f.mu.Unlock()

	if slow {
		<-ctx.Done()
		return ledger.Quote{}, ctx.Err()
	}
	if !ok {
		return ledger.Quote{}, errors.New("unknown symbol")
	}
	return ledger.Quote{Symbol: symbol, Price: price, ChangePercent: 1}, nil
}

func (f *fakeProvider) count(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

func TestFetchAll_PartialResults(t *testing.T) {
	p := newFakeProvider(map[string]float64{"AAPL": 190, "MSFT": 410})
	p.slow["HANG"] = true

	start := time.Now()
	got := FetchAll(context.Background(), p, []string{"AAPL", "msft", "NOPE", "HANG", "AAPL", ""}, 50*time.Millisecond, logrus.New())

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Len(t, got, 2)
	assert.Equal(t, 190.0, got["AAPL"].Price)
	assert.Equal(t, 410.0, got["MSFT"].Price)
	assert.NotContains(t, got, "NOPE")
	assert.NotContains(t, got, "HANG")
	assert.Equal(t, 1, p.count("AAPL"))
}

func TestFetchAll_Empty(t *testing.T) {
	got := FetchAll(context.Background(), newFakeProvider(nil), nil, 0, logrus.New())
	assert.Empty(t, got)
}

func newTestService(t *testing.T, p Provider, ttl time.Duration) (*QuoteService, database.Store) {
	t.Helper()
	store, err := database.NewBlobStore(t.TempDir(), logrus.New())
	require.NoError(t, err)
	svc, err := NewQuoteService(p, store, ttl, time.Second, logrus.New())
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, store
}

func TestQuoteService_CachesAndRecords(t *testing.T) {
	p := newFakeProvider(map[string]float64{"AAPL": 190})
	svc, store := newTestService(t, p, time.Minute)
	ctx := context.Background()

	got := svc.Quotes(ctx, []string{"AAPL", "NOPE"})
	assert.Equal(t, 190.0, got["AAPL"].Price)
	assert.NotContains(t, got, "NOPE")

	got = svc.Quotes(ctx, []string{"aapl"})
	assert.Equal(t, 190.0, got["AAPL"].Price)
	assert.Equal(t, 1, p.count("AAPL"))
	assert.Equal(t, 1, p.count("NOPE"))

	q, _, err := store.LatestQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.0, q.Price)
}

func TestQuoteService_NoCache(t *testing.T) {
	p := newFakeProvider(map[string]float64{"AAPL": 190})
	svc, _ := newTestService(t, p, 0)
	ctx := context.Background()

	svc.Quotes(ctx, []string{"AAPL"})
	svc.Quotes(ctx, []string{"AAPL"})
	assert.Equal(t, 2, p.count("AAPL"))
}

func TestQuoteService_Start(t *testing.T) {
	p := newFakeProvider(map[string]float64{"TSLA": 250})
	svc, store := newTestService(t, p, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := svc.Start(ctx, 10*time.Millisecond, func(context.Context) ([]string, error) {
		return []string{"TSLA"}, nil
	})

	require.Eventually(t, func() bool {
		_, _, err := store.LatestQuote(context.Background(), "TSLA")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, p.count("TSLA"), 1)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop after cancel")
	}
	calls := p.count("TSLA")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, p.count("TSLA"), "no refresh after stop")
}

func TestQuoteService_DropsZeroPrices(t *testing.T) {
	p := newFakeProvider(map[string]float64{"AAPL": 190, "GONE": 0})
	svc, store := newTestService(t, p, time.Minute)
	ctx := context.Background()

	got := svc.Quotes(ctx, []string{"AAPL", "GONE"})
	assert.Contains(t, got, "AAPL")
	assert.NotContains(t, got, "GONE")

	got = svc.Quotes(ctx, []string{"GONE"})
	assert.Empty(t, got)
	assert.Equal(t, 2, p.count("GONE"), "zero price is not cached")

	_, _, err := store.LatestQuote(ctx, "GONE")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestQuoteService_FinnhubDelisted(t *testing.T) {
	srv := finnhubServer(t)
	svc, store := newTestService(t, NewFinnhub(srv.URL, "key", time.Second), time.Minute)
	ctx := context.Background()

	got := svc.Quotes(ctx, []string{"DELISTED", "AAPL"})
	assert.NotContains(t, got, "DELISTED")
	assert.Equal(t, 189.5, got["AAPL"].Price)

	_, _, err := store.LatestQuote(ctx, "DELISTED")
	assert.ErrorIs(t, err, database.ErrNotFound)
}
