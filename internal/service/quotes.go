package service

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/database"
	"fintrack/internal/ledger"
	"github.com/sirupsen/logrus"
)

// FetchAll asks p for every distinct symbol concurrently and returns the quotes
// that came back with a positive price. A failed symbol is logged and left
// out; it never fails the batch.
func FetchAll(ctx context.Context, p Provider, symbols []string, timeout time.Duration, log *logrus.Logger) ledger.Quotes {
	res := ledger.Quotes{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, s := range dedupe(symbols) {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			fctx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			q, err := p.Quote(fctx, symbol)
			if err != nil {
				log.Warnf("quote fetch failed for %s: %v", symbol, err)
				return
			}
			if q.Price <= 0 {
				log.Warnf("quote fetch for %s returned no price", symbol)
				return
			}
			if q.Symbol == "" {
				q.Symbol = symbol
			}
			mu.Lock()
			res[symbol] = q
			mu.Unlock()
		}(s)
	}
	wg.Wait()
	return res
}

func dedupe(symbols []string) []string {
	seen := map[string]bool{}
	res := []string{}
	for _, s := range symbols {
		s = ledger.NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		res = append(res, s)
	}
	return res
}

type QuoteSource interface {
	Quotes(ctx context.Context, symbols []string) ledger.Quotes
}

// QuoteService serves quotes from a short-lived cache and falls back to the
// provider for the rest. Fetched quotes are recorded in the store history.
type QuoteService struct {
	provider Provider
	store    database.Store
	cache    *quoteCache
	timeout  time.Duration
	log      *logrus.Logger
}

func NewQuoteService(p Provider, store database.Store, ttl, timeout time.Duration, log *logrus.Logger) (*QuoteService, error) {
	c, err := newQuoteCache(1000, ttl)
	if err != nil {
		return nil, err
	}
	return &QuoteService{provider: p, store: store, cache: c, timeout: timeout, log: log}, nil
}

func (s *QuoteService) Quotes(ctx context.Context, symbols []string) ledger.Quotes {
	res := ledger.Quotes{}
	missing := []string{}
	for _, sym := range dedupe(symbols) {
		if q, ok := s.cache.get(sym); ok {
			res[sym] = q
			continue
		}
		missing = append(missing, sym)
	}
	if len(missing) == 0 {
		return res
	}

	fetched := s.fetch(ctx, missing)
	for sym, q := range fetched {
		res[sym] = q
	}
	return res
}

func (s *QuoteService) fetch(ctx context.Context, symbols []string) ledger.Quotes {
	fetched := FetchAll(ctx, s.provider, symbols, s.timeout, s.log)
	if len(fetched) == 0 {
		return fetched
	}
	s.cache.set(fetched)

	list := make([]ledger.Quote, 0, len(fetched))
	for _, q := range fetched {
		list = append(list, q)
	}
	if err := s.store.SaveQuotes(ctx, list, time.Now().UTC()); err != nil {
		s.log.Warnf("failed to record quotes: %v", err)
	}
	return fetched
}

// Start refreshes the quotes of the symbols returned by symbols every
// interval until ctx is done. The returned channel is closed once the
// refresher has stopped, after any in-flight refresh.
func (s *QuoteService) Start(ctx context.Context, interval time.Duration, symbols func(context.Context) ([]string, error)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("quote updater stopping")
				return
			case <-ticker.C:
				syms, err := symbols(ctx)
				if err != nil {
					s.log.Warnf("failed to fetch symbols: %v", err)
					continue
				}
				if len(syms) == 0 {
					continue
				}
				got := s.fetch(ctx, syms)
				s.log.Debugf("refreshed %d/%d quotes", len(got), len(syms))
			}
		}
	}()
	return done
}

func (s *QuoteService) Close() { s.cache.close() }
