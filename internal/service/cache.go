package service

import (
	"time"

	"fintrack/internal/ledger"
	"github.com/dgraph-io/ristretto"
)

type quoteCache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

func newQuoteCache(maxCost int64, ttl time.Duration) (*quoteCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        1e4,
		MaxCost:            maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &quoteCache{c: c, ttl: ttl}, nil
}

func (c *quoteCache) get(symbol string) (ledger.Quote, bool) {
	if c.ttl <= 0 {
		return ledger.Quote{}, false
	}
	v, ok := c.c.Get(symbol)
	if !ok {
		return ledger.Quote{}, false
	}
	q, ok := v.(ledger.Quote)
	return q, ok
}

func (c *quoteCache) set(quotes ledger.Quotes) {
	if c.ttl <= 0 {
		return
	}
	for symbol, q := range quotes {
		c.c.SetWithTTL(symbol, q, 1, c.ttl)
	}
	c.c.Wait()
}

func (c *quoteCache) close() { c.c.Close() }
