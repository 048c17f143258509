package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"fintrack/internal/ledger"
	"fintrack/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	expensesKey  = "fintrack_expenses"
	portfolioKey = "fintrack_portfolio"
	quotesKey    = "fintrack_quotes"
)

var ErrNotFound = errors.New("not found")

// BlobStore keeps each collection as one JSON document in a directory. Every
// write loads and saves the whole collection.
type BlobStore struct {
	dir string
	log *logrus.Logger
	mu  sync.Mutex
}

func NewBlobStore(dir string, log *logrus.Logger) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &BlobStore{dir: dir, log: log}, nil
}

func (s *BlobStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// load decodes the blob into v. A missing or malformed blob leaves v empty:
// corrupt state is logged and treated as no state.
func (s *BlobStore) load(key string, v interface{}) error {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		s.log.Warnf("failed to load %s, starting empty: %v", key, err)
		rv := reflect.ValueOf(v).Elem()
		rv.Set(reflect.Zero(rv.Type()))
	}
	return nil
}

func (s *BlobStore) save(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

func (s *BlobStore) transactions() ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := s.load(expensesKey, &txs); err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

func (s *BlobStore) holdings() (ledger.Holdings, error) {
	var list []ledger.Holding
	if err := s.load(portfolioKey, &list); err != nil {
		return nil, err
	}
	return ledger.FromList(list), nil
}

func (s *BlobStore) Transactions(ctx context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactions()
}

func (s *BlobStore) AddTransaction(ctx context.Context, tx models.Transaction) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs, err := s.transactions()
	if err != nil {
		return nil, err
	}
	updated := append([]models.Transaction{tx}, txs...)
	if err := s.save(expensesKey, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *BlobStore) Holdings(ctx context.Context) (ledger.Holdings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holdings()
}

func (s *BlobStore) UpdateHoldings(ctx context.Context, fn func(ledger.Holdings) (ledger.Holdings, error)) (ledger.Holdings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.holdings()
	if err != nil {
		return nil, err
	}
	updated, err := fn(current)
	if err != nil {
		return current, err
	}
	if err := s.save(portfolioKey, updated.Sorted()); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *BlobStore) SaveQuotes(ctx context.Context, quotes []ledger.Quote, ts time.Time) error {
	if len(quotes) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := map[string]quoteBlob{}
	if err := s.load(quotesKey, &latest); err != nil {
		return err
	}
	if latest == nil {
		latest = map[string]quoteBlob{}
	}
	for _, q := range quotes {
		latest[q.Symbol] = quoteBlob{Quote: q, Timestamp: ts}
	}
	return s.save(quotesKey, latest)
}

func (s *BlobStore) LatestQuote(ctx context.Context, symbol string) (ledger.Quote, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := map[string]quoteBlob{}
	if err := s.load(quotesKey, &latest); err != nil {
		return ledger.Quote{}, time.Time{}, err
	}
	q, ok := latest[symbol]
	if !ok {
		return ledger.Quote{}, time.Time{}, ErrNotFound
	}
	return q.Quote, q.Timestamp, nil
}

func (s *BlobStore) Close() error { return nil }
