package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fintrack/internal/ledger"
)

var (
	ErrNoData        = errors.New("no quote data")
	ErrMissingAPIKey = errors.New("quote api key is missing")
)

type Provider interface {
	Quote(ctx context.Context, symbol string) (ledger.Quote, error)
}

// Finnhub fetches current quotes from the Finnhub /quote endpoint.
type Finnhub struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewFinnhub(baseURL, apiKey string, timeout time.Duration) *Finnhub {
	return &Finnhub{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type finnhubQuote struct {
	Current       float64  `json:"c"`
	ChangePercent *float64 `json:"dp"`
}

func (f *Finnhub) Quote(ctx context.Context, symbol string) (ledger.Quote, error) {
	symbol = ledger.NormalizeSymbol(symbol)
	if symbol == "" {
		return ledger.Quote{}, errors.New("symbol is required")
	}
	if f.apiKey == "" {
		return ledger.Quote{}, ErrMissingAPIKey
	}

	params := url.Values{"symbol": {symbol}, "token": {f.apiKey}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/quote?"+params.Encode(), nil)
	if err != nil {
		return ledger.Quote{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return ledger.Quote{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ledger.Quote{}, fmt.Errorf("quote %s: unexpected status %s", symbol, resp.Status)
	}

	var body finnhubQuote
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ledger.Quote{}, fmt.Errorf("quote %s: decode: %w", symbol, err)
	}
	// unknown symbols come back as all zeros, delisted ones with c == 0 only
	if body.Current <= 0 {
		return ledger.Quote{}, fmt.Errorf("quote %s: %w", symbol, ErrNoData)
	}

	q := ledger.Quote{Symbol: symbol, Price: body.Current}
	if body.ChangePercent != nil {
		q.ChangePercent = *body.ChangePercent
	}
	return q, nil
}
