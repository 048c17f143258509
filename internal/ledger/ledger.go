// Package ledger keeps the stock portfolio: one aggregate position per ticker
// symbol, updated by buys and sells with weighted-average-cost accounting.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	ErrInvalidTrade = errors.New("invalid trade")
	ErrOversell     = errors.New("sell exceeds held shares")
)

type Holding struct {
	Symbol      string  `json:"symbol"`
	TotalShares float64 `json:"totalShares"`
	AvgCost     float64 `json:"avgCost"`
}

// Holdings maps a symbol to its position. Every entry has TotalShares > 0.
type Holdings map[string]Holding

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("%w: unknown side %q", ErrInvalidTrade, s)
	}
}

type Trade struct {
	Symbol string
	Shares float64
	Price  float64
	Side   Side
}

// OversellPolicy decides what a sell of more shares than held does.
type OversellPolicy int

const (
	// OversellRemove closes the position and reports the excess as a shortfall.
	OversellRemove OversellPolicy = iota
	// OversellReject refuses the sell with ErrOversell.
	OversellReject
)

func ParseOversellPolicy(s string) (OversellPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "remove":
		return OversellRemove, nil
	case "reject":
		return OversellReject, nil
	default:
		return 0, fmt.Errorf("unknown oversell policy: %q", s)
	}
}

func (p OversellPolicy) String() string {
	if p == OversellReject {
		return "reject"
	}
	return "remove"
}

type Option func(*options)

type options struct {
	oversell OversellPolicy
}

func WithOversellPolicy(p OversellPolicy) Option {
	return func(o *options) { o.oversell = p }
}

type Outcome int

const (
	Opened Outcome = iota
	Increased
	Reduced
	Closed
	Ignored
)

func (o Outcome) String() string {
	return [...]string{"opened", "increased", "reduced", "closed", "ignored"}[o]
}

type Result struct {
	Outcome Outcome
	// Shortfall is the quantity sold beyond the held position. Only set when
	// the oversell policy let the sell through.
	Shortfall float64
}

func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (t Trade) validate() error {
	if t.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidTrade)
	}
	if !positiveFinite(t.Shares) {
		return fmt.Errorf("%w: shares must be a positive number, got %v", ErrInvalidTrade, t.Shares)
	}
	if !positiveFinite(t.Price) {
		return fmt.Errorf("%w: price must be a positive number, got %v", ErrInvalidTrade, t.Price)
	}
	if t.Side != Buy && t.Side != Sell {
		return fmt.Errorf("%w: unknown side %d", ErrInvalidTrade, t.Side)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Apply applies a single trade and returns the resulting holdings. The input
// map is never modified. On error the input is returned unchanged.
//
// A buy on an existing position recomputes the weighted average cost; a sell
// only reduces the share count. A sell for a symbol that is not held is
// ignored.
func Apply(h Holdings, t Trade, opts ...Option) (Holdings, Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	t.Symbol = NormalizeSymbol(t.Symbol)
	if err := t.validate(); err != nil {
		return h, Result{}, err
	}

	existing, ok := h[t.Symbol]
	switch {
	case !ok && t.Side == Sell:
		return h, Result{Outcome: Ignored}, nil
	case ok && t.Side == Sell && t.Shares > existing.TotalShares && o.oversell == OversellReject:
		return h, Result{}, fmt.Errorf("%w: %s holds %v, sell %v", ErrOversell, t.Symbol, existing.TotalShares, t.Shares)
	}

	out := h.clone()
	var res Result
	switch {
	case !ok:
		out[t.Symbol] = Holding{Symbol: t.Symbol, TotalShares: t.Shares, AvgCost: t.Price}
		res.Outcome = Opened
	case t.Side == Buy:
		total := existing.TotalShares + t.Shares
		cost := existing.TotalShares*existing.AvgCost + t.Shares*t.Price
		out[t.Symbol] = Holding{Symbol: t.Symbol, TotalShares: total, AvgCost: cost / total}
		res.Outcome = Increased
	default:
		remaining := existing.TotalShares - t.Shares
		if remaining <= 0 {
			delete(out, t.Symbol)
			res.Outcome = Closed
			res.Shortfall = -remaining
		} else {
			existing.TotalShares = remaining
			out[t.Symbol] = existing
			res.Outcome = Reduced
		}
	}
	return out, res, nil
}

// ApplyTransaction is Apply with the default oversell policy and a boolean
// direction.
func ApplyTransaction(h Holdings, symbol string, shares, price float64, isBuy bool) (Holdings, error) {
	side := Sell
	if isBuy {
		side = Buy
	}
	out, _, err := Apply(h, Trade{Symbol: symbol, Shares: shares, Price: price, Side: side})
	return out, err
}

func (h Holdings) clone() Holdings {
	out := make(Holdings, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	return out
}

func (h Holdings) Symbols() []string {
	res := make([]string, 0, len(h))
	for s := range h {
		res = append(res, s)
	}
	sort.Strings(res)
	return res
}

func (h Holdings) Sorted() []Holding {
	res := make([]Holding, 0, len(h))
	for _, s := range h.Symbols() {
		res = append(res, h[s])
	}
	return res
}

// FromList rebuilds holdings from a persisted list. Entries without a symbol
// or with no shares left are dropped.
func FromList(list []Holding) Holdings {
	out := make(Holdings, len(list))
	for _, e := range list {
		e.Symbol = NormalizeSymbol(e.Symbol)
		if e.Symbol == "" || !(e.TotalShares > 0) {
			continue
		}
		out[e.Symbol] = e
	}
	return out
}
