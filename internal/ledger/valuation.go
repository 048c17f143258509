package ledger

type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
}

// Quotes holds the quotes that could be fetched. A symbol missing from the
// map has no data.
type Quotes map[string]Quote

// Live returns the quote for symbol when one is available with a positive price.
func (q Quotes) Live(symbol string) (Quote, bool) {
	quote, ok := q[symbol]
	if !ok || quote.Price <= 0 {
		return Quote{}, false
	}
	return quote, true
}

type PositionValue struct {
	Holding
	Cost          float64 `json:"cost"`
	Live          bool    `json:"live"`
	Price         float64 `json:"price,omitempty"`
	ChangePercent float64 `json:"changePercent,omitempty"`
	MarketValue   float64 `json:"marketValue,omitempty"`
	Gain          float64 `json:"gain,omitempty"`
	GainPercent   float64 `json:"gainPercent,omitempty"`
}

type Valuation struct {
	Positions        []PositionValue `json:"positions"`
	TotalCost        float64         `json:"totalCost"`
	TotalMarketValue float64         `json:"totalMarketValue"`
	HasLivePrices    bool            `json:"hasLivePrices"`
	TotalPL          float64         `json:"totalPL"`
	TotalPLPercent   float64         `json:"totalPLPercent"`
}

// Value computes the read-only portfolio aggregates against the given quotes.
// Without any live price the profit and loss is reported as zero.
func Value(h Holdings, q Quotes) Valuation {
	v := Valuation{Positions: make([]PositionValue, 0, len(h))}
	for _, quote := range q {
		if quote.Price > 0 {
			v.HasLivePrices = true
			break
		}
	}

	for _, holding := range h.Sorted() {
		p := PositionValue{Holding: holding, Cost: holding.AvgCost * holding.TotalShares}
		v.TotalCost += p.Cost
		if quote, ok := q.Live(holding.Symbol); ok {
			p.Live = true
			p.Price = quote.Price
			p.ChangePercent = quote.ChangePercent
			p.MarketValue = quote.Price * holding.TotalShares
			p.Gain = p.MarketValue - p.Cost
			if p.Cost > 0 {
				p.GainPercent = p.Gain / p.Cost * 100
			}
			v.TotalMarketValue += p.MarketValue
		}
		v.Positions = append(v.Positions, p)
	}

	if v.HasLivePrices {
		v.TotalPL = v.TotalMarketValue - v.TotalCost
		if v.TotalCost > 0 {
			v.TotalPLPercent = v.TotalPL / v.TotalCost * 100
		}
	}
	return v
}
