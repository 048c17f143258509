package ledger

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustApply(t *testing.T, h Holdings, tr Trade, opts ...Option) (Holdings, Result) {
	t.Helper()
	out, res, err := Apply(h, tr, opts...)
	require.NoError(t, err)
	return out, res
}

func TestApply_WeightedAverage(t *testing.T) {
	h := Holdings{}
	h, res := mustApply(t, h, Trade{Symbol: "AAPL", Shares: 10, Price: 100, Side: Buy})
	assert.Equal(t, Opened, res.Outcome)
	h, res = mustApply(t, h, Trade{Symbol: "AAPL", Shares: 10, Price: 200, Side: Buy})
	assert.Equal(t, Increased, res.Outcome)

	require.Contains(t, h, "AAPL")
	assert.Equal(t, 20.0, h["AAPL"].TotalShares)
	assert.Equal(t, 150.0, h["AAPL"].AvgCost)
}

func TestApply_FractionalShares(t *testing.T) {
	h, _ := mustApply(t, nil, Trade{Symbol: "VTI", Shares: 0.5, Price: 210, Side: Buy})
	h, _ = mustApply(t, h, Trade{Symbol: "VTI", Shares: 1.25, Price: 220, Side: Buy})

	want := (0.5*210 + 1.25*220) / (0.5 + 1.25)
	assert.Equal(t, 1.75, h["VTI"].TotalShares)
	assert.InDelta(t, want, h["VTI"].AvgCost, 1e-12)
}

func TestApply_SellKeepsAvgCost(t *testing.T) {
	h := Holdings{"AAPL": {Symbol: "AAPL", TotalShares: 20, AvgCost: 150}}
	out, res := mustApply(t, h, Trade{Symbol: "AAPL", Shares: 5, Price: 300, Side: Sell})

	assert.Equal(t, Reduced, res.Outcome)
	assert.Equal(t, Holding{Symbol: "AAPL", TotalShares: 15, AvgCost: 150}, out["AAPL"])
}

func TestApply_SellToZeroRemoves(t *testing.T) {
	h := Holdings{"AAPL": {Symbol: "AAPL", TotalShares: 15, AvgCost: 150}}
	out, res := mustApply(t, h, Trade{Symbol: "AAPL", Shares: 15, Price: 160, Side: Sell})

	assert.Equal(t, Closed, res.Outcome)
	assert.Zero(t, res.Shortfall)
	assert.NotContains(t, out, "AAPL")
}

func TestApply_SellPastZero(t *testing.T) {
	h := Holdings{"AAPL": {Symbol: "AAPL", TotalShares: 15, AvgCost: 150}}

	out, res := mustApply(t, h, Trade{Symbol: "AAPL", Shares: 20, Price: 160, Side: Sell})
	assert.Equal(t, Closed, res.Outcome)
	assert.Equal(t, 5.0, res.Shortfall)
	assert.NotContains(t, out, "AAPL")

	out, _, err := Apply(h, Trade{Symbol: "AAPL", Shares: 20, Price: 160, Side: Sell}, WithOversellPolicy(OversellReject))
	assert.ErrorIs(t, err, ErrOversell)
	assert.Equal(t, h, out)

	// selling exactly the position is not an oversell
	out, res = mustApply(t, h, Trade{Symbol: "AAPL", Shares: 15, Price: 160, Side: Sell}, WithOversellPolicy(OversellReject))
	assert.Equal(t, Closed, res.Outcome)
	assert.Empty(t, out)
}

func TestApply_SellUnknownIsNoop(t *testing.T) {
	h := Holdings{"MSFT": {Symbol: "MSFT", TotalShares: 3, AvgCost: 400}}
	out, res := mustApply(t, h, Trade{Symbol: "AAPL", Shares: 1, Price: 100, Side: Sell})

	assert.Equal(t, Ignored, res.Outcome)
	assert.Equal(t, h, out)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	h := Holdings{"AAPL": {Symbol: "AAPL", TotalShares: 10, AvgCost: 100}}
	_, _ = mustApply(t, h, Trade{Symbol: "AAPL", Shares: 10, Price: 200, Side: Buy})
	_, _ = mustApply(t, h, Trade{Symbol: "AAPL", Shares: 10, Price: 200, Side: Sell})
	_, _ = mustApply(t, h, Trade{Symbol: "TSLA", Shares: 1, Price: 200, Side: Buy})

	assert.Equal(t, Holdings{"AAPL": {Symbol: "AAPL", TotalShares: 10, AvgCost: 100}}, h)
}

func TestApply_NormalizesSymbol(t *testing.T) {
	h, _ := mustApply(t, nil, Trade{Symbol: " aapl ", Shares: 1, Price: 10, Side: Buy})
	assert.Contains(t, h, "AAPL")
	assert.Equal(t, "AAPL", h["AAPL"].Symbol)
}

func TestApply_Validation(t *testing.T) {
	h := Holdings{"AAPL": {Symbol: "AAPL", TotalShares: 10, AvgCost: 100}}
	cases := map[string]Trade{
		"empty symbol":   {Symbol: "  ", Shares: 1, Price: 1, Side: Buy},
		"zero shares":    {Symbol: "AAPL", Shares: 0, Price: 1, Side: Buy},
		"negative share": {Symbol: "AAPL", Shares: -2, Price: 1, Side: Sell},
		"zero price":     {Symbol: "AAPL", Shares: 1, Price: 0, Side: Buy},
		"nan price":      {Symbol: "AAPL", Shares: 1, Price: math.NaN(), Side: Buy},
		"inf shares":     {Symbol: "AAPL", Shares: math.Inf(1), Price: 1, Side: Buy},
		"bad side":       {Symbol: "AAPL", Shares: 1, Price: 1, Side: Side(7)},
	}
	for name, tr := range cases {
		t.Run(name, func(t *testing.T) {
			out, _, err := Apply(h, tr)
			assert.ErrorIs(t, err, ErrInvalidTrade)
			assert.Equal(t, h, out)
		})
	}
}

func TestApplyTransaction(t *testing.T) {
	h, err := ApplyTransaction(nil, "NVDA", 4, 100, true)
	require.NoError(t, err)
	h, err = ApplyTransaction(h, "NVDA", 1, 120, false)
	require.NoError(t, err)
	assert.Equal(t, Holding{Symbol: "NVDA", TotalShares: 3, AvgCost: 100}, h["NVDA"])
}

func TestApply_PositiveSharesInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	symbols := []string{"AAPL", "MSFT", "TSLA"}
	h := Holdings{}
	for i := 0; i < 2000; i++ {
		tr := Trade{
			Symbol: symbols[r.Intn(len(symbols))],
			Shares: float64(r.Intn(20)+1) / 4,
			Price:  float64(r.Intn(500) + 1),
			Side:   Side(r.Intn(2)),
		}
		var err error
		h, _, err = Apply(h, tr)
		require.NoError(t, err)
		for sym, holding := range h {
			require.Greater(t, holding.TotalShares, 0.0, "symbol %s after step %d", sym, i)
			require.Equal(t, sym, holding.Symbol)
		}
	}
}

func TestFromList(t *testing.T) {
	h := FromList([]Holding{
		{Symbol: "aapl", TotalShares: 2, AvgCost: 10},
		{Symbol: "MSFT", TotalShares: 0, AvgCost: 10},
		{Symbol: "", TotalShares: 1, AvgCost: 1},
		{Symbol: "TSLA", TotalShares: -1, AvgCost: 1},
	})
	assert.Equal(t, []string{"AAPL"}, h.Symbols())
	assert.Equal(t, "AAPL", h.Sorted()[0].Symbol)
}

func TestParse(t *testing.T) {
	s, err := ParseSide("SELL")
	require.NoError(t, err)
	assert.Equal(t, Sell, s)
	_, err = ParseSide("hold")
	assert.ErrorIs(t, err, ErrInvalidTrade)

	p, err := ParseOversellPolicy("")
	require.NoError(t, err)
	assert.Equal(t, OversellRemove, p)
	p, err = ParseOversellPolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, OversellReject, p)
	_, err = ParseOversellPolicy("clamp")
	assert.Error(t, err)
}
