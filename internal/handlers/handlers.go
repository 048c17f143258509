package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/database"
	"fintrack/internal/ledger"
	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/summary"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	store    database.Store
	quotes   service.QuoteSource
	log      *logrus.Logger
	oversell ledger.OversellPolicy
	now      func() time.Time
}

func NewHandler(s database.Store, q service.QuoteSource, oversell ledger.OversellPolicy, log *logrus.Logger) *Handler {
	return &Handler{store: s, quotes: q, log: log, oversell: oversell, now: time.Now}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.GET("/categories", h.GetCategories)
	r.GET("/transactions", h.GetTransactions)
	r.POST("/transactions", h.PostTransaction)
	r.GET("/summary/monthly", h.GetMonthly)
	r.GET("/summary/recent", h.GetRecent)
	r.GET("/analysis/categories", h.GetCategoryAnalysis)

	r.GET("/portfolio", h.GetPortfolio)
	r.POST("/portfolio/trades", h.PostTrade)
	r.GET("/quotes", h.GetQuotes)
	r.GET("/quotes/:symbol/latest", h.GetLatestQuote)
}

func (h *Handler) GetCategories(c *gin.Context) {
	t := c.Query("type")
	if t == "" {
		c.JSON(http.StatusOK, models.Categories)
		return
	}
	typ, err := models.ParseTransactionType(t)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.CategoriesFor(typ))
}

type TransactionRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Date     *time.Time      `json:"date"`
	Type     string          `json:"type" binding:"required"`
	Note     string          `json:"note"`
}

func (h *Handler) PostTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid post body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	typ, err := models.ParseTransactionType(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date := h.now()
	if req.Date != nil {
		date = *req.Date
	}

	tx, err := models.NewTransaction(req.Amount.InexactFloat64(), req.Category, date, typ, req.Note)
	if err != nil {
		h.log.Warnf("invalid transaction: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.store.AddTransaction(c.Request.Context(), tx); err != nil {
		h.log.Errorf("save transaction failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (h *Handler) GetTransactions(c *gin.Context) {
	limit, ok := h.limit(c, -1)
	if !ok {
		return
	}
	txs, err := h.store.Transactions(c.Request.Context())
	if err != nil {
		h.log.Errorf("query transactions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if limit >= 0 && limit < len(txs) {
		txs = txs[:limit]
	}
	c.JSON(http.StatusOK, txs)
}

func (h *Handler) GetMonthly(c *gin.Context) {
	now := h.now()
	if y, m := c.Query("year"), c.Query("month"); y != "" || m != "" {
		year, err1 := strconv.Atoi(y)
		month, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil || month < 1 || month > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year and month must be given together, month in 1..12"})
			return
		}
		now = time.Date(year, time.Month(month), 15, 12, 0, 0, 0, now.Location())
	}
	txs, err := h.store.Transactions(c.Request.Context())
	if err != nil {
		h.log.Errorf("query transactions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, summary.Monthly(txs, now))
}

func (h *Handler) GetRecent(c *gin.Context) {
	limit, ok := h.limit(c, 5)
	if !ok {
		return
	}
	txs, err := h.store.Transactions(c.Request.Context())
	if err != nil {
		h.log.Errorf("query transactions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, summary.Recent(txs, limit))
}

func (h *Handler) GetCategoryAnalysis(c *gin.Context) {
	typ := models.Expense
	if t := c.Query("type"); t != "" {
		var err error
		if typ, err = models.ParseTransactionType(t); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	txs, err := h.store.Transactions(c.Request.Context())
	if err != nil {
		h.log.Errorf("query transactions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	cats := summary.ByCategory(txs, typ)
	var total float64
	for _, ct := range cats {
		total += ct.Amount
	}
	c.JSON(http.StatusOK, gin.H{"type": typ, "total": total, "categories": cats})
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	ctx := c.Request.Context()
	holdings, err := h.store.Holdings(ctx)
	if err != nil {
		h.log.Errorf("get holdings failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	quotes := ledger.Quotes{}
	if len(holdings) > 0 {
		quotes = h.quotes.Quotes(ctx, holdings.Symbols())
	}
	c.JSON(http.StatusOK, ledger.Value(holdings, quotes))
}

type TradeRequest struct {
	Symbol string          `json:"symbol" binding:"required"`
	Shares decimal.Decimal `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Side   string          `json:"side" binding:"required"`
}

func (h *Handler) PostTrade(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid post body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	side, err := ledger.ParseSide(req.Side)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	trade := ledger.Trade{
		Symbol: ledger.NormalizeSymbol(req.Symbol),
		Shares: req.Shares.InexactFloat64(),
		Price:  req.Price.InexactFloat64(),
		Side:   side,
	}

	var res ledger.Result
	holdings, err := h.store.UpdateHoldings(c.Request.Context(), func(cur ledger.Holdings) (ledger.Holdings, error) {
		var next ledger.Holdings
		var err error
		next, res, err = ledger.Apply(cur, trade, ledger.WithOversellPolicy(h.oversell))
		return next, err
	})
	switch {
	case errors.Is(err, ledger.ErrInvalidTrade):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ledger.ErrOversell):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.log.Errorf("apply trade failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trade failed"})
		return
	}
	if res.Shortfall > 0 {
		h.log.Warnf("sell of %v %s exceeded the position by %v; position closed", trade.Shares, trade.Symbol, res.Shortfall)
	}
	c.JSON(http.StatusOK, gin.H{
		"outcome":   res.Outcome.String(),
		"shortfall": res.Shortfall,
		"holdings":  holdings.Sorted(),
	})
}

func (h *Handler) GetQuotes(c *gin.Context) {
	symbols := strings.Split(c.Query("symbols"), ",")
	quotes := h.quotes.Quotes(c.Request.Context(), symbols)
	res := make([]ledger.Quote, 0, len(quotes))
	for _, q := range quotes {
		res = append(res, q)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Symbol < res[j].Symbol })
	c.JSON(http.StatusOK, res)
}

// GetLatestQuote returns the last recorded quote for a symbol without
// contacting the provider.
func (h *Handler) GetLatestQuote(c *gin.Context) {
	symbol := ledger.NormalizeSymbol(c.Param("symbol"))
	q, at, err := h.store.LatestQuote(c.Request.Context(), symbol)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no quote recorded for " + symbol})
		return
	}
	if err != nil {
		h.log.Errorf("latest quote failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": q, "timestamp": at})
}

func (h *Handler) limit(c *gin.Context, def int) (int, bool) {
	v := c.Query("limit")
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return 0, false
	}
	return n, true
}
