package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dominicbrandes/aztec-exchange/internal/domain/exchange"
	"github.com/dominicbrandes/aztec-exchange/internal/services"
)

const (
	defaultBookDepth  = 10
	defaultTradeLimit = 100
	maxTradeLimit     = 1000
)

// ExchangeHandler exposes the matching engine over HTTP.
type ExchangeHandler struct {
	exchange *services.ExchangeService
}

// NewExchangeHandler creates a new exchange handler.
func NewExchangeHandler(exchange *services.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchange: exchange}
}

// PlaceOrderRequest is the inbound order payload. Prices and quantities are
// fixed-point integers at scale 1e8. The engine enforces price semantics
// (LIMIT needs a positive price, MARKET ignores it); the gateway only
// rejects shapes the engine should never see.
type PlaceOrderRequest struct {
	AccountID      string  `json:"account_id" binding:"required,max=64"`
	Symbol         string  `json:"symbol" binding:"required,tradingsymbol"`
	Side           string  `json:"side" binding:"required,oneof=BUY SELL"`
	Type           string  `json:"type" binding:"required,oneof=LIMIT MARKET"`
	Price          int64   `json:"price" binding:"gte=0"`
	Quantity       int64   `json:"quantity" binding:"gt=0"`
	IdempotencyKey *string `json:"idempotency_key" binding:"omitempty,max=64"`
	ClientOrderID  *string `json:"client_order_id" binding:"omitempty,max=64"`
}

func (r PlaceOrderRequest) toNewOrder() exchange.NewOrder {
	return exchange.NewOrder{
		AccountID:      r.AccountID,
		Symbol:         r.Symbol,
		Side:           exchange.Side(r.Side),
		Type:           exchange.OrderType(r.Type),
		Price:          r.Price,
		Quantity:       r.Quantity,
		IdempotencyKey: r.IdempotencyKey,
		ClientOrderID:  r.ClientOrderID,
	}
}

// PlaceOrder submits an order. Engine rejections come back as 400 with the
// engine's own code and message.
func (h *ExchangeHandler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.exchange.PlaceOrder(c.Request.Context(), req.toNewOrder())
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetOrder looks up one order by id. The body is the order itself, not the
// engine's {order: ...} wrapper.
func (h *ExchangeHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.exchange.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder cancels a resting order by id.
func (h *ExchangeHandler) CancelOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.exchange.CancelOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetBook returns a depth-limited book snapshot for a symbol.
func (h *ExchangeHandler) GetBook(c *gin.Context) {
	depth, ok := intQuery(c, "depth", defaultBookDepth)
	if !ok {
		return
	}

	book, err := h.exchange.GetBook(c.Request.Context(), upperSymbol(c), depth)
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, book)
}

// GetTrades returns recent trades for a symbol, newest first. Limits above
// the cap are clamped, not rejected.
func (h *ExchangeHandler) GetTrades(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultTradeLimit)
	if !ok {
		return
	}
	if limit > maxTradeLimit {
		limit = maxTradeLimit
	}

	history, err := h.exchange.GetTrades(c.Request.Context(), upperSymbol(c), limit)
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetStats returns engine lifetime counters.
func (h *ExchangeHandler) GetStats(c *gin.Context) {
	stats, err := h.exchange.GetStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health reports engine liveness. Always 200; a dead engine shows as
// degraded rather than an error.
func (h *ExchangeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.exchange.Health(c.Request.Context()))
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request validation failed",
			FieldError{Field: "id", Reason: "must be an integer"})
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request validation failed",
			FieldError{Field: name, Reason: "must be an integer"})
		return 0, false
	}
	return value, true
}

// upperSymbol normalizes path symbols so btc-usd and BTC-USD hit the same
// book.
func upperSymbol(c *gin.Context) string {
	return strings.ToUpper(c.Param("symbol"))
}
