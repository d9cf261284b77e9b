// Package exchange defines the entities shared between the HTTP surface and
// the engine wire protocol. Prices and quantities are fixed-point integers at
// scale 1e8 and pass through the gateway untouched.
package exchange

// Side is the order side as the engine spells it.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType distinguishes resting from immediate orders.
type OrderType string

const (
	TypeLimit  OrderType = "LIMIT"
	TypeMarket OrderType = "MARKET"
)

// OrderStatus is the engine-reported lifecycle state of an order.
type OrderStatus string

const (
	StatusNew       OrderStatus = "NEW"
	StatusPartial   OrderStatus = "PARTIAL"
	StatusFilled    OrderStatus = "FILLED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusRejected  OrderStatus = "REJECTED"
)

// NewOrder is the order payload sent to the engine. Optional fields are
// pointers so an unset field is omitted from the wire entirely; the engine
// distinguishes absent from null.
type NewOrder struct {
	AccountID      string    `json:"account_id"`
	Symbol         string    `json:"symbol"`
	Side           Side      `json:"side"`
	Type           OrderType `json:"type"`
	Price          int64     `json:"price"`
	Quantity       int64     `json:"quantity"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty"`
	ClientOrderID  *string   `json:"client_order_id,omitempty"`
}

// Order is an engine-owned order as returned on the wire.
type Order struct {
	ID             int64       `json:"id"`
	AccountID      string      `json:"account_id"`
	Symbol         string      `json:"symbol"`
	Side           Side        `json:"side"`
	Type           OrderType   `json:"type"`
	Price          int64       `json:"price"`
	Quantity       int64       `json:"quantity"`
	RemainingQty   int64       `json:"remaining_qty"`
	TimestampNs    int64       `json:"timestamp_ns"`
	Status         OrderStatus `json:"status"`
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
	ClientOrderID  string      `json:"client_order_id,omitempty"`
}

// Trade is one execution produced by the engine.
type Trade struct {
	ID              int64  `json:"id"`
	BuyOrderID      int64  `json:"buy_order_id"`
	SellOrderID     int64  `json:"sell_order_id"`
	Symbol          string `json:"symbol"`
	Price           int64  `json:"price"`
	Quantity        int64  `json:"quantity"`
	TimestampNs     int64  `json:"timestamp_ns"`
	BuyerAccountID  string `json:"buyer_account_id"`
	SellerAccountID string `json:"seller_account_id"`
}

// BookLevel aggregates the open quantity resting at one price.
type BookLevel struct {
	Price      int64 `json:"price"`
	Quantity   int64 `json:"quantity"`
	OrderCount int   `json:"order_count"`
}

// OrderBook is a depth-limited book snapshot. Bids descend, asks ascend;
// the ordering is the engine's and is preserved as-is.
type OrderBook struct {
	Symbol string      `json:"symbol"`
	Bids   []BookLevel `json:"bids"`
	Asks   []BookLevel `json:"asks"`
}

// TradeHistory is the recent-trades view for one symbol.
type TradeHistory struct {
	Symbol string  `json:"symbol"`
	Trades []Trade `json:"trades"`
}

// Stats mirrors the engine's lifetime counters.
type Stats struct {
	TotalOrders   int64 `json:"total_orders"`
	TotalTrades   int64 `json:"total_trades"`
	TotalCancels  int64 `json:"total_cancels"`
	TotalRejects  int64 `json:"total_rejects"`
	EventSequence int64 `json:"event_sequence"`
}

// PlaceOrderResult couples the accepted order with the trades it produced.
type PlaceOrderResult struct {
	Order  Order   `json:"order"`
	Trades []Trade `json:"trades"`
}

// OrderResult wraps a single order lookup or cancellation.
type OrderResult struct {
	Order Order `json:"order"`
}

// Health reports gateway-observed engine liveness.
type Health struct {
	Status          string `json:"status"`
	TimestampNs     int64  `json:"timestamp_ns"`
	EngineConnected bool   `json:"engine_connected"`
}
