package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dominicbrandes/aztec-exchange/internal/domain/engine"
	"github.com/dominicbrandes/aztec-exchange/internal/domain/exchange"
	"github.com/dominicbrandes/aztec-exchange/internal/logging"
	"github.com/dominicbrandes/aztec-exchange/internal/metrics"
	"github.com/dominicbrandes/aztec-exchange/pkg/fixedpoint"
)

// ExchangeService sits between the HTTP handlers and the engine client. It
// decodes engine envelopes into domain types, records the trading metrics,
// and flips the connectivity gauge when the engine stops answering.
//
// Engine business failures come back as *engine.Error; transport failures as
// *engine.TransportError. Handlers map the two to different status codes.
type ExchangeService struct {
	client  engine.Client
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewExchangeService creates a new exchange service.
func NewExchangeService(client engine.Client, m *metrics.Metrics, logger *zap.Logger) *ExchangeService {
	return &ExchangeService{
		client:  client,
		metrics: m,
		logger:  logger,
	}
}

// PlaceOrder submits an order to the engine and returns the accepted order
// with any trades it produced. Trades is never nil.
func (s *ExchangeService) PlaceOrder(ctx context.Context, order exchange.NewOrder) (*exchange.PlaceOrderResult, error) {
	start := time.Now()
	env, err := s.client.PlaceOrder(ctx, order)
	if err != nil {
		s.engineUnreachable(ctx, err)
		return nil, err
	}
	s.metrics.ObserveOrderLatency(time.Since(start))

	if !env.Success {
		reject := envelopeError(env)
		s.metrics.RecordOrderRejected(reject.Code)
		logging.FromContext(ctx).Info("order rejected",
			zap.String("symbol", order.Symbol),
			zap.String("reason", reject.Code),
		)
		return nil, reject
	}

	var result exchange.PlaceOrderResult
	if err := decodeData(env, &result, "place_order"); err != nil {
		return nil, err
	}
	if result.Trades == nil {
		result.Trades = []exchange.Trade{}
	}

	s.metrics.RecordOrder(string(result.Order.Side), string(result.Order.Type), string(result.Order.Status))
	for _, trade := range result.Trades {
		s.metrics.RecordTrade(trade.Symbol, trade.Quantity)
	}

	logging.FromContext(ctx).Debug("order placed",
		zap.Int64("order_id", result.Order.ID),
		zap.String("symbol", result.Order.Symbol),
		zap.String("status", string(result.Order.Status)),
		zap.String("price", fixedpoint.Format(result.Order.Price)),
		zap.String("quantity", fixedpoint.Format(result.Order.Quantity)),
		zap.Int("trades", len(result.Trades)),
	)
	return &result, nil
}

// CancelOrder cancels a resting order by id.
func (s *ExchangeService) CancelOrder(ctx context.Context, orderID int64) (*exchange.Order, error) {
	env, err := s.client.CancelOrder(ctx, orderID)
	if err != nil {
		s.engineUnreachable(ctx, err)
		return nil, err
	}
	if !env.Success {
		return nil, envelopeError(env)
	}

	var result exchange.OrderResult
	if err := decodeData(env, &result, "cancel_order"); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("order cancelled", zap.Int64("order_id", orderID))
	return &result.Order, nil
}

// GetOrder looks up an order by id.
func (s *ExchangeService) GetOrder(ctx context.Context, orderID int64) (*exchange.Order, error) {
	env, err := s.client.GetOrder(ctx, orderID)
	if err != nil {
		s.engineUnreachable(ctx, err)
		return nil, err
	}
	if !env.Success {
		return nil, envelopeError(env)
	}

	var result exchange.OrderResult
	if err := decodeData(env, &result, "get_order"); err != nil {
		return nil, err
	}
	return &result.Order, nil
}

// GetBook returns the aggregated order book for a symbol. Bids and Asks are
// never nil, and the depth gauge tracks the returned level counts.
func (s *ExchangeService) GetBook(ctx context.Context, symbol string, depth int) (*exchange.OrderBook, error) {
	env, err := s.client.GetBook(ctx, symbol, depth)
	if err != nil {
		s.engineUnreachable(ctx, err)
		return nil, err
	}
	if !env.Success {
		return nil, envelopeError(env)
	}

	var book exchange.OrderBook
	if err := decodeData(env, &book, "get_book"); err != nil {
		return nil, err
	}
	if book.Bids == nil {
		book.Bids = []exchange.BookLevel{}
	}
	if book.Asks == nil {
		book.Asks = []exchange.BookLevel{}
	}

	s.metrics.SetBookDepth(book.Symbol, len(book.Bids), len(book.Asks))
	return &book, nil
}

// GetTrades returns recent trades for a symbol, newest first.
func (s *ExchangeService) GetTrades(ctx context.Context, symbol string, limit int) (*exchange.TradeHistory, error) {
	env, err := s.client.GetTrades(ctx, symbol, limit)
	if err != nil {
		s.engineUnreachable(ctx, err)
		return nil, err
	}
	if !env.Success {
		return nil, envelopeError(env)
	}

	var history exchange.TradeHistory
	if err := decodeData(env, &history, "get_trades"); err != nil {
		return nil, err
	}
	if history.Trades == nil {
		history.Trades = []exchange.Trade{}
	}
	return &history, nil
}

// GetStats returns engine lifetime counters.
func (s *ExchangeService) GetStats(ctx context.Context) (*exchange.Stats, error) {
	env, err := s.client.GetStats(ctx)
	if err != nil {
		s.engineUnreachable(ctx, err)
		return nil, err
	}
	if !env.Success {
		return nil, envelopeError(env)
	}

	var stats exchange.Stats
	if err := decodeData(env, &stats, "get_stats"); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health probes the engine and never fails: an unreachable or unhappy
// engine degrades the report instead.
func (s *ExchangeService) Health(ctx context.Context) exchange.Health {
	env, err := s.client.Health(ctx)
	if err != nil || !env.Success {
		if err != nil {
			s.engineUnreachable(ctx, err)
		} else {
			s.metrics.SetEngineConnected(false)
		}
		return exchange.Health{Status: "degraded", TimestampNs: 0, EngineConnected: false}
	}

	var data struct {
		TimestampNs int64 `json:"timestamp_ns"`
	}
	_ = json.Unmarshal(env.Data, &data)

	s.metrics.SetEngineConnected(true)
	return exchange.Health{Status: "healthy", TimestampNs: data.TimestampNs, EngineConnected: true}
}

func (s *ExchangeService) engineUnreachable(ctx context.Context, err error) {
	s.metrics.SetEngineConnected(false)
	logging.FromContext(ctx).Error("engine unreachable", zap.Error(err))
}

// envelopeError extracts the business error from a failed envelope.
func envelopeError(env *engine.Envelope) *engine.Error {
	if env.Error != nil {
		return env.Error
	}
	return &engine.Error{Code: "INTERNAL_ERROR", Message: "engine reported failure without detail"}
}

func decodeData(env *engine.Envelope, v interface{}, op string) error {
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s reply: %w", op, err)
	}
	return nil
}
