package subprocess

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dominicbrandes/aztec-exchange/internal/domain/engine"
	"github.com/dominicbrandes/aztec-exchange/internal/domain/exchange"
	"github.com/dominicbrandes/aztec-exchange/internal/logging"
)

// transport is the slice of Process the client needs. Tests substitute a
// pipe-backed fake.
type transport interface {
	handles() (io.Writer, *bufio.Reader, bool, bool)
}

// Client speaks the line protocol over the engine pipes. One mutex
// serializes every send/receive pair: replies carry no client-side
// correlation, so the pipe must hold exactly one exchange at a time.
// Waiters queue in lock order.
type Client struct {
	mu     sync.Mutex
	proc   transport
	logger *zap.Logger
}

// NewClient wires a client onto a supervised process and registers itself
// so Stop can route the shutdown command through the same serialized path.
func NewClient(p *Process, logger *zap.Logger) *Client {
	c := &Client{proc: p, logger: logger}
	p.client = c
	return c
}

var _ engine.Client = (*Client)(nil)

// Send writes one command line and reads one reply line while holding the
// pipe mutex. The context does not cancel the pipe I/O: abandoning a
// half-finished exchange would desynchronize framing for every later
// caller, so the call always runs to completion.
func (c *Client) Send(ctx context.Context, cmd engine.Command) (*engine.Envelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stdin, stdout, started, alive := c.proc.handles()
	if !started {
		return nil, &engine.TransportError{Msg: "engine not running"}
	}
	if !alive {
		return nil, &engine.TransportError{Msg: "engine process already exited"}
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, &engine.TransportError{Msg: "encode engine command", Err: err}
	}

	log := logging.FromContext(ctx)
	log.Debug("engine send",
		zap.String("cmd", cmd.Cmd),
		zap.String("engine_req_id", cmd.ReqID),
	)

	if _, err := stdin.Write(append(payload, '\n')); err != nil {
		return nil, &engine.TransportError{Msg: "engine stdin write failed", Err: err}
	}

	line, err := stdout.ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		te := &engine.TransportError{Msg: "engine closed connection (no response)"}
		if !errors.Is(err, io.EOF) {
			te.Err = err
		}
		return nil, te
	}

	var env engine.Envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		return nil, &engine.TransportError{
			Msg: fmt.Sprintf("engine returned invalid JSON; line=%q", strings.TrimSpace(line)),
			Err: err,
		}
	}

	log.Debug("engine reply",
		zap.String("cmd", cmd.Cmd),
		zap.Bool("success", env.Success),
	)
	return &env, nil
}

// PlaceOrder submits a new order for matching.
func (c *Client) PlaceOrder(ctx context.Context, order exchange.NewOrder) (*engine.Envelope, error) {
	return c.Send(ctx, engine.Command{Cmd: "place_order", ReqID: uuid.NewString(), Order: &order})
}

// CancelOrder cancels the remaining quantity of an open order.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) (*engine.Envelope, error) {
	return c.Send(ctx, engine.Command{Cmd: "cancel_order", ReqID: uuid.NewString(), OrderID: &orderID})
}

// GetOrder looks up an order by engine id.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*engine.Envelope, error) {
	return c.Send(ctx, engine.Command{Cmd: "get_order", ReqID: uuid.NewString(), OrderID: &orderID})
}

// GetBook fetches a depth-limited book snapshot.
func (c *Client) GetBook(ctx context.Context, symbol string, depth int) (*engine.Envelope, error) {
	return c.Send(ctx, engine.Command{Cmd: "get_book", ReqID: uuid.NewString(), Symbol: symbol, Depth: &depth})
}

// GetTrades fetches recent trades for a symbol.
func (c *Client) GetTrades(ctx context.Context, symbol string, limit int) (*engine.Envelope, error) {
	return c.Send(ctx, engine.Command{Cmd: "get_trades", ReqID: uuid.NewString(), Symbol: symbol, Limit: &limit})
}

// GetStats fetches the engine's lifetime counters.
func (c *Client) GetStats(ctx context.Context) (*engine.Envelope, error) {
	return c.Send(ctx, engine.Command{Cmd: "get_stats", ReqID: uuid.NewString()})
}

// Health asks the engine for a liveness reply.
func (c *Client) Health(ctx context.Context) (*engine.Envelope, error) {
	return c.Send(ctx, engine.Command{Cmd: "health", ReqID: uuid.NewString()})
}

// Shutdown asks the engine to flush and exit.
func (c *Client) Shutdown(ctx context.Context) (*engine.Envelope, error) {
	return c.Send(ctx, engine.Command{Cmd: "shutdown", ReqID: uuid.NewString()})
}
