// Package engine defines the contract between the gateway and the matching
// engine subprocess: one JSON object per line on stdin, one envelope per line
// on stdout, strictly paired.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dominicbrandes/aztec-exchange/internal/domain/exchange"
)

// Command is one request line. Fields beyond Cmd and ReqID are optional and
// omitted when not set so every command carries only its own payload.
type Command struct {
	Cmd     string             `json:"cmd"`
	ReqID   string             `json:"req_id"`
	Order   *exchange.NewOrder `json:"order,omitempty"`
	OrderID *int64             `json:"order_id,omitempty"`
	Symbol  string             `json:"symbol,omitempty"`
	Depth   *int               `json:"depth,omitempty"`
	Limit   *int               `json:"limit,omitempty"`
}

// Envelope is one response line. Data stays raw until the caller decodes it
// against the shape its command expects.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ReqID   string          `json:"req_id"`
}

// Error is an envelope-level failure: the engine understood the command and
// rejected it. Distinct from a TransportError.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// TransportError is a failure of the pipe itself: the engine is gone, the
// write failed, or the response was unreadable. Callers treat the engine as
// dead once one is observed.
type TransportError struct {
	Msg string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client is the single channel to the engine. Send serializes callers onto
// the pipe; the convenience operations wrap Send with a fresh req_id per
// command. An error return is always a *TransportError; an envelope with
// Success=false is a business reply, not an error.
type Client interface {
	Send(ctx context.Context, cmd Command) (*Envelope, error)
	PlaceOrder(ctx context.Context, order exchange.NewOrder) (*Envelope, error)
	CancelOrder(ctx context.Context, orderID int64) (*Envelope, error)
	GetOrder(ctx context.Context, orderID int64) (*Envelope, error)
	GetBook(ctx context.Context, symbol string, depth int) (*Envelope, error)
	GetTrades(ctx context.Context, symbol string, limit int) (*Envelope, error)
	GetStats(ctx context.Context) (*Envelope, error)
	Health(ctx context.Context) (*Envelope, error)
	Shutdown(ctx context.Context) (*Envelope, error)
}
