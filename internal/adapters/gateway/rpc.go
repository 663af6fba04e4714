package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request sends one RPC with the client's default timeout.
func (c *Client) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return c.RequestTimeout(ctx, method, params, c.cfg.RequestTimeout)
}

// RequestTimeout sends one RPC and waits at most timeout for its response.
// Exactly one of payload or error is returned; nothing is retried.
func (c *Client) RequestTimeout(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error) {
	id := uuid.NewString()
	done := make(chan ResponseFrame, 1)

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, &RPCError{Code: CodeNotConnected, Message: "gateway socket is not open", Method: method}
	}
	c.pending[id] = func(response ResponseFrame) {
		done <- response
	}
	c.mu.Unlock()

	frame := requestFrame{Type: frameRequest, ID: id, Method: method, Params: params}
	if err := c.write(conn, frame); err != nil {
		c.dropPending(id)
		return nil, &RPCError{Code: CodeNotConnected, Message: err.Error(), Method: method}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case response := <-done:
		if !response.OK {
			return nil, errorFromShape(method, response.Error)
		}
		return response.Payload, nil
	case <-timer.C:
		c.dropPending(id)
		c.logger.Debug("request timed out", zap.String("method", method), zap.Duration("timeout", timeout))
		return nil, &RPCError{
			Code:    CodeTimeout,
			Message: fmt.Sprintf("no response within %s", timeout),
			Method:  method,
		}
	case <-ctx.Done():
		c.dropPending(id)
		return nil, ctx.Err()
	}
}

func (c *Client) dropPending(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}
