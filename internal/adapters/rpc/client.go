package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"
)

// Client is the caller side of the daemon protocol: one connection per
// call, write the request, close the write side, then loop-read the reply
// until EOF.
type Client struct {
	socketPath string
	timeout    time.Duration
	nextID     int
}

// NewClient creates a client for the daemon socket
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 30 * time.Second}
}

// Call invokes one method and decodes the result member into result.
// A nil result discards the payload. Error replies come back as *rpcError.
func (c *Client) Call(ctx context.Context, method string, params, result interface{}) error {
	c.nextID++
	req := request{JSONRPC: jsonrpcVersion, Method: method, ID: c.nextID}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		req.Params = raw
	}

	payload, err := json.Marshal(&req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("dial daemon at %s: %w (is fleetd running?)", c.socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(c.timeout))
	}

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}

	var reply struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result"`
		Error   *rpcError       `json:"error"`
		ID      interface{}     `json:"id"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	if reply.Error != nil {
		return reply.Error
	}
	if result != nil && len(reply.Result) > 0 {
		if err := json.Unmarshal(reply.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}
