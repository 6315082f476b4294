// Package apiclient talks to the dsubridge management API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/padlink/dsubridge/apitypes"
)

// Client provides a high-level interface to the management API, handling
// request formatting, response parsing and problem responses.
type Client struct{ transport *Transport }

// New constructs a client for the API server at addr (host:port).
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithPassword constructs a client that authenticates with the given password.
func NewWithPassword(addr, password string) *Client {
	return &Client{transport: NewTransportWithPassword(addr, password)}
}

// NewWithConfig constructs a client with custom transport timeouts.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client using a custom Transport, mostly for tests.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// Ping returns the version and identity of the server.
func (c *Client) Ping() (*apitypes.PingResponse, error) {
	return c.PingCtx(context.Background())
}

func (c *Client) PingCtx(ctx context.Context) (*apitypes.PingResponse, error) {
	return call[apitypes.PingResponse](ctx, c.transport, "ping", nil, nil)
}

// PadList returns the state of all four pad slots.
func (c *Client) PadList() (*apitypes.PadListResponse, error) {
	return c.PadListCtx(context.Background())
}

func (c *Client) PadListCtx(ctx context.Context) (*apitypes.PadListResponse, error) {
	return call[apitypes.PadListResponse](ctx, c.transport, "pad/list", nil, nil)
}

// PadFilter replaces the motion filter of the pad in slot. An invalid
// configuration is rejected with a 400 problem and the old filter stays.
func (c *Client) PadFilter(slot uint8, filter apitypes.FilterConfig) (*apitypes.PadFilterResponse, error) {
	return c.PadFilterCtx(context.Background(), slot, filter)
}

func (c *Client) PadFilterCtx(ctx context.Context, slot uint8, filter apitypes.FilterConfig) (*apitypes.PadFilterResponse, error) {
	if filter.Params == nil {
		filter.Params = []float64{}
	}
	return call[apitypes.PadFilterResponse](ctx, c.transport, "pad/{id}/filter", filter, slotParam(slot))
}

// PadClose unbinds and closes the pad in slot.
func (c *Client) PadClose(slot uint8) (*apitypes.PadCloseResponse, error) {
	return c.PadCloseCtx(context.Background(), slot)
}

func (c *Client) PadCloseCtx(ctx context.Context, slot uint8) (*apitypes.PadCloseResponse, error) {
	return call[apitypes.PadCloseResponse](ctx, c.transport, "pad/{id}/close", nil, slotParam(slot))
}

// ClientList returns the UDP clients known to the DSU server.
func (c *Client) ClientList() (*apitypes.ClientListResponse, error) {
	return c.ClientListCtx(context.Background())
}

func (c *Client) ClientListCtx(ctx context.Context) (*apitypes.ClientListResponse, error) {
	return call[apitypes.ClientListResponse](ctx, c.transport, "client/list", nil, nil)
}

// AdapterList returns the adapter types a pad stream can be opened with.
func (c *Client) AdapterList() (*apitypes.AdapterListResponse, error) {
	return c.AdapterListCtx(context.Background())
}

func (c *Client) AdapterListCtx(ctx context.Context) (*apitypes.AdapterListResponse, error) {
	return call[apitypes.AdapterListResponse](ctx, c.transport, "adapter/list", nil, nil)
}

func slotParam(slot uint8) map[string]string {
	return map[string]string{"id": fmt.Sprintf("%d", slot)}
}

func call[T any](ctx context.Context, t *Transport, path string, payload any, params map[string]string) (*T, error) {
	raw, err := t.DoCtx(ctx, path, payload, params)
	if err != nil {
		return nil, err
	}
	return parse[T](raw)
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
