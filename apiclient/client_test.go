package apiclient_test

import (
	"context"
	"errors"
	"testing"

	"github.com/padlink/dsubridge/apiclient"
	"github.com/padlink/dsubridge/apitypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient constructs a client backed by a simple in-memory responder.
// responses maps path patterns (before param substitution) to raw JSON lines.
// If err is non-nil, every request returns that error, simulating dial failures.
func testClient(responses map[string]string, err error) *apiclient.Client {
	return apiclient.WithTransport(apiclient.NewMockTransport(func(path string, _ any, _ map[string]string) (string, error) {
		if err != nil {
			return "", err
		}
		if out, ok := responses[path]; ok {
			return out, nil
		}
		return "", nil
	}))
}

func TestHighLevelClient(t *testing.T) {
	tests := []struct {
		name       string
		responses  map[string]string
		dialErr    error
		call       func(c *apiclient.Client) (any, error)
		wantErr    string
		assertFunc func(t *testing.T, got any)
	}{
		{
			name:      "ping",
			responses: map[string]string{"ping": `{"server":"dsubridge","version":"1.2.3","serverId":99,"dsuAddr":"0.0.0.0:26760"}`},
			call:      func(c *apiclient.Client) (any, error) { return c.Ping() },
			assertFunc: func(t *testing.T, got any) {
				p := got.(*apitypes.PingResponse)
				assert.Equal(t, "dsubridge", p.Server)
				assert.Equal(t, "1.2.3", p.Version)
				assert.Equal(t, uint32(99), p.ServerID)
			},
		},
		{
			name: "pad list",
			responses: map[string]string{
				"pad/list": `{"pads":[{"slot":0,"state":"connected","model":2,"connectionType":2,"mac":"01:02:03:04:05:06","battery":5,"active":true,"filter":{"type":"disabled","params":[]},"packetCounter":7}]}`,
			},
			call: func(c *apiclient.Client) (any, error) { return c.PadList() },
			assertFunc: func(t *testing.T, got any) {
				l := got.(*apitypes.PadListResponse)
				require.Len(t, l.Pads, 1)
				assert.Equal(t, "connected", l.Pads[0].State)
				assert.Equal(t, "01:02:03:04:05:06", l.Pads[0].MAC)
				assert.Equal(t, uint32(7), l.Pads[0].PacketCounter)
			},
		},
		{
			name:      "pad filter",
			responses: map[string]string{"pad/{id}/filter": `{"slot":2,"filter":{"type":"low-high-pass","params":[0.5,0.1]}}`},
			call: func(c *apiclient.Client) (any, error) {
				return c.PadFilter(2, apitypes.FilterConfig{Type: "low-high-pass", Params: []float64{0.5, 0.1}})
			},
			assertFunc: func(t *testing.T, got any) {
				f := got.(*apitypes.PadFilterResponse)
				assert.Equal(t, uint8(2), f.Slot)
				assert.Equal(t, []float64{0.5, 0.1}, f.Filter.Params)
			},
		},
		{
			name:      "pad close",
			responses: map[string]string{"pad/{id}/close": `{"slot":3}`},
			call:      func(c *apiclient.Client) (any, error) { return c.PadClose(3) },
			assertFunc: func(t *testing.T, got any) {
				assert.Equal(t, uint8(3), got.(*apitypes.PadCloseResponse).Slot)
			},
		},
		{
			name:      "client list",
			responses: map[string]string{"client/list": `{"clients":[{"addr":"127.0.0.1:5555","clientId":77,"all":false,"slots":[1],"macs":[],"lastSeen":"2024-01-02T03:04:05Z","sent":12}]}`},
			call:      func(c *apiclient.Client) (any, error) { return c.ClientList() },
			assertFunc: func(t *testing.T, got any) {
				l := got.(*apitypes.ClientListResponse)
				require.Len(t, l.Clients, 1)
				assert.Equal(t, []int{1}, l.Clients[0].Slots)
				assert.Equal(t, uint64(12), l.Clients[0].Sent)
			},
		},
		{
			name:      "adapter list",
			responses: map[string]string{"adapter/list": `{"adapters":[{"name":"ds4","frameSize":64}]}`},
			call:      func(c *apiclient.Client) (any, error) { return c.AdapterList() },
			assertFunc: func(t *testing.T, got any) {
				l := got.(*apitypes.AdapterListResponse)
				assert.Equal(t, []apitypes.Adapter{{Name: "ds4", FrameSize: 64}}, l.Adapters)
			},
		},
		{
			name:      "problem response",
			responses: map[string]string{"pad/{id}/filter": `{"status":400,"title":"Bad Request","detail":"motion filter: low-high-pass takes 2 parameter(s), got 1"}`},
			call: func(c *apiclient.Client) (any, error) {
				return c.PadFilter(0, apitypes.FilterConfig{Type: "low-high-pass", Params: []float64{0.5}})
			},
			wantErr: "400 Bad Request: motion filter: low-high-pass takes 2 parameter(s), got 1",
		},
		{
			name:      "not found problem",
			responses: map[string]string{"pad/{id}/close": `{"status":404,"title":"Not Found","detail":"pad slot is empty: 1"}`},
			call:      func(c *apiclient.Client) (any, error) { return c.PadClose(1) },
			wantErr:   "404 Not Found",
		},
		{
			name:    "transport failure",
			dialErr: errors.New("dial: connection refused"),
			call:    func(c *apiclient.Client) (any, error) { return c.PadList() },
			wantErr: "connection refused",
		},
		{
			name:      "empty response",
			responses: map[string]string{},
			call:      func(c *apiclient.Client) (any, error) { return c.ClientList() },
			wantErr:   "empty response",
		},
		{
			name:      "malformed json",
			responses: map[string]string{"ping": `{"server":`},
			call:      func(c *apiclient.Client) (any, error) { return c.Ping() },
			wantErr:   "decode:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(tt.responses, tt.dialErr)
			got, err := tt.call(c)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.assertFunc != nil {
				tt.assertFunc(t, got)
			}
		})
	}
}

func TestProblemResponseIsApiError(t *testing.T) {
	c := testClient(map[string]string{"pad/{id}/close": `{"status":409,"title":"Conflict","detail":"busy"}`}, nil)
	_, err := c.PadClose(0)
	require.Error(t, err)

	var apiErr *apitypes.ApiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "busy", apiErr.Detail)
}

func TestPadFilterSendsParams(t *testing.T) {
	var gotPayload any
	var gotParams map[string]string
	c := apiclient.WithTransport(apiclient.NewMockTransport(func(path string, payload any, params map[string]string) (string, error) {
		gotPayload = payload
		gotParams = params
		return `{"slot":1,"filter":{"type":"disabled","params":[]}}`, nil
	}))

	_, err := c.PadFilter(1, apitypes.FilterConfig{Type: "disabled"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "1"}, gotParams)
	assert.Equal(t, apitypes.FilterConfig{Type: "disabled", Params: []float64{}}, gotPayload)
}

func TestClientContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := apiclient.New("127.0.0.1:1")
	_, err := c.PadListCtx(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
