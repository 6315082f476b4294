package handler_test

import (
	"testing"

	"github.com/padlink/dsubridge/apiclient"
	"github.com/padlink/dsubridge/internal/server/api"
	"github.com/padlink/dsubridge/internal/server/api/handler"
	"github.com/padlink/dsubridge/internal/server/dsu"
	th "github.com/padlink/dsubridge/internal/testing"
	"github.com/padlink/dsubridge/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadFilter(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		payload    any
		want       string
		wantFilter *motion.Config
	}{
		{
			name:       "enable low-high-pass",
			id:         "0",
			payload:    `{"type":"low-high-pass","params":[0.5,0.25]}`,
			want:       `{"slot":0,"filter":{"type":"low-high-pass","params":[0.5,0.25]}}`,
			wantFilter: &motion.Config{Type: motion.LowHighPass, Params: []float64{0.5, 0.25}},
		},
		{
			name:       "type is case insensitive",
			id:         "0",
			payload:    `{"type":"Disabled","params":[]}`,
			want:       `{"slot":0,"filter":{"type":"disabled","params":[]}}`,
			wantFilter: &motion.Config{Type: motion.Disabled, Params: []float64{}},
		},
		{
			name:       "wrong arity keeps filter",
			id:         "0",
			payload:    `{"type":"low-high-pass","params":[0.5]}`,
			want:       `{"status":400,"title":"Bad Request","detail":"motion filter: low-high-pass takes 2 parameter(s), got 1"}`,
			wantFilter: &motion.Config{Type: motion.Disabled, Params: []float64{}},
		},
		{
			name:    "unknown type",
			id:      "0",
			payload: `{"type":"kalman","params":[]}`,
			want:    `{"status":400,"title":"Bad Request","detail":"motion filter: unknown filter type \"kalman\""}`,
		},
		{
			name:    "missing payload",
			id:      "0",
			payload: nil,
			want:    `{"status":400,"title":"Bad Request","detail":"missing payload"}`,
		},
		{
			name:    "empty slot",
			id:      "1",
			payload: `{"type":"disabled","params":[]}`,
			want:    `{"status":404,"title":"Not Found","detail":"pad slot empty: 1"}`,
		},
		{
			name:    "slot out of range",
			id:      "7",
			payload: `{"type":"disabled","params":[]}`,
			want:    `{"status":404,"title":"Not Found","detail":"pad 7 not found"}`,
		},
		{
			name:    "invalid slot",
			id:      "x",
			payload: `{"type":"disabled","params":[]}`,
			want:    `{"status":400,"title":"Bad Request","detail":"invalid pad id: strconv.ParseUint: parsing \"x\": invalid syntax"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, srv, done := th.StartAPIServer(t, func(r *api.Router, s *dsu.Server, apiSrv *api.Server) {
				r.Register("pad/{id}/filter", handler.PadFilter(s))
			})
			defer done()
			fake := bindFake(t, srv, 0, "")

			line, err := apiclient.NewTransport(addr).Do("pad/{id}/filter", tt.payload, map[string]string{"id": tt.id})
			require.NoError(t, err)
			assertJSONOrEqual(t, tt.want, line)

			if tt.wantFilter != nil {
				got := fake.Filter()
				assert.Equal(t, tt.wantFilter.Type, got.Type)
				assert.ElementsMatch(t, tt.wantFilter.Params, got.Params)
			}
		})
	}
}
