package apitypes_test

import (
	"encoding/json"
	"testing"

	"github.com/padlink/dsubridge/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadStreamRequestConnectionType(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    *uint8
		wantErr string
	}{
		{name: "absent", in: `{"mac":"aa:bb:cc:dd:ee:ff"}`},
		{name: "number", in: `{"connectionType":1}`, want: ptr(1)},
		{name: "name", in: `{"connectionType":"Bluetooth"}`, want: ptr(2)},
		{name: "short name", in: `{"connectionType":"bt"}`, want: ptr(2)},
		{name: "numeric string", in: `{"connectionType":"0"}`, want: ptr(0)},
		{name: "out of range", in: `{"connectionType":3}`, wantErr: "out of range"},
		{name: "fraction", in: `{"connectionType":1.5}`, wantErr: "out of range"},
		{name: "unknown name", in: `{"connectionType":"serial"}`, wantErr: `unknown connection type "serial"`},
		{name: "wrong type", in: `{"connectionType":true}`, wantErr: "expected number or string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req apitypes.PadStreamRequest
			err := json.Unmarshal([]byte(tt.in), &req)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.ConnectionType)
		})
	}
}

func TestApiErrorMessage(t *testing.T) {
	err := apitypes.ApiError{Status: 404, Title: "Not Found", Detail: "pad 3 not found"}
	assert.Equal(t, "404 Not Found: pad 3 not found", err.Error())
}

func ptr(v uint8) *uint8 { return &v }
