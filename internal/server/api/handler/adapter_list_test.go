package handler_test

import (
	"testing"

	"github.com/padlink/dsubridge/apiclient"
	"github.com/padlink/dsubridge/internal/server/api"
	"github.com/padlink/dsubridge/internal/server/api/handler"
	"github.com/padlink/dsubridge/internal/server/dsu"
	th "github.com/padlink/dsubridge/internal/testing"
	"github.com/stretchr/testify/require"

	_ "github.com/padlink/dsubridge/internal/registry"
)

func TestAdapterList(t *testing.T) {
	addr, _, done := th.StartAPIServer(t, func(r *api.Router, s *dsu.Server, apiSrv *api.Server) {
		r.Register("adapter/list", handler.AdapterList())
	})
	defer done()

	line, err := apiclient.NewTransport(addr).Do("adapter/list", nil, nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"adapters":[{"name":"ds4","frameSize":64},{"name":"steamcontroller","frameSize":52}]}`, line)
}
