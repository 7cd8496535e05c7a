package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewlwn77/nocodb-mcp/internal/nocodbtest"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

func seedOrders(t *testing.T, srv *nocodbtest.Server) string {
	t.Helper()
	baseID := srv.AddBase("Shop")
	tableID := srv.AddTable(baseID, "orders", "Id")
	srv.AddRecords(tableID,
		types.RecordOf("Id", 1, "status", "open", "amount", 10),
		types.RecordOf("Id", 2, "status", "paid", "amount", 20),
		types.RecordOf("Id", 3, "status", "open", "amount", "30"),
	)
	return baseID
}

func TestQueryTool(t *testing.T) {
	tests := []struct {
		name      string
		args      string
		wantQuery string
		wantEcho  string
	}{
		{
			name:      "defaults to 25 records",
			args:      `{}`,
			wantQuery: "limit=25",
			wantEcho:  `{}`,
		},
		{
			name:      "zero limit means default",
			args:      `{"limit":0,"offset":0}`,
			wantQuery: "limit=25",
			wantEcho:  `{"limit":0,"offset":0}`,
		},
		{
			name:      "arrays joined",
			args:      `{"sort":["-amount","status"],"fields":["Id","amount"],"limit":2,"offset":1}`,
			wantQuery: "fields=Id%2Camount&limit=2&offset=1&sort=-amount%2Cstatus",
			wantEcho:  `{"sort":["-amount","status"],"fields":["Id","amount"],"limit":2,"offset":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, srv := newTestCatalog(t, "")
			baseID := seedOrders(t, srv)

			var args map[string]any
			require.NoError(t, json.Unmarshal([]byte(tt.args), &args))
			args["base_id"] = baseID
			args["table_name"] = "orders"
			raw, err := json.Marshal(args)
			require.NoError(t, err)

			out := call(t, cat, "query", string(raw))
			echo, err := json.Marshal(out["query"])
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantEcho, string(echo))

			req, ok := srv.LastRequest("GET", "/api/v2/tables/")
			require.True(t, ok)
			assert.Equal(t, tt.wantQuery, req.Query)
		})
	}
}

func TestAggregateTool(t *testing.T) {
	cat, srv := newTestCatalog(t, "")
	baseID := seedOrders(t, srv)
	scope := `"base_id":"` + baseID + `","table_name":"orders"`

	out := call(t, cat, "aggregate", `{`+scope+`,"column_name":"amount","function":"sum","where":"(status,eq,open)"}`)
	assert.Equal(t, float64(40), out["value"])
	assert.Equal(t, map[string]any{"column": "amount", "function": "sum", "where": "(status,eq,open)"}, out["aggregation"])

	out = call(t, cat, "aggregate", `{`+scope+`,"column_name":"amount","function":"min","where":"(status,eq,void)"}`)
	assert.Equal(t, "Infinity", out["value"])
	out = call(t, cat, "aggregate", `{`+scope+`,"column_name":"amount","function":"max","where":"(status,eq,void)"}`)
	assert.Equal(t, "-Infinity", out["value"])

	_, err := cat.Dispatch(context.Background(), "aggregate", json.RawMessage(`{`+scope+`,"column_name":"amount","function":"median"}`))
	assert.ErrorIs(t, err, types.ErrUnsupportedAggregate)
}

func TestGroupByTool(t *testing.T) {
	cat, srv := newTestCatalog(t, "")
	baseID := seedOrders(t, srv)

	out := call(t, cat, "group_by", `{"base_id":"`+baseID+`","table_name":"orders","column_name":"status","sort":"-status"}`)
	assert.Equal(t, float64(2), out["count"])
	assert.Equal(t, "status", out["column"])
	assert.Equal(t, []any{
		map[string]any{"value": "paid", "count": float64(1)},
		map[string]any{"value": "open", "count": float64(2)},
	}, out["groups"])
}

func TestNumberEncoding(t *testing.T) {
	tests := []struct {
		in   number
		want string
	}{
		{in: 1.5, want: "1.5"},
		{in: 40, want: "40"},
		{in: number(posInf()), want: `"Infinity"`},
		{in: number(-posInf()), want: `"-Infinity"`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data))
	}
}
