package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

func TestRecordToolsLifecycle(t *testing.T) {
	cat, srv := newTestCatalog(t, "")
	baseID := srv.AddBase("CRM")
	tableID := srv.AddTable(baseID, "people", "Id")
	scope := `"base_id":"` + baseID + `","table_name":"people"`

	inserted := call(t, cat, "insert_record", `{`+scope+`,"data":{"Name":"Ada"}}`)
	assert.Equal(t, "Record inserted successfully", inserted["message"])
	assert.Equal(t, float64(1), inserted["record"].(map[string]any)["Id"])

	bulk := call(t, cat, "bulk_insert", `{`+scope+`,"records":[{"Name":"Grace"},{"Name":"Linus"}]}`)
	assert.Equal(t, float64(2), bulk["count"])
	assert.Equal(t, "2 records inserted successfully", bulk["message"])

	got := call(t, cat, "get_record", `{`+scope+`,"record_id":1}`)
	assert.Equal(t, "Ada", got["record"].(map[string]any)["Name"])

	listed := call(t, cat, "list_records", `{`+scope+`,"sort":"-Name","fields":"Name","limit":2}`)
	assert.Equal(t, float64(2), listed["count"])
	assert.NotNil(t, listed["pageInfo"])
	req, ok := srv.LastRequest("GET", "/api/v2/tables/")
	require.True(t, ok)
	assert.Contains(t, req.Query, "sort=-Name")
	assert.Contains(t, req.Query, "fields=Name")

	updated := call(t, cat, "update_record", `{`+scope+`,"record_id":"1","data":{"Name":"Ada L."}}`)
	assert.Equal(t, "Record updated successfully", updated["message"])
	name, _ := srv.Records(tableID)[0].Get("Name")
	assert.Equal(t, "Ada L.", name.String())

	found := call(t, cat, "search_records", `{`+scope+`,"query":"LINUS"}`)
	assert.Equal(t, float64(1), found["count"])
	assert.Equal(t, "LINUS", found["query"])

	deleted := call(t, cat, "delete_record", `{`+scope+`,"record_id":"1"}`)
	assert.Equal(t, "1", deleted["record_id"])
	assert.Len(t, srv.Records(tableID), 2)
}

func TestRecordToolKeepsFieldOrder(t *testing.T) {
	cat, srv := newTestCatalog(t, "")
	baseID := srv.AddBase("CRM")
	tableID := srv.AddTable(baseID, "people", "Id")
	srv.AddRecords(tableID, types.RecordOf("Id", 1, "zeta", 1, "alpha", 2))

	result, err := cat.Dispatch(context.Background(), "get_record",
		json.RawMessage(`{"base_id":"`+baseID+`","table_name":"people","record_id":"1"}`))
	require.NoError(t, err)
	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Equal(t, `{"record":{"Id":1,"zeta":1,"alpha":2}}`, string(data))
}
