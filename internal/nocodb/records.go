package nocodb

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// CreateRecord inserts one record into the named table.
func (c *Client) CreateRecord(ctx context.Context, baseID, tableName string, data *types.Record) (*types.Record, error) {
	table, err := c.ResolveTable(ctx, baseID, tableName)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = types.NewRecord()
	}
	out := types.NewRecord()
	if err := c.do(ctx, http.MethodPost, endpoint(pathRecords, table.ID), nil, data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// BulkInsert inserts all records in a single request. There is no batch
// ceiling; partial failure is whatever the backend reports.
func (c *Client) BulkInsert(ctx context.Context, baseID, tableName string, records []*types.Record) ([]*types.Record, error) {
	table, err := c.ResolveTable(ctx, baseID, tableName)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*types.Record{}
	}
	var out []*types.Record
	if err := c.do(ctx, http.MethodPost, endpoint(pathRecords, table.ID), nil, records, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*types.Record{}
	}
	return out, nil
}

// GetRecord reads one record by its backend id.
func (c *Client) GetRecord(ctx context.Context, baseID, tableName, recordID string) (*types.Record, error) {
	table, err := c.ResolveTable(ctx, baseID, tableName)
	if err != nil {
		return nil, err
	}
	out := types.NewRecord()
	if err := c.do(ctx, http.MethodGet, endpoint(pathRecord, table.ID, recordID), nil, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecords returns one page of records and the backend's page info.
func (c *Client) ListRecords(ctx context.Context, baseID, tableName string, opts types.QueryOptions) (*types.RecordPage, error) {
	table, err := c.ResolveTable(ctx, baseID, tableName)
	if err != nil {
		return nil, err
	}
	return c.listTableRecords(ctx, table.ID, opts)
}

func (c *Client) listTableRecords(ctx context.Context, tableID string, opts types.QueryOptions) (*types.RecordPage, error) {
	var page types.RecordPage
	if err := c.do(ctx, http.MethodGet, endpoint(pathRecords, tableID), encodeQuery(opts), nil, &page); err != nil {
		return nil, err
	}
	if page.List == nil {
		page.List = []*types.Record{}
	}
	return &page, nil
}

// UpdateRecord patches a record. The record is addressed through the
// table's primary-key field, with recordID parsed as an integer; data's
// fields follow the key in the request body.
func (c *Client) UpdateRecord(ctx context.Context, baseID, tableName, recordID string, data *types.Record) (*types.Record, error) {
	table, err := c.ResolveTable(ctx, baseID, tableName)
	if err != nil {
		return nil, err
	}
	pkField, err := c.PrimaryKeyField(ctx, table.ID)
	if err != nil {
		return nil, err
	}
	body := keyRecord(pkField, recordID).Merge(data)

	out := types.NewRecord()
	if err := c.do(ctx, http.MethodPatch, endpoint(pathRecords, table.ID), nil, body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRecord deletes a record addressed the same way as UpdateRecord.
func (c *Client) DeleteRecord(ctx context.Context, baseID, tableName, recordID string) error {
	table, err := c.ResolveTable(ctx, baseID, tableName)
	if err != nil {
		return err
	}
	pkField, err := c.PrimaryKeyField(ctx, table.ID)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, endpoint(pathRecords, table.ID), nil, keyRecord(pkField, recordID), nil)
}

// keyRecord builds the {pkField: id} addressing payload.
func keyRecord(pkField, recordID string) *types.Record {
	return types.NewRecord().Set(pkField, parseRecordKey(recordID))
}

// parseRecordKey reads the leading base-10 integer of s, ignoring leading
// whitespace and any trailing characters. Input without one yields null,
// which the backend rejects.
func parseRecordKey(s string) types.Value {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return types.Null()
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return types.Null()
	}
	return types.Int(n)
}
