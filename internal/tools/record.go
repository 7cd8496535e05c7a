package tools

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/andrewlwn77/nocodb-mcp/internal/nocodb"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// recordPage is the result shape of every record listing.
type recordPage struct {
	Records  []*types.Record `json:"records"`
	PageInfo json.RawMessage `json:"pageInfo,omitempty"`
	Count    int             `json:"count"`
}

func newRecordPage(p *types.RecordPage) recordPage {
	return recordPage{Records: p.List, PageInfo: p.PageInfo, Count: len(p.List)}
}

// recordID accepts the record id as a JSON string or number.
type recordID string

func (r *recordID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = recordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return types.Errorf(types.ErrInvalidArgument, "record_id must be a string or number")
	}
	*r = recordID(n.String())
	return nil
}

func recordTools() []Tool {
	recordIDProp := str(argRecordID, "The ID of the record")
	return []Tool{
		{
			Name:        "insert_record",
			Description: "Insert a single record into a table",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				openObject("data", "The record data to insert"),
			).require(argBaseID, argTableName, "data"),
			run: bind(insertRecord),
		},
		{
			Name:        "bulk_insert",
			Description: "Insert multiple records into a table",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				list("records", "Array of records to insert", Property{Type: "object", Open: true}),
			).require(argBaseID, argTableName, "records"),
			run: bind(bulkInsert),
		},
		{
			Name:        "get_record",
			Description: "Get a single record by ID",
			InputSchema: object(baseIDProp, tableNameProp, recordIDProp).require(argBaseID, argTableName, argRecordID),
			run:         bind(getRecord),
		},
		{
			Name:        "list_records",
			Description: "List records from a table with optional filtering, sorting, and pagination",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				str("where", `Filter condition (e.g., "(status,eq,active)")`),
				str("sort", `Sort fields (prefix with - for descending, e.g., "-created_at")`),
				str("fields", "Comma-separated list of fields to return"),
				num("limit", "Number of records to return (default: 25)"),
				num("offset", "Number of records to skip"),
				str("view_id", "View ID to use for filtering"),
			).require(argBaseID, argTableName),
			run: bind(listRecords),
		},
		{
			Name:        "update_record",
			Description: "Update a single record",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				str(argRecordID, "The ID of the record to update"),
				openObject("data", "The fields to update"),
			).require(argBaseID, argTableName, argRecordID, "data"),
			run: bind(updateRecord),
		},
		{
			Name:        "delete_record",
			Description: "Delete a single record",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				str(argRecordID, "The ID of the record to delete"),
			).require(argBaseID, argTableName, argRecordID),
			run: bind(deleteRecord),
		},
		{
			Name:        "search_records",
			Description: "Search for records containing a query string",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				str("query", "Search query string"),
				str("where", "Additional filter condition"),
				str("sort", "Sort fields"),
				num("limit", "Number of records to return"),
				num("offset", "Number of records to skip"),
			).require(argBaseID, argTableName, "query"),
			run: bind(searchRecords),
		},
	}
}

type insertRecordArgs struct {
	tableArgs
	Data *types.Record `json:"data"`
}

func insertRecord(ctx context.Context, c *nocodb.Client, args *insertRecordArgs) (any, error) {
	rec, err := c.CreateRecord(ctx, args.BaseID, args.TableName, args.Data)
	if err != nil {
		return nil, err
	}
	return struct {
		Record  *types.Record `json:"record"`
		Message string        `json:"message"`
	}{rec, "Record inserted successfully"}, nil
}

type bulkInsertArgs struct {
	tableArgs
	Records []*types.Record `json:"records"`
}

func bulkInsert(ctx context.Context, c *nocodb.Client, args *bulkInsertArgs) (any, error) {
	recs, err := c.BulkInsert(ctx, args.BaseID, args.TableName, args.Records)
	if err != nil {
		return nil, err
	}
	return struct {
		Records []*types.Record `json:"records"`
		Count   int             `json:"count"`
		Message string          `json:"message"`
	}{recs, len(recs), strconv.Itoa(len(recs)) + " records inserted successfully"}, nil
}

type recordArgs struct {
	tableArgs
	RecordID recordID `json:"record_id"`
}

func getRecord(ctx context.Context, c *nocodb.Client, args *recordArgs) (any, error) {
	rec, err := c.GetRecord(ctx, args.BaseID, args.TableName, string(args.RecordID))
	if err != nil {
		return nil, err
	}
	return struct {
		Record *types.Record `json:"record"`
	}{rec}, nil
}

type listRecordsArgs struct {
	tableArgs
	Where  string `json:"where"`
	Sort   string `json:"sort"`
	Fields string `json:"fields"`
	Limit  count  `json:"limit"`
	Offset count  `json:"offset"`
	ViewID string `json:"view_id"`
}

func listRecords(ctx context.Context, c *nocodb.Client, args *listRecordsArgs) (any, error) {
	page, err := c.ListRecords(ctx, args.BaseID, args.TableName, types.QueryOptions{
		Where:  args.Where,
		Sort:   nocodb.SplitList(args.Sort),
		Fields: nocodb.SplitList(args.Fields),
		Limit:  int(args.Limit),
		Offset: int(args.Offset),
		ViewID: args.ViewID,
	})
	if err != nil {
		return nil, err
	}
	return newRecordPage(page), nil
}

type updateRecordArgs struct {
	recordArgs
	Data *types.Record `json:"data"`
}

func updateRecord(ctx context.Context, c *nocodb.Client, args *updateRecordArgs) (any, error) {
	rec, err := c.UpdateRecord(ctx, args.BaseID, args.TableName, string(args.RecordID), args.Data)
	if err != nil {
		return nil, err
	}
	return struct {
		Record  *types.Record `json:"record"`
		Message string        `json:"message"`
	}{rec, "Record updated successfully"}, nil
}

func deleteRecord(ctx context.Context, c *nocodb.Client, args *recordArgs) (any, error) {
	if err := c.DeleteRecord(ctx, args.BaseID, args.TableName, string(args.RecordID)); err != nil {
		return nil, err
	}
	return struct {
		Message  string `json:"message"`
		RecordID string `json:"record_id"`
	}{"Record deleted successfully", string(args.RecordID)}, nil
}

type searchRecordsArgs struct {
	tableArgs
	Query  string `json:"query"`
	Where  string `json:"where"`
	Sort   string `json:"sort"`
	Limit  count  `json:"limit"`
	Offset count  `json:"offset"`
}

func searchRecords(ctx context.Context, c *nocodb.Client, args *searchRecordsArgs) (any, error) {
	page, err := c.SearchRecords(ctx, args.BaseID, args.TableName, args.Query, types.QueryOptions{
		Where:  args.Where,
		Sort:   nocodb.SplitList(args.Sort),
		Limit:  int(args.Limit),
		Offset: int(args.Offset),
	})
	if err != nil {
		return nil, err
	}
	return struct {
		recordPage
		Query string `json:"query"`
	}{newRecordPage(page), args.Query}, nil
}
