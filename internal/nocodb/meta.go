package nocodb

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// listEnvelope is the {list, pageInfo} wrapper used by list endpoints.
type listEnvelope[T any] struct {
	List []T `json:"list"`
}

// ListBases returns every base visible to the credentials.
func (c *Client) ListBases(ctx context.Context) ([]types.Base, error) {
	var env listEnvelope[types.Base]
	if err := c.do(ctx, http.MethodGet, pathBases, nil, nil, &env); err != nil {
		return nil, err
	}
	return env.List, nil
}

// GetBase returns one base by id.
func (c *Client) GetBase(ctx context.Context, baseID string) (*types.Base, error) {
	var base types.Base
	if err := c.do(ctx, http.MethodGet, endpoint(pathBase, baseID), nil, nil, &base); err != nil {
		return nil, err
	}
	return &base, nil
}

// ListTables returns the tables of a base, without column definitions.
func (c *Client) ListTables(ctx context.Context, baseID string) ([]types.Table, error) {
	var env listEnvelope[types.Table]
	if err := c.do(ctx, http.MethodGet, endpoint(pathBaseTables, baseID), nil, nil, &env); err != nil {
		return nil, err
	}
	return env.List, nil
}

// GetTable returns the full definition of a table, columns included.
func (c *Client) GetTable(ctx context.Context, tableID string) (*types.Table, error) {
	var table types.Table
	if err := c.do(ctx, http.MethodGet, endpoint(pathTable, tableID), nil, nil, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

// CreateTable creates a table in a base. The table name doubles as its
// title. Each column definition is sent as given.
func (c *Client) CreateTable(ctx context.Context, baseID, tableName string, columns []*types.Record) (*types.Table, error) {
	if columns == nil {
		columns = []*types.Record{}
	}
	body := struct {
		TableName string          `json:"table_name"`
		Title     string          `json:"title"`
		Columns   []*types.Record `json:"columns"`
	}{tableName, tableName, columns}

	var table types.Table
	if err := c.do(ctx, http.MethodPost, endpoint(pathBaseTables, baseID), nil, body, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

// DeleteTable drops a table.
func (c *Client) DeleteTable(ctx context.Context, tableID string) error {
	return c.do(ctx, http.MethodDelete, endpoint(pathTable, tableID), nil, nil, nil)
}

// ListColumns returns a table's columns. There is no dedicated column
// listing endpoint, so this reads the full table definition.
func (c *Client) ListColumns(ctx context.Context, tableID string) ([]types.Column, error) {
	table, err := c.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table.Columns == nil {
		return []types.Column{}, nil
	}
	return table.Columns, nil
}

// AddColumn adds a column to a table. The backend answers with the whole
// table; the new column is picked out of it by title or column_name. When
// it cannot be found the response is decoded as a column directly.
func (c *Client) AddColumn(ctx context.Context, tableID string, def *types.Record) (*types.Column, error) {
	var data json.RawMessage
	if err := c.do(ctx, http.MethodPost, endpoint(pathColumns, tableID), nil, def, &data); err != nil {
		return nil, err
	}

	var table types.Table
	if err := json.Unmarshal(data, &table); err == nil {
		title := fieldString(def, "title")
		name := fieldString(def, "column_name")
		for i := range table.Columns {
			col := table.Columns[i]
			if (title != "" && col.Title == title) || (name != "" && col.ColumnName == name) {
				return &col, nil
			}
		}
	}

	var col types.Column
	if err := json.Unmarshal(data, &col); err != nil {
		return nil, types.Errorf(types.ErrTransport, "decode column response: %v", err)
	}
	return &col, nil
}

// DeleteColumn drops a column by id.
func (c *Client) DeleteColumn(ctx context.Context, columnID string) error {
	return c.do(ctx, http.MethodDelete, endpoint(pathColumn, columnID), nil, nil, nil)
}

// ListViews returns the views of a table.
func (c *Client) ListViews(ctx context.Context, tableID string) ([]types.View, error) {
	var env listEnvelope[types.View]
	if err := c.do(ctx, http.MethodGet, endpoint(pathViews, tableID), nil, nil, &env); err != nil {
		return nil, err
	}
	if env.List == nil {
		return []types.View{}, nil
	}
	return env.List, nil
}

// CreateView creates a view of the given type code on a table.
func (c *Client) CreateView(ctx context.Context, tableID, title string, viewType int) (*types.View, error) {
	body := struct {
		Title string `json:"title"`
		Type  int    `json:"type"`
	}{title, viewType}

	var view types.View
	if err := c.do(ctx, http.MethodPost, endpoint(pathViews, tableID), nil, body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// fieldString returns r[key] when it holds a string.
func fieldString(r *types.Record, key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.StringValue()
	return s
}
