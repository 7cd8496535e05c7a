package nocodb

import (
	"context"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// ResolveTable finds the table of baseID whose table_name or title equals
// name; the first match in listing order wins. Every call lists the tables
// afresh so that renames and drops are seen immediately.
func (c *Client) ResolveTable(ctx context.Context, baseID, name string) (*types.Table, error) {
	tables, err := c.ListTables(ctx, baseID)
	if err != nil {
		return nil, err
	}
	if t := findTable(tables, name); t != nil {
		return t, nil
	}
	return nil, types.Errorf(types.ErrNotFound, "Table %s not found", name)
}

func findTable(tables []types.Table, name string) *types.Table {
	for i := range tables {
		if tables[i].TableName == name || tables[i].Title == name {
			return &tables[i]
		}
	}
	return nil
}
