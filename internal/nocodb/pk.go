package nocodb

import (
	"context"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// fallbackPKField addresses records when no column qualifies.
const fallbackPKField = "ID"

// PrimaryKeyField returns the field name that addresses records of a
// table: the title of the column flagged as primary key, else of a column
// titled "ID", else the literal "ID".
func (c *Client) PrimaryKeyField(ctx context.Context, tableID string) (string, error) {
	columns, err := c.ListColumns(ctx, tableID)
	if err != nil {
		return "", err
	}
	return primaryKeyField(columns), nil
}

func primaryKeyField(columns []types.Column) string {
	for _, col := range columns {
		if col.PK && col.Title != "" {
			return col.Title
		}
	}
	for _, col := range columns {
		if col.Title == fallbackPKField {
			return col.Title
		}
	}
	return fallbackPKField
}
