package nocodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

func TestBasesAndTables(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()
	baseID := srv.AddBase("CRM")
	srv.AddTable(baseID, "people", "Id", types.Column{Title: "Name", ColumnName: "name", UIDT: "SingleLineText"})

	bases, err := c.ListBases(ctx)
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, "CRM", bases[0].Title)

	base, err := c.GetBase(ctx, baseID)
	require.NoError(t, err)
	assert.Equal(t, baseID, base.ID)

	tables, err := c.ListTables(ctx, baseID)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Empty(t, tables[0].Columns)

	table, err := c.GetTable(ctx, tables[0].ID)
	require.NoError(t, err)
	require.Len(t, table.Columns, 2)
	assert.True(t, bool(table.Columns[0].PK))
}

func TestCreateAndDeleteTable(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()
	baseID := srv.AddBase("CRM")

	table, err := c.CreateTable(ctx, baseID, "tasks", []*types.Record{
		types.RecordOf("title", "Name", "column_name", "name", "uidt", "SingleLineText"),
	})
	require.NoError(t, err)
	assert.Equal(t, "tasks", table.TableName)
	assert.Equal(t, "tasks", table.Title)

	req, ok := srv.LastRequest("POST", "/api/v1/db/meta/projects/")
	require.True(t, ok)
	assert.JSONEq(t,
		`{"table_name":"tasks","title":"tasks","columns":[{"title":"Name","column_name":"name","uidt":"SingleLineText"}]}`,
		string(req.Body))

	require.NoError(t, c.DeleteTable(ctx, table.ID))
	_, err = c.ResolveTable(ctx, baseID, "tasks")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestColumns(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()
	baseID := srv.AddBase("CRM")
	tableID := srv.AddTable(baseID, "people", "Id")

	col, err := c.AddColumn(ctx, tableID, types.RecordOf("title", "Email", "column_name", "email", "uidt", "Email"))
	require.NoError(t, err)
	assert.Equal(t, "Email", col.Title)
	assert.NotEmpty(t, col.ID)

	cols, err := c.ListColumns(ctx, tableID)
	require.NoError(t, err)
	assert.Len(t, cols, 2)

	require.NoError(t, c.DeleteColumn(ctx, col.ID))
	cols, err = c.ListColumns(ctx, tableID)
	require.NoError(t, err)
	assert.Len(t, cols, 1)

	_, err = c.AddColumn(ctx, tableID, types.RecordOf("uidt", "Number"))
	require.Error(t, err)
	e, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 400, e.StatusCode)
	assert.Equal(t, "Missing column title", e.Message)
}

func TestViews(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()
	baseID := srv.AddBase("CRM")
	tableID := srv.AddTable(baseID, "people", "Id")

	view, err := c.CreateView(ctx, tableID, "Board", types.ViewKanban)
	require.NoError(t, err)
	assert.Equal(t, types.ViewKanban, view.Type)

	views, err := c.ListViews(ctx, tableID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Board", views[1].Title)
}
