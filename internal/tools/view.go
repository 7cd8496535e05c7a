package tools

import (
	"context"

	"github.com/andrewlwn77/nocodb-mcp/internal/nocodb"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

type viewSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Type             int    `json:"type"`
	FkModelID        string `json:"fk_model_id,omitempty"`
	ShowSystemFields *bool  `json:"show_system_fields,omitempty"`
	LockType         string `json:"lock_type,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

func viewTools() []Tool {
	return []Tool{
		{
			Name:        "list_views",
			Description: "List all views for a table",
			InputSchema: object(tableIDProp).require(argTableID),
			run:         bind(listViews),
		},
		{
			Name:        "create_view",
			Description: "Create a new view for a table",
			InputSchema: object(
				tableIDProp,
				str("title", "Title of the new view"),
				withDefault(num("type", "Type of view (1=Grid, 2=Gallery, 3=Form, 4=Kanban, 5=Calendar)"), types.ViewGrid),
			).require(argTableID, "title"),
			run: bind(createView),
		},
		{
			Name:        "get_view_data",
			Description: "Get records from a specific view",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				str("view_id", "The ID of the view"),
				num("limit", "Number of records to return"),
				num("offset", "Number of records to skip"),
			).require(argBaseID, argTableName, "view_id"),
			run: bind(getViewData),
		},
	}
}

func listViews(ctx context.Context, c *nocodb.Client, args *tableIDArgs) (any, error) {
	views, err := c.ListViews(ctx, args.TableID)
	if err != nil {
		return nil, err
	}
	out := make([]viewSummary, len(views))
	for i, v := range views {
		show := bool(v.ShowSystemFields)
		out[i] = viewSummary{
			ID:               v.ID,
			Title:            v.Title,
			Type:             v.Type,
			FkModelID:        v.FkModelID,
			ShowSystemFields: &show,
			LockType:         v.LockType,
			CreatedAt:        v.CreatedAt,
			UpdatedAt:        v.UpdatedAt,
		}
	}
	return struct {
		Views []viewSummary `json:"views"`
		Count int           `json:"count"`
	}{out, len(out)}, nil
}

type createViewArgs struct {
	TableID string `json:"table_id"`
	Title   string `json:"title"`
	Type    count  `json:"type"`
}

func createView(ctx context.Context, c *nocodb.Client, args *createViewArgs) (any, error) {
	viewType := int(args.Type)
	if viewType == 0 {
		viewType = types.ViewGrid
	}
	v, err := c.CreateView(ctx, args.TableID, args.Title, viewType)
	if err != nil {
		return nil, err
	}
	return struct {
		View    viewSummary `json:"view"`
		Message string      `json:"message"`
	}{
		viewSummary{ID: v.ID, Title: v.Title, Type: v.Type, FkModelID: v.FkModelID, CreatedAt: v.CreatedAt, UpdatedAt: v.UpdatedAt},
		"View '" + v.Title + "' created successfully",
	}, nil
}

type viewDataArgs struct {
	tableArgs
	ViewID string `json:"view_id"`
	Limit  count  `json:"limit"`
	Offset count  `json:"offset"`
}

func getViewData(ctx context.Context, c *nocodb.Client, args *viewDataArgs) (any, error) {
	page, err := c.ListRecords(ctx, args.BaseID, args.TableName, types.QueryOptions{
		ViewID: args.ViewID,
		Limit:  int(args.Limit),
		Offset: int(args.Offset),
	})
	if err != nil {
		return nil, err
	}
	return struct {
		recordPage
		ViewID string `json:"view_id"`
	}{newRecordPage(page), args.ViewID}, nil
}
