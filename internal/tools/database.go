package tools

import (
	"context"

	"github.com/andrewlwn77/nocodb-mcp/internal/nocodb"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

type baseSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func summarizeBase(b types.Base) baseSummary {
	return baseSummary{ID: b.ID, Title: b.Title, Status: b.Status, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt}
}

func databaseTools() []Tool {
	return []Tool{
		{
			Name:        "list_bases",
			Description: "List all available NocoDB bases/projects",
			InputSchema: object(),
			run:         bind(listBases),
		},
		{
			Name:        "get_base_info",
			Description: "Get detailed information about a specific base/project",
			InputSchema: object(baseIDProp).require(argBaseID),
			run:         bind(getBaseInfo),
		},
	}
}

type noArgs struct{}

func listBases(ctx context.Context, c *nocodb.Client, _ *noArgs) (any, error) {
	bases, err := c.ListBases(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]baseSummary, len(bases))
	for i, b := range bases {
		out[i] = summarizeBase(b)
	}
	return struct {
		Bases []baseSummary `json:"bases"`
		Count int           `json:"count"`
	}{out, len(out)}, nil
}

func getBaseInfo(ctx context.Context, c *nocodb.Client, args *baseArg) (any, error) {
	base, err := c.GetBase(ctx, args.BaseID)
	if err != nil {
		return nil, err
	}
	return struct {
		Base baseSummary `json:"base"`
	}{summarizeBase(*base)}, nil
}
