package tools

import (
	"context"

	"github.com/andrewlwn77/nocodb-mcp/internal/nocodb"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

const defaultQueryLimit = 25

func queryTools() []Tool {
	return []Tool{
		{
			Name:        "query",
			Description: "Execute an advanced query with filtering, sorting, and field selection",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				str("where", `Filter condition using NocoDB syntax (e.g., "(status,eq,active)~and(priority,gt,5)")`),
				list("sort", "Array of sort fields (prefix with - for descending)", Property{Type: "string"}),
				list("fields", "Array of fields to return", Property{Type: "string"}),
				withDefault(num("limit", "Number of records to return"), defaultQueryLimit),
				withDefault(num("offset", "Number of records to skip"), 0),
			).require(argBaseID, argTableName),
			run: bind(runQuery),
		},
		{
			Name:        "aggregate",
			Description: "Perform aggregation operations on a column",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				str("column_name", "The column to aggregate"),
				Property{
					Name:        "function",
					Type:        "string",
					Description: "Aggregation function",
					Enum:        []string{types.AggCount, types.AggSum, types.AggAvg, types.AggMin, types.AggMax},
				},
				str("where", "Optional filter condition"),
			).require(argBaseID, argTableName, "column_name", "function"),
			run: bind(runAggregate),
		},
		{
			Name:        "group_by",
			Description: "Group records by a column and get counts",
			InputSchema: object(
				baseIDProp,
				tableNameProp,
				str("column_name", "The column to group by"),
				str("where", "Optional filter condition"),
				str("sort", "Sort order for groups"),
				num("limit", "Maximum number of groups to return"),
				num("offset", "Number of groups to skip"),
			).require(argBaseID, argTableName, "column_name"),
			run: bind(runGroupBy),
		},
	}
}

func withDefault(p Property, v any) Property {
	p.Default = v
	return p
}

type queryArgs struct {
	tableArgs
	Where  string   `json:"where,omitempty"`
	Sort   []string `json:"sort,omitempty"`
	Fields []string `json:"fields,omitempty"`
	Limit  *count   `json:"limit,omitempty"`
	Offset *count   `json:"offset,omitempty"`
}

// runQuery lists one page with array-valued sort and fields. A missing or
// zero limit means 25.
func runQuery(ctx context.Context, c *nocodb.Client, args *queryArgs) (any, error) {
	opts := types.QueryOptions{
		Where:  args.Where,
		Sort:   args.Sort,
		Fields: args.Fields,
		Limit:  defaultQueryLimit,
	}
	if args.Limit != nil && *args.Limit != 0 {
		opts.Limit = int(*args.Limit)
	}
	if args.Offset != nil {
		opts.Offset = int(*args.Offset)
	}

	page, err := c.ListRecords(ctx, args.BaseID, args.TableName, opts)
	if err != nil {
		return nil, err
	}
	return struct {
		recordPage
		Query queryEcho `json:"query"`
	}{newRecordPage(page), queryEcho{args.Where, args.Sort, args.Fields, args.Limit, args.Offset}}, nil
}

// queryEcho repeats the caller's query arguments as given.
type queryEcho struct {
	Where  string   `json:"where,omitempty"`
	Sort   []string `json:"sort,omitempty"`
	Fields []string `json:"fields,omitempty"`
	Limit  *count   `json:"limit,omitempty"`
	Offset *count   `json:"offset,omitempty"`
}

type aggregateArgs struct {
	tableArgs
	ColumnName string `json:"column_name"`
	Function   string `json:"function"`
	Where      string `json:"where"`
}

func runAggregate(ctx context.Context, c *nocodb.Client, args *aggregateArgs) (any, error) {
	v, err := c.Aggregate(ctx, args.BaseID, args.TableName, types.AggregateOptions{
		ColumnName: args.ColumnName,
		Func:       args.Function,
		Where:      args.Where,
	})
	if err != nil {
		return nil, err
	}
	type aggregation struct {
		Column   string `json:"column"`
		Function string `json:"function"`
		Where    string `json:"where,omitempty"`
	}
	return struct {
		Value       number      `json:"value"`
		Aggregation aggregation `json:"aggregation"`
	}{number(v), aggregation{args.ColumnName, args.Function, args.Where}}, nil
}

type groupByArgs struct {
	tableArgs
	ColumnName string `json:"column_name"`
	Where      string `json:"where"`
	Sort       string `json:"sort"`
	Limit      count  `json:"limit"`
	Offset     count  `json:"offset"`
}

func runGroupBy(ctx context.Context, c *nocodb.Client, args *groupByArgs) (any, error) {
	groups, err := c.GroupBy(ctx, args.BaseID, args.TableName, args.ColumnName, types.QueryOptions{
		Where:  args.Where,
		Sort:   nocodb.SplitList(args.Sort),
		Limit:  int(args.Limit),
		Offset: int(args.Offset),
	})
	if err != nil {
		return nil, err
	}
	return struct {
		Groups []types.Group `json:"groups"`
		Count  int           `json:"count"`
		Column string        `json:"column"`
	}{groups, len(groups), args.ColumnName}, nil
}
