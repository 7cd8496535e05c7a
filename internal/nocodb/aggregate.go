package nocodb

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// The backend's own search and aggregate endpoints differ between versions,
// so these operations fetch a single page and compute locally. They never
// paginate past that page.

// SearchRecords lists one page under opts and keeps the records where some
// field's text contains query, ignoring case. The returned page info is the
// unfiltered page's, so its counts describe the page that was searched,
// not the matches.
func (c *Client) SearchRecords(ctx context.Context, baseID, tableName, query string, opts types.QueryOptions) (*types.RecordPage, error) {
	page, err := c.ListRecords(ctx, baseID, tableName, opts)
	if err != nil {
		return nil, err
	}
	return &types.RecordPage{
		List:     filterRecords(page.List, query),
		PageInfo: page.PageInfo,
	}, nil
}

// Aggregate computes fn over column for the records matching opts.Where.
// Only the filter is sent; the backend's default page is what gets
// aggregated. Values are coerced with Value.Float64. Over no records avg is
// 0, min is +Inf and max is -Inf.
func (c *Client) Aggregate(ctx context.Context, baseID, tableName string, opts types.AggregateOptions) (float64, error) {
	if !supportedAggregate(opts.Func) {
		return 0, types.Errorf(types.ErrUnsupportedAggregate, "Unknown aggregate function: %s", opts.Func)
	}
	page, err := c.ListRecords(ctx, baseID, tableName, types.QueryOptions{Where: opts.Where})
	if err != nil {
		return 0, err
	}
	return aggregate(page.List, opts.ColumnName, opts.Func)
}

// GroupBy counts records per distinct raw value of column over the one
// page fetched under opts. opts.Limit and opts.Offset bound that fetch and
// are then applied again to the sorted groups. When opts.Sort is set, its
// first token's "-" prefix orders groups by value descending, otherwise
// ascending. Without a sort, groups keep first-seen order.
func (c *Client) GroupBy(ctx context.Context, baseID, tableName, column string, opts types.QueryOptions) ([]types.Group, error) {
	page, err := c.ListRecords(ctx, baseID, tableName, opts)
	if err != nil {
		return nil, err
	}
	return groupRecords(page.List, column, opts), nil
}

func filterRecords(records []*types.Record, query string) []*types.Record {
	needle := strings.ToLower(query)
	out := make([]*types.Record, 0, len(records))
	for _, rec := range records {
		matched := false
		rec.Range(func(_ string, v types.Value) bool {
			matched = strings.Contains(strings.ToLower(v.String()), needle)
			return !matched
		})
		if matched {
			out = append(out, rec)
		}
	}
	return out
}

func supportedAggregate(fn string) bool {
	switch fn {
	case types.AggCount, types.AggSum, types.AggAvg, types.AggMin, types.AggMax:
		return true
	}
	return false
}

func aggregate(records []*types.Record, column, fn string) (float64, error) {
	if fn == types.AggCount {
		return float64(len(records)), nil
	}

	values := make([]float64, len(records))
	for i, rec := range records {
		v, _ := rec.Get(column)
		values[i] = v.Float64()
	}

	switch fn {
	case types.AggSum:
		return sum(values), nil
	case types.AggAvg:
		if len(values) == 0 {
			return 0, nil
		}
		return sum(values) / float64(len(values)), nil
	case types.AggMin:
		m := math.Inf(1)
		for _, v := range values {
			m = math.Min(m, v)
		}
		return m, nil
	case types.AggMax:
		m := math.Inf(-1)
		for _, v := range values {
			m = math.Max(m, v)
		}
		return m, nil
	}
	return 0, types.Errorf(types.ErrUnsupportedAggregate, "Unknown aggregate function: %s", fn)
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// groupRecords buckets records by column value. Equality is by kind and
// content, so 1 and "1" land in different groups. A missing field groups
// with null.
func groupRecords(records []*types.Record, column string, opts types.QueryOptions) []types.Group {
	groups := []types.Group{}
	for _, rec := range records {
		v, _ := rec.Get(column)
		found := false
		for i := range groups {
			if groups[i].Value.Equal(v) {
				groups[i].Count++
				found = true
				break
			}
		}
		if !found {
			groups = append(groups, types.Group{Value: v, Count: 1})
		}
	}

	if len(opts.Sort) > 0 {
		desc := strings.HasPrefix(opts.Sort[0], "-")
		sort.SliceStable(groups, func(i, j int) bool {
			cmp := types.Compare(groups[i].Value, groups[j].Value)
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	return sliceGroups(groups, opts.Offset, opts.Limit)
}

// sliceGroups applies offset and limit to the group list. A zero limit
// means no limit.
func sliceGroups(groups []types.Group, offset, limit int) []types.Group {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(groups) {
		return []types.Group{}
	}
	end := len(groups)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return groups[offset:end]
}
