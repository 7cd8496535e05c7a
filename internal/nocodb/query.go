package nocodb

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// encodeQuery converts opts to the records endpoint's query parameters.
// The filter is passed verbatim, sort and field lists are comma-joined,
// and unset options are omitted rather than sent empty.
func encodeQuery(opts types.QueryOptions) url.Values {
	q := url.Values{}
	if opts.Where != "" {
		q.Set("where", opts.Where)
	}
	if sort := strings.Join(opts.Sort, ","); sort != "" {
		q.Set("sort", sort)
	}
	if fields := strings.Join(opts.Fields, ","); fields != "" {
		q.Set("fields", fields)
	}
	if opts.Limit != 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset != 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.ViewID != "" {
		q.Set("viewId", opts.ViewID)
	}
	return q
}

// SplitList turns a comma-separated option string into a token list,
// dropping blanks. An empty string yields nil.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
