package nocodb

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		name string
		opts types.QueryOptions
		want url.Values
	}{
		{
			name: "empty options send nothing",
			opts: types.QueryOptions{},
			want: url.Values{},
		},
		{
			name: "where passes through verbatim",
			opts: types.QueryOptions{Where: "(status,eq,active)~and(priority,gt,5)"},
			want: url.Values{"where": {"(status,eq,active)~and(priority,gt,5)"}},
		},
		{
			name: "sort and fields are comma joined",
			opts: types.QueryOptions{Sort: []string{"-created_at", "name"}, Fields: []string{"Id", "name"}},
			want: url.Values{"sort": {"-created_at,name"}, "fields": {"Id,name"}},
		},
		{
			name: "single sort token",
			opts: types.QueryOptions{Sort: []string{"-priority"}},
			want: url.Values{"sort": {"-priority"}},
		},
		{
			name: "limit offset and view",
			opts: types.QueryOptions{Limit: 10, Offset: 20, ViewID: "vw_1"},
			want: url.Values{"limit": {"10"}, "offset": {"20"}, "viewId": {"vw_1"}},
		},
		{
			name: "zero limit and offset are omitted",
			opts: types.QueryOptions{Where: "(a,eq,1)", Limit: 0, Offset: 0},
			want: url.Values{"where": {"(a,eq,1)"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeQuery(tt.opts))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b "))
	assert.Equal(t, []string{"-created_at"}, SplitList("-created_at"))
}
