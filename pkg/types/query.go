package types

import "encoding/json"

// QueryOptions narrows a record listing. Zero-valued fields are left out
// of the request entirely.
type QueryOptions struct {
	Where  string   // filter expression, passed through verbatim
	Sort   []string // sort tokens; a leading "-" means descending
	Fields []string // field subset
	Limit  int
	Offset int
	ViewID string
}

// RecordPage is one page of records with the backend's pagination
// metadata, which is passed through uninterpreted.
type RecordPage struct {
	List     []*Record       `json:"list"`
	PageInfo json.RawMessage `json:"pageInfo,omitempty"`
}

// Aggregate function names.
const (
	AggCount = "count"
	AggSum   = "sum"
	AggAvg   = "avg"
	AggMin   = "min"
	AggMax   = "max"
)

// AggregateOptions selects the column, function, and filter of an
// aggregation.
type AggregateOptions struct {
	ColumnName string
	Func       string
	Where      string
}

// Group is one group-by bucket: a distinct raw column value and the
// number of records holding it.
type Group struct {
	Value Value `json:"value"`
	Count int   `json:"count"`
}
