package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Base is a top-level NocoDB project holding tables.
type Base struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Table is a named collection of columns and records owned by a Base.
// Columns is populated only when the full table definition is read.
type Table struct {
	ID        string   `json:"id"`
	BaseID    string   `json:"base_id,omitempty"`
	TableName string   `json:"table_name"`
	Title     string   `json:"title"`
	Type      string   `json:"type,omitempty"`
	Enabled   Flag     `json:"enabled"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
	Columns   []Column `json:"columns,omitempty"`
}

// Column is a typed field definition of a Table.
type Column struct {
	ID         string          `json:"id"`
	BaseID     string          `json:"base_id,omitempty"`
	FkModelID  string          `json:"fk_model_id,omitempty"`
	Title      string          `json:"title"`
	ColumnName string          `json:"column_name"`
	UIDT       string          `json:"uidt"`
	DT         string          `json:"dt,omitempty"`
	NP         json.Number     `json:"np,omitempty"`
	NS         json.Number     `json:"ns,omitempty"`
	PK         Flag            `json:"pk"`
	PV         Flag            `json:"pv"`
	RQD        Flag            `json:"rqd"`
	UN         Flag            `json:"un"`
	AI         Flag            `json:"ai"`
	Unique     Flag            `json:"unique"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	CreatedAt  string          `json:"created_at,omitempty"`
	UpdatedAt  string          `json:"updated_at,omitempty"`
}

// View is a saved presentation of a table's records. Type codes:
// 1 grid, 2 gallery, 3 form, 4 kanban, 5 calendar.
type View struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Type             int    `json:"type"`
	FkModelID        string `json:"fk_model_id,omitempty"`
	ShowSystemFields Flag   `json:"show_system_fields"`
	LockType         string `json:"lock_type,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

// View type codes.
const (
	ViewGrid     = 1
	ViewGallery  = 2
	ViewForm     = 3
	ViewKanban   = 4
	ViewCalendar = 5
)

// Flag is a boolean column attribute. Depending on the database behind
// the backend it arrives as a JSON boolean, 0/1, a numeric string, or null.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch s {
	case "", "null", "false", "0":
		*f = false
		return nil
	case "true", "1":
		*f = true
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid flag value %s", data)
	}
	*f = n != 0
	return nil
}
