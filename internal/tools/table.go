package tools

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/andrewlwn77/nocodb-mcp/internal/nocodb"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

const uidtDescription = "UI Data Type - Basic: SingleLineText, LongText, Number, Decimal, Currency, Percent | " +
	"Date/Time: Date, DateTime, Duration | Boolean: Checkbox | Select: SingleSelect, MultiSelect | " +
	"Advanced: Attachment, JSON, Email, PhoneNumber, URL, Rating | " +
	"Virtual/Computed: Formula, Rollup, Lookup, QrCode, Barcode | Relational: Link, Links"

type tableSummary struct {
	ID        string `json:"id"`
	TableName string `json:"table_name"`
	Title     string `json:"title"`
	Type      string `json:"type,omitempty"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func summarizeTable(t types.Table) tableSummary {
	return tableSummary{
		ID:        t.ID,
		TableName: t.TableName,
		Title:     t.Title,
		Type:      t.Type,
		Enabled:   bool(t.Enabled),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

type columnSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ColumnName string `json:"column_name"`
	UIDT       string `json:"uidt"`
	DT         string `json:"dt,omitempty"`
	PK         bool   `json:"pk"`
	PV         bool   `json:"pv"`
	RQD        bool   `json:"rqd"`
	Unique     bool   `json:"unique"`
	AI         bool   `json:"ai"`
}

func summarizeColumn(c types.Column) columnSummary {
	return columnSummary{
		ID:         c.ID,
		Title:      c.Title,
		ColumnName: c.ColumnName,
		UIDT:       c.UIDT,
		DT:         c.DT,
		PK:         bool(c.PK),
		PV:         bool(c.PV),
		RQD:        bool(c.RQD),
		Unique:     bool(c.Unique),
		AI:         bool(c.AI),
	}
}

func summarizeColumns(cols []types.Column) []columnSummary {
	out := make([]columnSummary, len(cols))
	for i, c := range cols {
		out[i] = summarizeColumn(c)
	}
	return out
}

func columnDefinitionSchema() Property {
	return object(
		str("title", "Column display name"),
		str("column_name", "Column name in database"),
		str("uidt", uidtDescription),
		str("dt", "Database data type"),
		flag("pk", "Is primary key"),
		flag("rqd", "Is required field"),
		flag("unique", "Is unique constraint"),
		flag("ai", "Is auto increment"),
		openObject("meta", "Additional metadata for specific column types (e.g., options for SingleSelect/MultiSelect, reference columns for QrCode/Barcode)"),
	).require("title", "uidt")
}

func columnMetaSchema() Property {
	option := object(
		str("title", "Option label"),
		str("color", "Option color in hex format (e.g., #FF5733)"),
	).require("title")

	meta := object(
		list("options", "Options for SingleSelect/MultiSelect columns", option),
		str("fk_barcode_value_column_id", "Required for Barcode column - ID of the column containing the value to encode"),
		str("fk_qr_value_column_id", "Required for QrCode column - ID of the column containing the value to encode"),
		str("barcode_format", "Barcode format for Barcode columns (e.g., CODE128, EAN, EAN-13, EAN-8, EAN-5, EAN-2, UPC, CODE39, ITF-14, MSI, Pharmacode, Codabar)"),
		str("currency_code", "Currency code for Currency columns (e.g., USD, EUR, GBP)"),
	)
	meta.Name = "meta"
	meta.Description = "Additional metadata for specific column types"
	return meta
}

func tableTools() []Tool {
	return []Tool{
		{
			Name:        "list_tables",
			Description: "List all tables in a base",
			InputSchema: object(baseIDProp).require(argBaseID),
			run:         bind(listTables),
		},
		{
			Name:        "get_table_info",
			Description: "Get detailed information about a table including its schema",
			InputSchema: object(tableIDProp).require(argTableID),
			run:         bind(getTableInfo),
		},
		{
			Name:        "create_table",
			Description: "Create a new table in a base with specified columns. Supports various column types including SingleSelect (with options), PhoneNumber, QrCode, and Barcode.",
			InputSchema: object(
				baseIDProp,
				str(argTableName, "Name of the new table"),
				list("columns", "Array of column definitions", columnDefinitionSchema()),
			).require(argBaseID, argTableName, "columns"),
			run: bind(createTable),
		},
		{
			Name:        "delete_table",
			Description: "Delete a table from the database",
			InputSchema: object(str(argTableID, "The ID of the table to delete")).require(argTableID),
			run:         bind(deleteTable),
		},
		{
			Name:        "list_columns",
			Description: "List all columns of a table",
			InputSchema: object(tableIDProp).require(argTableID),
			run:         bind(listColumns),
		},
		{
			Name:        "add_column",
			Description: "Add a new column to an existing table. For SingleSelect: provide options in meta. For QrCode/Barcode: provide reference column ID. PhoneNumber uses standard text storage.",
			InputSchema: object(
				str(argTableID, "The ID of the table to add column to"),
				str("title", "Display name of the column"),
				str("column_name", "Database column name (optional, will be generated from title if not provided)"),
				str("uidt", uidtDescription),
				str("dt", "Database data type (optional)"),
				flag("pk", "Is primary key (default: false)"),
				flag("rqd", "Is required field (default: false)"),
				flag("unique", "Has unique constraint (default: false)"),
				flag("ai", "Is auto increment (default: false)"),
				flag("un", "Is unsigned number (default: false)"),
				str("cdf", "Column default value"),
				str("dtx", "Date format for Date/DateTime columns"),
				num("np", "Numeric precision (for Number/Decimal types)"),
				num("ns", "Numeric scale (for Decimal type)"),
				columnMetaSchema(),
			).require(argTableID, "title", "uidt"),
			run: bind(addColumn),
		},
		{
			Name:        "delete_column",
			Description: "Delete a column from a table",
			InputSchema: object(str("column_id", "The ID of the column to delete")).require("column_id"),
			run:         bind(deleteColumn),
		},
	}
}

func listTables(ctx context.Context, c *nocodb.Client, args *baseArg) (any, error) {
	tables, err := c.ListTables(ctx, args.BaseID)
	if err != nil {
		return nil, err
	}
	out := make([]tableSummary, len(tables))
	for i, t := range tables {
		out[i] = summarizeTable(t)
	}
	return struct {
		Tables []tableSummary `json:"tables"`
		Count  int            `json:"count"`
	}{out, len(out)}, nil
}

type tableIDArgs struct {
	TableID string `json:"table_id"`
}

// getTableInfo reads the table definition and its columns concurrently.
func getTableInfo(ctx context.Context, c *nocodb.Client, args *tableIDArgs) (any, error) {
	var (
		table   *types.Table
		columns []types.Column
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		table, err = c.GetTable(gctx, args.TableID)
		return err
	})
	g.Go(func() error {
		var err error
		columns, err = c.ListColumns(gctx, args.TableID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return struct {
		Table   tableSummary    `json:"table"`
		Columns []columnSummary `json:"columns"`
	}{summarizeTable(*table), summarizeColumns(columns)}, nil
}

type createTableArgs struct {
	baseArg
	TableName string          `json:"table_name"`
	Columns   []*types.Record `json:"columns"`
}

func createTable(ctx context.Context, c *nocodb.Client, args *createTableArgs) (any, error) {
	table, err := c.CreateTable(ctx, args.BaseID, args.TableName, args.Columns)
	if err != nil {
		return nil, err
	}
	return struct {
		Table   tableSummary `json:"table"`
		Message string       `json:"message"`
	}{summarizeTable(*table), "Table '" + table.Title + "' created successfully"}, nil
}

func deleteTable(ctx context.Context, c *nocodb.Client, args *tableIDArgs) (any, error) {
	if err := c.DeleteTable(ctx, args.TableID); err != nil {
		return nil, err
	}
	return struct {
		Message string `json:"message"`
		TableID string `json:"table_id"`
	}{"Table deleted successfully", args.TableID}, nil
}

func listColumns(ctx context.Context, c *nocodb.Client, args *tableIDArgs) (any, error) {
	columns, err := c.ListColumns(ctx, args.TableID)
	if err != nil {
		return nil, err
	}
	return struct {
		Columns []columnSummary `json:"columns"`
		Count   int             `json:"count"`
	}{summarizeColumns(columns), len(columns)}, nil
}

type addColumnArgs struct {
	TableID    string        `json:"table_id"`
	Title      string        `json:"title"`
	ColumnName string        `json:"column_name"`
	UIDT       string        `json:"uidt"`
	DT         string        `json:"dt"`
	PK         *bool         `json:"pk"`
	RQD        *bool         `json:"rqd"`
	Unique     *bool         `json:"unique"`
	AI         *bool         `json:"ai"`
	UN         *bool         `json:"un"`
	CDF        *types.Value  `json:"cdf"`
	DTX        string        `json:"dtx"`
	NP         *json.Number  `json:"np"`
	NS         *json.Number  `json:"ns"`
	Meta       *types.Record `json:"meta"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// columnName derives a database column name from a title.
func columnName(title string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(title), "_")
}

// columnDefinition builds the request body for add_column. Optional keys
// are sent only when given. QrCode and Barcode reference ids travel at the
// root of the definition rather than inside meta.
func (a *addColumnArgs) columnDefinition() *types.Record {
	name := a.ColumnName
	if name == "" {
		name = columnName(a.Title)
	}
	def := types.NewRecord().
		Set("title", types.String(a.Title)).
		Set("column_name", types.String(name)).
		Set("uidt", types.String(a.UIDT))
	if a.DT != "" {
		def.Set("dt", types.String(a.DT))
	}
	for _, opt := range []struct {
		key string
		v   *bool
	}{{"pk", a.PK}, {"rqd", a.RQD}, {"unique", a.Unique}, {"ai", a.AI}, {"un", a.UN}} {
		if opt.v != nil {
			def.Set(opt.key, types.Bool(*opt.v))
		}
	}
	if a.CDF != nil {
		def.Set("cdf", *a.CDF)
	}
	if a.DTX != "" {
		def.Set("dtx", types.String(a.DTX))
	}
	if a.NP != nil {
		def.Set("np", types.Number(*a.NP))
	}
	if a.NS != nil {
		def.Set("ns", types.Number(*a.NS))
	}

	qrRef := metaValue(a.Meta, "fk_qr_value_column_id")
	barcodeRef := metaValue(a.Meta, "fk_barcode_value_column_id")
	switch {
	case a.UIDT == "QrCode" && truthy(qrRef):
		def.Set("fk_qr_value_column_id", qrRef)
	case a.UIDT == "Barcode" && truthy(barcodeRef):
		def.Set("fk_barcode_value_column_id", barcodeRef)
		if format := metaValue(a.Meta, "barcode_format"); truthy(format) {
			def.Set("barcode_format", format)
		}
	case a.Meta != nil:
		def.Set("meta", types.Object(a.Meta))
	}
	return def
}

func metaValue(meta *types.Record, key string) types.Value {
	v, _ := meta.Get(key)
	return v
}

// truthy reports whether v is set to something other than null, false,
// zero or the empty string.
func truthy(v types.Value) bool {
	switch v.Kind() {
	case types.KindNull:
		return false
	case types.KindBool:
		b, _ := v.BoolValue()
		return b
	case types.KindString:
		s, _ := v.StringValue()
		return s != ""
	case types.KindNumber:
		return v.Float64() != 0
	}
	return true
}

func addColumn(ctx context.Context, c *nocodb.Client, args *addColumnArgs) (any, error) {
	col, err := c.AddColumn(ctx, args.TableID, args.columnDefinition())
	if err != nil {
		return nil, err
	}
	return struct {
		Column  addedColumn `json:"column"`
		Message string      `json:"message"`
	}{
		addedColumn{
			ID: col.ID, Title: col.Title, ColumnName: col.ColumnName, UIDT: col.UIDT, DT: col.DT,
			PK: bool(col.PK), RQD: bool(col.RQD), Unique: bool(col.Unique), AI: bool(col.AI),
		},
		"Column '" + col.Title + "' added successfully to table",
	}, nil
}

type addedColumn struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ColumnName string `json:"column_name"`
	UIDT       string `json:"uidt"`
	DT         string `json:"dt,omitempty"`
	PK         bool   `json:"pk"`
	RQD        bool   `json:"rqd"`
	Unique     bool   `json:"unique"`
	AI         bool   `json:"ai"`
}

type columnIDArgs struct {
	ColumnID string `json:"column_id"`
}

func deleteColumn(ctx context.Context, c *nocodb.Client, args *columnIDArgs) (any, error) {
	if err := c.DeleteColumn(ctx, args.ColumnID); err != nil {
		return nil, err
	}
	return struct {
		Message  string `json:"message"`
		ColumnID string `json:"column_id"`
	}{"Column deleted successfully", args.ColumnID}, nil
}
