// Package tools exposes the NocoDB client as a catalog of named
// operations for a tool-calling host. Each tool carries a description and
// a JSON input schema; Dispatch decodes arguments, validates required
// keys, fills in the default base, and runs the handler.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"

	"github.com/andrewlwn77/nocodb-mcp/internal/nocodb"
	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// handler runs one tool against a client. raw is the argument object.
type handler func(ctx context.Context, c *nocodb.Client, raw json.RawMessage, defaultBase string) (any, error)

// Tool is one catalog entry. It marshals to the descriptor a host lists.
type Tool struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InputSchema Property `json:"inputSchema"`

	run handler
}

// Catalog is the fixed set of tools bound to one client.
type Catalog struct {
	client      *nocodb.Client
	defaultBase string
	tools       []Tool
	byName      map[string]int
}

// New builds the catalog. defaultBase, when set, is used for tools whose
// base_id argument is omitted.
func New(client *nocodb.Client, defaultBase string) *Catalog {
	c := &Catalog{client: client, defaultBase: defaultBase, byName: map[string]int{}}
	for _, group := range [][]Tool{databaseTools(), tableTools(), recordTools(), viewTools(), queryTools(), attachmentTools()} {
		for _, t := range group {
			c.byName[t.Name] = len(c.tools)
			c.tools = append(c.tools, t)
		}
	}
	return c
}

// Tools returns the catalog in listing order.
func (c *Catalog) Tools() []Tool {
	out := make([]Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

// Lookup returns the tool registered under name.
func (c *Catalog) Lookup(name string) (Tool, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Tool{}, false
	}
	return c.tools[i], true
}

// Dispatch runs the named tool with raw JSON arguments. An unknown name
// fails with ErrNotFound and missing required arguments with
// ErrInvalidArgument, both before any request is made.
func (c *Catalog) Dispatch(ctx context.Context, name string, raw json.RawMessage) (any, error) {
	t, ok := c.Lookup(name)
	if !ok {
		return nil, types.Errorf(types.ErrNotFound, "Tool %s not found", name)
	}
	raw = normalizeArgs(raw)
	if err := c.checkRequired(raw, t.InputSchema.Required); err != nil {
		return nil, err
	}
	return t.run(ctx, c.client, raw, c.defaultBase)
}

func normalizeArgs(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}")
	}
	return trimmed
}

func (c *Catalog) checkRequired(raw json.RawMessage, required []string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return types.Errorf(types.ErrInvalidArgument, "arguments must be a JSON object: %v", err)
	}
	for _, name := range required {
		if name == argBaseID && c.defaultBase != "" {
			continue
		}
		v, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return types.Errorf(types.ErrInvalidArgument, "Missing required argument: %s", name)
		}
	}
	return nil
}

// baseScoped is implemented by argument structs carrying a base_id.
type baseScoped interface {
	useDefaultBase(id string)
}

// baseArg is embedded by arguments addressing a base.
type baseArg struct {
	BaseID string `json:"base_id"`
}

func (b *baseArg) useDefaultBase(id string) {
	if b.BaseID == "" {
		b.BaseID = id
	}
}

// tableArgs address a table by base and name.
type tableArgs struct {
	baseArg
	TableName string `json:"table_name"`
}

// bind adapts a typed handler to the catalog's raw-argument form.
func bind[A any](fn func(ctx context.Context, c *nocodb.Client, args *A) (any, error)) handler {
	return func(ctx context.Context, c *nocodb.Client, raw json.RawMessage, defaultBase string) (any, error) {
		args := new(A)
		if err := json.Unmarshal(raw, args); err != nil {
			return nil, types.Errorf(types.ErrInvalidArgument, "invalid arguments: %v", err)
		}
		if b, ok := any(args).(baseScoped); ok {
			b.useDefaultBase(defaultBase)
		}
		return fn(ctx, c, args)
	}
}

// count is an integer argument that also accepts integral floats and
// numeric strings, as hosts are loose about number types.
type count int

func (n *count) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "null" || s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return types.Errorf(types.ErrInvalidArgument, "expected a number, got %s", data)
	}
	*n = count(f)
	return nil
}

// number is a float result. Infinities have no JSON literal and are
// written as the strings "Infinity" and "-Infinity".
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	case math.IsNaN(f):
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}
