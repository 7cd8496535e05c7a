package tools

import (
	"bytes"
	"encoding/json"
)

// Property is a JSON Schema node. Object properties keep declaration
// order when marshalled.
type Property struct {
	Name        string
	Type        string
	Description string
	Enum        []string
	Default     any
	Items       *Property
	Properties  []Property
	Required    []string
	// Open allows properties beyond the declared ones.
	Open bool
}

// MarshalJSON implements json.Marshaler.
func (p Property) MarshalJSON() ([]byte, error) {
	var w objectWriter
	w.field("type", p.Type)
	if p.Description != "" {
		w.field("description", p.Description)
	}
	if len(p.Enum) > 0 {
		w.field("enum", p.Enum)
	}
	if p.Default != nil {
		w.field("default", p.Default)
	}
	if p.Items != nil {
		w.field("items", p.Items)
	}
	if p.Type == "object" && (len(p.Properties) > 0 || !p.Open) {
		var props objectWriter
		for _, child := range p.Properties {
			props.field(child.Name, child)
		}
		data, err := props.bytes()
		if err != nil {
			return nil, err
		}
		w.raw("properties", data)
	}
	if p.Open {
		w.field("additionalProperties", true)
	}
	if len(p.Required) > 0 {
		w.field("required", p.Required)
	}
	return w.bytes()
}

type objectWriter struct {
	buf bytes.Buffer
	err error
}

func (w *objectWriter) field(key string, v any) {
	if w.err != nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		w.err = err
		return
	}
	w.raw(key, data)
}

func (w *objectWriter) raw(key string, data []byte) {
	if w.buf.Len() == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}
	k, _ := json.Marshal(key)
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(data)
}

func (w *objectWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.buf.Len() == 0 {
		return []byte("{}"), nil
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

// Schema builders.

func object(props ...Property) Property {
	return Property{Type: "object", Properties: props}
}

func (p Property) require(names ...string) Property {
	p.Required = names
	return p
}

func str(name, desc string) Property {
	return Property{Name: name, Type: "string", Description: desc}
}

func num(name, desc string) Property {
	return Property{Name: name, Type: "number", Description: desc}
}

func flag(name, desc string) Property {
	return Property{Name: name, Type: "boolean", Description: desc}
}

func list(name, desc string, items Property) Property {
	return Property{Name: name, Type: "array", Description: desc, Items: &items}
}

func openObject(name, desc string) Property {
	return Property{Name: name, Type: "object", Description: desc, Open: true}
}

// Argument names shared across tools.
const (
	argBaseID    = "base_id"
	argTableName = "table_name"
	argTableID   = "table_id"
	argRecordID  = "record_id"
)

var (
	baseIDProp    = str(argBaseID, "The ID of the base/project")
	tableNameProp = str(argTableName, "The name of the table")
	tableIDProp   = str(argTableID, "The ID of the table")
)
