package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Tool is a client-side tool the model can invoke.
type Tool interface {
	Schema() *ToolSchema
	Run(ctx context.Context, input json.RawMessage) (out []byte, err error)
}

// ToolSchema describes a tool to the model. Field names follow the wire
// format.
type ToolSchema struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitzero"`
	InputSchema *InputSchema `json:"input_schema"`
}

// InputSchema is the JSON schema of a tool's input.
type InputSchema struct {
	Type       string               `json:"type"`
	Properties map[string]*Property `json:"properties"`
	Required   []string             `json:"required,omitzero"`
}

// Property is a single field of a tool's input schema.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitzero"`
	Enum        []string  `json:"enum,omitzero"`
	Items       *Property `json:"items,omitzero"`
}

// Func creates a typed tool with automatic JSON marshaling. The input
// schema is generated from In's struct tags:
//   - `json:"fieldname"` - JSON field name
//   - `description:"text"` - field description for the schema
//   - `enums:"a,b,c"` - allowed values (comma-separated)
//   - `is:"required"` - marks field as required (presence only, no value)
func Func[In, Out any](name, description string, run func(ctx context.Context, in In) (Out, error)) Tool {
	return &typedFunc[In, Out]{
		name:        name,
		description: description,
		run:         run,
	}
}

type typedFunc[In, Out any] struct {
	name        string
	description string
	run         func(ctx context.Context, in In) (Out, error)
}

func (t *typedFunc[In, Out]) Schema() *ToolSchema {
	var in In
	return &ToolSchema{
		Name:        t.name,
		Description: strings.TrimSpace(t.description),
		InputSchema: generateSchema(in),
	}
}

func (t *typedFunc[In, Out]) Run(ctx context.Context, input json.RawMessage) ([]byte, error) {
	var in In
	if len(input) > 0 {
		if err := json.Unmarshal(input, &in); err != nil {
			return nil, fmt.Errorf("tool %s: unmarshaling input: %w", t.name, err)
		}
	}
	out, err := t.run(ctx, in)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// generateSchema creates an InputSchema from a struct type.
func generateSchema(v any) *InputSchema {
	schema := &InputSchema{
		Type:       "object",
		Properties: make(map[string]*Property),
		Required:   []string{},
	}

	t := reflect.TypeOf(v)
	if t == nil {
		return schema
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return schema
	}

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" && parts[0] != "-" {
				name = parts[0]
			}
		}

		prop := schemaType(field.Type)
		prop.Description = field.Tag.Get("description")
		if enumTag := field.Tag.Get("enums"); enumTag != "" {
			prop.Enum = strings.Split(enumTag, ",")
		}
		schema.Properties[name] = prop

		if field.Tag.Get("is") == "required" {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

func schemaType(t reflect.Type) *Property {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	prop := &Property{Type: "string"}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		prop.Type = "integer"
	case reflect.Float32, reflect.Float64:
		prop.Type = "number"
	case reflect.Bool:
		prop.Type = "boolean"
	case reflect.Slice, reflect.Array:
		prop.Type = "array"
		prop.Items = schemaType(t.Elem())
	case reflect.Struct, reflect.Map:
		prop.Type = "object"
	}

	return prop
}
