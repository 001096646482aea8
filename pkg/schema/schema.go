package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// FieldType enumerates the value types a field can be declared with.
type FieldType int

const (
	TypeString FieldType = iota
	TypeText
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeDate
	TypeDatetime
	TypeJSON
	TypeArray
	TypeBinary
)

var fieldTypeNames = map[FieldType]string{
	TypeString:   "string",
	TypeText:     "text",
	TypeInteger:  "integer",
	TypeFloat:    "float",
	TypeBoolean:  "boolean",
	TypeDate:     "date",
	TypeDatetime: "datetime",
	TypeJSON:     "json",
	TypeArray:    "array",
	TypeBinary:   "binary",
}

// String returns the lowercase name the type is declared with.
func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("fieldtype(%d)", int(t))
}

// ParseFieldType maps a declared type name onto a FieldType.
func ParseFieldType(name string) (FieldType, error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for t, n := range fieldTypeNames {
		if n == lowered {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown field type %q", ErrInvalidSchema, name)
}

// Errors reported while loading definitions or shaping values against
// them. Both are matched with errors.Is by the HTTP layer.
var (
	ErrInvalidSchema = errors.New("invalid schema definition")
	ErrInvalidValue  = errors.New("value does not match schema")
)

// FieldSpec is the parsed declaration of one field.
type FieldSpec struct {
	Type          FieldType `json:"type"`
	Required      bool      `json:"required,omitempty"`
	Unique        bool      `json:"unique,omitempty"`
	Index         bool      `json:"index,omitempty"`
	PrimaryKey    bool      `json:"primaryKey,omitempty"`
	AutoIncrement bool      `json:"autoIncrement,omitempty"`
	// Collection marks the field as an association to another collection.
	// Association fields are bookkeeping only and never get an index.
	Collection string `json:"collection,omitempty"`
}

// Schema is the validated set of field declarations for one collection.
// Fields not present in the schema are passed through untouched, so an
// empty schema behaves like a schemaless collection.
type Schema struct {
	fields map[string]FieldSpec
}

// Parse validates a raw definition, as decoded from JSON, into a Schema.
// Each field is either a bare type name ("string") or a map of known
// properties: type, required, unique, index, primaryKey, autoIncrement,
// collection. Anything else fails the load.
func Parse(def map[string]interface{}) (*Schema, error) {
	s := &Schema{fields: make(map[string]FieldSpec, len(def))}
	for name, raw := range def {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrInvalidSchema)
		}
		spec, err := parseFieldSpec(name, raw)
		if err != nil {
			return nil, err
		}
		s.fields[name] = spec
	}
	return s, nil
}

func parseFieldSpec(name string, raw interface{}) (FieldSpec, error) {
	switch v := raw.(type) {
	case string:
		t, err := ParseFieldType(v)
		if err != nil {
			return FieldSpec{}, fmt.Errorf("field %q: %w", name, err)
		}
		return FieldSpec{Type: t}, nil
	case map[string]interface{}:
		return parseFieldProps(name, v)
	default:
		return FieldSpec{}, fmt.Errorf("%w: field %q must be a type name or a property map, got %T", ErrInvalidSchema, name, raw)
	}
}

func parseFieldProps(name string, props map[string]interface{}) (FieldSpec, error) {
	var spec FieldSpec
	typed := false

	for prop, val := range props {
		switch prop {
		case "type":
			str, ok := val.(string)
			if !ok {
				return FieldSpec{}, fmt.Errorf("%w: field %q: type must be a string, got %T", ErrInvalidSchema, name, val)
			}
			t, err := ParseFieldType(str)
			if err != nil {
				return FieldSpec{}, fmt.Errorf("field %q: %w", name, err)
			}
			spec.Type = t
			typed = true
		case "required", "unique", "index", "primaryKey", "autoIncrement":
			b, ok := val.(bool)
			if !ok {
				return FieldSpec{}, fmt.Errorf("%w: field %q: property %q must be a boolean, got %T", ErrInvalidSchema, name, prop, val)
			}
			switch prop {
			case "required":
				spec.Required = b
			case "unique":
				spec.Unique = b
			case "index":
				spec.Index = b
			case "primaryKey":
				spec.PrimaryKey = b
			case "autoIncrement":
				spec.AutoIncrement = b
			}
		case "collection":
			str, ok := val.(string)
			if !ok {
				return FieldSpec{}, fmt.Errorf("%w: field %q: collection must be a string, got %T", ErrInvalidSchema, name, val)
			}
			spec.Collection = strings.ToLower(str)
		default:
			return FieldSpec{}, fmt.Errorf("%w: field %q: unknown property %q", ErrInvalidSchema, name, prop)
		}
	}

	if !typed && spec.Collection == "" {
		return FieldSpec{}, fmt.Errorf("%w: field %q: missing type", ErrInvalidSchema, name)
	}
	return spec, nil
}

// Field returns the declaration for name, if there is one.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	if s == nil {
		return FieldSpec{}, false
	}
	spec, ok := s.fields[name]
	return spec, ok
}

// FieldNames returns all declared field names in sorted order.
func (s *Schema) FieldNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fields returns a copy of the declarations keyed by field name.
func (s *Schema) Fields() map[string]FieldSpec {
	if s == nil {
		return nil
	}
	out := make(map[string]FieldSpec, len(s.fields))
	for name, spec := range s.fields {
		out[name] = spec
	}
	return out
}
