package schema

import (
	"fmt"

	"github.com/bridgeorm/engine/security"
)

// ParseShape parses the binding-provided serialisable shape described in
// spec.md §4.2 into a DocumentSchema. The shape is a mapping from field name
// to a leaf entry carrying a "type" tag plus optional nested shapes for
// "optional.inner", "array.items" and "object.schema", and an optional
// "constraints" sub-mapping. The engine parses this once per class; callers
// (package schema's Registry.Register is typically fed the result of this
// function, not the raw shape) must not re-parse per document.
func ParseShape(shape map[string]any) (DocumentSchema, error) {
	out := make(DocumentSchema, len(shape))
	for name, raw := range shape {
		if err := security.ValidateFieldName(name, security.FieldContextDocument); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		entryMap, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: shape entry must be a mapping, got %T", name, raw)
		}
		fs, err := parseFieldShape(entryMap)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = fs
	}
	return out, nil
}

func parseFieldShape(m map[string]any) (FieldSchema, error) {
	d, optional, err := parseDescriptorShape(m)
	if err != nil {
		return FieldSchema{}, err
	}
	c, err := parseConstraints(m["constraints"])
	if err != nil {
		return FieldSchema{}, err
	}
	return FieldSchema{Descriptor: d, Optional: optional, Constraints: c}, nil
}

// parseDescriptorShape returns the Descriptor for m, plus whether m itself
// represents an Optional wrapper (type == "optional"). Array and Object
// nesting recurse through this same function for their "items"/"schema"
// sub-shapes.
func parseDescriptorShape(m map[string]any) (Descriptor, bool, error) {
	tag, _ := m["type"].(string)
	switch tag {
	case "string":
		return NewPrimitive(String), false, nil
	case "int64":
		return NewPrimitive(Int64), false, nil
	case "double":
		return NewPrimitive(Double), false, nil
	case "bool":
		return NewPrimitive(Bool), false, nil
	case "binary":
		return NewPrimitive(Bytes), false, nil
	case "datetime":
		return NewPrimitive(DateTime), false, nil
	case "decimal":
		return NewPrimitive(Decimal), false, nil
	case "objectid":
		return NewPrimitive(ObjectID), false, nil
	case "null":
		return NewPrimitive(Null), false, nil
	case "any":
		return NewPrimitive(Any), false, nil
	case "optional":
		sub, ok := m["optional"].(map[string]any)
		if !ok {
			return Descriptor{}, false, fmt.Errorf("optional requires an \"optional\" sub-shape")
		}
		innerShape, ok := sub["inner"].(map[string]any)
		if !ok {
			return Descriptor{}, false, fmt.Errorf("optional.inner must be a mapping")
		}
		inner, _, err := parseDescriptorShape(innerShape)
		if err != nil {
			return Descriptor{}, false, fmt.Errorf("optional.inner: %w", err)
		}
		return inner, true, nil
	case "array":
		sub, ok := m["array"].(map[string]any)
		if !ok {
			return Descriptor{}, false, fmt.Errorf("array requires an \"array\" sub-shape")
		}
		itemsShape, ok := sub["items"].(map[string]any)
		if !ok {
			return Descriptor{}, false, fmt.Errorf("array.items must be a mapping")
		}
		items, _, err := parseDescriptorShape(itemsShape)
		if err != nil {
			return Descriptor{}, false, fmt.Errorf("array.items: %w", err)
		}
		return NewArray(items), false, nil
	case "object":
		sub, ok := m["object"].(map[string]any)
		if !ok {
			return Descriptor{}, false, fmt.Errorf("object requires an \"object\" sub-shape")
		}
		fieldsShape, ok := sub["schema"].(map[string]any)
		if !ok {
			return Descriptor{}, false, fmt.Errorf("object.schema must be a mapping")
		}
		fields := make(map[string]FieldSchema, len(fieldsShape))
		for name, raw := range fieldsShape {
			entryMap, ok := raw.(map[string]any)
			if !ok {
				return Descriptor{}, false, fmt.Errorf("object.schema[%q] must be a mapping", name)
			}
			fs, err := parseFieldShape(entryMap)
			if err != nil {
				return Descriptor{}, false, fmt.Errorf("object.schema[%q]: %w", name, err)
			}
			fields[name] = fs
		}
		return NewObject(fields), false, nil
	default:
		return Descriptor{}, false, fmt.Errorf("unknown type tag %q", tag)
	}
}

func parseConstraints(raw any) (*Constraints, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("constraints must be a mapping")
	}
	c := &Constraints{}
	if v, ok := m["min_length"]; ok {
		n, err := asInt(v)
		if err != nil {
			return nil, fmt.Errorf("min_length: %w", err)
		}
		c.MinLength = &n
	}
	if v, ok := m["max_length"]; ok {
		n, err := asInt(v)
		if err != nil {
			return nil, fmt.Errorf("max_length: %w", err)
		}
		c.MaxLength = &n
	}
	if v, ok := m["min"]; ok {
		f, err := asFloat(v)
		if err != nil {
			return nil, fmt.Errorf("min: %w", err)
		}
		c.Min = &f
	}
	if v, ok := m["max"]; ok {
		f, err := asFloat(v)
		if err != nil {
			return nil, fmt.Errorf("max: %w", err)
		}
		c.Max = &f
	}
	if v, ok := m["format"]; ok {
		s, _ := v.(string)
		switch s {
		case "email":
			c.Format = FormatEmail
		case "url":
			c.Format = FormatURL
		case "", "none":
			c.Format = FormatNone
		default:
			return nil, fmt.Errorf("format: unknown value %q", s)
		}
	}
	return c, nil
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
