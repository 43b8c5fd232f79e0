package convert

import (
	"fmt"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bridgeorm/engine/schema"
)

// ErrUnconvertible is returned when a host value cannot be represented as
// BSON: a complex number, a function, a channel, or a value with a
// circular reference. Per spec.md §4.4, the whole batch fails before any
// driver call when this occurs for any single item.
type ErrUnconvertible struct {
	Path string
	Type string
}

func (e *ErrUnconvertible) Error() string {
	return fmt.Sprintf("unconvertible value at %q: %s", e.Path, e.Type)
}

// Extract walks v (a host-shaped value: map[string]any, []any, and BSON
// primitives) into a Value tree, guided by d. This is Phase 1 of the
// two-phase pipeline: pure, allocation-light, and safe to run while any
// caller-held lock analogous to a host runtime's GIL is still held, because
// it does no I/O and performs no BSON encoding.
//
// Extract trusts that value already passed validate.Validate against the
// same descriptor; it does not re-check types, it converts them. A value
// that does not match its descriptor's shape produces ErrUnconvertible
// rather than a validation error, since by contract it should never reach
// this function unvalidated.
func Extract(v any, d schema.Descriptor) (Value, error) {
	return extractField("", v, d)
}

func extractField(path string, v any, d schema.Descriptor) (Value, error) {
	switch d.Kind {
	case schema.KindOptional:
		if v == nil {
			return Null(), nil
		}
		return extractField(path, v, *d.Inner)
	case schema.KindArray:
		seq, ok := asSequence(v)
		if !ok {
			return Value{}, &ErrUnconvertible{Path: path, Type: fmt.Sprintf("%T (expected array)", v)}
		}
		out := make([]Value, len(seq))
		for i, elem := range seq {
			ev, err := extractField(fmt.Sprintf("%s[%d]", path, i), elem, *d.Items)
			if err != nil {
				return Value{}, err
			}
			out[i] = ev
		}
		return FromArray(out), nil
	case schema.KindObject:
		obj, ok := asMapping(v)
		if !ok {
			return Value{}, &ErrUnconvertible{Path: path, Type: fmt.Sprintf("%T (expected object)", v)}
		}
		return extractObjectFields(path, obj, d.Fields)
	case schema.KindPrimitive:
		if d.Primitive == schema.Any {
			return ExtractDynamic(v)
		}
		return extractPrimitive(path, v, d.Primitive)
	default:
		return Value{}, &ErrUnconvertible{Path: path, Type: "unrecognised descriptor"}
	}
}

// extractObjectFields preserves field order exactly as d.Fields is
// consulted, i.e. in the canonical sorted-name order package validate
// already uses (see schema.DocumentSchema's doc comment on ordering).
func extractObjectFields(basePath string, obj map[string]any, fields map[string]schema.FieldSchema) (Value, error) {
	names := sortedFieldNames(fields)
	out := make([]DocField, 0, len(names))
	for _, name := range names {
		fs := fields[name]
		value, present := obj[name]
		if !present {
			if fs.Optional {
				continue
			}
			return Value{}, &ErrUnconvertible{Path: joinPath(basePath, name), Type: "missing required field"}
		}
		fieldPath := joinPath(basePath, name)
		d := fs.Descriptor
		if fs.Optional {
			d = schema.NewOptional(d)
		}
		ev, err := extractField(fieldPath, value, d)
		if err != nil {
			return Value{}, err
		}
		out = append(out, DocField{Name: name, Value: ev})
	}
	// Permissive schema: unknown keys from obj itself are carried through
	// verbatim via dynamic extraction, last, in their own deterministic
	// sorted order, so insert payloads round-trip fields the schema never
	// declared instead of silently dropping them.
	extraNames := extraKeys(obj, fields)
	for _, name := range extraNames {
		ev, err := ExtractDynamic(obj[name])
		if err != nil {
			return Value{}, err
		}
		out = append(out, DocField{Name: name, Value: ev})
	}
	return FromDocument(out), nil
}

func extractPrimitive(path string, v any, p schema.Primitive) (Value, error) {
	switch p {
	case schema.String:
		s, ok := v.(string)
		if !ok {
			return Value{}, &ErrUnconvertible{Path: path, Type: fmt.Sprintf("%T (expected string)", v)}
		}
		return FromString(s), nil
	case schema.Int64:
		return extractInteger(path, v)
	case schema.Double:
		f, ok := v.(float64)
		if !ok {
			return Value{}, &ErrUnconvertible{Path: path, Type: fmt.Sprintf("%T (expected double)", v)}
		}
		return FromDouble(f), nil
	case schema.Bool:
		b, ok := v.(bool)
		if !ok {
			return Value{}, &ErrUnconvertible{Path: path, Type: fmt.Sprintf("%T (expected bool)", v)}
		}
		return FromBool(b), nil
	case schema.Bytes:
		b, ok := v.([]byte)
		if !ok {
			return Value{}, &ErrUnconvertible{Path: path, Type: fmt.Sprintf("%T (expected []byte)", v)}
		}
		return FromBytes(b), nil
	case schema.DateTime:
		t, ok := v.(time.Time)
		if !ok {
			return Value{}, &ErrUnconvertible{Path: path, Type: fmt.Sprintf("%T (expected time.Time)", v)}
		}
		return FromDateTimeMillis(t.UnixMilli()), nil
	case schema.Decimal:
		switch d := v.(type) {
		case string:
			return FromDecimalString(d), nil
		case *big.Int:
			return FromDecimalString(d.String()), nil
		default:
			return Value{}, &ErrUnconvertible{Path: path, Type: fmt.Sprintf("%T (expected decimal)", v)}
		}
	case schema.ObjectID:
		id, ok := v.(bson.ObjectID)
		if !ok {
			return Value{}, &ErrUnconvertible{Path: path, Type: fmt.Sprintf("%T (expected ObjectID)", v)}
		}
		return FromObjectID(id), nil
	case schema.Null:
		return Null(), nil
	default:
		return Value{}, &ErrUnconvertible{Path: path, Type: "unrecognised primitive"}
	}
}

// extractInteger applies the numeric policy from spec.md §4.4: encode as
// Int64 unless the value does not fit, in which case encode as Decimal128.
// A plain Go int/int32/int64 always fits; *big.Int is the path by which an
// out-of-range value reaches this function (e.g. from a language binding
// that uses arbitrary-precision integers internally).
func extractInteger(path string, v any) (Value, error) {
	switch n := v.(type) {
	case int:
		return FromInt64(int64(n)), nil
	case int32:
		return FromInt64(int64(n)), nil
	case int64:
		return FromInt64(n), nil
	case *big.Int:
		if n.IsInt64() {
			return FromInt64(n.Int64()), nil
		}
		return FromDecimalString(n.String()), nil
	default:
		return Value{}, &ErrUnconvertible{Path: path, Type: fmt.Sprintf("%T (expected integer)", v)}
	}
}

// ExtractDynamic extracts v without a guiding descriptor, inferring a Kind
// from v's Go runtime type. Used for schema.Any fields, permissive extra
// keys, and filter/sort documents, which have no per-field schema at all.
func ExtractDynamic(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case string:
		return FromString(x), nil
	case int:
		return extractInteger("", x)
	case int32:
		return extractInteger("", x)
	case int64:
		return extractInteger("", x)
	case *big.Int:
		return extractInteger("", x)
	case float64:
		return FromDouble(x), nil
	case bool:
		return FromBool(x), nil
	case []byte:
		return FromBytes(x), nil
	case time.Time:
		return FromDateTimeMillis(x.UnixMilli()), nil
	case bson.ObjectID:
		return FromObjectID(x), nil
	case bson.Decimal128:
		return FromDecimalString(x.String()), nil
	case map[string]any:
		return extractDynamicDocument(x)
	case bson.M:
		return extractDynamicDocument(map[string]any(x))
	case []any:
		out := make([]Value, len(x))
		for i, elem := range x {
			ev, err := ExtractDynamic(elem)
			if err != nil {
				return Value{}, err
			}
			out[i] = ev
		}
		return FromArray(out), nil
	case bson.A:
		return ExtractDynamic([]any(x))
	default:
		return Value{}, &ErrUnconvertible{Type: fmt.Sprintf("%T", v)}
	}
}

func extractDynamicDocument(m map[string]any) (Value, error) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sortStrings(names)
	out := make([]DocField, 0, len(names))
	for _, name := range names {
		ev, err := ExtractDynamic(m[name])
		if err != nil {
			return Value{}, err
		}
		out = append(out, DocField{Name: name, Value: ev})
	}
	return FromDocument(out), nil
}
