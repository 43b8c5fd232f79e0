package convert

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Materialize turns a Value tree back into plain Go values
// (map[string]any / []any / primitives) suitable for handing to a host
// binding. This is the "re-enter the host-lock to materialise dictionaries"
// half of the read path (spec.md §4.4); it is exported so a binding can
// build its own document objects from the result. Package engine's
// FindAsDocuments also calls it to build each Document's Data map.
func Materialize(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindString:
		return v.Str
	case KindInt64:
		return v.I64
	case KindDouble:
		return v.F64
	case KindBool:
		return v.B
	case KindBytes:
		return v.Bytes
	case KindDateTime:
		return time.UnixMilli(v.DateTime).UTC()
	case KindDecimal:
		return v.Decimal
	case KindObjectID:
		return bson.ObjectID(v.ObjectID).Hex()
	case KindArray:
		out := make([]any, len(v.Array))
		for i, elem := range v.Array {
			out[i] = Materialize(elem)
		}
		return out
	case KindDocument:
		out := make(map[string]any, len(v.Document))
		for _, f := range v.Document {
			out[f.Name] = Materialize(f.Value)
		}
		return out
	default:
		return nil
	}
}

// MaterializedField is one key/value pair of MaterializeOrdered's result.
type MaterializedField struct {
	Name  string
	Value any
}

// MaterializeOrdered is Materialize for the Document case, but returns an
// order-preserving slice of key/value pairs instead of a map, since
// spec.md's read path guarantees _id appears first and a map would lose
// that property immediately.
func MaterializeOrdered(v Value) []MaterializedField {
	if v.Kind != KindDocument {
		return nil
	}
	out := make([]MaterializedField, len(v.Document))
	for i, f := range v.Document {
		out[i] = MaterializedField{Name: f.Name, Value: Materialize(f.Value)}
	}
	return out
}
