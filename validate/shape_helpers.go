package validate

import (
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bridgeorm/engine/schema"
)

// primitiveMatches reports whether value's Go/BSON dynamic type equals the
// descriptor's declared primitive. No implicit coercion: an int64 does not
// satisfy Double, and vice versa.
func primitiveMatches(value any, p schema.Primitive) bool {
	switch p {
	case schema.String:
		_, ok := value.(string)
		return ok
	case schema.Int64:
		switch value.(type) {
		case int, int32, int64:
			return true
		default:
			return false
		}
	case schema.Double:
		_, ok := value.(float64)
		return ok
	case schema.Bool:
		_, ok := value.(bool)
		return ok
	case schema.Bytes:
		switch value.(type) {
		case []byte, bson.Binary:
			return true
		default:
			return false
		}
	case schema.DateTime:
		switch value.(type) {
		case time.Time, bson.DateTime:
			return true
		default:
			return false
		}
	case schema.Decimal:
		switch value.(type) {
		case bson.Decimal128:
			return true
		default:
			return false
		}
	case schema.ObjectID:
		_, ok := value.(bson.ObjectID)
		return ok
	case schema.Null:
		return value == nil
	case schema.Any:
		return true
	default:
		return false
	}
}

func asSequence(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case bson.A:
		return []any(v), true
	default:
		return nil, false
	}
}

func asMapping(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case bson.M:
		return map[string]any(v), true
	case bson.D:
		m := make(map[string]any, len(v))
		for _, e := range v {
			m[e.Key] = e.Value
		}
		return m, true
	default:
		return nil, false
	}
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func typeName(value any) string {
	if value == nil {
		return "null"
	}
	return fmt.Sprintf("%T", value)
}

func sortedKeys(fields map[string]schema.FieldSchema) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
