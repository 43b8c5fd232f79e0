package convert

import (
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bridgeorm/engine/schema"
)

func asSequence(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case bson.A:
		return []any(x), true
	default:
		return nil, false
	}
}

func asMapping(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case bson.M:
		return map[string]any(x), true
	default:
		return nil, false
	}
}

func sortedFieldNames(fields map[string]schema.FieldSchema) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

func extraKeys(obj map[string]any, fields map[string]schema.FieldSchema) []string {
	var names []string
	for k := range obj {
		if _, declared := fields[k]; !declared {
			names = append(names, k)
		}
	}
	sortStrings(names)
	return names
}

func sortStrings(s []string) { sort.Strings(s) }

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}
