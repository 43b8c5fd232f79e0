package convert

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bridgeorm/engine/internal/workerpool"
)

// Decode is the read-path counterpart to Encode: it turns cursor results
// into ExtractedValue trees without any host-lock analogue held, in
// parallel once the batch reaches threshold. A single re-entry into the
// host binding's lock (out of scope here; see package doc) then
// materialises the result.
func Decode(docs []bson.Raw, threshold int) ([]Value, error) {
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	out := make([]Value, len(docs))
	if len(docs) < threshold {
		for i, raw := range docs {
			v, err := DecodeOne(raw)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	err := workerpool.Map(len(docs), func(i int) error {
		v, err := DecodeOne(docs[i])
		if err != nil {
			return err
		}
		out[i] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeOne decodes a single raw BSON document into a Value, with _id
// moved to the front of the field list per spec.md §4.4 ("On reads, _id is
// always emitted as the first entry of the output mapping").
func DecodeOne(raw bson.Raw) (Value, error) {
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return Value{}, fmt.Errorf("decode: %w", err)
	}
	fields := make([]DocField, 0, len(d))
	var idField *DocField
	for _, e := range d {
		dv, err := decodeBSONValue(e.Value)
		if err != nil {
			return Value{}, fmt.Errorf("decode field %q: %w", e.Key, err)
		}
		field := DocField{Name: e.Key, Value: dv}
		if e.Key == "_id" {
			idField = &field
			continue
		}
		fields = append(fields, field)
	}
	if idField != nil {
		fields = append([]DocField{*idField}, fields...)
	}
	return FromDocument(fields), nil
}

func decodeBSONValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case string:
		return FromString(x), nil
	case bool:
		return FromBool(x), nil
	case int32:
		return FromInt64(int64(x)), nil
	case int64:
		return FromInt64(x), nil
	case float64:
		return FromDouble(x), nil
	case bson.Binary:
		return FromBytes(x.Data), nil
	case bson.DateTime:
		return FromDateTimeMillis(int64(x)), nil
	case bson.Decimal128:
		return FromDecimalString(x.String()), nil
	case bson.ObjectID:
		return FromObjectID([12]byte(x)), nil
	case bson.D:
		fields := make([]DocField, 0, len(x))
		for _, e := range x {
			dv, err := decodeBSONValue(e.Value)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, DocField{Name: e.Key, Value: dv})
		}
		return FromDocument(fields), nil
	case bson.A:
		items := make([]Value, len(x))
		for i, elem := range x {
			dv, err := decodeBSONValue(elem)
			if err != nil {
				return Value{}, err
			}
			items[i] = dv
		}
		return FromArray(items), nil
	default:
		return Value{}, &ErrUnconvertible{Type: fmt.Sprintf("%T (unexpected decoded BSON type)", v)}
	}
}
