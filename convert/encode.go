package convert

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bridgeorm/engine/internal/workerpool"
)

// DefaultParallelThreshold is the batch size at or above which Encode/Decode
// use the worker pool instead of converting sequentially (spec.md §5's
// "PARALLEL_THRESHOLD value (default 50)").
const DefaultParallelThreshold = 50

// Encode is Phase 2 of the write path: it turns a batch of ExtractedValue
// trees into BSON documents. With the caller's host-lock analogue already
// released (see package doc), batches whose length is >= threshold convert
// in parallel; shorter batches convert sequentially to avoid scheduling
// overhead, exactly as spec.md §4.4 prescribes. Output order always matches
// input order.
func Encode(values []Value, threshold int) ([]bson.D, error) {
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	out := make([]bson.D, len(values))
	if len(values) < threshold {
		for i, v := range values {
			d, err := EncodeOne(v)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	}
	err := workerpool.Map(len(values), func(i int) error {
		d, err := EncodeOne(values[i])
		if err != nil {
			return err
		}
		out[i] = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeOne converts a single Document-kind Value into a bson.D. Calling it
// on a non-Document Value is an error: a driver insert/update always
// operates on whole documents.
func EncodeOne(v Value) (bson.D, error) {
	if v.Kind != KindDocument {
		return nil, fmt.Errorf("encode: top-level value must be a document, got kind %d", v.Kind)
	}
	d := make(bson.D, 0, len(v.Document))
	for _, f := range v.Document {
		ev, err := encodeValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", f.Name, err)
		}
		d = append(d, bson.E{Key: f.Name, Value: ev})
	}
	return d, nil
}

// encodeValue converts a single Value (of any kind) into the native
// BSON-library representation the real driver's bson.Marshal understands.
func encodeValue(v Value) (any, error) {
	switch v.Kind {
	case KindNull:
		return nil, nil
	case KindString:
		return v.Str, nil
	case KindInt64:
		return v.I64, nil
	case KindDouble:
		return v.F64, nil
	case KindBool:
		return v.B, nil
	case KindBytes:
		return bson.Binary{Subtype: 0x00, Data: v.Bytes}, nil
	case KindDateTime:
		return bson.DateTime(v.DateTime), nil
	case KindDecimal:
		d, err := bson.ParseDecimal128(v.Decimal)
		if err != nil {
			return nil, fmt.Errorf("decimal128 %q: %w", v.Decimal, err)
		}
		return d, nil
	case KindObjectID:
		return bson.ObjectID(v.ObjectID), nil
	case KindArray:
		arr := make(bson.A, len(v.Array))
		for i, elem := range v.Array {
			ev, err := encodeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	case KindDocument:
		d := make(bson.D, 0, len(v.Document))
		for _, f := range v.Document {
			ev, err := encodeValue(f.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			d = append(d, bson.E{Key: f.Name, Value: ev})
		}
		return d, nil
	default:
		return nil, fmt.Errorf("encode: unrecognised value kind %d", v.Kind)
	}
}

// EncodeFilter extracts and encodes a query filter document. Filters have
// no document schema of their own — keys may be query operators — so
// extraction always goes through ExtractDynamic rather than a guided
// Extract.
func EncodeFilter(filter map[string]any) (bson.D, error) {
	v, err := ExtractDynamic(filter)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	return EncodeOne(v)
}

// EncodeSort encodes a sort document the same way EncodeFilter does.
func EncodeSort(sort map[string]any) (bson.D, error) {
	v, err := ExtractDynamic(sort)
	if err != nil {
		return nil, fmt.Errorf("encode sort: %w", err)
	}
	return EncodeOne(v)
}
