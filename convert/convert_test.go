package convert

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bridgeorm/engine/schema"
)

func docSchema() schema.DocumentSchema {
	return schema.DocumentSchema{
		"name": {Descriptor: schema.NewPrimitive(schema.String)},
		"age":  {Descriptor: schema.NewPrimitive(schema.Int64)},
	}
}

func TestExtractEncode_RoundTrip(t *testing.T) {
	v, err := Extract(map[string]any{"name": "Alice", "age": int64(30)}, schema.NewObject(docSchema()))
	require.NoError(t, err)

	d, err := EncodeOne(v)
	require.NoError(t, err)

	var gotName string
	var gotAge int64
	for _, e := range d {
		switch e.Key {
		case "name":
			gotName = e.Value.(string)
		case "age":
			gotAge = e.Value.(int64)
		}
	}
	assert.Equal(t, "Alice", gotName)
	assert.Equal(t, int64(30), gotAge)
}

func TestEncode_OrderPreservedAcrossThreshold(t *testing.T) {
	n := 120
	values := make([]Value, n)
	for i := 0; i < n; i++ {
		v, err := Extract(map[string]any{"name": "x", "age": int64(i)}, schema.NewObject(docSchema()))
		require.NoError(t, err)
		values[i] = v
	}

	sequential, err := Encode(values, n+1) // below threshold: sequential path
	require.NoError(t, err)
	parallel, err := Encode(values, 10) // above threshold: parallel path
	require.NoError(t, err)

	require.Len(t, sequential, n)
	require.Len(t, parallel, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, sequential[i], parallel[i], "order mismatch at index %d", i)
	}
}

func TestExtractInteger_OverflowBecomesDecimal128(t *testing.T) {
	huge := new(big.Int).Add(new(big.Int).SetInt64(1<<62), new(big.Int).SetInt64(1<<62))
	v, err := Extract(map[string]any{"name": "x", "age": huge}, schema.NewObject(schema.DocumentSchema{
		"name": {Descriptor: schema.NewPrimitive(schema.String)},
		"age":  {Descriptor: schema.NewPrimitive(schema.Int64)},
	}))
	require.NoError(t, err)
	ageVal, ok := v.Get("age")
	require.True(t, ok)
	assert.Equal(t, KindDecimal, ageVal.Kind)

	d, err := EncodeOne(v)
	require.NoError(t, err)
	for _, e := range d {
		if e.Key == "age" {
			_, isDecimal := e.Value.(interface{ String() string })
			assert.True(t, isDecimal, "expected a Decimal128-like value, got %T", e.Value)
		}
	}
}

func TestDecodeOne_IDFirst(t *testing.T) {
	d, err := EncodeOne(FromDocument([]DocField{
		{Name: "name", Value: FromString("Alice")},
		{Name: "_id", Value: FromString("irrelevant-for-this-test")},
	}))
	require.NoError(t, err)

	raw, err := bson.Marshal(d)
	require.NoError(t, err)

	v, err := DecodeOne(raw)
	require.NoError(t, err)
	require.NotEmpty(t, v.Document)
	assert.Equal(t, "_id", v.Document[0].Name)
}

func TestExtract_Unconvertible(t *testing.T) {
	_, err := Extract(map[string]any{"name": 5, "age": int64(1)}, schema.NewObject(docSchema()))
	require.Error(t, err)
	var target *ErrUnconvertible
	require.ErrorAs(t, err, &target)
}

func TestMaterialize_RoundTrip(t *testing.T) {
	v, err := Extract(map[string]any{"name": "Bob", "age": int64(42)}, schema.NewObject(docSchema()))
	require.NoError(t, err)
	m := Materialize(v).(map[string]any)
	assert.Equal(t, "Bob", m["name"])
	assert.Equal(t, int64(42), m["age"])
}
