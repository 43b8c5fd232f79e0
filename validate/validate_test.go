package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgeorm/engine/schema"
)

func intPtr(n int) *int          { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestValidateDocument_Basic(t *testing.T) {
	s := schema.DocumentSchema{
		"name": schema.FieldSchema{Descriptor: schema.NewPrimitive(schema.String)},
		"age":  schema.FieldSchema{Descriptor: schema.NewPrimitive(schema.Int64)},
	}
	errs := ValidateDocument(map[string]any{"name": "Alice", "age": int64(30)}, s)
	assert.Empty(t, errs)
}

func TestValidateDocument_OptionalNullVsAbsent(t *testing.T) {
	s := schema.DocumentSchema{
		"nickname": schema.FieldSchema{Descriptor: schema.NewPrimitive(schema.String), Optional: true},
		"age":      schema.FieldSchema{Descriptor: schema.NewPrimitive(schema.Int64)},
	}

	t.Run("optional null accepted", func(t *testing.T) {
		errs := ValidateDocument(map[string]any{"nickname": nil, "age": int64(1)}, s)
		assert.Empty(t, errs)
	})
	t.Run("optional absent accepted", func(t *testing.T) {
		errs := ValidateDocument(map[string]any{"age": int64(1)}, s)
		assert.Empty(t, errs)
	})
	t.Run("required absent is FieldRequired", func(t *testing.T) {
		errs := ValidateDocument(map[string]any{"nickname": "x"}, s)
		require.Len(t, errs, 1)
		assert.Equal(t, FieldRequired, errs[0].Kind)
		assert.Equal(t, "age", errs[0].FieldPath)
	})
	t.Run("required null is NotNullable", func(t *testing.T) {
		errs := ValidateDocument(map[string]any{"age": nil}, s)
		require.Len(t, errs, 1)
		assert.Equal(t, NotNullable, errs[0].Kind)
	})
}

func TestValidateDocument_AllOrNothing(t *testing.T) {
	s := schema.DocumentSchema{
		"a": schema.FieldSchema{Descriptor: schema.NewPrimitive(schema.String)},
		"b": schema.FieldSchema{Descriptor: schema.NewPrimitive(schema.Int64)},
	}
	errs := ValidateDocument(map[string]any{"a": 5, "b": "nope"}, s)
	require.Len(t, errs, 2)
}

func TestValidateDocument_ArrayOfArray(t *testing.T) {
	inner := schema.NewArray(schema.NewPrimitive(schema.Int64))
	s := schema.DocumentSchema{
		"grid": schema.FieldSchema{Descriptor: schema.NewArray(inner)},
	}
	doc := map[string]any{
		"grid": []any{
			[]any{int64(1), "bad"},
			[]any{int64(2), int64(3)},
		},
	}
	errs := ValidateDocument(doc, s)
	require.Len(t, errs, 1)
	assert.Equal(t, "grid[0][1]", errs[0].FieldPath)
}

func TestValidateDocument_PermissiveUnknownFields(t *testing.T) {
	s := schema.DocumentSchema{
		"name": schema.FieldSchema{Descriptor: schema.NewPrimitive(schema.String)},
	}
	errs := ValidateDocument(map[string]any{"name": "Alice", "extra": "ignored"}, s)
	assert.Empty(t, errs)
}

func TestValidateDocument_EmailFormat(t *testing.T) {
	s := schema.DocumentSchema{
		"email": schema.FieldSchema{
			Descriptor:  schema.NewPrimitive(schema.String),
			Constraints: &schema.Constraints{Format: schema.FormatEmail},
		},
	}
	cases := []struct {
		value string
		valid bool
	}{
		{"a@b.co", true},
		{"a@b", false},
		{"", false},
	}
	for _, c := range cases {
		errs := ValidateDocument(map[string]any{"email": c.value}, s)
		if c.valid {
			assert.Emptyf(t, errs, "expected %q to be valid", c.value)
		} else {
			assert.NotEmptyf(t, errs, "expected %q to be invalid", c.value)
		}
	}
}

func TestValidateDocument_MinLengthBoundary(t *testing.T) {
	s := schema.DocumentSchema{
		"code": schema.FieldSchema{
			Descriptor:  schema.NewPrimitive(schema.String),
			Constraints: &schema.Constraints{MinLength: intPtr(4)},
		},
	}
	assert.Empty(t, ValidateDocument(map[string]any{"code": "abcd"}, s))
	assert.NotEmpty(t, ValidateDocument(map[string]any{"code": "abc"}, s))
}

func TestValidateDocument_NumericRangeNoWidening(t *testing.T) {
	s := schema.DocumentSchema{
		"score": schema.FieldSchema{
			Descriptor:  schema.NewPrimitive(schema.Int64),
			Constraints: &schema.Constraints{Min: floatPtr(0), Max: floatPtr(100)},
		},
	}
	assert.Empty(t, ValidateDocument(map[string]any{"score": int64(100)}, s))
	assert.NotEmpty(t, ValidateDocument(map[string]any{"score": int64(101)}, s))
	assert.NotEmpty(t, ValidateDocument(map[string]any{"score": int64(-1)}, s))
}

func TestValidate_NoCoercion(t *testing.T) {
	d := schema.NewPrimitive(schema.Double)
	errs := Validate(int64(5), d)
	require.Len(t, errs, 1)
	assert.Equal(t, TypeMismatch, errs[0].Kind)
}
