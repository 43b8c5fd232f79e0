package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShape_Primitive(t *testing.T) {
	s, err := ParseShape(map[string]any{
		"name": map[string]any{"type": "string"},
	})
	require.NoError(t, err)
	require.Contains(t, s, "name")
	assert.Equal(t, KindPrimitive, s["name"].Descriptor.Kind)
	assert.Equal(t, String, s["name"].Descriptor.Primitive)
	assert.False(t, s["name"].Optional)
}

func TestParseShape_OptionalUnwrapsInner(t *testing.T) {
	s, err := ParseShape(map[string]any{
		"age": map[string]any{
			"type": "optional",
			"optional": map[string]any{
				"inner": map[string]any{"type": "int64"},
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, s["age"].Optional)
	assert.Equal(t, Int64, s["age"].Descriptor.Primitive)
}

func TestParseShape_ArrayOfObjects(t *testing.T) {
	s, err := ParseShape(map[string]any{
		"tags": map[string]any{
			"type": "array",
			"array": map[string]any{
				"items": map[string]any{
					"type": "object",
					"object": map[string]any{
						"schema": map[string]any{
							"label": map[string]any{"type": "string"},
						},
					},
				},
			},
		},
	})
	require.NoError(t, err)
	d := s["tags"].Descriptor
	require.Equal(t, KindArray, d.Kind)
	require.NotNil(t, d.Items)
	assert.Equal(t, KindObject, d.Items.Kind)
	assert.Contains(t, d.Items.Fields, "label")
}

func TestParseShape_ConstraintsParsed(t *testing.T) {
	s, err := ParseShape(map[string]any{
		"email": map[string]any{
			"type": "string",
			"constraints": map[string]any{
				"min_length": 1,
				"max_length": 254,
				"format":     "email",
			},
		},
	})
	require.NoError(t, err)
	c := s["email"].Constraints
	require.NotNil(t, c)
	assert.Equal(t, 1, *c.MinLength)
	assert.Equal(t, 254, *c.MaxLength)
	assert.Equal(t, FormatEmail, c.Format)
}

func TestParseShape_UnknownTypeTagErrors(t *testing.T) {
	_, err := ParseShape(map[string]any{
		"x": map[string]any{"type": "nonsense"},
	})
	require.Error(t, err)
}

func TestParseShape_RejectsDangerousFieldName(t *testing.T) {
	_, err := ParseShape(map[string]any{
		"$where": map[string]any{"type": "string"},
	})
	require.Error(t, err)
}

func TestDescriptor_StringRendersNestedShape(t *testing.T) {
	d := NewArray(NewOptional(NewPrimitive(Int64)))
	assert.Equal(t, "array<optional<int64>>", d.String())
}

func TestRegistry_LookupMissReturnsFalse(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Lookup("Nope")
	assert.False(t, ok)
}

func TestRegistry_RegisterStrictTracksFlagIndependently(t *testing.T) {
	r := NewRegistry()
	r.Register("Loose", DocumentSchema{})
	r.RegisterStrict("Tight", DocumentSchema{})

	assert.False(t, r.Strict("Loose"))
	assert.True(t, r.Strict("Tight"))

	r.Forget("Tight")
	_, ok := r.Lookup("Tight")
	assert.False(t, ok)
}
