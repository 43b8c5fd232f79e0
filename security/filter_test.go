package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCollectionName(t *testing.T) {
	cases := []struct {
		name    string
		coll    string
		wantErr bool
	}{
		{"ok", "users", false},
		{"empty", "", true},
		{"null byte", "users\x00", true},
		{"system prefix", "system.users", true},
		{"dollar", "users$", true},
		{"dot ok", "users.profile", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateCollectionName(c.coll)
			if c.wantErr {
				require.Error(t, err)
				var target *InvalidIdentifierError
				assert.ErrorAs(t, err, &target)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateFieldName(t *testing.T) {
	cases := []struct {
		name    string
		field   string
		ctx     FieldContext
		wantErr bool
	}{
		{"plain", "age", FieldContextDocument, false},
		{"empty", "", FieldContextDocument, true},
		{"dollar in document", "$set", FieldContextDocument, true},
		{"allowed operator", "$set", FieldContextQueryOperator, false},
		{"unknown operator", "$where", FieldContextQueryOperator, true},
		{"geospatial", "$near", FieldContextQueryOperator, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateFieldName(c.field, c.ctx)
			if c.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSanitizeFilter(t *testing.T) {
	t.Run("clean filter passes", func(t *testing.T) {
		require.NoError(t, SanitizeFilter(map[string]any{"name": "Alice", "age": map[string]any{"$gt": 18}}))
	})

	t.Run("rejects $where at top level", func(t *testing.T) {
		err := SanitizeFilter(map[string]any{"$where": "true"})
		require.Error(t, err)
		var target *DangerousOperatorError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "$where", target.Operator)
	})

	t.Run("rejects $function nested inside $and", func(t *testing.T) {
		filter := map[string]any{
			"$and": []any{
				map[string]any{"name": "Alice"},
				map[string]any{"$expr": map[string]any{"$function": map[string]any{"body": "function(){}"}}},
			},
		}
		err := SanitizeFilter(filter)
		require.Error(t, err)
		var target *DangerousOperatorError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "$function", target.Operator)
	})

	t.Run("rejects $accumulator inside array element", func(t *testing.T) {
		filter := map[string]any{
			"$or": []any{
				map[string]any{"$accumulator": map[string]any{}},
			},
		}
		require.Error(t, SanitizeFilter(filter))
	})
}

func TestParseObjectID(t *testing.T) {
	t.Run("non-objectid field passes through unchanged", func(t *testing.T) {
		v, err := ParseObjectID(map[string]any{"$ne": "anything"}, false)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"$ne": "anything"}, v)
	})

	t.Run("hex string parses", func(t *testing.T) {
		v, err := ParseObjectID("507f1f77bcf86cd799439011", true)
		require.NoError(t, err)
		assert.NotNil(t, v)
	})

	t.Run("invalid hex fails closed", func(t *testing.T) {
		_, err := ParseObjectID("not-an-id", true)
		require.Error(t, err)
	})

	t.Run("rejects injection-shaped object when expected", func(t *testing.T) {
		_, err := ParseObjectID(map[string]any{"$gt": ""}, true)
		require.Error(t, err)
	})
}
