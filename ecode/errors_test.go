package ecode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgeorm/engine/validate"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "InvalidDocument", KindInvalidDocument.String())
	assert.Equal(t, "NotFound", KindNotFound.String())
	assert.Equal(t, "Unknown", Kind(999).String())
}

func TestInvalidDocument_CarriesAllErrors(t *testing.T) {
	errs := []validate.Error{
		{FieldPath: "age", Kind: validate.FieldRequired},
		{FieldPath: "name", Kind: validate.TypeMismatch},
	}
	err := &InvalidDocument{Errors: errs}
	assert.Equal(t, KindInvalidDocument, err.Kind())
	assert.Len(t, err.Errors, 2)
}

func TestDriverError_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &DriverError{Cause: cause}

	var target *DriverError
	require.ErrorAs(t, error(err), &target)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestDuplicateKey_Kind(t *testing.T) {
	err := &DuplicateKey{Collection: "users", Cause: errors.New("E11000")}
	assert.Equal(t, KindDuplicateKey, err.Kind())
	assert.Contains(t, err.Error(), "users")
}
