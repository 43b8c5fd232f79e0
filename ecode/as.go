package ecode

import "errors"

// AsDriverError reports whether err wraps a *DriverError, grounded on the
// teacher's mongo.errors.go predicate helpers (IsDuplicateKeyError,
// IsNetworkError) that let callers classify driver-surfaced failures
// without reaching into the error chain themselves.
func AsDriverError(err error) (*DriverError, bool) {
	var target *DriverError
	return target, errors.As(err, &target)
}

// AsInvalidDocument reports whether err wraps an *InvalidDocument.
func AsInvalidDocument(err error) (*InvalidDocument, bool) {
	var target *InvalidDocument
	return target, errors.As(err, &target)
}

// AsDuplicateKey reports whether err wraps a *DuplicateKey.
func AsDuplicateKey(err error) (*DuplicateKey, bool) {
	var target *DuplicateKey
	return target, errors.As(err, &target)
}

// AsNotFound reports whether err wraps a *NotFound.
func AsNotFound(err error) (*NotFound, bool) {
	var target *NotFound
	return target, errors.As(err, &target)
}

// AsTimeout reports whether err wraps a *Timeout.
func AsTimeout(err error) (*Timeout, bool) {
	var target *Timeout
	return target, errors.As(err, &target)
}

// IsRetryable reports whether err is of a kind the operation layer
// considers safe to retry without re-running validation: a Timeout, or any
// DriverError (whatever its cause). DuplicateKey and
// InvalidDocument are never retryable — retrying them would repeat the
// same rejection.
func IsRetryable(err error) bool {
	if _, ok := AsTimeout(err); ok {
		return true
	}
	_, ok := AsDriverError(err)
	return ok
}
