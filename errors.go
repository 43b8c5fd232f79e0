package engine

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/bridgeorm/engine/ecode"
)

// translateDriverError maps a raw go.mongodb.org/mongo-driver/v2 error into
// the ecode taxonomy, grounded on the teacher's mongo/errors.go predicate
// style (IsDuplicateKeyError, IsNetworkError) but returning a concrete
// *ecode.* value instead of a bool, since this package always has a
// collection name to attach.
func translateDriverError(collection string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return &ecode.OperationCancelled{Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ecode.Timeout{Cause: err}
	}
	if mongo.IsDuplicateKeyError(err) {
		return &ecode.DuplicateKey{Collection: collection, Cause: err}
	}
	if mongo.IsTimeout(err) {
		return &ecode.Timeout{Cause: err}
	}
	return &ecode.DriverError{Cause: fmt.Errorf("%s: %w", collection, err)}
}
