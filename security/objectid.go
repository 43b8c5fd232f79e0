package security

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ParseObjectID parses value into a bson.ObjectID only when isObjectIDField
// is true (the field's descriptor is schema.ObjectID); otherwise it returns
// value unchanged. This asymmetry is deliberate: it prevents filter
// injection where an attacker supplies an object that would otherwise
// coerce into an id comparison the field's real type never intended.
//
// Accepted forms when isObjectIDField is true: a bson.ObjectID, a 24-
// character hex string, or a 12-byte []byte. Any other string is rejected.
func ParseObjectID(value any, isObjectIDField bool) (any, error) {
	if !isObjectIDField {
		return value, nil
	}
	switch v := value.(type) {
	case bson.ObjectID:
		return v, nil
	case string:
		id, err := bson.ObjectIDFromHex(v)
		if err != nil {
			return nil, fmt.Errorf("parse object id: %w", err)
		}
		return id, nil
	case []byte:
		if len(v) != 12 {
			return nil, fmt.Errorf("parse object id: expected 12 bytes, got %d", len(v))
		}
		var id bson.ObjectID
		copy(id[:], v)
		return id, nil
	default:
		return nil, fmt.Errorf("parse object id: unsupported value type %T", value)
	}
}
