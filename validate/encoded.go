package validate

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bridgeorm/engine/schema"
)

// ValidateEncoded validates against the encoded BSON representation of a
// document rather than a host-shape map[string]any tree. It decodes doc
// into the same map[string]any/bson.A/primitive shapes validateObjectFields
// already understands and then runs the identical walk, so testable
// property 4 ("validate(encode(v), D) == validate(v, D)") is a structural
// guarantee rather than something that merely happens to hold today.
func ValidateEncoded(doc bson.Raw, s schema.DocumentSchema) ([]Error, error) {
	var m map[string]any
	if err := bson.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("validate encoded: %w", err)
	}
	return ValidateDocument(m, s), nil
}
