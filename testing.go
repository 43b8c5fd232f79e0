package engine

import "github.com/bridgeorm/engine/schema"

// NewCollectionForTesting builds a Collection over driver instead of a live
// *mongo.Collection, so package enginetest's in-memory fake can exercise
// the operation layer's validation/sanitisation/state-machine behaviour
// without a MongoDB connection. registry may be nil, in which case every
// write skips schema validation exactly as an unregistered class would on
// a live Client.
func NewCollectionForTesting(name string, driver DriverCollection, registry *schema.Registry, hooks Hooks) *Collection {
	return &Collection{
		name:     name,
		client:   &Client{cfg: Config{}, Registry: registry},
		driver:   driver,
		hooks:    hooks,
		registry: registry,
	}
}
