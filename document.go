package engine

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bridgeorm/engine/tracker"
)

// Document is the engine-side half of spec.md §3's "{_id, data,
// state_tracker, class-name}" model; the host-language half (the document
// base class the binding subclasses) is out of scope here. FindAsDocuments
// returns one of these per matched document so Save has a Tracker to read
// changes from.
type Document struct {
	ID      bson.RawValue
	Class   string
	Data    map[string]any
	Tracker *tracker.Tracker
}

// Set reassigns a field and records the change with the document's
// Tracker, so a later Save only sends this field (and any other changed
// fields) in its $set.
func (d *Document) Set(field string, value any) {
	old, existed := d.Data[field]
	if !existed {
		old = nil
	}
	d.Tracker.TrackChange(field, old)
	d.Data[field] = value
}

func newDocument(class string, id bson.RawValue, data map[string]any) *Document {
	return &Document{ID: id, Class: class, Data: data, Tracker: tracker.New(data)}
}
