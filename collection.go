package engine

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/bridgeorm/engine/convert"
	"github.com/bridgeorm/engine/ecode"
	"github.com/bridgeorm/engine/link"
	"github.com/bridgeorm/engine/schema"
	"github.com/bridgeorm/engine/security"
	"github.com/bridgeorm/engine/validate"
)

// Collection is a validated handle to one named MongoDB collection. Every
// method runs the state machine from spec.md §4.6: Accepted -> Validated
// (schema + sanitiser) -> Encoded -> Dispatched (the driver call) ->
// Completed, or one of the terminal failure states, each reported through
// Hooks.OnState for tests and otherwise invisible to the caller.
type Collection struct {
	name     string
	client   *Client
	raw      *mongo.Collection // nil when built over a fake; only EnsureIndex uses it directly
	driver   DriverCollection
	hooks    Hooks
	registry *schema.Registry
}

// Name returns the collection's validated name.
func (c *Collection) Name() string { return c.name }

func (c *Collection) state(s OpState) { c.hooks.state(c.name, s) }
func (c *Collection) call(op string) { c.hooks.driverCall(c.name, op) }

// lookupSchema resolves class's DocumentSchema if one is registered. A miss
// means "no schema": validateAndExtract then skips validation when the
// caller did not request it, and fails with ecode.SchemaNotFound when the
// caller passed validate=true for a non-empty class name.
func (c *Collection) lookupSchema(class string) (schema.DocumentSchema, bool) {
	if c.registry == nil || class == "" {
		return nil, false
	}
	return c.registry.Lookup(class)
}

// validateAndExtract runs the full write-side pipeline for one document:
// Validated -> Encoded. strict mode (unknown fields rejected) is honoured
// when the class was registered with RegisterStrict.
func (c *Collection) validateAndExtract(class string, doc map[string]any, requireValidation bool) (convert.Value, error) {
	s, ok := c.lookupSchema(class)
	if !ok {
		if requireValidation && class != "" {
			return convert.Value{}, &ecode.SchemaNotFound{Class: class}
		}
		c.state(StateValidated)
		v, err := convert.ExtractDynamic(doc)
		if err != nil {
			c.state(StateDecodeError)
			return convert.Value{}, unconvertible(err)
		}
		c.state(StateEncoded)
		return v, nil
	}

	if requireValidation {
		if errs := validate.ValidateDocument(doc, s); len(errs) > 0 {
			c.state(StateRejectedByValidator)
			return convert.Value{}, &ecode.InvalidDocument{Errors: errs}
		}
		if c.registry != nil && c.registry.Strict(class) {
			if errs := strictExtraFields(doc, s); len(errs) > 0 {
				c.state(StateRejectedByValidator)
				return convert.Value{}, &ecode.InvalidDocument{Errors: errs}
			}
		}
	}
	c.state(StateValidated)

	v, err := convert.Extract(doc, schema.NewObject(s))
	if err != nil {
		c.state(StateDecodeError)
		return convert.Value{}, unconvertible(err)
	}
	c.state(StateEncoded)
	return v, nil
}

func strictExtraFields(doc map[string]any, s schema.DocumentSchema) []validate.Error {
	var errs []validate.Error
	for k := range doc {
		if _, declared := s[k]; !declared {
			errs = append(errs, validate.Error{
				FieldPath: k,
				Kind:      validate.UnknownPrimitive,
				Message:   fmt.Sprintf("field %q is not declared in the strict schema", k),
			})
		}
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].FieldPath < errs[j].FieldPath })
	return errs
}

func unconvertible(err error) error {
	var uc *convert.ErrUnconvertible
	if asErrUnconvertible(err, &uc) {
		return &ecode.UnconvertibleValue{Path: uc.Path, Cause: err}
	}
	return &ecode.UnconvertibleValue{Cause: err}
}

func asErrUnconvertible(err error, target **convert.ErrUnconvertible) bool {
	uc, ok := err.(*convert.ErrUnconvertible)
	if !ok {
		return false
	}
	*target = uc
	return true
}

func sanitizeFilterAndEncode(filter map[string]any) (bson.D, error) {
	if filter == nil {
		filter = map[string]any{}
	}
	if err := security.SanitizeFilter(filter); err != nil {
		return nil, &ecode.DangerousOperator{Cause: err}
	}
	d, err := convert.EncodeFilter(filter)
	if err != nil {
		return nil, unconvertible(err)
	}
	return d, nil
}

// InsertOne validates (when validateDoc is true; an unregistered class then
// fails with ecode.SchemaNotFound), extracts and encodes doc, then issues a
// single insertOne driver call.
func (c *Collection) InsertOne(ctx context.Context, class string, doc map[string]any, validateDoc bool) (any, error) {
	c.state(StateAccepted)
	v, err := c.validateAndExtract(class, doc, validateDoc)
	if err != nil {
		return nil, err
	}
	d, err := convert.EncodeOne(v)
	if err != nil {
		c.state(StateDecodeError)
		return nil, unconvertible(err)
	}

	c.state(StateDispatched)
	c.call("insertOne")
	id, err := c.driver.InsertOne(ctx, d)
	if err != nil {
		c.state(StateDriverError)
		return nil, translateDriverError(c.name, err)
	}
	c.state(StateCompleted)
	return id, nil
}

// InsertMany validates and encodes every document before issuing any
// driver call — all-or-nothing per spec.md §4.6: a single rejected
// document fails the whole batch before the first byte reaches the wire.
func (c *Collection) InsertMany(ctx context.Context, class string, docs []map[string]any, validateDocs, ordered bool) ([]any, error) {
	c.state(StateAccepted)
	values := make([]convert.Value, len(docs))
	for i, doc := range docs {
		v, err := c.validateAndExtract(class, doc, validateDocs)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	encoded, err := convert.Encode(values, c.client.cfg.parallelThreshold())
	if err != nil {
		c.state(StateDecodeError)
		return nil, unconvertible(err)
	}

	c.state(StateDispatched)
	c.call("insertMany")
	ids, err := c.driver.InsertMany(ctx, encoded, ordered)
	if err != nil {
		c.state(StateDriverError)
		return nil, translateDriverError(c.name, err)
	}
	c.state(StateCompleted)
	return ids, nil
}

// FindOptions controls Find/FindAsDocuments/Aggregate result shaping.
type FindOptions struct {
	Sort  map[string]any
	Limit int64
	Skip  int64
}

// Find runs filter through the security sanitiser and the BSON converter's
// filter/sort encoders, issues one find, and decodes the results back into
// ExtractedValue trees — the driver call and the decode are both
// parallelism-eligible per spec.md §4.4, but the driver call itself is
// always exactly one regardless of result-set size.
func (c *Collection) Find(ctx context.Context, filter map[string]any, opts FindOptions) ([]convert.Value, error) {
	c.state(StateAccepted)
	encFilter, err := sanitizeFilterAndEncode(filter)
	if err != nil {
		c.state(StateRejectedBySanitiser)
		return nil, err
	}
	encSort, err := convert.EncodeSort(opts.Sort)
	if err != nil {
		c.state(StateDecodeError)
		return nil, unconvertible(err)
	}
	c.state(StateEncoded)

	c.state(StateDispatched)
	c.call("find")
	docs, err := c.driver.Find(ctx, encFilter, encSort, opts.Limit, opts.Skip)
	if err != nil {
		c.state(StateDriverError)
		return nil, translateDriverError(c.name, err)
	}

	values, err := convert.Decode(docs, c.client.cfg.parallelThreshold())
	if err != nil {
		c.state(StateDecodeError)
		return nil, unconvertible(err)
	}
	c.state(StateCompleted)
	return values, nil
}

// FindAsDocuments is Find but wraps each result in a Document carrying a
// fresh Tracker, ready for in-place mutation and Save. Per SPEC_FULL.md's
// Open Question 2, this is the engine's only exposed read-path entry point
// that names a return shape beyond the raw ExtractedValue tree;
// convert.Materialize exists for a binding to build its own shape instead.
func (c *Collection) FindAsDocuments(ctx context.Context, class string, filter map[string]any, opts FindOptions) ([]*Document, error) {
	values, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	docs := make([]*Document, len(values))
	for i, v := range values {
		idValue, _ := v.Get("_id")
		data := convert.Materialize(v).(map[string]any)
		idRaw, _ := encodeIDRawValue(idValue)
		docs[i] = newDocument(class, idRaw, data)
	}
	return docs, nil
}

func encodeIDRawValue(v convert.Value) (bson.RawValue, error) {
	d, err := convert.EncodeOne(convert.FromDocument([]convert.DocField{{Name: "_id", Value: v}}))
	if err != nil {
		return bson.RawValue{}, err
	}
	raw, err := bson.Marshal(d)
	if err != nil {
		return bson.RawValue{}, err
	}
	return bson.Raw(raw).Lookup("_id"), nil
}

// sanitizeUpdate checks a $set/$inc/... update document: each top-level key
// that starts with "$" must be in security.AllowedOperators (top-level keys
// without a "$" prefix are not rejected here), and each field
// name nested one level inside an operator's sub-document must itself be a
// valid document field name.
func sanitizeUpdate(update map[string]any) error {
	for op, body := range update {
		if err := security.ValidateFieldName(op, security.FieldContextQueryOperator); err != nil {
			return &ecode.InvalidIdentifier{Cause: err}
		}
		fields, ok := body.(map[string]any)
		if !ok {
			continue
		}
		for field := range fields {
			if err := security.ValidateFieldName(field, security.FieldContextDocument); err != nil {
				return &ecode.InvalidIdentifier{Cause: err}
			}
		}
	}
	return security.SanitizeFilter(update)
}

func encodeUpdate(update map[string]any) (bson.D, error) {
	if err := sanitizeUpdate(update); err != nil {
		return nil, err
	}
	v, err := convert.ExtractDynamic(update)
	if err != nil {
		return nil, unconvertible(err)
	}
	return convert.EncodeOne(v)
}

// UpdateOne applies update (a map of update operators, e.g. {"$set": {...}})
// to the first document matching filter.
func (c *Collection) UpdateOne(ctx context.Context, filter, update map[string]any, upsert bool) (matched, modified int64, upsertedID any, err error) {
	c.state(StateAccepted)
	encFilter, err := sanitizeFilterAndEncode(filter)
	if err != nil {
		c.state(StateRejectedBySanitiser)
		return 0, 0, nil, err
	}
	encUpdate, err := encodeUpdate(update)
	if err != nil {
		c.state(StateRejectedBySanitiser)
		return 0, 0, nil, err
	}
	c.state(StateEncoded)

	c.state(StateDispatched)
	c.call("updateOne")
	matched, modified, upsertedID, err = c.driver.UpdateOne(ctx, encFilter, encUpdate, upsert)
	if err != nil {
		c.state(StateDriverError)
		return 0, 0, nil, translateDriverError(c.name, err)
	}
	c.state(StateCompleted)
	return matched, modified, upsertedID, nil
}

// UpdateMany is UpdateOne without the single-match restriction and without
// upsert, matching spec.md §4.6's update_many contract.
func (c *Collection) UpdateMany(ctx context.Context, filter, update map[string]any) (matched, modified int64, err error) {
	c.state(StateAccepted)
	encFilter, err := sanitizeFilterAndEncode(filter)
	if err != nil {
		c.state(StateRejectedBySanitiser)
		return 0, 0, err
	}
	encUpdate, err := encodeUpdate(update)
	if err != nil {
		c.state(StateRejectedBySanitiser)
		return 0, 0, err
	}
	c.state(StateEncoded)

	c.state(StateDispatched)
	c.call("updateMany")
	matched, modified, err = c.driver.UpdateMany(ctx, encFilter, encUpdate)
	if err != nil {
		c.state(StateDriverError)
		return 0, 0, translateDriverError(c.name, err)
	}
	c.state(StateCompleted)
	return matched, modified, nil
}

// DeleteOne removes the first document matching filter.
func (c *Collection) DeleteOne(ctx context.Context, filter map[string]any) (int64, error) {
	c.state(StateAccepted)
	encFilter, err := sanitizeFilterAndEncode(filter)
	if err != nil {
		c.state(StateRejectedBySanitiser)
		return 0, err
	}
	c.state(StateEncoded)
	c.state(StateDispatched)
	c.call("deleteOne")
	n, err := c.driver.DeleteOne(ctx, encFilter)
	if err != nil {
		c.state(StateDriverError)
		return 0, translateDriverError(c.name, err)
	}
	c.state(StateCompleted)
	return n, nil
}

// DeleteMany removes every document matching filter.
func (c *Collection) DeleteMany(ctx context.Context, filter map[string]any) (int64, error) {
	c.state(StateAccepted)
	encFilter, err := sanitizeFilterAndEncode(filter)
	if err != nil {
		c.state(StateRejectedBySanitiser)
		return 0, err
	}
	c.state(StateEncoded)
	c.state(StateDispatched)
	c.call("deleteMany")
	n, err := c.driver.DeleteMany(ctx, encFilter)
	if err != nil {
		c.state(StateDriverError)
		return 0, translateDriverError(c.name, err)
	}
	c.state(StateCompleted)
	return n, nil
}

// Count returns the number of documents matching filter.
func (c *Collection) Count(ctx context.Context, filter map[string]any) (int64, error) {
	c.state(StateAccepted)
	encFilter, err := sanitizeFilterAndEncode(filter)
	if err != nil {
		c.state(StateRejectedBySanitiser)
		return 0, err
	}
	c.state(StateDispatched)
	c.call("count")
	n, err := c.driver.Count(ctx, encFilter)
	if err != nil {
		c.state(StateDriverError)
		return 0, translateDriverError(c.name, err)
	}
	c.state(StateCompleted)
	return n, nil
}

// Aggregate sanitises every stage document, then runs the pipeline.
func (c *Collection) Aggregate(ctx context.Context, pipeline []map[string]any) ([]convert.Value, error) {
	c.state(StateAccepted)
	encoded := make([]bson.D, len(pipeline))
	for i, stage := range pipeline {
		if err := security.SanitizeFilter(stage); err != nil {
			c.state(StateRejectedBySanitiser)
			return nil, &ecode.DangerousOperator{Cause: err}
		}
		v, err := convert.ExtractDynamic(stage)
		if err != nil {
			c.state(StateDecodeError)
			return nil, unconvertible(err)
		}
		d, err := convert.EncodeOne(v)
		if err != nil {
			c.state(StateDecodeError)
			return nil, unconvertible(err)
		}
		encoded[i] = d
	}
	c.state(StateEncoded)

	c.state(StateDispatched)
	c.call("aggregate")
	docs, err := c.driver.Aggregate(ctx, encoded)
	if err != nil {
		c.state(StateDriverError)
		return nil, translateDriverError(c.name, err)
	}

	values, err := convert.Decode(docs, c.client.cfg.parallelThreshold())
	if err != nil {
		c.state(StateDecodeError)
		return nil, unconvertible(err)
	}
	c.state(StateCompleted)
	return values, nil
}

// Save writes only the fields doc.Tracker has recorded as changed, via a
// single updateOne filtered on _id. A Document with no recorded changes is
// a no-op: Save never issues a driver call for an unmodified document.
func (c *Collection) Save(ctx context.Context, doc *Document) error {
	if !doc.Tracker.IsModified() {
		return nil
	}
	changes := doc.Tracker.GetChanges(doc.Data)

	filter := bson.D{{Key: "_id", Value: doc.ID}}
	c.call("updateOne")
	_, modified, _, err := c.driver.UpdateOne(ctx, filter, mustSetDoc(changes), false)
	if err != nil {
		c.state(StateDriverError)
		return translateDriverError(c.name, err)
	}
	if modified == 0 {
		return &ecode.NotFound{Collection: c.name, Filter: fmt.Sprintf("_id=%v", doc.ID)}
	}
	doc.Tracker.Reset()
	return nil
}

func mustSetDoc(changes map[string]any) bson.D {
	v, err := convert.ExtractDynamic(changes)
	if err != nil {
		// Save only ever sees values already round-tripped through
		// FindAsDocuments or a prior successful Extract, so this is
		// unreachable in practice; returning an empty $set here rather
		// than panicking keeps Save's signature error-only.
		return bson.D{{Key: "$set", Value: bson.D{}}}
	}
	d, err := convert.EncodeOne(v)
	if err != nil {
		return bson.D{{Key: "$set", Value: bson.D{}}}
	}
	return bson.D{{Key: "$set", Value: d}}
}

// EnsureIndex applies security.ValidateFieldName (document context) to every
// key's field name, then creates the index. keys is ordered (a slice, not a map) because compound index key
// order is semantically significant.
func (c *Collection) EnsureIndex(ctx context.Context, keys []IndexKey, unique bool) (string, error) {
	for _, k := range keys {
		if err := security.ValidateFieldName(k.Field, security.FieldContextDocument); err != nil {
			return "", &ecode.InvalidIdentifier{Cause: err}
		}
	}
	if c.raw == nil {
		return "", fmt.Errorf("engine: EnsureIndex requires a live collection, not a fake")
	}
	d := make(bson.D, len(keys))
	for i, k := range keys {
		d[i] = bson.E{Key: k.Field, Value: k.Order}
	}
	c.call("createIndex")
	model := mongo.IndexModel{Keys: d}
	if unique {
		model.Options = options.Index().SetUnique(true)
	}
	name, err := c.raw.Indexes().CreateOne(ctx, model)
	if err != nil {
		return "", translateDriverError(c.name, err)
	}
	return name, nil
}

// IndexKey is one field of an EnsureIndex specification. Order is 1 for
// ascending, -1 for descending, matching MongoDB's own index key convention.
type IndexKey struct {
	Field string
	Order int
}

// FetchLinks batches-resolves refs via package link, routing every fetch
// through this client's own collections so it shares the same pool,
// registry and Hooks instrumentation as every other operation.
func (c *Collection) FetchLinks(ctx context.Context, database string, refs []link.Ref, depth int) (map[link.Ref]bson.Raw, error) {
	resolver := link.NewResolver(&clientFinder{client: c.client, database: database, hooks: c.hooks})
	return resolver.Resolve(ctx, refs, depth, nil)
}

// clientFinder adapts Client into link.Finder, so link.Resolver's batched
// find({_id:{$in:[...]}}) calls go through the same Collection machinery
// (security, Hooks) as every other read.
type clientFinder struct {
	client   *Client
	database string
	hooks    Hooks
}

func (f *clientFinder) FindByIDs(ctx context.Context, collection string, ids []any) ([]bson.Raw, error) {
	coll, err := f.client.Collection(f.database, collection)
	if err != nil {
		return nil, err
	}
	coll.hooks = f.hooks
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	coll.call("find")
	return coll.driver.Find(ctx, filter, nil, 0, 0)
}
