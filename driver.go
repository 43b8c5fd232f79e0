package engine

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DriverCollection is the narrow seam between Collection's public
// operations and the canonical driver's transport, grounded on the
// teacher's own core/dispatch package — the layer that used to sit between
// mongo.Collection's public methods and the topology's wire calls. Pulling
// it out as an interface, rather than calling *mongo.Collection directly,
// is what lets package enginetest provide an in-memory fake for the
// operation layer's own tests without a real cluster.
type DriverCollection interface {
	InsertOne(ctx context.Context, doc bson.D) (any, error)
	InsertMany(ctx context.Context, docs []bson.D, ordered bool) ([]any, error)
	Find(ctx context.Context, filter, sort bson.D, limit, skip int64) ([]bson.Raw, error)
	UpdateOne(ctx context.Context, filter, update bson.D, upsert bool) (matched, modified int64, upsertedID any, err error)
	UpdateMany(ctx context.Context, filter, update bson.D) (matched, modified int64, err error)
	DeleteOne(ctx context.Context, filter bson.D) (int64, error)
	DeleteMany(ctx context.Context, filter bson.D) (int64, error)
	Count(ctx context.Context, filter bson.D) (int64, error)
	Aggregate(ctx context.Context, pipeline []bson.D) ([]bson.Raw, error)
}

// realDriverCollection implements DriverCollection over a live
// *mongo.Collection, draining cursors into []bson.Raw internally so the
// interface never needs to expose *mongo.Cursor — a fake has nothing
// analogous to construct.
type realDriverCollection struct {
	coll *mongo.Collection
}

func (r realDriverCollection) InsertOne(ctx context.Context, doc bson.D) (any, error) {
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	return res.InsertedID, nil
}

func (r realDriverCollection) InsertMany(ctx context.Context, docs []bson.D, ordered bool) ([]any, error) {
	anyDocs := make([]any, len(docs))
	for i, d := range docs {
		anyDocs[i] = d
	}
	res, err := r.coll.InsertMany(ctx, anyDocs, options.InsertMany().SetOrdered(ordered))
	if err != nil {
		return nil, err
	}
	return res.InsertedIDs, nil
}

func (r realDriverCollection) Find(ctx context.Context, filter, sort bson.D, limit, skip int64) ([]bson.Raw, error) {
	opts := options.Find()
	if len(sort) > 0 {
		opts = opts.SetSort(sort)
	}
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	if skip > 0 {
		opts = opts.SetSkip(skip)
	}
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return drain(ctx, cursor)
}

func (r realDriverCollection) UpdateOne(ctx context.Context, filter, update bson.D, upsert bool) (int64, int64, any, error) {
	res, err := r.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(upsert))
	if err != nil {
		return 0, 0, nil, err
	}
	return res.MatchedCount, res.ModifiedCount, res.UpsertedID, nil
}

func (r realDriverCollection) UpdateMany(ctx context.Context, filter, update bson.D) (int64, int64, error) {
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

func (r realDriverCollection) DeleteOne(ctx context.Context, filter bson.D) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r realDriverCollection) DeleteMany(ctx context.Context, filter bson.D) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r realDriverCollection) Count(ctx context.Context, filter bson.D) (int64, error) {
	return r.coll.CountDocuments(ctx, filter)
}

func (r realDriverCollection) Aggregate(ctx context.Context, pipeline []bson.D) ([]bson.Raw, error) {
	anyPipeline := make([]bson.D, len(pipeline))
	copy(anyPipeline, pipeline)
	cursor, err := r.coll.Aggregate(ctx, anyPipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return drain(ctx, cursor)
}

func drain(ctx context.Context, cursor *mongo.Cursor) ([]bson.Raw, error) {
	var out []bson.Raw
	for cursor.Next(ctx) {
		raw := make(bson.Raw, len(cursor.Current))
		copy(raw, cursor.Current)
		out = append(out, raw)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
