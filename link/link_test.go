package link

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type fakeFinder struct {
	docs     map[string]map[string]bson.Raw // collection -> hex id -> doc
	calls    map[string]int                 // collection -> call count
}

func newFakeFinder() *fakeFinder {
	return &fakeFinder{docs: make(map[string]map[string]bson.Raw), calls: make(map[string]int)}
}

func (f *fakeFinder) put(t *testing.T, collection string, id bson.ObjectID, fields bson.D) {
	t.Helper()
	raw, err := bson.Marshal(append(bson.D{{Key: "_id", Value: id}}, fields...))
	require.NoError(t, err)
	if f.docs[collection] == nil {
		f.docs[collection] = make(map[string]bson.Raw)
	}
	f.docs[collection][id.Hex()] = raw
}

func (f *fakeFinder) FindByIDs(ctx context.Context, collection string, ids []any) ([]bson.Raw, error) {
	f.calls[collection]++
	var out []bson.Raw
	for _, id := range ids {
		oid, ok := id.(bson.ObjectID)
		if !ok {
			continue
		}
		if doc, ok := f.docs[collection][oid.Hex()]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func TestResolve_GroupsByCollectionOneCallPerDepth(t *testing.T) {
	finder := newFakeFinder()
	id1, id2, id3 := bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()
	finder.put(t, "authors", id1, bson.D{{Key: "name", Value: "A"}})
	finder.put(t, "authors", id2, bson.D{{Key: "name", Value: "B"}})
	finder.put(t, "publishers", id3, bson.D{{Key: "name", Value: "C"}})

	resolver := NewResolver(finder)
	refs := []Ref{
		{Collection: "authors", ID: id1},
		{Collection: "authors", ID: id2},
		{Collection: "publishers", ID: id3},
	}

	resolved, err := resolver.Resolve(context.Background(), refs, 0, nil)
	require.NoError(t, err)
	assert.Len(t, resolved, 3)
	assert.Equal(t, 1, finder.calls["authors"])
	assert.Equal(t, 1, finder.calls["publishers"])
}

func TestResolve_DedupesRepeatedRefs(t *testing.T) {
	finder := newFakeFinder()
	id1 := bson.NewObjectID()
	finder.put(t, "authors", id1, bson.D{{Key: "name", Value: "A"}})

	resolver := NewResolver(finder)
	refs := []Ref{
		{Collection: "authors", ID: id1},
		{Collection: "authors", ID: id1},
	}

	resolved, err := resolver.Resolve(context.Background(), refs, 0, nil)
	require.NoError(t, err)
	assert.Len(t, resolved, 1)
}

func TestResolve_NestedDepthStopsOnNoNewRefs(t *testing.T) {
	finder := newFakeFinder()
	root, child := bson.NewObjectID(), bson.NewObjectID()
	finder.put(t, "posts", root, bson.D{{Key: "authorRef", Value: child}})
	finder.put(t, "authors", child, bson.D{{Key: "name", Value: "A"}})

	resolver := NewResolver(finder)
	extract := func(doc bson.Raw) []Ref {
		v := doc.Lookup("authorRef")
		if v.Type != bson.TypeObjectID {
			return nil
		}
		return []Ref{{Collection: "authors", ID: v.ObjectID()}}
	}

	resolved, err := resolver.Resolve(context.Background(), []Ref{{Collection: "posts", ID: root}}, 2, extract)
	require.NoError(t, err)
	assert.Len(t, resolved, 2)
	assert.Equal(t, 1, finder.calls["posts"])
	assert.Equal(t, 1, finder.calls["authors"])
}

func TestResolve_MissingDocumentOmitted(t *testing.T) {
	finder := newFakeFinder()
	resolver := NewResolver(finder)

	resolved, err := resolver.Resolve(context.Background(), []Ref{{Collection: "authors", ID: bson.NewObjectID()}}, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}
