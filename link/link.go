// Copyright (C) bridgeorm authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package link implements batched resolution of Link/BackLink references
// (spec.md §4.6 "Link resolution"), factored out of package engine because
// it is independently testable against the "at most one driver call per
// target collection per depth level" invariant without a real MongoDB
// connection — a Finder fake is enough.
package link

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Ref is an unresolved Link[T]/BackLink[T] reference: the collection it
// points into and the _id value to fetch from it.
type Ref struct {
	Collection string
	ID         any
}

// key turns a Ref into a value usable as a map key even when ID holds a
// non-comparable-by-default but structurally comparable type such as
// bson.ObjectID ([12]byte, already comparable) or a string; ID values that
// are themselves maps or slices are rejected by the security/validate
// layers long before a Ref reaches here, so this never needs to handle
// them.
func (r Ref) key() Ref { return r }

// Finder is the batched by-id lookup the resolver needs. Package engine
// satisfies it with an adapter over its Client (used by
// Collection.FetchLinks), not with Collection itself; defining the
// interface here (rather than importing engine) keeps link acyclic and
// independently testable with an in-memory fake.
type Finder interface {
	FindByIDs(ctx context.Context, collection string, ids []any) ([]bson.Raw, error)
}

// Resolver resolves batches of Refs against a Finder, grouping by
// collection so that a single depth level issues at most one
// find({_id:{$in:[...]}}) per distinct collection, regardless of how many
// individual Refs named that collection.
type Resolver struct {
	Finder Finder
}

// NewResolver constructs a Resolver over finder.
func NewResolver(finder Finder) *Resolver {
	return &Resolver{Finder: finder}
}

// ExtractIDs is implemented by callers that need to discover further Refs
// nested inside an already-resolved document, to support multi-level
// resolution without the resolver itself knowing anything about schemas.
type ExtractIDs func(doc bson.Raw) []Ref

// Resolve fetches every Ref in refs, then — while depth remains and
// extractNested is non-nil — fetches any newly discovered Refs nested
// inside the documents just fetched, up to depth additional levels.
// Cycle detection is a seen-id set keyed by (collection, id): a Ref whose
// key has already been resolved, at any prior level, is never re-fetched.
// Resolve returns as soon as a level discovers no Ref not already seen, or
// depth is exhausted, whichever comes first.
func (r *Resolver) Resolve(ctx context.Context, refs []Ref, depth int, extractNested ExtractIDs) (map[Ref]bson.Raw, error) {
	resolved := make(map[Ref]bson.Raw)
	seen := make(map[Ref]struct{})

	level := dedupe(refs, seen)
	for d := 0; d <= depth; d++ {
		if len(level) == 0 {
			break
		}
		fetched, err := r.resolveLevel(ctx, level)
		if err != nil {
			return nil, err
		}
		for ref, raw := range fetched {
			resolved[ref] = raw
		}

		if extractNested == nil || d == depth {
			break
		}

		var next []Ref
		for _, raw := range fetched {
			next = append(next, extractNested(raw)...)
		}
		level = dedupe(next, seen)
	}
	return resolved, nil
}

// resolveLevel fetches every ref in one batch, grouped by collection so
// that each distinct collection in refs generates exactly one Finder call.
func (r *Resolver) resolveLevel(ctx context.Context, refs []Ref) (map[Ref]bson.Raw, error) {
	byCollection := make(map[string][]Ref)
	for _, ref := range refs {
		byCollection[ref.Collection] = append(byCollection[ref.Collection], ref)
	}

	collections := make([]string, 0, len(byCollection))
	for c := range byCollection {
		collections = append(collections, c)
	}
	sort.Strings(collections)

	out := make(map[Ref]bson.Raw)
	for _, collection := range collections {
		group := byCollection[collection]
		ids := make([]any, len(group))
		for i, ref := range group {
			ids[i] = ref.ID
		}

		docs, err := r.Finder.FindByIDs(ctx, collection, ids)
		if err != nil {
			return nil, fmt.Errorf("resolving links in %q: %w", collection, err)
		}

		byID := make(map[any]bson.Raw, len(docs))
		for _, doc := range docs {
			byID[idKey(doc.Lookup("_id"))] = doc
		}
		for _, ref := range group {
			if raw, ok := byID[idKey(ref.ID)]; ok {
				out[ref.key()] = raw
			}
		}
	}
	return out, nil
}

// idKey normalises an _id value — whether it arrived as a Go-native Ref.ID
// or as a decoded bson.RawValue read back off a fetched document — into a
// single comparable representation, so the two can be matched against each
// other regardless of which form each happens to be in.
func idKey(v any) any {
	switch id := v.(type) {
	case bson.RawValue:
		switch id.Type {
		case bson.TypeObjectID:
			return id.ObjectID().Hex()
		case bson.TypeString:
			return id.StringValue()
		case bson.TypeInt64:
			return id.Int64()
		case bson.TypeInt32:
			return int64(id.Int32())
		default:
			return id.String()
		}
	case bson.ObjectID:
		return id.Hex()
	case [12]byte:
		return bson.ObjectID(id).Hex()
	default:
		return id
	}
}

func dedupe(refs []Ref, seen map[Ref]struct{}) []Ref {
	var out []Ref
	for _, ref := range refs {
		k := ref.key()
		if _, already := seen[k]; already {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, ref)
	}
	return out
}
