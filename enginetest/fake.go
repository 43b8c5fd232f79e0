// Copyright (C) bridgeorm authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package enginetest provides an in-memory fake of package engine's
// DriverCollection seam, modelled on the teacher's internal/assert package
// plus hand-rolled fakes rather than a generated mock — the teacher never
// reaches for a mocking library either, and a handful of map operations is
// enough to exercise the operation layer's validation, sanitisation and
// state-machine behaviour without a MongoDB connection.
package enginetest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Fake is an in-memory stand-in for one collection. It supports exact-match
// and $in filters over top-level fields (everything the operation layer's
// own tests need) and is not a general BSON query engine.
type Fake struct {
	mu    sync.Mutex
	docs  map[string]bson.D // keyed by a string form of _id
	order []string          // insertion order, for deterministic Find results
	calls map[string]int
}

// New constructs an empty Fake.
func New() *Fake {
	return &Fake{docs: make(map[string]bson.D), calls: make(map[string]int)}
}

// CallCount returns how many times op ("InsertOne", "Find", ...) was
// invoked, for asserting "at most one driver call per collection per depth
// level" style invariants.
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Seed inserts a document directly, bypassing the insert path, so a test
// can set up fixture data.
func (f *Fake) Seed(doc bson.D) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putLocked(doc)
}

func (f *Fake) count_(op string) {
	f.calls[op]++
}

func (f *Fake) putLocked(doc bson.D) {
	key := idKeyOf(doc)
	if _, exists := f.docs[key]; !exists {
		f.order = append(f.order, key)
	}
	f.docs[key] = doc
}

func idKeyOf(doc bson.D) string {
	for _, e := range doc {
		if e.Key == "_id" {
			return fmt.Sprintf("%v", normalize(e.Value))
		}
	}
	return ""
}

func normalize(v any) any {
	if oid, ok := v.(bson.ObjectID); ok {
		return oid.Hex()
	}
	if rv, ok := v.(bson.RawValue); ok && rv.Type == bson.TypeObjectID {
		return rv.ObjectID().Hex()
	}
	return v
}

func (f *Fake) InsertOne(ctx context.Context, doc bson.D) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count_("InsertOne")

	doc = ensureID(doc)
	key := idKeyOf(doc)
	if _, exists := f.docs[key]; exists {
		return nil, fmt.Errorf("E11000 duplicate key error: _id %s already exists", key)
	}
	f.putLocked(doc)
	return fieldValue(doc, "_id"), nil
}

func (f *Fake) InsertMany(ctx context.Context, docs []bson.D, ordered bool) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count_("InsertMany")

	ids := make([]any, 0, len(docs))
	for _, doc := range docs {
		doc = ensureID(doc)
		key := idKeyOf(doc)
		if _, exists := f.docs[key]; exists {
			if ordered {
				return ids, fmt.Errorf("E11000 duplicate key error: _id %s already exists", key)
			}
			continue
		}
		f.putLocked(doc)
		ids = append(ids, fieldValue(doc, "_id"))
	}
	return ids, nil
}

func (f *Fake) Find(ctx context.Context, filter, sortDoc bson.D, limit, skip int64) ([]bson.Raw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count_("Find")

	var matched []bson.D
	for _, key := range f.order {
		doc := f.docs[key]
		if matches(doc, filter) {
			matched = append(matched, doc)
		}
	}
	if len(sortDoc) > 0 {
		sortDocs(matched, sortDoc)
	}
	if skip > 0 {
		if int(skip) >= len(matched) {
			matched = nil
		} else {
			matched = matched[skip:]
		}
	}
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}

	out := make([]bson.Raw, len(matched))
	for i, d := range matched {
		raw, err := bson.Marshal(d)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

func (f *Fake) UpdateOne(ctx context.Context, filter, update bson.D, upsert bool) (matched, modified int64, upsertedID any, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count_("UpdateOne")

	for _, key := range f.order {
		doc := f.docs[key]
		if matches(doc, filter) {
			newDoc := applyUpdate(doc, update)
			f.docs[key] = newDoc
			return 1, 1, nil, nil
		}
	}
	if upsert {
		doc := applyUpdate(ensureID(nil), update)
		f.putLocked(doc)
		return 0, 0, fieldValue(doc, "_id"), nil
	}
	return 0, 0, nil, nil
}

func (f *Fake) UpdateMany(ctx context.Context, filter, update bson.D) (matched, modified int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count_("UpdateMany")

	for _, key := range f.order {
		doc := f.docs[key]
		if matches(doc, filter) {
			f.docs[key] = applyUpdate(doc, update)
			matched++
			modified++
		}
	}
	return matched, modified, nil
}

func (f *Fake) DeleteOne(ctx context.Context, filter bson.D) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count_("DeleteOne")

	for i, key := range f.order {
		if matches(f.docs[key], filter) {
			delete(f.docs, key)
			f.order = append(f.order[:i], f.order[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *Fake) DeleteMany(ctx context.Context, filter bson.D) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count_("DeleteMany")

	var remaining []string
	var n int64
	for _, key := range f.order {
		if matches(f.docs[key], filter) {
			delete(f.docs, key)
			n++
			continue
		}
		remaining = append(remaining, key)
	}
	f.order = remaining
	return n, nil
}

func (f *Fake) Count(ctx context.Context, filter bson.D) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count_("Count")

	var n int64
	for _, key := range f.order {
		if matches(f.docs[key], filter) {
			n++
		}
	}
	return n, nil
}

func (f *Fake) Aggregate(ctx context.Context, pipeline []bson.D) ([]bson.Raw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count_("Aggregate")
	return nil, fmt.Errorf("enginetest: Aggregate is not supported by the in-memory fake")
}

func ensureID(doc bson.D) bson.D {
	for _, e := range doc {
		if e.Key == "_id" {
			return doc
		}
	}
	out := make(bson.D, 0, len(doc)+1)
	out = append(out, bson.E{Key: "_id", Value: bson.NewObjectID()})
	out = append(out, doc...)
	return out
}

func fieldValue(doc bson.D, key string) any {
	for _, e := range doc {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// matches implements exact-match and {field: {"$in": [...]}} filters over
// top-level fields — the subset of query shape the operation layer's own
// tests issue. An empty filter matches everything.
func matches(doc bson.D, filter bson.D) bool {
	for _, f := range filter {
		fv := fieldValue(doc, f.Key)
		if sub, ok := f.Value.(bson.D); ok && len(sub) == 1 && sub[0].Key == "$in" {
			if !containsValue(sub[0].Value, fv) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(normalize(fv), normalize(f.Value)) {
			return false
		}
	}
	return true
}

func containsValue(list any, v any) bool {
	arr, ok := list.(bson.A)
	if !ok {
		return false
	}
	for _, item := range arr {
		if reflect.DeepEqual(normalize(item), normalize(v)) {
			return true
		}
	}
	return false
}

// applyUpdate supports only {"$set": {...}}, which is all the operation
// layer's Save and UpdateOne/UpdateMany paths ever build.
func applyUpdate(doc, update bson.D) bson.D {
	for _, u := range update {
		if u.Key != "$set" {
			continue
		}
		set, ok := u.Value.(bson.D)
		if !ok {
			continue
		}
		for _, e := range set {
			doc = setField(doc, e.Key, e.Value)
		}
	}
	return doc
}

func setField(doc bson.D, key string, value any) bson.D {
	for i, e := range doc {
		if e.Key == key {
			doc[i].Value = value
			return doc
		}
	}
	return append(doc, bson.E{Key: key, Value: value})
}

func sortDocs(docs []bson.D, sortSpec bson.D) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, s := range sortSpec {
			vi, vj := fieldValue(docs[i], s.Key), fieldValue(docs[j], s.Key)
			cmp := compare(vi, vj)
			if cmp == 0 {
				continue
			}
			dir, _ := s.Value.(int32)
			if dir < 0 {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compare(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
