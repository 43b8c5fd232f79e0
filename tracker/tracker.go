// Copyright (C) bridgeorm authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package tracker implements the per-document copy-on-write field change
// set described in spec.md §4.5/§3. A Tracker never deep-copies a whole
// document; it remembers only the first-seen value of each field that
// changes, which is exactly enough to build a minimal $set payload.
package tracker

import "sync"

// Tracker is the state record from spec.md §3: data holds the document's
// current field values, original holds the pre-change snapshot for every
// field present in changed, and changed is the set of field names touched
// since the last reset.
//
// Invariant: changed == domain(original), and every key in original held
// its value at the moment TrackChange first recorded it — never updated on
// a later write to the same field within the same change window.
//
// Known limitation, carried over from spec.md §4.5 verbatim: mutating a
// nested container in place (e.g. appending to a slice stored in a field)
// does not flow through TrackChange and is not detected. The documented
// pattern is to reassign the outer field.
type Tracker struct {
	mu      sync.Mutex
	data     map[string]any
	original map[string]any
	changed  map[string]struct{}
}

// New constructs a Tracker over data. data is not copied; the tracker
// operates on the same map the caller holds, matching spec.md's framing of
// Document as "{_id, data, state_tracker, class-name}" where the tracker
// and the document share one data map.
func New(data map[string]any) *Tracker {
	return &Tracker{
		data:     data,
		original: make(map[string]any),
		changed:  make(map[string]struct{}),
	}
}

// TrackChange records that field name is about to change from oldValue. If
// name is already in the changed set, this is a no-op: the first-write
// snapshot is the only one the tracker ever needs, since get_changes only
// cares about the field's current value at save time, not its history.
func (t *Tracker) TrackChange(name string, oldValue any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, already := t.changed[name]; already {
		return
	}
	t.changed[name] = struct{}{}
	t.original[name] = oldValue
}

// IsModified reports whether any field has been tracked as changed since
// the last Reset.
func (t *Tracker) IsModified() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.changed) > 0
}

// GetChanges returns a mapping from each changed field name to its current
// value in data. Used to build the $set payload for a minimal update. If
// IsModified is false, GetChanges always returns an empty map, regardless
// of mutations applied directly to data that never went through
// TrackChange — the tracker can only see reassignments it was told about.
func (t *Tracker) GetChanges(data map[string]any) map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]any, len(t.changed))
	for name := range t.changed {
		out[name] = data[name]
	}
	return out
}

// Rollback restores every changed field in data from its recorded original
// value, then clears the tracker exactly as Reset does.
func (t *Tracker) Rollback(data map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name := range t.changed {
		data[name] = t.original[name]
	}
	t.clearLocked()
}

// Reset clears original and changed atomically with respect to any
// in-progress save: a concurrent TrackChange call blocks on the same mutex
// Reset holds, so no caller can observe a Tracker with changed non-empty
// but original already cleared, or vice versa.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked()
}

func (t *Tracker) clearLocked() {
	t.original = make(map[string]any)
	t.changed = make(map[string]struct{})
}

// Snapshot returns a shallow copy of the tracker's recorded original
// values. Not part of spec.md's contract; package engine does not call it
// (Save does not attach these values to any error).
func (t *Tracker) Snapshot() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]any, len(t.original))
	for k, v := range t.original {
		out[k] = v
	}
	return out
}
