// Copyright (C) bridgeorm authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package convert implements the engine's two-phase BSON conversion
// pipeline (spec.md §4.4): Extract walks a host-shaped value into an
// ExtractedValue tree with no references back to host-runtime state, and
// Encode/Decode turn that tree into and out of BSON, optionally in
// parallel. The split exists so a host binding can release its runtime
// lock before the CPU-bound half of the work runs; see DESIGN.md for how
// that discipline maps onto a Go library that has no runtime lock of its
// own to release.
package convert

// Kind tags the variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt64
	KindDouble
	KindBool
	KindBytes
	KindDateTime
	KindDecimal
	KindObjectID
	KindArray
	KindDocument
)

// DocField is one named slot of a Document-kind Value, order-preserving.
type DocField struct {
	Name  string
	Value Value
}

// Value is ExtractedValue from spec.md §3: a tagged variant covering every
// BSON-mappable primitive plus Array and an order-preserving Document. It
// carries no references to host-runtime objects, which is precisely what
// makes Phase 2 safely parallelisable.
type Value struct {
	Kind Kind

	Str      string
	I64      int64
	F64      float64
	B        bool
	Bytes    []byte
	DateTime int64 // Unix milliseconds, matching BSON's UTC datetime wire form.
	Decimal  string
	ObjectID [12]byte

	Array    []Value
	Document []DocField
}

func Null() Value                 { return Value{Kind: KindNull} }
func FromString(s string) Value   { return Value{Kind: KindString, Str: s} }
func FromInt64(n int64) Value     { return Value{Kind: KindInt64, I64: n} }
func FromDouble(f float64) Value  { return Value{Kind: KindDouble, F64: f} }
func FromBool(b bool) Value       { return Value{Kind: KindBool, B: b} }
func FromBytes(b []byte) Value    { return Value{Kind: KindBytes, Bytes: b} }
func FromDateTimeMillis(ms int64) Value {
	return Value{Kind: KindDateTime, DateTime: ms}
}
func FromDecimalString(s string) Value { return Value{Kind: KindDecimal, Decimal: s} }
func FromObjectID(id [12]byte) Value   { return Value{Kind: KindObjectID, ObjectID: id} }
func FromArray(items []Value) Value    { return Value{Kind: KindArray, Array: items} }
func FromDocument(fields []DocField) Value {
	return Value{Kind: KindDocument, Document: fields}
}

// Get returns the Value of the named field of a Document-kind Value and
// whether it was found.
func (v Value) Get(name string) (Value, bool) {
	for _, f := range v.Document {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}
