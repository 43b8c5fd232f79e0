// Copyright (C) bridgeorm authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package schema defines the engine's type descriptor model: the tagged
// variant used to describe a single field's shape and constraints, and
// the process-wide cache that maps a fully-qualified host class name to
// its DocumentSchema.
package schema

import "fmt"

// Primitive is the set of leaf BSON-mappable kinds a Descriptor can carry.
// Optional, Array and Object are not primitives; they are the recursive
// forms of Descriptor itself.
type Primitive int

const (
	Invalid Primitive = iota
	String
	Int64
	Double
	Bool
	Bytes
	DateTime
	Decimal
	ObjectID
	Null
	Any
)

func (p Primitive) String() string {
	switch p {
	case String:
		return "string"
	case Int64:
		return "int64"
	case Double:
		return "double"
	case Bool:
		return "bool"
	case Bytes:
		return "binary"
	case DateTime:
		return "datetime"
	case Decimal:
		return "decimal"
	case ObjectID:
		return "objectid"
	case Null:
		return "null"
	case Any:
		return "any"
	default:
		return "invalid"
	}
}

// Kind distinguishes the recursive shapes of a Descriptor from its leaves.
type Kind int

const (
	KindPrimitive Kind = iota
	KindOptional
	KindArray
	KindObject
)

// Descriptor is the engine's schema atom: a tagged variant covering every
// primitive plus the three recursive forms (Optional, Array, Object).
// Exactly one of the fields below is meaningful for a given Kind:
// Primitive for KindPrimitive, Inner for KindOptional, Items for KindArray,
// Fields for KindObject.
type Descriptor struct {
	Kind      Kind
	Primitive Primitive
	Inner     *Descriptor
	Items     *Descriptor
	Fields    map[string]FieldSchema
}

// Format is the closed vocabulary of string constraint formats. Deliberately
// minimal: adding a value here is an additive, visible change, never an
// inferred one.
type Format int

const (
	FormatNone Format = iota
	FormatEmail
	FormatURL
)

// Constraints bounds a Descriptor's accepted values beyond its type.
// A nil *int/*float64 field means "unbounded in that direction."
type Constraints struct {
	MinLength *int
	MaxLength *int
	Min       *float64
	Max       *float64
	Format    Format
}

// FieldSchema is one named slot of a DocumentSchema.
type FieldSchema struct {
	Descriptor  Descriptor
	Optional    bool
	Constraints *Constraints
}

// DocumentSchema is the top-level shape of a registered document class.
// Go map iteration order is not defined, so packages validate and convert
// walk fields in sorted name order; other callers that need a deterministic
// order should sort keys themselves.
type DocumentSchema map[string]FieldSchema

func NewPrimitive(p Primitive) Descriptor {
	return Descriptor{Kind: KindPrimitive, Primitive: p}
}

func NewOptional(inner Descriptor) Descriptor {
	return Descriptor{Kind: KindOptional, Inner: &inner}
}

func NewArray(items Descriptor) Descriptor {
	return Descriptor{Kind: KindArray, Items: &items}
}

func NewObject(fields map[string]FieldSchema) Descriptor {
	return Descriptor{Kind: KindObject, Fields: fields}
}

// String renders a Descriptor for diagnostics and error messages.
func (d Descriptor) String() string {
	switch d.Kind {
	case KindPrimitive:
		return d.Primitive.String()
	case KindOptional:
		if d.Inner == nil {
			return "optional<?>"
		}
		return fmt.Sprintf("optional<%s>", d.Inner.String())
	case KindArray:
		if d.Items == nil {
			return "array<?>"
		}
		return fmt.Sprintf("array<%s>", d.Items.String())
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}
