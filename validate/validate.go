// Copyright (C) bridgeorm authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package validate implements the engine's recursive structural and
// constraint validator (spec.md §4.3). Validate is a pure function of
// (value, descriptor): it never fails fatally, it only ever returns a list
// of violations. The operation layer decides when that list becomes a
// fatal InvalidDocument error.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bridgeorm/engine/schema"
)

// Kind enumerates the categories of a single Error.
type Kind int

const (
	FieldRequired Kind = iota
	NotNullable
	TypeMismatch
	ConstraintViolation
	UnknownPrimitive
)

func (k Kind) String() string {
	switch k {
	case FieldRequired:
		return "field_required"
	case NotNullable:
		return "not_nullable"
	case TypeMismatch:
		return "type_mismatch"
	case ConstraintViolation:
		return "constraint_violation"
	case UnknownPrimitive:
		return "unknown_primitive"
	default:
		return "unknown"
	}
}

// Error is one path-tagged validation violation. FieldPath uses dotted
// nesting for objects and "name[index]" for array elements, e.g.
// "address.city", "tags[2].label".
type Error struct {
	FieldPath string
	Kind      Kind
	Expected  string
	Got       string
	Message   string
}

func (e Error) String() string {
	return fmt.Sprintf("%s: %s", e.FieldPath, e.Message)
}

var emailRE = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Validate recursively checks value against d and returns every violation
// found, in deterministic pre-order (object fields in sorted name order,
// array elements left to right). "No errors" is represented as a nil slice,
// for call sites using len()==0.
func Validate(value any, d schema.Descriptor) []Error {
	return validateField("", value, d, false)
}

// ValidateDocument validates a top-level document against a DocumentSchema,
// treating doc as the fields of an implicit KindObject descriptor. This is
// the entry point the operation layer uses for insert/update payloads.
func ValidateDocument(doc map[string]any, s schema.DocumentSchema) []Error {
	return validateObjectFields("", doc, s)
}

// validateField validates a single (possibly-missing) field. keyMissing
// distinguishes "key absent" from "key present with value nil" (array
// elements always count as present); top-level Validate calls always treat
// the value as present.
func validateField(path string, value any, d schema.Descriptor, keyMissing bool) []Error {
	if d.Kind == schema.KindOptional {
		if keyMissing || value == nil {
			return nil
		}
		return validateField(path, value, *d.Inner, false)
	}

	if keyMissing {
		return []Error{{FieldPath: path, Kind: FieldRequired, Expected: d.String(), Message: fmt.Sprintf("field %q is required", path)}}
	}
	if value == nil {
		return []Error{{FieldPath: path, Kind: NotNullable, Expected: d.String(), Message: fmt.Sprintf("field %q is not nullable", path)}}
	}

	switch d.Kind {
	case schema.KindArray:
		return validateArray(path, value, *d.Items)
	case schema.KindObject:
		return validateObject(path, value, d.Fields)
	case schema.KindPrimitive:
		return validatePrimitive(path, value, d)
	default:
		return []Error{{FieldPath: path, Kind: UnknownPrimitive, Message: fmt.Sprintf("field %q has an unrecognised descriptor", path)}}
	}
}

func validateArray(path string, value any, items schema.Descriptor) []Error {
	seq, ok := asSequence(value)
	if !ok {
		return []Error{{FieldPath: path, Kind: TypeMismatch, Expected: "array", Got: typeName(value), Message: fmt.Sprintf("field %q expected an array, got %s", path, typeName(value))}}
	}
	var errs []Error
	for i, elem := range seq {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		errs = append(errs, validateField(elemPath, elem, items, false)...)
	}
	return errs
}

func validateObject(path string, value any, fields map[string]schema.FieldSchema) []Error {
	obj, ok := asMapping(value)
	if !ok {
		return []Error{{FieldPath: path, Kind: TypeMismatch, Expected: "object", Got: typeName(value), Message: fmt.Sprintf("field %q expected an object, got %s", path, typeName(value))}}
	}
	return validateObjectFields(path, obj, fields)
}

// validateObjectFields walks fields in a name-sorted order so the
// "deterministic pre-order" guarantee holds independent of Go's randomised
// map iteration. Extra keys present in obj but not in fields are allowed
// (permissive schema) unless a caller enforces strict mode separately.
func validateObjectFields(basePath string, obj map[string]any, fields map[string]schema.FieldSchema) []Error {
	names := sortedKeys(fields)
	var errs []Error
	for _, name := range names {
		fs := fields[name]
		fieldPath := name
		if basePath != "" {
			fieldPath = basePath + "." + name
		}
		value, present := obj[name]

		d := fs.Descriptor
		if fs.Optional {
			d = schema.NewOptional(d)
		}
		errs = append(errs, validateField(fieldPath, value, d, !present)...)

		if present && value != nil && fs.Constraints != nil {
			errs = append(errs, checkConstraints(fieldPath, value, fs.Descriptor, fs.Constraints)...)
		}
	}
	return errs
}

func validatePrimitive(path string, value any, d schema.Descriptor) []Error {
	if d.Primitive == schema.Any {
		return nil
	}
	if !primitiveMatches(value, d.Primitive) {
		return []Error{{
			FieldPath: path,
			Kind:      TypeMismatch,
			Expected:  d.Primitive.String(),
			Got:       typeName(value),
			Message:   fmt.Sprintf("field %q expected %s, got %s", path, d.Primitive, typeName(value)),
		}}
	}
	return nil
}

func checkConstraints(path string, value any, d schema.Descriptor, c *schema.Constraints) []Error {
	var errs []Error
	switch d.Kind {
	case schema.KindPrimitive:
		switch d.Primitive {
		case schema.String:
			s, _ := value.(string)
			n := len([]rune(s))
			if c.MinLength != nil && n < *c.MinLength {
				errs = append(errs, lengthError(path, n, *c.MinLength, true))
			}
			if c.MaxLength != nil && n > *c.MaxLength {
				errs = append(errs, lengthError(path, n, *c.MaxLength, false))
			}
			switch c.Format {
			case schema.FormatEmail:
				if !emailRE.MatchString(s) {
					errs = append(errs, formatError(path, "email"))
				}
			case schema.FormatURL:
				if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
					errs = append(errs, formatError(path, "url"))
				}
			}
		case schema.Int64, schema.Double:
			f, ok := numericValue(value)
			if ok {
				if c.Min != nil && f < *c.Min {
					errs = append(errs, rangeError(path, f, *c.Min, true))
				}
				if c.Max != nil && f > *c.Max {
					errs = append(errs, rangeError(path, f, *c.Max, false))
				}
			}
		}
	case schema.KindArray:
		if seq, ok := asSequence(value); ok {
			n := len(seq)
			if c.MinLength != nil && n < *c.MinLength {
				errs = append(errs, lengthError(path, n, *c.MinLength, true))
			}
			if c.MaxLength != nil && n > *c.MaxLength {
				errs = append(errs, lengthError(path, n, *c.MaxLength, false))
			}
		}
	}
	return errs
}

func lengthError(path string, got, bound int, isMin bool) Error {
	word := "min_length"
	if !isMin {
		word = "max_length"
	}
	return Error{
		FieldPath: path,
		Kind:      ConstraintViolation,
		Expected:  fmt.Sprintf("%s=%d", word, bound),
		Got:       fmt.Sprintf("%d", got),
		Message:   fmt.Sprintf("field %q violates %s=%d (got %d)", path, word, bound, got),
	}
}

func rangeError(path string, got, bound float64, isMin bool) Error {
	word := "min"
	if !isMin {
		word = "max"
	}
	return Error{
		FieldPath: path,
		Kind:      ConstraintViolation,
		Expected:  fmt.Sprintf("%s=%v", word, bound),
		Got:       fmt.Sprintf("%v", got),
		Message:   fmt.Sprintf("field %q violates %s=%v (got %v)", path, word, bound, got),
	}
}

func formatError(path, format string) Error {
	return Error{
		FieldPath: path,
		Kind:      ConstraintViolation,
		Expected:  fmt.Sprintf("format=%s", format),
		Message:   fmt.Sprintf("field %q does not match format=%s", path, format),
	}
}
