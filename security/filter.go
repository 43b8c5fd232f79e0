// Copyright (C) bridgeorm authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package security implements the engine's pure identifier-validation and
// query-sanitisation functions (spec.md §4.1). Every operation that accepts
// a user-controlled collection name, field name or filter document routes
// through this package before any driver call is issued.
package security

import (
	"fmt"
	"strings"
)

// FieldContext distinguishes a field name appearing in a document body from
// one appearing as a query/update operator key, since the latter context
// allows names starting with "$" drawn from AllowedOperators.
type FieldContext int

const (
	FieldContextDocument FieldContext = iota
	FieldContextQueryOperator
)

// InvalidIdentifierError is returned by ValidateCollectionName and
// ValidateFieldName when the identifier fails the security rules.
type InvalidIdentifierError struct {
	Identifier string
	Reason     string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Identifier, e.Reason)
}

// AllowedOperators is the recognised update/query operator allowlist from
// spec.md §4.1. It is exported so the operation layer's update-document
// validation (spec.md §4.6) shares this single source of truth instead of
// duplicating the list.
var AllowedOperators = map[string]struct{}{
	"$set": {}, "$inc": {}, "$push": {}, "$pull": {},
	"$eq": {}, "$ne": {}, "$gt": {}, "$gte": {}, "$lt": {}, "$lte": {},
	"$in": {}, "$nin": {}, "$exists": {}, "$regex": {},
	"$and": {}, "$or": {}, "$not": {}, "$nor": {},
	"$all": {}, "$elemMatch": {}, "$size": {}, "$type": {},
	// Geospatial operators documented at the boundary.
	"$geoWithin": {}, "$geoIntersects": {}, "$near": {}, "$nearSphere": {},
}

// ValidateCollectionName succeeds iff name is non-empty, contains no null
// bytes, does not start with "system." and contains no "$".
func ValidateCollectionName(name string) error {
	if name == "" {
		return &InvalidIdentifierError{Identifier: name, Reason: "collection name must not be empty"}
	}
	if strings.ContainsRune(name, 0) {
		return &InvalidIdentifierError{Identifier: name, Reason: "collection name must not contain a null byte"}
	}
	if strings.HasPrefix(name, "system.") {
		return &InvalidIdentifierError{Identifier: name, Reason: `collection name must not start with "system."`}
	}
	if strings.ContainsRune(name, '$') {
		return &InvalidIdentifierError{Identifier: name, Reason: `collection name must not contain "$"`}
	}
	return nil
}

// ValidateFieldName succeeds iff name is non-empty, contains no null bytes,
// and either does not start with "$" or ctx is FieldContextQueryOperator and
// name is in AllowedOperators.
func ValidateFieldName(name string, ctx FieldContext) error {
	if name == "" {
		return &InvalidIdentifierError{Identifier: name, Reason: "field name must not be empty"}
	}
	if strings.ContainsRune(name, 0) {
		return &InvalidIdentifierError{Identifier: name, Reason: "field name must not contain a null byte"}
	}
	if !strings.HasPrefix(name, "$") {
		return nil
	}
	if ctx != FieldContextQueryOperator {
		return &InvalidIdentifierError{Identifier: name, Reason: `field name must not start with "$" outside a query operator context`}
	}
	if _, ok := AllowedOperators[name]; !ok {
		return &InvalidIdentifierError{Identifier: name, Reason: fmt.Sprintf("%q is not a recognised query/update operator", name)}
	}
	return nil
}

// ValidateIndexKeys applies ValidateFieldName to every key of an index
// specification. Index keys are user-controlled identifiers exactly like
// any other field name and must pass through the same filter.
func ValidateIndexKeys(keys map[string]any) error {
	for k := range keys {
		if err := ValidateFieldName(k, FieldContextDocument); err != nil {
			return err
		}
	}
	return nil
}
