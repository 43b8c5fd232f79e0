// Copyright (C) bridgeorm authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package ecode is the engine's stable error taxonomy (spec.md §7). Every
// exported error is a concrete type implementing error and Kind, never a
// bare errors.New string — the same discipline the canonical driver's
// mongo.WriteError/WriteErrors/BulkWriteError follow.
package ecode

import (
	"fmt"

	"github.com/bridgeorm/engine/validate"
)

// Kind is the stable, machine-readable enumeration from spec.md §7.
type Kind int

const (
	KindInvalidIdentifier Kind = iota
	KindDangerousOperator
	KindInvalidDocument
	KindUnconvertibleValue
	KindSchemaNotFound
	KindDriverError
	KindTimeout
	KindOperationCancelled
	KindDuplicateKey
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidIdentifier:
		return "InvalidIdentifier"
	case KindDangerousOperator:
		return "DangerousOperator"
	case KindInvalidDocument:
		return "InvalidDocument"
	case KindUnconvertibleValue:
		return "UnconvertibleValue"
	case KindSchemaNotFound:
		return "SchemaNotFound"
	case KindDriverError:
		return "DriverError"
	case KindTimeout:
		return "Timeout"
	case KindOperationCancelled:
		return "OperationCancelled"
	case KindDuplicateKey:
		return "DuplicateKey"
	case KindNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// InvalidIdentifier wraps a rejection from package security's collection or
// field name checks.
type InvalidIdentifier struct{ Cause error }

func (e *InvalidIdentifier) Error() string { return fmt.Sprintf("invalid identifier: %s", e.Cause) }
func (e *InvalidIdentifier) Kind() Kind    { return KindInvalidIdentifier }
func (e *InvalidIdentifier) Unwrap() error { return e.Cause }

// DangerousOperator wraps a rejection from the query sanitiser.
type DangerousOperator struct{ Cause error }

func (e *DangerousOperator) Error() string { return fmt.Sprintf("dangerous operator: %s", e.Cause) }
func (e *DangerousOperator) Kind() Kind    { return KindDangerousOperator }
func (e *DangerousOperator) Unwrap() error { return e.Cause }

// InvalidDocument carries every violation the validator found, per
// spec.md's "every violation reported" all-or-nothing contract.
type InvalidDocument struct{ Errors []validate.Error }

func (e *InvalidDocument) Error() string {
	return fmt.Sprintf("invalid document: %d validation error(s), first: %s", len(e.Errors), firstOrEmpty(e.Errors))
}
func (e *InvalidDocument) Kind() Kind { return KindInvalidDocument }

func firstOrEmpty(errs []validate.Error) string {
	if len(errs) == 0 {
		return "<none>"
	}
	return errs[0].String()
}

// UnconvertibleValue wraps package convert's ErrUnconvertible.
type UnconvertibleValue struct {
	Path  string
	Cause error
}

func (e *UnconvertibleValue) Error() string {
	return fmt.Sprintf("unconvertible value at %q: %s", e.Path, e.Cause)
}
func (e *UnconvertibleValue) Kind() Kind    { return KindUnconvertibleValue }
func (e *UnconvertibleValue) Unwrap() error { return e.Cause }

// SchemaNotFound is raised when validation is requested for a class that
// was never registered.
type SchemaNotFound struct{ Class string }

func (e *SchemaNotFound) Error() string { return fmt.Sprintf("schema not found for class %q", e.Class) }
func (e *SchemaNotFound) Kind() Kind    { return KindSchemaNotFound }

// DriverError wraps any error the underlying go.mongodb.org/mongo-driver/v2
// call returned that isn't one of the other, more specific kinds below.
type DriverError struct {
	Cause   error
	Details map[string]any
}

func (e *DriverError) Error() string { return fmt.Sprintf("driver error: %s", e.Cause) }
func (e *DriverError) Kind() Kind    { return KindDriverError }
func (e *DriverError) Unwrap() error { return e.Cause }

// Timeout is raised when an operation's context deadline expires before
// the driver call completes.
type Timeout struct{ Cause error }

func (e *Timeout) Error() string { return fmt.Sprintf("timeout: %s", e.Cause) }
func (e *Timeout) Kind() Kind    { return KindTimeout }
func (e *Timeout) Unwrap() error { return e.Cause }

// OperationCancelled is raised when the caller's context is cancelled at a
// suspension point. Per spec.md §5, already-issued writes may or may not
// have completed; the engine does not attempt to determine this.
type OperationCancelled struct{ Cause error }

func (e *OperationCancelled) Error() string { return fmt.Sprintf("operation cancelled: %s", e.Cause) }
func (e *OperationCancelled) Kind() Kind    { return KindOperationCancelled }
func (e *OperationCancelled) Unwrap() error { return e.Cause }

// DuplicateKey wraps a driver-reported unique index violation.
type DuplicateKey struct {
	Collection string
	Cause      error
}

func (e *DuplicateKey) Error() string {
	return fmt.Sprintf("duplicate key in %q: %s", e.Collection, e.Cause)
}
func (e *DuplicateKey) Kind() Kind    { return KindDuplicateKey }
func (e *DuplicateKey) Unwrap() error { return e.Cause }

// NotFound is returned by engine.Collection.Save when its updateOne
// modifies no document. UpdateOne, UpdateMany, DeleteOne and DeleteMany have
// no required flag and never return it; they report zero counts instead.
type NotFound struct {
	Collection string
	Filter     string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("no document in %q matched %s", e.Collection, e.Filter)
}
func (e *NotFound) Kind() Kind { return KindNotFound }
