package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for entities that do not exist in the caller's
// tenant scope. A cross-tenant id and a truly absent id are deliberately
// indistinguishable: RLS hides the row before the query sees it.
var ErrNotFound = errors.New("not found")

// ErrNoTenant means the authenticated principal could not be resolved to a
// tenant. Requests fail closed before any query runs.
var ErrNoTenant = errors.New("no tenant in context")

// ValidationError is a client error with field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError signals an optimistic-concurrency failure: the row changed
// between the caller's read and write.
type ConflictError struct {
	Entity          string
	ExpectedVersion int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s was modified concurrently (expected version %d)", e.Entity, e.ExpectedVersion)
}
