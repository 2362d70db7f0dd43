// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package sqlerr defines the kinds of error raised while building and
// rendering statements.
package sqlerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is raised for malformed descriptors.
	ErrConfiguration = errors.New("configuration error")
	// ErrValueRequired is raised when a required parameter has neither a
	// value nor a default at render time.
	ErrValueRequired = errors.New("value required")
	// ErrInvalidArgument is raised when a node receives arguments it
	// cannot render.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotAllowed is raised for statements that must not be rendered,
	// such as an UPDATE without a WHERE clause.
	ErrNotAllowed = errors.New("operation not allowed")
)

// Error is an error of one of the kinds above raised for a named
// placeholder, column or statement part.
type Error struct {
	Kind   error
	Name   string
	Reason string
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Name, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New returns an *Error of the given kind.
func New(kind error, name string, format string, args ...any) error {
	return &Error{Kind: kind, Name: name, Reason: fmt.Sprintf(format, args...)}
}
