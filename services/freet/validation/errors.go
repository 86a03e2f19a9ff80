// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation runs the ordered predicate checks every Freet endpoint
// applies before it touches the store.
//
// # Description
//
// A Pipeline is an explicit list of Predicates. Run evaluates them in
// order and stops at the first failure, returning an *Error whose Kind
// maps to the HTTP status. Later predicates may rely on earlier ones having
// passed, for example a format check assumes the presence check before it.
//
// # Error Taxonomy
//
//	KindValidation  400  malformed or missing input
//	KindAuth        403  caller is not logged in
//	KindNotFound    404  referenced record is absent
//	KindConflict    409  key already in use on create
package validation

import (
	"errors"
	"net/http"
)

// Kind classifies a rejected request.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
)

// Error is a predicate failure.
type Error struct {
	Kind Kind

	// Field keys the message in the response body. Empty renders the
	// message as a bare string.
	Field string

	Message string
}

// Error implements error.
func (e *Error) Error() string {
	if e.Field == "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind) + ": " + e.Field + ": " + e.Message
}

// StatusCode maps the kind to its HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindAuth:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// Body returns the value for the "error" key of the response.
func (e *Error) Body() any {
	if e.Field == "" {
		return e.Message
	}
	return map[string]string{e.Field: e.Message}
}

// Invalid returns a KindValidation error.
func Invalid(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NotFound returns a KindNotFound error.
func NotFound(field, message string) *Error {
	return &Error{Kind: KindNotFound, Field: field, Message: message}
}

// Conflict returns a KindConflict error.
func Conflict(field, message string) *Error {
	return &Error{Kind: KindConflict, Field: field, Message: message}
}

// NotLoggedIn is the error LoggedIn returns.
func NotLoggedIn() *Error {
	return &Error{Kind: KindAuth, Message: "You must be logged in to complete this action."}
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
