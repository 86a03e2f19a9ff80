// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/AleutianAI/freet/pkg/session"
)

// Fields is a decoded JSON object or query string.
type Fields map[string]any

// Get returns the field rendered as a string and whether it is present.
// JSON null counts as absent. Numbers and booleans render as their JSON
// text, so {"add": true} and {"add": "true"} read the same. Arrays and
// objects have no string form and read as absent; Pipeline.Run rejects
// them before any predicate sees them.
func (f Fields) Get(name string) (string, bool) {
	v, ok := f[name]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

// NonScalar returns the first field, in name order, holding an array or
// object.
func (f Fields) NonScalar() (string, bool) {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch f[name].(type) {
		case nil, string, bool, json.Number, float64:
		default:
			return name, true
		}
	}
	return "", false
}

// Given reports whether the field is present and non-blank.
func (f Fields) Given(name string) bool {
	v, ok := f.Get(name)
	return ok && strings.TrimSpace(v) != ""
}

// Source selects where a predicate reads its field.
type Source int

const (
	// Body reads the JSON request body.
	Body Source = iota
	// Query reads the URL query string.
	Query
)

// Request is what predicates inspect.
type Request struct {
	Body    Fields
	Query   Fields
	Session *session.Session
}

// Fields returns the field set for src.
func (r *Request) Fields(src Source) Fields {
	if src == Query {
		return r.Query
	}
	return r.Body
}

// Predicate is one check. It returns nil to pass or an error to halt.
// Errors other than *Error are store failures and surface as 500s.
type Predicate interface {
	Check(ctx context.Context, r *Request) error
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(ctx context.Context, r *Request) error

// Check implements Predicate.
func (f PredicateFunc) Check(ctx context.Context, r *Request) error {
	return f(ctx, r)
}

// Pipeline is a named, ordered list of predicates.
type Pipeline struct {
	Name       string
	Predicates []Predicate
}

// NewPipeline returns a pipeline running preds in order.
func NewPipeline(name string, preds ...Predicate) *Pipeline {
	return &Pipeline{Name: name, Predicates: preds}
}

// Run evaluates the predicates in order and returns the first failure.
// A body field holding an array or object fails first with a 400.
func (p *Pipeline) Run(ctx context.Context, r *Request) error {
	if field, ok := r.Body.NonScalar(); ok {
		return Invalid(field, field+" must be a string, number or boolean.")
	}
	for _, pred := range p.Predicates {
		if err := pred.Check(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
