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
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/AleutianAI/freet/services/freet/storage"
	"github.com/go-playground/validator/v10"
)

// Format tags understood by Format, on top of validator's built-ins
// ("mongodb" checks a 24-hex object id).
const (
	TagUsername = "username"
	TagPhone    = "phone"
	TagObjectID = "mongodb"
)

var (
	usernamePattern = regexp.MustCompile(`^\w+$`)
	phonePattern    = regexp.MustCompile(`^[0-9]{10}$`)
)

// fieldValidate is shared by every format predicate.
// Initialized in init() with the Freet tags.
var fieldValidate *validator.Validate

func init() {
	fieldValidate = validator.New()
	_ = fieldValidate.RegisterValidation(TagUsername, func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = fieldValidate.RegisterValidation(TagPhone, func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}

// ValidUsername reports whether name is a non-empty run of word characters.
func ValidUsername(name string) bool {
	return fieldValidate.Var(name, TagUsername) == nil
}

// LoggedIn rejects requests without a session.
func LoggedIn() Predicate {
	return PredicateFunc(func(_ context.Context, r *Request) error {
		if r.Session == nil {
			return NotLoggedIn()
		}
		return nil
	})
}

// Required rejects a request whose field is absent or blank.
func Required(src Source, field, message string) Predicate {
	return PredicateFunc(func(_ context.Context, r *Request) error {
		if !r.Fields(src).Given(field) {
			return Invalid(field, message)
		}
		return nil
	})
}

// RequiredMessage is Required with an unkeyed message, for endpoints whose
// error body is a bare string.
func RequiredMessage(src Source, field, message string) Predicate {
	return PredicateFunc(func(_ context.Context, r *Request) error {
		if !r.Fields(src).Given(field) {
			return Invalid("", message)
		}
		return nil
	})
}

// RequiredAll rejects the request unless every field is given, reporting
// one error under key.
func RequiredAll(src Source, key, message string, fields ...string) Predicate {
	return PredicateFunc(func(_ context.Context, r *Request) error {
		for _, field := range fields {
			if !r.Fields(src).Given(field) {
				return Invalid(key, message)
			}
		}
		return nil
	})
}

// Present rejects a request whose field is absent or null. Unlike Required,
// false and 0 count as given.
func Present(src Source, field, message string) Predicate {
	return PredicateFunc(func(_ context.Context, r *Request) error {
		v, ok := r.Fields(src).Get(field)
		if !ok || v == "" {
			return Invalid(field, message)
		}
		return nil
	})
}

// Format checks each named field against a validator tag, reporting under
// key. Absent and empty fields pass; pair with Required when they must be
// given.
func Format(src Source, key, tag, message string, fields ...string) Predicate {
	return PredicateFunc(func(_ context.Context, r *Request) error {
		for _, field := range fields {
			v, ok := r.Fields(src).Get(field)
			if !ok || v == "" {
				continue
			}
			if fieldValidate.Var(v, tag) != nil {
				return Invalid(key, message)
			}
		}
		return nil
	})
}

// FormatExcept is Format with literal values that always pass, such as the
// contact delete sentinel.
func FormatExcept(src Source, key, tag, message string, allowed []string, field string) Predicate {
	inner := Format(src, key, tag, message, field)
	return PredicateFunc(func(ctx context.Context, r *Request) error {
		v, _ := r.Fields(src).Get(field)
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return inner.Check(ctx, r)
	})
}

// OneOf rejects a present field whose value is not one of values.
// Comparison is case-sensitive.
func OneOf(src Source, field, message string, values ...string) Predicate {
	tag := "oneof=" + strings.Join(values, " ")
	return PredicateFunc(func(_ context.Context, r *Request) error {
		v, ok := r.Fields(src).Get(field)
		if !ok {
			return nil
		}
		if fieldValidate.Var(v, tag) != nil {
			return Invalid(field, message)
		}
		return nil
	})
}

// MaxLength rejects a field longer than limit characters.
func MaxLength(src Source, field, message string, limit int) Predicate {
	return PredicateFunc(func(_ context.Context, r *Request) error {
		v, _ := r.Fields(src).Get(field)
		if utf8.RuneCountInString(v) > limit {
			return Invalid(field, message)
		}
		return nil
	})
}

// Lookup reports whether a record exists under key. It returns
// storage.ErrNotFound (possibly wrapped) when it does not.
type Lookup func(ctx context.Context, key string) error

// Exists fails with 404 when the record named by field is absent.
func Exists(src Source, field string, lookup Lookup, fail func(value string) *Error) Predicate {
	return PredicateFunc(func(ctx context.Context, r *Request) error {
		v, _ := r.Fields(src).Get(field)
		err := lookup(ctx, v)
		if errors.Is(err, storage.ErrNotFound) {
			return fail(v)
		}
		return err
	})
}

// NotExists fails with 409 when the record named by field is present.
func NotExists(src Source, field string, lookup Lookup, fail func(value string) *Error) Predicate {
	return PredicateFunc(func(ctx context.Context, r *Request) error {
		v, _ := r.Fields(src).Get(field)
		err := lookup(ctx, v)
		switch {
		case err == nil:
			return fail(v)
		case errors.Is(err, storage.ErrNotFound):
			return nil
		default:
			return err
		}
	})
}

// Case is one branch of FirstGiven.
type Case struct {
	Field string
	Check Predicate
}

// FirstGiven runs the check of the first case whose field is given, or
// fails with otherwise when none is.
func FirstGiven(src Source, otherwise *Error, cases ...Case) Predicate {
	return PredicateFunc(func(ctx context.Context, r *Request) error {
		for _, c := range cases {
			if r.Fields(src).Given(c.Field) {
				return c.Check.Check(ctx, r)
			}
		}
		return otherwise
	})
}

// Switch runs the predicates registered for the value of field. Values
// without an entry pass.
func Switch(src Source, field string, branches map[string][]Predicate) Predicate {
	return PredicateFunc(func(ctx context.Context, r *Request) error {
		v, _ := r.Fields(src).Get(field)
		for _, pred := range branches[v] {
			if err := pred.Check(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
}
