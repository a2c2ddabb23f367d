// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines errors that carry an HTTP status code, so the
// service layer can say what went wrong and the transport layer can decide
// how to render it.
package apperr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

var (
	ErrNotAuthenticated = Statusf(http.StatusUnauthorized, "Authentication credentials were not provided.")
	ErrPermissionDenied = Statusf(http.StatusForbidden, "You do not have permission to perform this action.")
	ErrNotFound         = Statusf(http.StatusNotFound, "Not found.")
)

var _ error = &statusError{}

type statusError struct {
	Code int
	Text string

	WrappedError error
}

func (s *statusError) LogValue() slog.Value {
	if s == nil {
		return slog.Value{}
	}
	return slog.StringValue(s.Text)
}

func (s *statusError) Error() string {
	return s.Text
}

func (s *statusError) Unwrap() error {
	return s.WrappedError
}

func (s *statusError) Is(target error) bool {
	if err, ok := target.(*statusError); ok {
		return err.Code == s.Code && err.Text == s.Text
	}
	return false
}

// Statusf builds an error rendered with the given HTTP status.
func Statusf(status int, format string, args ...any) error {
	return &statusError{Code: status, Text: fmt.Sprintf(format, args...)}
}

// Wrap attaches a status to an underlying error while keeping it
// reachable through errors.Is / errors.As.
func Wrap(status int, err error, text string) error {
	return &statusError{Code: status, Text: text, WrappedError: err}
}

// Conflict reports a write that cannot complete because of existing data.
func Conflict(format string, args ...any) error {
	return Statusf(http.StatusConflict, format, args...)
}

// Code returns the HTTP status for err: 200 for nil, the carried status
// for status-bearing errors and 500 for everything else.
func Code(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	var derr *DuplicateBlogError
	if errors.As(err, &derr) {
		return http.StatusBadRequest
	}
	var serr *statusError
	if errors.As(err, &serr) {
		return serr.Code
	}
	return http.StatusInternalServerError
}

// NonFieldErrors is the key for messages that do not belong to a single field.
const NonFieldErrors = "non_field_errors"

// ValidationError maps input field names to the messages describing what
// is wrong with them.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	for field, msgs := range e.Fields {
		if len(msgs) > 0 {
			return fmt.Sprintf("%s: %s", field, msgs[0])
		}
	}
	return "invalid input"
}

// Add appends a message for field and returns the receiver for chaining.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

// Field builds a validation error with a single field message.
func Field(field, msg string) error {
	return (&ValidationError{}).Add(field, msg)
}

// Invalid builds a validation error that is not tied to a field.
func Invalid(msg string) error {
	return Field(NonFieldErrors, msg)
}

// DuplicateBlogError is returned when a user who already owns a blog asks
// for another one. It points at the existing blog.
type DuplicateBlogError struct {
	BlogID uuid.UUID
}

func (e *DuplicateBlogError) Error() string {
	return "User already has a blog"
}

// Message is the human readable explanation sent with the error.
func (e *DuplicateBlogError) Message() string {
	return "Each user can only have one blog. Use PUT or PATCH to update your existing blog."
}
