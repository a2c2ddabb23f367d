// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestCode(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "plain error", err: base, want: http.StatusInternalServerError},
		{name: "not found", err: ErrNotFound, want: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("get post: %w", ErrNotFound), want: http.StatusNotFound},
		{name: "denied", err: ErrPermissionDenied, want: http.StatusForbidden},
		{name: "unauthenticated", err: ErrNotAuthenticated, want: http.StatusUnauthorized},
		{name: "conflict", err: Conflict("slug exhausted"), want: http.StatusConflict},
		{name: "validation", err: Field("title", "This field is required."), want: http.StatusBadRequest},
		{name: "duplicate blog", err: &DuplicateBlogError{BlogID: uuid.New()}, want: http.StatusBadRequest},
		{name: "wrap", err: Wrap(http.StatusServiceUnavailable, base, "storage down"), want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStatusErrorIs(t *testing.T) {
	err := fmt.Errorf("delete tag: %w", ErrPermissionDenied)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Error("wrapped error should match ErrPermissionDenied")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("denied should not match not found")
	}
}

func TestWrapUnwraps(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(http.StatusServiceUnavailable, base, "storage unavailable")
	if !errors.Is(err, base) {
		t.Error("Wrap should keep the underlying error reachable")
	}
	if err.Error() != "storage unavailable" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidationError(t *testing.T) {
	verr := &ValidationError{}
	verr.Add("password", "too short").Add("password", "too common").Add("email", "invalid")

	if len(verr.Fields["password"]) != 2 {
		t.Errorf("password messages: got %d, want 2", len(verr.Fields["password"]))
	}
	if verr.Error() == "" {
		t.Error("Error() should not be empty")
	}

	err := Invalid("Invalid credentials")
	var target *ValidationError
	if !errors.As(err, &target) {
		t.Fatal("Invalid should build a ValidationError")
	}
	if got := target.Fields[NonFieldErrors]; len(got) != 1 || got[0] != "Invalid credentials" {
		t.Errorf("non_field_errors = %v", got)
	}
}
