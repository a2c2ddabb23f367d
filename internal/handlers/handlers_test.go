// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/internal/apperr"
	"blogapi/internal/service"
)

func TestRoot(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()

	Root(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	links := decodeBody[map[string]string](t, rec)
	assert.Equal(t, map[string]string{
		"users": "https://example.com/api/users/",
		"blogs": "https://example.com/api/blogs/",
		"posts": "https://example.com/api/posts/",
		"tags":  "https://example.com/api/tags/",
	}, links)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not found."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/api/posts/published/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"detail":"Method \"PATCH\" not allowed."}`, rec.Body.String())
}

func TestPageFromQuery(t *testing.T) {
	tests := []struct {
		query   string
		want    service.Page
		wantErr bool
	}{
		{query: "", want: service.Page{Number: 1, Size: service.DefaultPageSize}},
		{query: "page=3&page_size=10", want: service.Page{Number: 3, Size: 10}},
		{query: "page_size=abc", want: service.Page{Number: 1, Size: service.DefaultPageSize}},
		{query: "page=0", wantErr: true},
		{query: "page=last", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/posts/?"+tt.query, nil)
			got, err := pageFromQuery(req)
			if tt.wantErr {
				assert.ErrorIs(t, err, errInvalidPage)
				assert.Equal(t, http.StatusNotFound, apperr.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathID(t *testing.T) {
	_, err := pathID(withID(httptest.NewRequest(http.MethodGet, "/", nil), "not-a-uuid"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	id, err := pathID(withID(httptest.NewRequest(http.MethodGet, "/", nil), "6f1c1f9e-3b0a-4a52-9a55-0f0e3c1b2d4e"))
	require.NoError(t, err)
	assert.Equal(t, "6f1c1f9e-3b0a-4a52-9a55-0f0e3c1b2d4e", id.String())
}

func TestPostRepresentations(t *testing.T) {
	for _, op := range []postOperation{opList, opRetrieve, opCreate, opUpdate, opPartialUpdate} {
		rep := representationFor(op)
		assert.Equal(t, shapePostDetail, rep.out, "output shape of %s", op)
	}
	assert.Equal(t, shapeNone, representationFor(opList).in)
	assert.Equal(t, shapePostWrite, representationFor(opCreate).in)
	assert.True(t, representationFor(opPartialUpdate).partial)
	assert.False(t, representationFor(opUpdate).partial)
	assert.Equal(t, "post_write", shapePostWrite.String())

	assert.Panics(t, func() { representationFor("publish") })
}
