// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the blog API.
// Handlers are grouped by resource (users, blogs, tags, posts) and
// receive their services through the handler struct. Business rules live
// in the service package; handlers only decode, delegate and render.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogapi/internal/apperr"
	"blogapi/internal/render"
	"blogapi/internal/service"
)

// errInvalidPage mirrors the 404 returned for pages past the end.
var errInvalidPage = apperr.Statusf(http.StatusNotFound, "Invalid page.")

// Root lists the top level collections of the API.
func Root(w http.ResponseWriter, r *http.Request) {
	base := render.BaseURL(r)
	render.JSON(w, http.StatusOK, map[string]string{
		"users": base + "/api/users/",
		"blogs": base + "/api/blogs/",
		"posts": base + "/api/posts/",
		"tags":  base + "/api/tags/",
	})
}

// NotFound renders unknown routes as JSON.
func NotFound(w http.ResponseWriter, r *http.Request) {
	render.Error(w, r, apperr.ErrNotFound)
}

// MethodNotAllowed renders a JSON 405.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render.Error(w, r, apperr.Statusf(http.StatusMethodNotAllowed, "Method \"%s\" not allowed.", r.Method))
}

// pathID parses the {id} URL parameter. Malformed ids cannot name an
// existing object, so they are reported as not found.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.ErrNotFound
	}
	return id, nil
}

// pageFromQuery reads the page and page_size parameters. A malformed page
// number is an invalid page; a malformed page size falls back to the
// default.
func pageFromQuery(r *http.Request) (service.Page, error) {
	number, ok := render.QueryInt(r, "page", 1)
	if !ok {
		return service.Page{}, errInvalidPage
	}
	size, _ := render.QueryInt(r, "page_size", service.DefaultPageSize)
	return service.Page{Number: number, Size: size}, nil
}
