// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render writes JSON responses for the API. Errors produced by
// the service layer are mapped to their HTTP status and body shape here.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"blogapi/internal/apperr"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		if strings.Contains(err.Error(), "broken pipe") {
			return
		}
		slog.Error("write json response", "error", err)
	}
}

// Raw writes an already encoded JSON body.
func Raw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body) //nolint:errcheck
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Detail writes the {"detail": msg} body used for non-field errors.
func Detail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"detail": msg})
}

// duplicateBlogBody is the body returned when a user asks for a second blog.
type duplicateBlogBody struct {
	Error           string `json:"error"`
	Message         string `json:"message"`
	ExistingBlogID  string `json:"existing_blog_id"`
	ExistingBlogURL string `json:"existing_blog_url"`
}

// Error writes err with the status and body its type calls for.
// Unexpected errors are logged and hidden behind a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		JSON(w, http.StatusBadRequest, verr.Fields)
		return
	}

	var derr *apperr.DuplicateBlogError
	if errors.As(err, &derr) {
		JSON(w, http.StatusBadRequest, duplicateBlogBody{
			Error:           derr.Error(),
			Message:         derr.Message(),
			ExistingBlogID:  derr.BlogID.String(),
			ExistingBlogURL: BaseURL(r) + "/api/blogs/" + derr.BlogID.String() + "/",
		})
		return
	}

	status := apperr.Code(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		Detail(w, status, "A server error occurred.")
		return
	}
	Detail(w, status, err.Error())
}

// Decode reads a JSON body into v. Malformed bodies become 400 errors.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Statusf(http.StatusRequestEntityTooLarge, "Request body too large.")
		}
		return apperr.Wrap(http.StatusBadRequest, err, fmt.Sprintf("JSON parse error - %s", err.Error()))
	}
	return nil
}

// BaseURL returns the scheme and host the request was addressed to.
func BaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// Envelope is the body of a paginated listing.
type Envelope struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// NewEnvelope builds the envelope for one page, linking the neighbouring
// pages by rewriting the page parameter of the request URL.
func NewEnvelope(r *http.Request, count, page int, hasNext, hasPrevious bool, results any) Envelope {
	env := Envelope{Count: count, Results: results}
	if hasNext {
		u := PageURL(r, page+1)
		env.Next = &u
	}
	if hasPrevious {
		u := PageURL(r, page-1)
		env.Previous = &u
	}
	return env
}

// PageURL returns the absolute URL of the request with its page query
// parameter set to page. Page 1 drops the parameter.
func PageURL(r *http.Request, page int) string {
	q := r.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
	return BaseURL(r) + u.String()
}

// QueryInt reads a positive integer query parameter. It returns fallback
// when the parameter is missing and ok=false when it is malformed.
func QueryInt(r *http.Request, name string, fallback int) (n int, ok bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback, false
	}
	return n, true
}
