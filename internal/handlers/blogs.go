// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"blogapi/internal/middleware"
	"blogapi/internal/render"
	"blogapi/internal/service"
)

// Blogs groups the blog handlers.
type Blogs struct {
	blogs *service.Blogs
}

// NewBlogs creates the blog handler group.
func NewBlogs(blogs *service.Blogs) *Blogs {
	return &Blogs{blogs: blogs}
}

// List returns every blog.
func (h *Blogs) List(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.blogs.List(r.Context(), middleware.ActorFromCtx(r.Context()))
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, newBlogViews(blogs))
}

// Get returns one blog.
func (h *Blogs) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	b, err := h.blogs.Get(r.Context(), middleware.ActorFromCtx(r.Context()), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, newBlogView(b))
}

// Create makes the caller's blog. A caller who already owns one gets a
// 400 pointing at it.
func (h *Blogs) Create(w http.ResponseWriter, r *http.Request) {
	var in service.BlogInput
	if err := render.Decode(w, r, &in); err != nil {
		render.Error(w, r, err)
		return
	}
	b, err := h.blogs.Create(r.Context(), middleware.ActorFromCtx(r.Context()), in)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, newBlogView(b))
}

// Update replaces the title and bio of a blog.
func (h *Blogs) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// PartialUpdate changes only the fields present in the body.
func (h *Blogs) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *Blogs) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	var in service.BlogInput
	if err := render.Decode(w, r, &in); err != nil {
		render.Error(w, r, err)
		return
	}
	b, err := h.blogs.Update(r.Context(), middleware.ActorFromCtx(r.Context()), id, in, partial)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, newBlogView(b))
}

// Delete removes a blog and its posts.
func (h *Blogs) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	if err := h.blogs.Delete(r.Context(), middleware.ActorFromCtx(r.Context()), id); err != nil {
		render.Error(w, r, err)
		return
	}
	render.NoContent(w)
}
