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

// Tags groups the tag handlers. Writes are limited to superusers by the
// service.
type Tags struct {
	tags *service.Tags
}

// NewTags creates the tag handler group.
func NewTags(tags *service.Tags) *Tags {
	return &Tags{tags: tags}
}

// tagBody lets PATCH tell a missing name from an empty one.
type tagBody struct {
	Name *string `json:"name"`
}

func (h *Tags) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(r.Context(), middleware.ActorFromCtx(r.Context()))
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, newTagViews(tags))
}

func (h *Tags) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	t, err := h.tags.Get(r.Context(), middleware.ActorFromCtx(r.Context()), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, tagView{ID: t.ID, Name: t.Name})
}

func (h *Tags) Create(w http.ResponseWriter, r *http.Request) {
	var in service.TagInput
	if err := render.Decode(w, r, &in); err != nil {
		render.Error(w, r, err)
		return
	}
	t, err := h.tags.Create(r.Context(), middleware.ActorFromCtx(r.Context()), in)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, tagView{ID: t.ID, Name: t.Name})
}

func (h *Tags) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *Tags) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *Tags) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	var body tagBody
	if err := render.Decode(w, r, &body); err != nil {
		render.Error(w, r, err)
		return
	}

	ctx := r.Context()
	actor := middleware.ActorFromCtx(ctx)
	var in service.TagInput
	switch {
	case body.Name != nil:
		in.Name = *body.Name
	case partial:
		// An empty PATCH keeps the name but still requires write access.
		current, err := h.tags.Get(ctx, actor, id)
		if err != nil {
			render.Error(w, r, err)
			return
		}
		in.Name = current.Name
	}

	t, err := h.tags.Update(ctx, actor, id, in)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, tagView{ID: t.ID, Name: t.Name})
}

func (h *Tags) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	if err := h.tags.Delete(r.Context(), middleware.ActorFromCtx(r.Context()), id); err != nil {
		render.Error(w, r, err)
		return
	}
	render.NoContent(w)
}
