// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogapi/internal/apperr"
	"blogapi/internal/cache"
	"blogapi/internal/middleware"
	"blogapi/internal/render"
	"blogapi/internal/service"
)

// ListingCache stores rendered listing pages. *cache.ListingCache
// implements it against Valkey.
type ListingCache interface {
	Generation(ctx context.Context) int64
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

// Posts groups the post handlers.
type Posts struct {
	posts    *service.Posts
	listings ListingCache
}

// NewPosts creates the post handler group. listings may be nil, in which
// case published listings are rendered on every request.
func NewPosts(posts *service.Posts, listings ListingCache) *Posts {
	return &Posts{posts: posts, listings: listings}
}

// List returns a page of all posts, or of one blog's posts when the blog
// query parameter is set.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	ctx := r.Context()
	actor := middleware.ActorFromCtx(ctx)
	var pp *service.PostPage
	if raw := r.URL.Query().Get("blog"); raw != "" {
		blogID, perr := uuid.Parse(raw)
		if perr != nil {
			render.Error(w, r, apperr.Field("blog", "Must be a valid UUID."))
			return
		}
		pp, err = h.posts.ListByBlog(ctx, actor, blogID, page)
	} else {
		pp, err = h.posts.List(ctx, actor, page)
	}
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, envelope(r, opList, pp))
}

// Published returns a page of published posts. Pages are cached until
// the next write to posts, tags or blogs.
func (h *Posts) Published(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// The generation is read before the posts, so a write that lands
	// while the page is rendered leaves it under a retired key.
	var key string
	if h.listings != nil {
		key = cache.ListingKey("published:"+render.BaseURL(r), h.listings.Generation(ctx), r.URL.Query().Encode())
		if body, ok := h.listings.Get(ctx, key); ok {
			w.Header().Set("X-Cache", "HIT")
			render.Raw(w, http.StatusOK, body)
			return
		}
	}

	page, err := pageFromQuery(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	pp, err := h.posts.Published(ctx, middleware.ActorFromCtx(ctx), page)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	body, err := json.Marshal(envelope(r, opList, pp))
	if err != nil {
		render.Error(w, r, err)
		return
	}
	if h.listings != nil {
		h.listings.Set(ctx, key, body)
	}
	w.Header().Set("X-Cache", "MISS")
	render.Raw(w, http.StatusOK, body)
}

// ByTag returns a page of posts carrying the tag named by the tag query
// parameter.
func (h *Posts) ByTag(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	ctx := r.Context()
	pp, err := h.posts.ByTag(ctx, middleware.ActorFromCtx(ctx), r.URL.Query().Get("tag"), page)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, envelope(r, opList, pp))
}

// Get returns a post by id or slug.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.posts.Get(ctx, middleware.ActorFromCtx(ctx), chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, presentPost(opRetrieve, p))
}

// Create writes a post into the caller's blog.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	in, err := decodePost(w, r, opCreate)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	ctx := r.Context()
	p, err := h.posts.Create(ctx, middleware.ActorFromCtx(ctx), in)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, presentPost(opCreate, p))
}

// Update replaces the writable fields of a post.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, opUpdate)
}

// PartialUpdate changes only the fields present in the body.
func (h *Posts) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, opPartialUpdate)
}

func (h *Posts) update(w http.ResponseWriter, r *http.Request, op postOperation) {
	in, err := decodePost(w, r, op)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	ctx := r.Context()
	partial := representationFor(op).partial
	p, err := h.posts.Update(ctx, middleware.ActorFromCtx(ctx), chi.URLParam(r, "id"), in, partial)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, presentPost(op, p))
}

// Delete removes a post.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.posts.Delete(ctx, middleware.ActorFromCtx(ctx), chi.URLParam(r, "id")); err != nil {
		render.Error(w, r, err)
		return
	}
	render.NoContent(w)
}

func envelope(r *http.Request, op postOperation, pp *service.PostPage) render.Envelope {
	return render.NewEnvelope(r, pp.Total, pp.Page.Number, pp.HasNext(), pp.HasPrevious(), pageResults(op, pp))
}
