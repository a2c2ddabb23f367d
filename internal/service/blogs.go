// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"blogapi/internal/apperr"
	"blogapi/internal/models"
	"blogapi/internal/permission"
	"blogapi/internal/store"
)

// BlogTitleMaxLength bounds blog titles.
const BlogTitleMaxLength = 200

// BlogInput is the body of a blog write. Nil fields are left unchanged
// by partial updates and rejected by full ones.
type BlogInput struct {
	Title *string `json:"title"`
	Bio   *string `json:"bio"`
}

// Blogs manages the one-per-user blogs.
type Blogs struct {
	blogs    BlogRepository
	listings ListingInvalidator
}

// NewBlogs creates the blog service. listings may be nil.
func NewBlogs(blogs BlogRepository, listings ListingInvalidator) *Blogs {
	return &Blogs{blogs: blogs, listings: listings}
}

// List returns every blog, newest first.
func (s *Blogs) List(ctx context.Context, actor *permission.Actor) ([]models.Blog, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	blogs, err := s.blogs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return blogs, nil
}

// Get returns a single blog.
func (s *Blogs) Get(ctx context.Context, actor *permission.Actor, id uuid.UUID) (*models.Blog, error) {
	return s.load(ctx, actor, id, permission.Read)
}

// Create makes a blog for the caller. Callers that already own one get a
// DuplicateBlogError pointing at it.
func (s *Blogs) Create(ctx context.Context, actor *permission.Actor, in BlogInput) (*models.Blog, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	existing, err := s.blogs.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("find blog: %w", err)
	}
	if existing != nil {
		return nil, &apperr.DuplicateBlogError{BlogID: existing.ID}
	}

	b := &models.Blog{UserID: actor.UserID}
	if err := applyBlogInput(b, in, false); err != nil {
		return nil, err
	}

	created, err := s.blogs.Create(ctx, b)
	if errors.Is(err, store.ErrBlogExists) {
		existing, ferr := s.blogs.FindByUserID(ctx, actor.UserID)
		if ferr != nil || existing == nil {
			return nil, apperr.Wrap(http.StatusBadRequest, err, "User already has a blog")
		}
		return nil, &apperr.DuplicateBlogError{BlogID: existing.ID}
	}
	if err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}
	slog.Info("blog created", "blog_id", created.ID, "user_id", actor.UserID)
	return created, nil
}

// Update changes a blog's title and bio. With partial set, only the
// fields present in the input change.
func (s *Blogs) Update(ctx context.Context, actor *permission.Actor, id uuid.UUID, in BlogInput, partial bool) (*models.Blog, error) {
	b, err := s.load(ctx, actor, id, permission.Write)
	if err != nil {
		return nil, err
	}
	if err := applyBlogInput(b, in, partial); err != nil {
		return nil, err
	}

	updated, err := s.blogs.Update(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("update blog: %w", err)
	}
	if updated == nil {
		return nil, apperr.ErrNotFound
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes a blog together with its posts.
func (s *Blogs) Delete(ctx context.Context, actor *permission.Actor, id uuid.UUID) error {
	if _, err := s.load(ctx, actor, id, permission.Write); err != nil {
		return err
	}
	if err := s.blogs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	s.invalidate(ctx)
	slog.Info("blog deleted", "blog_id", id, "user_id", actor.UserID)
	return nil
}

// EnsureFor returns the user's blog, creating the default one when the
// user has none yet.
func (s *Blogs) EnsureFor(ctx context.Context, u *models.User) (*models.Blog, error) {
	b, err := s.blogs.FindByUserID(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("find blog: %w", err)
	}
	if b != nil {
		return b, nil
	}

	b, err = s.blogs.Create(ctx, models.NewDefaultBlog(u))
	if errors.Is(err, store.ErrBlogExists) {
		// Created concurrently by another request.
		b, err = s.blogs.FindByUserID(ctx, u.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("create default blog: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("create default blog: blog for user %s vanished", u.ID)
	}
	return b, nil
}

// load fetches a blog and checks the caller may perform action on it.
func (s *Blogs) load(ctx context.Context, actor *permission.Actor, id uuid.UUID, action permission.Action) (*models.Blog, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	b, err := s.blogs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find blog: %w", err)
	}
	if b == nil {
		return nil, apperr.ErrNotFound
	}
	if !permission.CanAccessBlog(actor, b, action) {
		return nil, apperr.ErrPermissionDenied
	}
	return b, nil
}

func (s *Blogs) invalidate(ctx context.Context) {
	if s.listings != nil {
		s.listings.InvalidateAll(ctx)
	}
}

// applyBlogInput copies the input onto b and validates the result.
func applyBlogInput(b *models.Blog, in BlogInput, partial bool) error {
	verr := &apperr.ValidationError{}
	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	} else if !partial {
		verr.Add("title", "This field is required.")
	}
	if in.Bio != nil {
		b.Bio = strings.TrimSpace(*in.Bio)
	} else if !partial {
		verr.Add("bio", "This field is required.")
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	return validationError(validation.ValidateStruct(b,
		validation.Field(&b.Title, validation.Required, validation.RuneLength(1, BlogTitleMaxLength)),
		validation.Field(&b.Bio, validation.Required),
	))
}
