// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service implements the blog operations on top of the stores.
// Every operation receives the acting user explicitly and enforces the
// ownership rules before touching data. Errors carry their HTTP status
// through the apperr package.
package service

import (
	"context"
	"errors"
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"blogapi/internal/apperr"
	"blogapi/internal/models"
	"blogapi/internal/permission"
	"blogapi/internal/store"
)

// UserRepository is the persistence the user operations need.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BlogRepository is the persistence the blog operations need.
type BlogRepository interface {
	Create(ctx context.Context, b *models.Blog) (*models.Blog, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Blog, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Blog, error)
	List(ctx context.Context) ([]models.Blog, error)
	Update(ctx context.Context, b *models.Blog) (*models.Blog, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TagRepository is the persistence the tag operations need.
type TagRepository interface {
	Create(ctx context.Context, name string) (*models.Tag, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	FindByName(ctx context.Context, name string) (*models.Tag, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*models.Tag, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostRepository is the persistence the post operations need.
type PostRepository interface {
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) (*models.Post, error)
	SetCover(ctx context.Context, id uuid.UUID, key *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, f store.PostFilter) ([]models.Post, int, error)
}

// TokenStore keeps the API token of each user. Issue returns the user's
// existing token when there is one. Resolve returns uuid.Nil for unknown
// tokens.
type TokenStore interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
	Revoke(ctx context.Context, userID uuid.UUID) error
}

// ObjectStorage stores post cover images.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
}

// ListingInvalidator is told whenever a write may have changed a cached
// post listing.
type ListingInvalidator interface {
	InvalidateAll(ctx context.Context)
}

// requireActor rejects anonymous callers.
func requireActor(actor *permission.Actor) error {
	if actor == nil {
		return apperr.ErrNotAuthenticated
	}
	return nil
}

// validationError converts ozzo validation errors into the field map
// rendered to clients. Other errors are returned unchanged.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	out := &apperr.ValidationError{}
	for field, fieldErr := range errs {
		if fieldErr == nil {
			continue
		}
		var internal validation.InternalError
		if errors.As(fieldErr, &internal) {
			return internal
		}
		out.Add(field, sentence(fieldErr.Error()))
	}
	if len(out.Fields) == 0 {
		return nil
	}
	return out
}

// sentence capitalizes msg and ends it with a period.
func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	msg = strings.ToUpper(msg[:1]) + msg[1:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}

// Page selects a window of a paginated listing. Number starts at 1.
type Page struct {
	Number int
	Size   int
}

// Pagination defaults for post listings.
const (
	DefaultPageSize = 5
	MaxPageSize     = 100
)

// normalize clamps the page to valid bounds.
func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

// PostPage is one page of a post listing plus the total match count.
type PostPage struct {
	Posts []models.Post
	Total int
	Page  Page
}

// HasNext reports whether another page follows this one.
func (pp *PostPage) HasNext() bool {
	return pp.Page.Number*pp.Page.Size < pp.Total
}

// HasPrevious reports whether a page precedes this one.
func (pp *PostPage) HasPrevious() bool {
	return pp.Page.Number > 1
}
