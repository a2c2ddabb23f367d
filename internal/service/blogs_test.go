// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/internal/apperr"
)

func TestBlogCreateDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	existing, err := f.db.Blogs().FindByUserID(ctx, alice.UserID)
	require.NoError(t, err)

	_, err = f.blogs.Create(ctx, alice, BlogInput{Title: strPtr("Second"), Bio: strPtr("again")})
	var dup *apperr.DuplicateBlogError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, existing.ID, dup.BlogID)
	assert.Equal(t, http.StatusBadRequest, apperr.Code(err))

	blogs, err := f.db.Blogs().List(ctx)
	require.NoError(t, err)
	owned := 0
	for _, b := range blogs {
		if b.OwnedBy(alice.UserID) {
			owned++
		}
	}
	assert.Equal(t, 1, owned, "user still owns exactly one blog")
}

func TestBlogCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.superuser(t, "root")

	_, err := f.blogs.Create(ctx, root, BlogInput{Title: strPtr("  ")})
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "bio")

	b, err := f.blogs.Create(ctx, root, BlogInput{Title: strPtr("Notes"), Bio: strPtr("Things I write down")})
	require.NoError(t, err)
	assert.Equal(t, "Notes", b.Title)
	require.NotNil(t, b.User)
	assert.Equal(t, "root", b.User.Username)

	_, err = f.blogs.Create(ctx, nil, BlogInput{})
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)
}

func TestBlogWritePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	root := f.superuser(t, "root")

	blog, err := f.db.Blogs().FindByUserID(ctx, alice.UserID)
	require.NoError(t, err)

	// Any authenticated user reads.
	got, err := f.blogs.Get(ctx, bob, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, blog.ID, got.ID)

	_, err = f.blogs.Update(ctx, bob, blog.ID, BlogInput{Title: strPtr("Mine now")}, true)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	assert.ErrorIs(t, f.blogs.Delete(ctx, bob, blog.ID), apperr.ErrPermissionDenied)

	updated, err := f.blogs.Update(ctx, alice, blog.ID, BlogInput{Title: strPtr("Alice writes")}, true)
	require.NoError(t, err)
	assert.Equal(t, "Alice writes", updated.Title)
	assert.Equal(t, "Blog personal de alice", updated.Bio, "partial update keeps bio")

	updated, err = f.blogs.Update(ctx, root, blog.ID, BlogInput{Title: strPtr("Moderated"), Bio: strPtr("by root")}, false)
	require.NoError(t, err)
	assert.Equal(t, "by root", updated.Bio)

	_, err = f.blogs.Update(ctx, alice, blog.ID, BlogInput{Title: strPtr("Only title")}, false)
	assert.Contains(t, fieldErrors(t, err), "bio", "full update requires every field")

	_, err = f.blogs.Get(ctx, alice, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBlogDeleteRemovesPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	p, err := f.posts.Create(ctx, alice, PostInput{Title: strPtr("Doomed"), Content: strPtr("<p>x</p>")})
	require.NoError(t, err)

	require.NoError(t, f.blogs.Delete(ctx, alice, p.BlogID))

	_, err = f.posts.Get(ctx, alice, p.ID.String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Positive(t, f.listings.Calls())
}
