// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blogapi/internal/apperr"
	"blogapi/internal/models"
	"blogapi/internal/permission"
	"blogapi/internal/slug"
	"blogapi/internal/store/storetest"
)

// fixedNow is 1777890600 in unix seconds.
var fixedNow = time.Date(2026, 5, 4, 10, 30, 0, 123456000, time.UTC)

type fixture struct {
	db       *storetest.DB
	tokens   *storetest.Tokens
	objects  *storetest.Objects
	listings *storetest.Listings

	users *Users
	auth  *Auth
	blogs *Blogs
	tags  *Tags
	posts *Posts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:       storetest.New(),
		tokens:   storetest.NewTokens(),
		objects:  storetest.NewObjects(),
		listings: &storetest.Listings{},
	}
	f.blogs = NewBlogs(f.db.Blogs(), f.listings)
	f.tags = NewTags(f.db.Tags(), f.listings)
	f.users = NewUsers(f.db.Users(), f.blogs)
	f.users.hashCost = bcrypt.MinCost
	f.auth = NewAuth(f.db.Users(), f.tokens)
	f.posts = NewPosts(f.db.Posts(), f.blogs, f.tags, f.objects, f.listings)
	f.posts.now = func() time.Time { return fixedNow }
	f.posts.slugs = &slug.Generator{
		Now:  func() time.Time { return fixedNow },
		Intn: func(int) int { return 42 },
	}
	return f
}

func registerInput(username string) RegisterInput {
	return RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		FirstName:       "Test",
		LastName:        "User",
		Password:        "s3cretpass",
		PasswordConfirm: "s3cretpass",
	}
}

// register creates an account and returns the actor for it.
func (f *fixture) register(t *testing.T, username string) *permission.Actor {
	t.Helper()
	u, err := f.users.Register(context.Background(), registerInput(username))
	require.NoError(t, err)
	return permission.ActorFor(u)
}

// superuser creates a superuser account directly in the store.
func (f *fixture) superuser(t *testing.T, username string) *permission.Actor {
	t.Helper()
	u, err := f.db.Users().Create(context.Background(), &models.User{
		Username: username, IsSuperuser: true, IsActive: true,
	})
	require.NoError(t, err)
	return permission.ActorFor(u)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// fieldErrors extracts the field map from a validation error.
func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	return verr.Fields
}

func TestValidationError(t *testing.T) {
	assert.NoError(t, validationError(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, validationError(plain))

	err := validationError(validation.Errors{
		"title": validation.ErrRequired,
		"slug":  nil,
	})
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{"Cannot be blank."}, fields["title"])
	assert.NotContains(t, fields, "slug")
	assert.Equal(t, http.StatusBadRequest, apperr.Code(err))
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Number: 1, Size: DefaultPageSize}},
		{Page{Number: 3, Size: 20}, Page{Number: 3, Size: 20}},
		{Page{Number: -1, Size: 1000}, Page{Number: 1, Size: MaxPageSize}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.normalize())
	}
	assert.Equal(t, 10, Page{Number: 3, Size: 5}.offset())
}

func TestPostPageLinks(t *testing.T) {
	pp := &PostPage{Total: 11, Page: Page{Number: 2, Size: 5}}
	assert.True(t, pp.HasNext())
	assert.True(t, pp.HasPrevious())

	pp.Page.Number = 3
	assert.False(t, pp.HasNext())
}
