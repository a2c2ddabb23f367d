// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogapi/internal/apperr"
)

func TestTagWriteRequiresSuperuser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	root := f.superuser(t, "root")

	_, err := f.tags.Create(ctx, alice, TagInput{Name: "go"})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	tag, err := f.tags.Create(ctx, root, TagInput{Name: "go"})
	require.NoError(t, err)
	assert.Equal(t, "go", tag.Name)

	stored, err := f.db.Tags().FindByName(ctx, "go")
	require.NoError(t, err)
	require.NotNil(t, stored, "tag persisted")

	// Everyone authenticated reads.
	got, err := f.tags.Get(ctx, alice, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, tag.ID, got.ID)

	_, err = f.tags.Update(ctx, alice, tag.ID, TagInput{Name: "golang"})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	assert.ErrorIs(t, f.tags.Delete(ctx, alice, tag.ID), apperr.ErrPermissionDenied)

	_, err = f.tags.List(ctx, nil)
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)
}

func TestTagValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.superuser(t, "root")

	_, err := f.tags.Create(ctx, root, TagInput{Name: "go"})
	require.NoError(t, err)

	_, err = f.tags.Create(ctx, root, TagInput{Name: "go"})
	assert.Equal(t, []string{msgTagNameTaken}, fieldErrors(t, err)["name"])

	_, err = f.tags.Create(ctx, root, TagInput{Name: "   "})
	assert.Contains(t, fieldErrors(t, err), "name")

	_, err = f.tags.Create(ctx, root, TagInput{Name: strings.Repeat("x", 51)})
	assert.Contains(t, fieldErrors(t, err), "name")
}

func TestTagRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.superuser(t, "root")

	goTag, err := f.tags.Create(ctx, root, TagInput{Name: "go"})
	require.NoError(t, err)
	_, err = f.tags.Create(ctx, root, TagInput{Name: "rust"})
	require.NoError(t, err)

	same, err := f.tags.Update(ctx, root, goTag.ID, TagInput{Name: "go"})
	require.NoError(t, err, "keeping its own name is fine")
	assert.Equal(t, "go", same.Name)

	_, err = f.tags.Update(ctx, root, goTag.ID, TagInput{Name: "rust"})
	assert.Contains(t, fieldErrors(t, err), "name")

	renamed, err := f.tags.Update(ctx, root, goTag.ID, TagInput{Name: "golang"})
	require.NoError(t, err)
	assert.Equal(t, "golang", renamed.Name)

	_, err = f.tags.Update(ctx, root, uuid.New(), TagInput{Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTagDeleteUnlinksPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	root := f.superuser(t, "root")

	tag, err := f.tags.Create(ctx, root, TagInput{Name: "go"})
	require.NoError(t, err)
	p, err := f.posts.Create(ctx, alice, PostInput{
		Title: strPtr("Tagged"), Content: strPtr("x"), Tags: &[]string{"go"},
	})
	require.NoError(t, err)
	require.Len(t, p.Tags, 1)

	require.NoError(t, f.tags.Delete(ctx, root, tag.ID))

	kept, err := f.posts.Get(ctx, alice, p.ID.String())
	require.NoError(t, err)
	assert.Empty(t, kept.Tags)
}

func TestTagResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.superuser(t, "root")

	goTag, err := f.tags.Create(ctx, root, TagInput{Name: "go"})
	require.NoError(t, err)
	web, err := f.tags.Create(ctx, root, TagInput{Name: "web"})
	require.NoError(t, err)

	tags, err := f.tags.Resolve(ctx, "tags", []string{goTag.ID.String(), "web", "go"})
	require.NoError(t, err)
	require.Len(t, tags, 2, "duplicates collapse")
	assert.Equal(t, goTag.ID, tags[0].ID)
	assert.Equal(t, web.ID, tags[1].ID)

	_, err = f.tags.Resolve(ctx, "tags", []string{"missing"})
	assert.Contains(t, fieldErrors(t, err), "tags")

	_, err = f.tags.Resolve(ctx, "tags", []string{uuid.NewString()})
	assert.Contains(t, fieldErrors(t, err), "tags")
}
