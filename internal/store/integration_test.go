// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"blogapi/internal/models"
)

// TestIntegration_PostLifecycle runs the stores against a real database:
// unique slugs, first-publish timestamp, tag and blog cascades.
func TestIntegration_PostLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	users := NewUserStore(db)
	blogs := NewBlogStore(db)
	tags := NewTagStore(db)
	posts := NewPostStore(db)

	t.Cleanup(func() {
		cleanUsers(t, db, "store_it_alice")
		cleanTags(t, db, "store-it-go")
	})

	u, err := users.Create(ctx, &models.User{Username: "store_it_alice", Email: "a@example.com", PasswordHash: "x", IsActive: true})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := users.Create(ctx, &models.User{Username: "store_it_alice", PasswordHash: "x"}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate username: got %v, want ErrUsernameTaken", err)
	}

	blog, err := blogs.Create(ctx, models.NewDefaultBlog(u))
	if err != nil {
		t.Fatalf("create blog: %v", err)
	}
	if _, err := blogs.Create(ctx, models.NewDefaultBlog(u)); !errors.Is(err, ErrBlogExists) {
		t.Errorf("second blog: got %v, want ErrBlogExists", err)
	}

	tag, err := tags.Create(ctx, "store-it-go")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	p := &models.Post{BlogID: blog.ID, Title: "Hello", Slug: "store-it-hello", Content: "x", Tags: []models.Tag{*tag}}
	created, err := posts.Create(ctx, p)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if len(created.Tags) != 1 || created.Tags[0].ID != tag.ID {
		t.Errorf("tags: got %+v", created.Tags)
	}
	if created.Blog.User.ID != u.ID {
		t.Errorf("owner: got %s, want %s", created.Blog.User.ID, u.ID)
	}

	if _, err := posts.Create(ctx, p); !errors.Is(err, ErrSlugTaken) {
		t.Errorf("duplicate slug: got %v, want ErrSlugTaken", err)
	}

	// Publish, then try to move published_at.
	first := time.Now().Add(-time.Hour).UTC().Truncate(time.Microsecond)
	created.IsPublished = true
	created.PublishedAt = &first
	updated, err := posts.Update(ctx, created)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	later := time.Now().UTC()
	updated.PublishedAt = &later
	updated, err = posts.Update(ctx, updated)
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if updated.PublishedAt == nil || !updated.PublishedAt.Equal(first) {
		t.Errorf("published_at: got %v, want %v", updated.PublishedAt, first)
	}

	// Deleting the tag unlinks it but keeps the post.
	if err := tags.Delete(ctx, tag.ID); err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	kept, err := posts.FindByID(ctx, created.ID)
	if err != nil || kept == nil {
		t.Fatalf("post after tag delete: %v, %v", kept, err)
	}
	if len(kept.Tags) != 0 {
		t.Errorf("tags after delete: got %d, want 0", len(kept.Tags))
	}

	// Deleting the blog removes its posts.
	if err := blogs.Delete(ctx, blog.ID); err != nil {
		t.Fatalf("delete blog: %v", err)
	}
	gone, err := posts.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find after blog delete: %v", err)
	}
	if gone != nil {
		t.Error("post should be deleted with its blog")
	}
}
