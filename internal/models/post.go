// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Field limits for posts.
const (
	PostTitleMaxLength = 250
	PostSlugMaxLength  = 260
)

// Post is an article inside a blog. Its slug is unique across all posts
// and PublishedAt records the first time the post was made public.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	BlogID      uuid.UUID  `json:"-"`
	Blog        *Blog      `json:"blog,omitempty"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	CoverKey    *string    `json:"-"`     // Object storage key, nullable
	CoverURL    *string    `json:"cover"` // Resolved from CoverKey at response time
	Tags        []Tag      `json:"tags"`
	IsPublished bool       `json:"is_published"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
}

// ApplyPublishTransition stamps PublishedAt the first time the post is
// saved as published. Unpublishing or republishing never touches an
// existing timestamp.
func (p *Post) ApplyPublishTransition(now time.Time) {
	if p.IsPublished && p.PublishedAt == nil {
		t := now
		p.PublishedAt = &t
	}
}

// OwnerID returns the user that owns the post through its blog.
// Returns uuid.Nil when the blog is not loaded.
func (p *Post) OwnerID() uuid.UUID {
	if p.Blog == nil {
		return uuid.Nil
	}
	return p.Blog.UserID
}

// TagIDs returns the ids of the post's tags in order.
func (p *Post) TagIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}
