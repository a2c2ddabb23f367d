// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Blog is the one-per-user container for posts.
type Blog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	User      *User     `json:"user,omitempty"` // Owner, loaded with the blog
	Title     string    `json:"title"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDefaultBlog builds the blog a user gets on registration or on their
// first post when no blog exists yet.
func NewDefaultBlog(u *User) *Blog {
	return &Blog{
		UserID: u.ID,
		User:   u,
		Title:  u.DefaultBlogTitle(),
		Bio:    u.DefaultBlogBio(),
	}
}

// OwnedBy reports whether the blog belongs to the given user.
func (b *Blog) OwnedBy(userID uuid.UUID) bool {
	return b.UserID == userID
}
