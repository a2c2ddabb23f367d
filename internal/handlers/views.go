// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"time"

	"github.com/google/uuid"

	"blogapi/internal/models"
	"blogapi/internal/service"
)

// userView is the public representation of an account.
type userView struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

func newUserView(u *models.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type blogView struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Bio       string    `json:"bio"`
	User      *userView `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

func newBlogView(b *models.Blog) *blogView {
	if b == nil {
		return nil
	}
	return &blogView{
		ID:        b.ID,
		Title:     b.Title,
		Bio:       b.Bio,
		User:      newUserView(b.User),
		CreatedAt: b.CreatedAt,
	}
}

type tagView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func newTagViews(tags []models.Tag) []tagView {
	out := make([]tagView, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagView{ID: t.ID, Name: t.Name})
	}
	return out
}

// postDetail is a post with its tags and blog expanded.
type postDetail struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	Cover       *string    `json:"cover"`
	Tags        []tagView  `json:"tags"`
	IsPublished bool       `json:"is_published"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
	Blog        *blogView  `json:"blog"`
}

func newPostDetail(p *models.Post) postDetail {
	return postDetail{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Content:     p.Content,
		Excerpt:     p.Excerpt,
		Cover:       p.CoverURL,
		Tags:        newTagViews(p.Tags),
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		PublishedAt: p.PublishedAt,
		Blog:        newBlogView(p.Blog),
	}
}

// authResponse is returned by register and login.
type authResponse struct {
	User    *userView `json:"user"`
	Token   string    `json:"token"`
	Message string    `json:"message"`
}

// newUserViews and newBlogViews always return a non-nil slice so empty
// lists render as [].
func newUserViews(users []models.User) []*userView {
	out := make([]*userView, 0, len(users))
	for i := range users {
		out = append(out, newUserView(&users[i]))
	}
	return out
}

func newBlogViews(blogs []models.Blog) []*blogView {
	out := make([]*blogView, 0, len(blogs))
	for i := range blogs {
		out = append(out, newBlogView(&blogs[i]))
	}
	return out
}

// pageResults presents one page of posts in the shape op calls for.
func pageResults(op postOperation, pp *service.PostPage) []any {
	out := make([]any, 0, len(pp.Posts))
	for i := range pp.Posts {
		out = append(out, presentPost(op, &pp.Posts[i]))
	}
	return out
}
