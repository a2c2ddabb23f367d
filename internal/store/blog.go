// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"blogapi/internal/models"
)

const blogColumns = `b.id, b.user_id, b.title, b.bio, b.created_at, b.updated_at`

// blogSelect loads a blog together with its owner.
const blogSelect = `SELECT ` + blogColumns + `, ` + userColumns + ` FROM blogs b JOIN users u ON u.id = b.user_id`

func blogDest(b *models.Blog) []any {
	b.User = &models.User{}
	return append([]any{&b.ID, &b.UserID, &b.Title, &b.Bio, &b.CreatedAt, &b.UpdatedAt}, userDest(b.User)...)
}

func scanBlog(row scanner) (*models.Blog, error) {
	b := &models.Blog{}
	if err := row.Scan(blogDest(b)...); err != nil {
		return nil, err
	}
	return b, nil
}

// BlogStore handles all blog-related database operations.
type BlogStore struct {
	db *sql.DB
}

// NewBlogStore creates a new BlogStore with the given database connection.
func NewBlogStore(db *sql.DB) *BlogStore {
	return &BlogStore{db: db}
}

// Create inserts a blog for b.UserID and returns it with its owner loaded.
// Returns ErrBlogExists if the user already owns a blog.
func (s *BlogStore) Create(ctx context.Context, b *models.Blog) (*models.Blog, error) {
	created, err := scanBlog(s.db.QueryRowContext(ctx, `
		WITH b AS (
			INSERT INTO blogs (user_id, title, bio) VALUES ($1, $2, $3)
			RETURNING *
		)
		SELECT `+blogColumns+`, `+userColumns+` FROM b JOIN users u ON u.id = b.user_id
	`, b.UserID, b.Title, b.Bio))
	if err != nil {
		return nil, fmt.Errorf("create blog: %w", translate(err))
	}
	return created, nil
}

// FindByID retrieves a blog by id. Returns nil if not found.
func (s *BlogStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	b, err := scanBlog(s.db.QueryRowContext(ctx, blogSelect+` WHERE b.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blog by id: %w", err)
	}
	return b, nil
}

// FindByUserID retrieves the blog owned by a user. Returns nil if the user has none.
func (s *BlogStore) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Blog, error) {
	b, err := scanBlog(s.db.QueryRowContext(ctx, blogSelect+` WHERE b.user_id = $1`, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blog by user: %w", err)
	}
	return b, nil
}

// List returns all blogs, newest first.
func (s *BlogStore) List(ctx context.Context) ([]models.Blog, error) {
	rows, err := s.db.QueryContext(ctx, blogSelect+` ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()

	var blogs []models.Blog
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog: %w", err)
		}
		blogs = append(blogs, *b)
	}
	return blogs, rows.Err()
}

// Update saves the title and bio of an existing blog. Returns nil if the
// blog no longer exists.
func (s *BlogStore) Update(ctx context.Context, b *models.Blog) (*models.Blog, error) {
	updated, err := scanBlog(s.db.QueryRowContext(ctx, `
		WITH b AS (
			UPDATE blogs SET title = $1, bio = $2, updated_at = NOW()
			WHERE id = $3
			RETURNING *
		)
		SELECT `+blogColumns+`, `+userColumns+` FROM b JOIN users u ON u.id = b.user_id
	`, b.Title, b.Bio, b.ID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update blog: %w", err)
	}
	return updated, nil
}

// Delete removes a blog. Its posts are removed by the foreign key cascade.
func (s *BlogStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	return nil
}
