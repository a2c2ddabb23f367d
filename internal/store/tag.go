// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"blogapi/internal/models"
)

const tagColumns = `t.id, t.name, t.created_at, t.updated_at`

func tagDest(t *models.Tag) []any {
	return []any{&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt}
}

// TagStore handles all tag-related database operations.
type TagStore struct {
	db *sql.DB
}

// NewTagStore creates a new TagStore with the given database connection.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

// Create inserts a tag. Returns ErrTagNameTaken if the name is in use.
func (s *TagStore) Create(ctx context.Context, name string) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tags AS t (name) VALUES ($1)
		RETURNING `+tagColumns, name).Scan(tagDest(t)...)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", translate(err))
	}
	return t, nil
}

// FindByID retrieves a tag by id. Returns nil if not found.
func (s *TagStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags t WHERE t.id = $1`, id).
		Scan(tagDest(t)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by id: %w", err)
	}
	return t, nil
}

// FindByName retrieves a tag by its exact, case-sensitive name. Returns nil if not found.
func (s *TagStore) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags t WHERE t.name = $1`, name).
		Scan(tagDest(t)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by name: %w", err)
	}
	return t, nil
}

// FindByIDs returns the tags with the given ids. Unknown ids are skipped,
// so callers compare lengths to detect them.
func (s *TagStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := psql.Select(tagColumns).From("tags t").
		Where(sq.Eq{"t.id": ids}).
		OrderBy("t.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tag query: %w", err)
	}
	return s.query(ctx, query, args...)
}

// List returns all tags, newest first and then by name.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	return s.query(ctx, `SELECT `+tagColumns+` FROM tags t ORDER BY t.created_at DESC, t.name ASC`)
}

// Rename changes a tag's name. Returns nil if the tag does not exist and
// ErrTagNameTaken if another tag has the name.
func (s *TagStore) Rename(ctx context.Context, id uuid.UUID, name string) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRowContext(ctx, `
		UPDATE tags AS t SET name = $1, updated_at = NOW()
		WHERE t.id = $2
		RETURNING `+tagColumns, name, id).Scan(tagDest(t)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rename tag: %w", translate(err))
	}
	return t, nil
}

// Delete removes a tag. Post associations go with it through the cascade;
// the posts themselves are untouched.
func (s *TagStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

func (s *TagStore) query(ctx context.Context, query string, args ...any) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(tagDest(&t)...); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
