// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"blogapi/internal/models"
)

const postColumns = `p.id, p.blog_id, p.title, p.slug, p.content, p.excerpt, p.cover_key,
	p.is_published, p.created_at, p.updated_at, p.published_at, ` + blogColumns + `, ` + userColumns

// postOrder is the listing order: most recently published first, then newest.
var postOrder = []string{"p.published_at DESC NULLS LAST", "p.created_at DESC"}

func scanPost(row scanner) (*models.Post, error) {
	p := &models.Post{Blog: &models.Blog{}, Tags: []models.Tag{}}
	dest := append([]any{
		&p.ID, &p.BlogID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.CoverKey,
		&p.IsPublished, &p.CreatedAt, &p.UpdatedAt, &p.PublishedAt,
	}, blogDest(p.Blog)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return p, nil
}

// PostFilter narrows a post listing. Zero values mean "no restriction".
type PostFilter struct {
	PublishedOnly bool
	BlogID        uuid.UUID
	TagID         uuid.UUID
	TagName       string // case-insensitive exact match on any tag
	TagNameLike   string // case-insensitive substring match on any tag
	Limit         int
	Offset        int
}

func (f PostFilter) conditions() []sq.Sqlizer {
	var conds []sq.Sqlizer
	if f.PublishedOnly {
		conds = append(conds, sq.Eq{"p.is_published": true})
	}
	if f.BlogID != uuid.Nil {
		conds = append(conds, sq.Expr("p.blog_id = ?", f.BlogID))
	}
	if f.TagID != uuid.Nil {
		conds = append(conds, sq.Expr(
			"EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = ?)", f.TagID))
	}
	if f.TagName != "" {
		conds = append(conds, sq.Expr(
			"EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id "+
				"WHERE pt.post_id = p.id AND LOWER(t.name) = LOWER(?))", f.TagName))
	}
	if f.TagNameLike != "" {
		conds = append(conds, sq.Expr(
			"EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id "+
				"WHERE pt.post_id = p.id AND t.name ILIKE ?)", "%"+escapeLike(f.TagNameLike)+"%"))
	}
	return conds
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// Create inserts a post and its tag links in one transaction and returns
// the stored post. Returns ErrSlugTaken if the slug is already used.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	var id uuid.UUID
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO posts (blog_id, title, slug, content, excerpt, cover_key, is_published, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, p.BlogID, p.Title, p.Slug, p.Content, p.Excerpt, p.CoverKey, p.IsPublished, p.PublishedAt).Scan(&id)
		if err != nil {
			return translate(err)
		}
		return replaceTags(ctx, tx, id, p.TagIDs())
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Update saves a post's editable fields and replaces its tags. A stored
// published_at is never overwritten. Returns nil if the post no longer exists.
func (s *PostStore) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	var found bool
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE posts
			SET title = $1, slug = $2, content = $3, excerpt = $4, is_published = $5,
			    published_at = COALESCE(published_at, $6), updated_at = NOW()
			WHERE id = $7
		`, p.Title, p.Slug, p.Content, p.Excerpt, p.IsPublished, p.PublishedAt, p.ID)
		if err != nil {
			return translate(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if found = n > 0; !found {
			return nil
		}
		return replaceTags(ctx, tx, p.ID, p.TagIDs())
	})
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if !found {
		return nil, nil
	}
	return s.FindByID(ctx, p.ID)
}

// SetCover stores (or clears, when key is nil) the cover object key.
func (s *PostStore) SetCover(ctx context.Context, id uuid.UUID, key *string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE posts SET cover_key = $1, updated_at = NOW() WHERE id = $2
	`, key, id)
	if err != nil {
		return fmt.Errorf("set post cover: %w", err)
	}
	return nil
}

// Delete removes a post and its tag links.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// FindByID retrieves a post with its blog, owner and tags. Returns nil if not found.
// Single ids go through sq.Expr: squirrel would expand a uuid.UUID, being
// a byte array, into an IN list.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.findOne(ctx, sq.Expr("p.id = ?", id))
}

// FindBySlug retrieves a post by slug. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, sq.Eq{"p.slug": slug})
}

// SlugExists reports whether any post other than exclude uses slug.
// Pass uuid.Nil to check against every post.
func (s *PostStore) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)
	`, slug, exclude).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// List returns one page of posts matching f and the total number of matches.
func (s *PostStore) List(ctx context.Context, f PostFilter) ([]models.Post, int, error) {
	conds := f.conditions()

	count := psql.Select("COUNT(*)").From("posts p")
	for _, c := range conds {
		count = count.Where(c)
	}
	query, args, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build post count: %w", err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	if total == 0 {
		return []models.Post{}, 0, nil
	}

	page := s.selectPosts().OrderBy(postOrder...)
	for _, c := range conds {
		page = page.Where(c)
	}
	if f.Limit > 0 {
		page = page.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		page = page.Offset(uint64(f.Offset))
	}

	posts, err := s.queryPosts(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *PostStore) selectPosts() sq.SelectBuilder {
	return psql.Select(postColumns).
		From("posts p").
		Join("blogs b ON b.id = p.blog_id").
		Join("users u ON u.id = b.user_id")
}

func (s *PostStore) findOne(ctx context.Context, where sq.Sqlizer) (*models.Post, error) {
	posts, err := s.queryPosts(ctx, s.selectPosts().Where(where).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return &posts[0], nil
}

// queryPosts runs a post select and attaches every post's tags with one
// extra query.
func (s *PostStore) queryPosts(ctx context.Context, b sq.SelectBuilder) ([]models.Post, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build post query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	rows.Close()

	if err := s.attachTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostStore) attachTags(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(posts))
	index := make(map[uuid.UUID]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		index[p.ID] = i
	}

	query, args, err := psql.Select("pt.post_id", tagColumns).
		From("post_tags pt").
		Join("tags t ON t.id = pt.tag_id").
		Where(sq.Eq{"pt.post_id": ids}).
		OrderBy("t.name ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build post tags query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load post tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID uuid.UUID
		var t models.Tag
		if err := rows.Scan(append([]any{&postID}, tagDest(&t)...)...); err != nil {
			return fmt.Errorf("scan post tag: %w", err)
		}
		if i, ok := index[postID]; ok {
			posts[i].Tags = append(posts[i].Tags, t)
		}
	}
	return rows.Err()
}

// replaceTags rewrites the tag links of a post.
func replaceTags(ctx context.Context, q queryer, postID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("clear post tags: %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	insert := psql.Insert("post_tags").Columns("post_id", "tag_id")
	for _, id := range tagIDs {
		insert = insert.Values(postID, id)
	}
	query, args, err := insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build post tags insert: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert post tags: %w", err)
	}
	return nil
}
