// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storetest provides in-memory versions of the stores for tests
// of the layers above them. They follow the same contracts as the SQL
// stores: lookups return (nil, nil) for missing rows, unique violations
// return the store sentinel errors and deletes cascade like the schema.
package storetest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"blogapi/internal/models"
	"blogapi/internal/store"
)

// DB holds every table. The individual stores share it so joins and
// cascades behave like the database.
type DB struct {
	mu sync.Mutex

	users    map[uuid.UUID]models.User
	blogs    map[uuid.UUID]models.Blog
	tags     map[uuid.UUID]models.Tag
	posts    map[uuid.UUID]models.Post
	postTags map[uuid.UUID][]uuid.UUID

	clock time.Time
}

// New returns an empty database.
func New() *DB {
	return &DB{
		users:    make(map[uuid.UUID]models.User),
		blogs:    make(map[uuid.UUID]models.Blog),
		tags:     make(map[uuid.UUID]models.Tag),
		posts:    make(map[uuid.UUID]models.Post),
		postTags: make(map[uuid.UUID][]uuid.UUID),
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so creation order is
// always observable.
func (db *DB) tick() time.Time {
	db.clock = db.clock.Add(time.Millisecond)
	return db.clock
}

// Users returns the user table.
func (db *DB) Users() *Users { return &Users{db: db} }

// Blogs returns the blog table.
func (db *DB) Blogs() *Blogs { return &Blogs{db: db} }

// Tags returns the tag table.
func (db *DB) Tags() *Tags { return &Tags{db: db} }

// Posts returns the post table.
func (db *DB) Posts() *Posts { return &Posts{db: db} }

// Users is the in-memory user store.
type Users struct{ db *DB }

func (s *Users) Create(_ context.Context, u *models.User) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if existing.Username == u.Username {
			return nil, store.ErrUsernameTaken
		}
	}
	out := *u
	out.ID = uuid.New()
	out.CreatedAt = s.db.tick()
	out.UpdatedAt = out.CreatedAt
	s.db.users[out.ID] = out
	return &out, nil
}

func (s *Users) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Users) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Users) List(_ context.Context) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Users) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.users, id)
	for bid, b := range s.db.blogs {
		if b.UserID != id {
			continue
		}
		delete(s.db.blogs, bid)
		for pid, p := range s.db.posts {
			if p.BlogID == bid {
				delete(s.db.posts, pid)
				delete(s.db.postTags, pid)
			}
		}
	}
	return nil
}

// SetActive flips a user's active flag.
func (s *Users) SetActive(id uuid.UUID, active bool) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u := s.db.users[id]
	u.IsActive = active
	s.db.users[id] = u
}

// Blogs is the in-memory blog store.
type Blogs struct{ db *DB }

// blogLocked joins the owner onto a blog row. Callers hold the lock.
func (db *DB) blogLocked(b models.Blog) models.Blog {
	if u, ok := db.users[b.UserID]; ok {
		b.User = &u
	}
	return b
}

func (s *Blogs) Create(_ context.Context, b *models.Blog) (*models.Blog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.blogs {
		if existing.UserID == b.UserID {
			return nil, store.ErrBlogExists
		}
	}
	if _, ok := s.db.users[b.UserID]; !ok {
		return nil, fmt.Errorf("create blog: user %s does not exist", b.UserID)
	}
	row := models.Blog{ID: uuid.New(), UserID: b.UserID, Title: b.Title, Bio: b.Bio}
	row.CreatedAt = s.db.tick()
	row.UpdatedAt = row.CreatedAt
	s.db.blogs[row.ID] = row
	out := s.db.blogLocked(row)
	return &out, nil
}

func (s *Blogs) FindByID(_ context.Context, id uuid.UUID) (*models.Blog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	b, ok := s.db.blogs[id]
	if !ok {
		return nil, nil
	}
	out := s.db.blogLocked(b)
	return &out, nil
}

func (s *Blogs) FindByUserID(_ context.Context, userID uuid.UUID) (*models.Blog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, b := range s.db.blogs {
		if b.UserID == userID {
			out := s.db.blogLocked(b)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Blogs) List(_ context.Context) ([]models.Blog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.Blog, 0, len(s.db.blogs))
	for _, b := range s.db.blogs {
		out = append(out, s.db.blogLocked(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Blogs) Update(_ context.Context, b *models.Blog) (*models.Blog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	row, ok := s.db.blogs[b.ID]
	if !ok {
		return nil, nil
	}
	row.Title = b.Title
	row.Bio = b.Bio
	row.UpdatedAt = s.db.tick()
	s.db.blogs[row.ID] = row
	out := s.db.blogLocked(row)
	return &out, nil
}

func (s *Blogs) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.blogs, id)
	for pid, p := range s.db.posts {
		if p.BlogID == id {
			delete(s.db.posts, pid)
			delete(s.db.postTags, pid)
		}
	}
	return nil
}

// Tags is the in-memory tag store.
type Tags struct{ db *DB }

func (s *Tags) Create(_ context.Context, name string) (*models.Tag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, t := range s.db.tags {
		if t.Name == name {
			return nil, store.ErrTagNameTaken
		}
	}
	t := models.Tag{ID: uuid.New(), Name: name}
	t.CreatedAt = s.db.tick()
	t.UpdatedAt = t.CreatedAt
	s.db.tags[t.ID] = t
	return &t, nil
}

func (s *Tags) FindByID(_ context.Context, id uuid.UUID) (*models.Tag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tags[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *Tags) FindByName(_ context.Context, name string) (*models.Tag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, t := range s.db.tags {
		if t.Name == name {
			return &t, nil
		}
	}
	return nil, nil
}

func (s *Tags) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Tag{}
	for _, id := range ids {
		if t, ok := s.db.tags[id]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Tags) List(_ context.Context) ([]models.Tag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.Tag, 0, len(s.db.tags))
	for _, t := range s.db.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Tags) Rename(_ context.Context, id uuid.UUID, name string) (*models.Tag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tags[id]
	if !ok {
		return nil, nil
	}
	for _, other := range s.db.tags {
		if other.ID != id && other.Name == name {
			return nil, store.ErrTagNameTaken
		}
	}
	t.Name = name
	t.UpdatedAt = s.db.tick()
	s.db.tags[id] = t
	return &t, nil
}

func (s *Tags) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.tags, id)
	for pid, ids := range s.db.postTags {
		kept := ids[:0]
		for _, tid := range ids {
			if tid != id {
				kept = append(kept, tid)
			}
		}
		s.db.postTags[pid] = kept
	}
	return nil
}

// Posts is the in-memory post store.
type Posts struct{ db *DB }

// postLocked joins blog, owner and tags onto a post row. Callers hold
// the lock.
func (db *DB) postLocked(p models.Post) models.Post {
	if b, ok := db.blogs[p.BlogID]; ok {
		joined := db.blogLocked(b)
		p.Blog = &joined
	}
	p.Tags = []models.Tag{}
	for _, tid := range db.postTags[p.ID] {
		if t, ok := db.tags[tid]; ok {
			p.Tags = append(p.Tags, t)
		}
	}
	sort.Slice(p.Tags, func(i, j int) bool { return p.Tags[i].Name < p.Tags[j].Name })
	return p
}

// slugTakenLocked reports whether another post uses slug. Callers hold
// the lock.
func (db *DB) slugTakenLocked(slug string, exclude uuid.UUID) bool {
	for _, p := range db.posts {
		if p.Slug == slug && p.ID != exclude {
			return true
		}
	}
	return false
}

func (s *Posts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p.Slug == "" {
		return nil, fmt.Errorf("create post: empty slug")
	}
	if s.db.slugTakenLocked(p.Slug, uuid.Nil) {
		return nil, store.ErrSlugTaken
	}
	if _, ok := s.db.blogs[p.BlogID]; !ok {
		return nil, fmt.Errorf("create post: blog %s does not exist", p.BlogID)
	}
	row := *p
	row.ID = uuid.New()
	row.Blog = nil
	row.Tags = nil
	row.CoverURL = nil
	row.CreatedAt = s.db.tick()
	row.UpdatedAt = row.CreatedAt
	s.db.posts[row.ID] = row
	s.db.postTags[row.ID] = p.TagIDs()
	out := s.db.postLocked(row)
	return &out, nil
}

func (s *Posts) Update(_ context.Context, p *models.Post) (*models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	row, ok := s.db.posts[p.ID]
	if !ok {
		return nil, nil
	}
	if s.db.slugTakenLocked(p.Slug, p.ID) {
		return nil, store.ErrSlugTaken
	}
	row.Title = p.Title
	row.Slug = p.Slug
	row.Content = p.Content
	row.Excerpt = p.Excerpt
	row.IsPublished = p.IsPublished
	if row.PublishedAt == nil {
		row.PublishedAt = p.PublishedAt
	}
	row.UpdatedAt = s.db.tick()
	s.db.posts[row.ID] = row
	s.db.postTags[row.ID] = p.TagIDs()
	out := s.db.postLocked(row)
	return &out, nil
}

func (s *Posts) SetCover(_ context.Context, id uuid.UUID, key *string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	row, ok := s.db.posts[id]
	if !ok {
		return nil
	}
	row.CoverKey = key
	row.UpdatedAt = s.db.tick()
	s.db.posts[id] = row
	return nil
}

func (s *Posts) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.posts, id)
	delete(s.db.postTags, id)
	return nil
}

func (s *Posts) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	row, ok := s.db.posts[id]
	if !ok {
		return nil, nil
	}
	out := s.db.postLocked(row)
	return &out, nil
}

func (s *Posts) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, row := range s.db.posts {
		if row.Slug == slug {
			out := s.db.postLocked(row)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Posts) SlugExists(_ context.Context, slug string, exclude uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.slugTakenLocked(slug, exclude), nil
}

func (s *Posts) List(_ context.Context, f store.PostFilter) ([]models.Post, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	matched := []models.Post{}
	for _, row := range s.db.posts {
		p := s.db.postLocked(row)
		if matches(p, f) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return before(matched[i], matched[j]) })

	total := len(matched)
	start := min(f.Offset, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return matched[start:end], total, nil
}

// matches applies a PostFilter the way the SQL conditions do.
func matches(p models.Post, f store.PostFilter) bool {
	if f.PublishedOnly && !p.IsPublished {
		return false
	}
	if f.BlogID != uuid.Nil && p.BlogID != f.BlogID {
		return false
	}
	tagged := func(pred func(models.Tag) bool) bool {
		for _, t := range p.Tags {
			if pred(t) {
				return true
			}
		}
		return false
	}
	if f.TagID != uuid.Nil && !tagged(func(t models.Tag) bool { return t.ID == f.TagID }) {
		return false
	}
	if f.TagName != "" && !tagged(func(t models.Tag) bool { return strings.EqualFold(t.Name, f.TagName) }) {
		return false
	}
	if f.TagNameLike != "" && !tagged(func(t models.Tag) bool {
		return strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.TagNameLike))
	}) {
		return false
	}
	return true
}

// before orders by published_at descending with nulls last, then by
// created_at descending.
func before(a, b models.Post) bool {
	switch {
	case a.PublishedAt != nil && b.PublishedAt == nil:
		return true
	case a.PublishedAt == nil && b.PublishedAt != nil:
		return false
	case a.PublishedAt != nil && !a.PublishedAt.Equal(*b.PublishedAt):
		return a.PublishedAt.After(*b.PublishedAt)
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// Tokens is an in-memory API token store.
type Tokens struct {
	mu     sync.Mutex
	byKey  map[string]uuid.UUID
	byUser map[uuid.UUID]string
}

// NewTokens returns an empty token store.
func NewTokens() *Tokens {
	return &Tokens{byKey: make(map[string]uuid.UUID), byUser: make(map[uuid.UUID]string)}
}

func (t *Tokens) Issue(_ context.Context, userID uuid.UUID) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if key, ok := t.byUser[userID]; ok {
		return key, nil
	}
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	key := hex.EncodeToString(b)
	t.byKey[key] = userID
	t.byUser[userID] = key
	return key, nil
}

func (t *Tokens) Resolve(_ context.Context, key string) (uuid.UUID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byKey[key], nil
}

func (t *Tokens) Revoke(_ context.Context, userID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if key, ok := t.byUser[userID]; ok {
		delete(t.byKey, key)
		delete(t.byUser, userID)
	}
	return nil
}

// Object is a stored blob.
type Object struct {
	ContentType string
	Data        []byte
}

// Objects is an in-memory object storage.
type Objects struct {
	mu      sync.Mutex
	Objects map[string]Object
}

// NewObjects returns an empty object storage.
func NewObjects() *Objects {
	return &Objects{Objects: make(map[string]Object)}
}

func (o *Objects) Upload(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Objects[key] = Object{ContentType: contentType, Data: data}
	return nil
}

func (o *Objects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.Objects, key)
	return nil
}

func (o *Objects) FileURL(key string) string {
	return "https://cdn.example.com/" + key
}

// Len returns the number of stored objects.
func (o *Objects) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.Objects)
}

// Listings counts listing invalidations.
type Listings struct {
	mu    sync.Mutex
	calls int
}

func (l *Listings) InvalidateAll(context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
}

// Calls returns how many invalidations were requested.
func (l *Listings) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}
