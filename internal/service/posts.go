// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sethvargo/go-retry"

	"blogapi/internal/apperr"
	"blogapi/internal/metrics"
	"blogapi/internal/models"
	"blogapi/internal/permission"
	"blogapi/internal/slug"
	"blogapi/internal/store"
)

const msgSlugTaken = "A post with this slug already exists."

// ErrStorageDisabled is returned by cover operations when no object
// storage is configured.
var ErrStorageDisabled = apperr.Statusf(http.StatusServiceUnavailable, "Cover uploads are not available.")

// PostInput is the body of a post write. Nil fields are left unchanged
// by partial updates. Tags holds tag ids or exact tag names.
type PostInput struct {
	Title       *string   `json:"title"`
	Slug        *string   `json:"slug"`
	Content     *string   `json:"content"`
	Excerpt     *string   `json:"excerpt"`
	Tags        *[]string `json:"tags"`
	IsPublished *bool     `json:"is_published"`
}

// CoverUpload is an image to attach to a post.
type CoverUpload struct {
	Body        io.Reader
	Size        int64
	ContentType string
	Extension   string
}

// Posts manages blog posts.
type Posts struct {
	posts    PostRepository
	blogs    *Blogs
	tags     *Tags
	storage  ObjectStorage
	listings ListingInvalidator

	slugs *slug.Generator
	now   func() time.Time

	content *bluemonday.Policy
	plain   *bluemonday.Policy
}

// NewPosts creates the post service. storage and listings may be nil.
func NewPosts(posts PostRepository, blogs *Blogs, tags *Tags, storage ObjectStorage, listings ListingInvalidator) *Posts {
	return &Posts{
		posts:    posts,
		blogs:    blogs,
		tags:     tags,
		storage:  storage,
		listings: listings,
		slugs:    slug.NewGenerator(),
		now:      time.Now,
		content:  bluemonday.UGCPolicy(),
		plain:    bluemonday.StrictPolicy(),
	}
}

// List returns a page of all posts.
func (s *Posts) List(ctx context.Context, actor *permission.Actor, page Page) (*PostPage, error) {
	return s.list(ctx, actor, store.PostFilter{}, page)
}

// ListByBlog returns a page of the posts in one blog.
func (s *Posts) ListByBlog(ctx context.Context, actor *permission.Actor, blogID uuid.UUID, page Page) (*PostPage, error) {
	return s.list(ctx, actor, store.PostFilter{BlogID: blogID}, page)
}

// Published returns a page of published posts.
func (s *Posts) Published(ctx context.Context, actor *permission.Actor, page Page) (*PostPage, error) {
	return s.list(ctx, actor, store.PostFilter{PublishedOnly: true}, page)
}

// ByTag returns a page of posts carrying a tag. The tag is matched by id,
// then by case-insensitive name and, when nothing matches exactly, by
// case-insensitive substring of the name.
func (s *Posts) ByTag(ctx context.Context, actor *permission.Actor, tag string, page Page) (*PostPage, error) {
	tag = strings.TrimSpace(tag)
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if tag == "" {
		return nil, apperr.Field("tag", "Tag parameter is required")
	}

	if id, err := uuid.Parse(tag); err == nil {
		return s.list(ctx, actor, store.PostFilter{TagID: id}, page)
	}
	exact, err := s.list(ctx, actor, store.PostFilter{TagName: tag}, page)
	if err != nil || exact.Total > 0 {
		return exact, err
	}
	return s.list(ctx, actor, store.PostFilter{TagNameLike: tag}, page)
}

// Get returns a post by id or slug.
func (s *Posts) Get(ctx context.Context, actor *permission.Actor, idOrSlug string) (*models.Post, error) {
	p, err := s.load(ctx, actor, idOrSlug, permission.Read)
	if err != nil {
		return nil, err
	}
	s.present(p)
	return p, nil
}

// Create writes a new post into the caller's blog, creating the blog on
// the caller's first post.
func (s *Posts) Create(ctx context.Context, actor *permission.Actor, in PostInput) (*models.Post, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	p := &models.Post{}
	if err := s.apply(ctx, p, in, false); err != nil {
		return nil, err
	}

	blog, err := s.blogs.EnsureFor(ctx, &models.User{ID: actor.UserID, Username: actor.Username})
	if err != nil {
		return nil, err
	}
	p.BlogID = blog.ID
	p.Blog = blog
	p.ApplyPublishTransition(s.now())

	var created *models.Post
	if p.Slug != "" {
		created, err = s.posts.Create(ctx, p)
		if errors.Is(err, store.ErrSlugTaken) {
			return nil, apperr.Field("slug", msgSlugTaken)
		}
	} else {
		created, err = s.createWithUniqueSlug(ctx, p)
	}
	if err != nil {
		return nil, err
	}

	metrics.PostsCreated.Inc()
	s.invalidate(ctx)
	slog.Info("post created", "post_id", created.ID, "slug", created.Slug, "blog_id", created.BlogID)
	s.present(created)
	return created, nil
}

// Update changes a post. With partial set, only the fields present in
// the input change. The slug never follows title changes.
func (s *Posts) Update(ctx context.Context, actor *permission.Actor, idOrSlug string, in PostInput, partial bool) (*models.Post, error) {
	p, err := s.load(ctx, actor, idOrSlug, permission.Write)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, in, partial); err != nil {
		return nil, err
	}
	p.ApplyPublishTransition(s.now())

	updated, err := s.posts.Update(ctx, p)
	if errors.Is(err, store.ErrSlugTaken) {
		return nil, apperr.Field("slug", msgSlugTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if updated == nil {
		return nil, apperr.ErrNotFound
	}
	s.invalidate(ctx)
	s.present(updated)
	return updated, nil
}

// Delete removes a post and its cover image.
func (s *Posts) Delete(ctx context.Context, actor *permission.Actor, idOrSlug string) error {
	p, err := s.load(ctx, actor, idOrSlug, permission.Write)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	s.removeObject(ctx, p.CoverKey)
	s.invalidate(ctx)
	slog.Info("post deleted", "post_id", p.ID, "user_id", actor.UserID)
	return nil
}

// SetCover stores an image and makes it the post's cover, replacing any
// previous one.
func (s *Posts) SetCover(ctx context.Context, actor *permission.Actor, idOrSlug string, up CoverUpload) (*models.Post, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	p, err := s.load(ctx, actor, idOrSlug, permission.Write)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("covers/%s/%s%s", p.ID, uuid.NewString(), up.Extension)
	if err := s.storage.Upload(ctx, key, up.ContentType, up.Body, up.Size); err != nil {
		return nil, fmt.Errorf("upload cover: %w", err)
	}
	if err := s.posts.SetCover(ctx, p.ID, &key); err != nil {
		s.removeObject(ctx, &key)
		return nil, fmt.Errorf("set cover: %w", err)
	}
	s.removeObject(ctx, p.CoverKey)

	p.CoverKey = &key
	s.invalidate(ctx)
	s.present(p)
	return p, nil
}

// ClearCover detaches and deletes the post's cover image.
func (s *Posts) ClearCover(ctx context.Context, actor *permission.Actor, idOrSlug string) (*models.Post, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	p, err := s.load(ctx, actor, idOrSlug, permission.Write)
	if err != nil {
		return nil, err
	}
	if p.CoverKey == nil {
		s.present(p)
		return p, nil
	}
	if err := s.posts.SetCover(ctx, p.ID, nil); err != nil {
		return nil, fmt.Errorf("clear cover: %w", err)
	}
	s.removeObject(ctx, p.CoverKey)

	p.CoverKey = nil
	s.invalidate(ctx)
	s.present(p)
	return p, nil
}

func (s *Posts) list(ctx context.Context, actor *permission.Actor, f store.PostFilter, page Page) (*PostPage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	page = page.normalize()
	f.Limit = page.Size
	f.Offset = page.offset()

	posts, total, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if page.Number > 1 && f.Offset >= total {
		return nil, apperr.Statusf(http.StatusNotFound, "Invalid page.")
	}
	for i := range posts {
		s.present(&posts[i])
	}
	return &PostPage{Posts: posts, Total: total, Page: page}, nil
}

// load fetches a post by id or slug and checks the caller may perform
// action on it.
func (s *Posts) load(ctx context.Context, actor *permission.Actor, idOrSlug string, action permission.Action) (*models.Post, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var p *models.Post
	var err error
	if id, perr := uuid.Parse(idOrSlug); perr == nil {
		p, err = s.posts.FindByID(ctx, id)
	} else {
		p, err = s.posts.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	if !permission.CanAccessPost(actor, p, action) {
		return nil, apperr.ErrPermissionDenied
	}
	return p, nil
}

// apply copies the input onto p, sanitizing markup and resolving tags.
func (s *Posts) apply(ctx context.Context, p *models.Post, in PostInput, partial bool) error {
	verr := &apperr.ValidationError{}
	if !partial {
		if in.Title == nil {
			verr.Add("title", "This field is required.")
		}
		if in.Content == nil {
			verr.Add("content", "This field is required.")
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		p.Content = strings.TrimSpace(s.content.Sanitize(*in.Content))
	}
	if in.Excerpt != nil {
		p.Excerpt = strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(*in.Excerpt)))
	}
	if in.IsPublished != nil {
		p.IsPublished = *in.IsPublished
	}
	if in.Slug != nil {
		p.Slug = strings.TrimSpace(*in.Slug)
		// Only new posts may leave the slug to be generated.
		if p.Slug == "" && p.ID != uuid.Nil {
			return apperr.Field("slug", "This field may not be blank.")
		}
	}

	err := validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.Required, validation.RuneLength(1, models.PostTitleMaxLength)),
		validation.Field(&p.Content, validation.Required),
		validation.Field(&p.Slug,
			validation.RuneLength(1, models.PostSlugMaxLength),
			validation.By(validSlug)),
	)
	if err := validationError(err); err != nil {
		return err
	}

	if in.Slug != nil && p.Slug != "" {
		taken, err := s.posts.SlugExists(ctx, p.Slug, p.ID)
		if err != nil {
			return fmt.Errorf("check slug: %w", err)
		}
		if taken {
			return apperr.Field("slug", msgSlugTaken)
		}
	}

	if in.Tags != nil {
		tags, err := s.tags.Resolve(ctx, "tags", *in.Tags)
		if err != nil {
			return err
		}
		p.Tags = tags
	}
	return nil
}

func validSlug(value any) error {
	s, _ := value.(string)
	if s != "" && !slug.IsValid(s) {
		return errors.New("enter a valid slug consisting of lowercase letters, numbers or hyphens")
	}
	if slug.IsReserved(s) {
		return fmt.Errorf("%q is reserved and cannot be used as a slug", s)
	}
	return nil
}

// createWithUniqueSlug inserts p under the first free slug candidate
// derived from its title.
func (s *Posts) createWithUniqueSlug(ctx context.Context, p *models.Post) (*models.Post, error) {
	base := s.slugs.Base(p.Title)
	attempt := 0

	var created *models.Post
	backoff := retry.WithMaxRetries(slug.MaxAttempts-1, retry.NewConstant(time.Microsecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p.Slug = s.slugs.Candidate(base, attempt)
		attempt++

		taken := slug.IsReserved(p.Slug)
		var err error
		if !taken {
			taken, err = s.posts.SlugExists(ctx, p.Slug, uuid.Nil)
			if err != nil {
				return fmt.Errorf("check slug: %w", err)
			}
		}
		if !taken {
			created, err = s.posts.Create(ctx, p)
			if err == nil {
				return nil
			}
			if !errors.Is(err, store.ErrSlugTaken) {
				return fmt.Errorf("create post: %w", err)
			}
		}
		metrics.SlugCollisions.Inc()
		slog.Debug("slug collision", "slug", p.Slug, "attempt", attempt)
		return retry.RetryableError(store.ErrSlugTaken)
	})
	if errors.Is(err, store.ErrSlugTaken) {
		slog.Warn("slug candidates exhausted", "base", base, "attempts", attempt)
		return nil, apperr.Conflict("Could not generate a unique slug for this post. Please try again.")
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// present fills the fields derived at response time.
func (s *Posts) present(p *models.Post) {
	p.CoverURL = nil
	if p.CoverKey != nil && s.storage != nil {
		url := s.storage.FileURL(*p.CoverKey)
		p.CoverURL = &url
	}
}

func (s *Posts) removeObject(ctx context.Context, key *string) {
	if key == nil || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, *key); err != nil {
		slog.Warn("cover delete failed", "key", *key, "error", err)
	}
}

func (s *Posts) invalidate(ctx context.Context) {
	if s.listings != nil {
		s.listings.InvalidateAll(ctx)
	}
}
