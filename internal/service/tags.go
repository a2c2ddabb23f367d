// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"blogapi/internal/apperr"
	"blogapi/internal/models"
	"blogapi/internal/permission"
	"blogapi/internal/store"
)

const msgTagNameTaken = "A tag with this name already exists."

// TagInput is the body of a tag write.
type TagInput struct {
	Name string `json:"name"`
}

// Validate checks the tag name.
func (in TagInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, models.TagNameMaxLength)),
	)
}

// Tags manages the global tag vocabulary. Reads are open to any
// authenticated user; writes are reserved to superusers.
type Tags struct {
	tags     TagRepository
	listings ListingInvalidator
}

// NewTags creates the tag service. listings may be nil.
func NewTags(tags TagRepository, listings ListingInvalidator) *Tags {
	return &Tags{tags: tags, listings: listings}
}

// List returns every tag, newest first.
func (s *Tags) List(ctx context.Context, actor *permission.Actor) ([]models.Tag, error) {
	if err := s.authorize(actor, permission.Read); err != nil {
		return nil, err
	}
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Get returns a single tag.
func (s *Tags) Get(ctx context.Context, actor *permission.Actor, id uuid.UUID) (*models.Tag, error) {
	if err := s.authorize(actor, permission.Read); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// Create adds a tag.
func (s *Tags) Create(ctx context.Context, actor *permission.Actor, in TagInput) (*models.Tag, error) {
	if err := s.authorize(actor, permission.Write); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := s.checkName(ctx, in, uuid.Nil); err != nil {
		return nil, err
	}

	t, err := s.tags.Create(ctx, in.Name)
	if errors.Is(err, store.ErrTagNameTaken) {
		return nil, apperr.Field("name", msgTagNameTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	slog.Info("tag created", "tag_id", t.ID, "name", t.Name)
	return t, nil
}

// Update renames a tag.
func (s *Tags) Update(ctx context.Context, actor *permission.Actor, id uuid.UUID, in TagInput) (*models.Tag, error) {
	if err := s.authorize(actor, permission.Write); err != nil {
		return nil, err
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := s.checkName(ctx, in, id); err != nil {
		return nil, err
	}

	t, err := s.tags.Rename(ctx, id, in.Name)
	if errors.Is(err, store.ErrTagNameTaken) {
		return nil, apperr.Field("name", msgTagNameTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("rename tag: %w", err)
	}
	if t == nil {
		return nil, apperr.ErrNotFound
	}
	s.invalidate(ctx)
	return t, nil
}

// Delete removes a tag and unlinks it from every post.
func (s *Tags) Delete(ctx context.Context, actor *permission.Actor, id uuid.UUID) error {
	if err := s.authorize(actor, permission.Write); err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.tags.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	s.invalidate(ctx)
	slog.Info("tag deleted", "tag_id", id)
	return nil
}

// Resolve maps each entry to an existing tag, first by id and then by
// exact name. Unknown entries fail validation on field.
func (s *Tags) Resolve(ctx context.Context, field string, refs []string) ([]models.Tag, error) {
	out := make([]models.Tag, 0, len(refs))
	seen := make(map[uuid.UUID]bool, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		var t *models.Tag
		var err error
		if id, perr := uuid.Parse(ref); perr == nil {
			t, err = s.tags.FindByID(ctx, id)
		} else {
			t, err = s.tags.FindByName(ctx, ref)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", ref, err)
		}
		if t == nil {
			return nil, apperr.Field(field, fmt.Sprintf("Invalid tag %q - object does not exist.", ref))
		}
		if !seen[t.ID] {
			seen[t.ID] = true
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *Tags) authorize(actor *permission.Actor, action permission.Action) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !permission.CanAccessTag(actor, action) {
		return apperr.ErrPermissionDenied
	}
	return nil
}

func (s *Tags) find(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	t, err := s.tags.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}
	if t == nil {
		return nil, apperr.ErrNotFound
	}
	return t, nil
}

// checkName validates in and makes sure no other tag uses the name.
func (s *Tags) checkName(ctx context.Context, in TagInput, self uuid.UUID) error {
	if err := validationError(in.Validate()); err != nil {
		return err
	}
	other, err := s.tags.FindByName(ctx, in.Name)
	if err != nil {
		return fmt.Errorf("find tag: %w", err)
	}
	if other != nil && other.ID != self {
		return apperr.Field("name", msgTagNameTaken)
	}
	return nil
}

func (s *Tags) invalidate(ctx context.Context) {
	if s.listings != nil {
		s.listings.InvalidateAll(ctx)
	}
}
