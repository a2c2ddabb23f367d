// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"blogapi/internal/apperr"
	"blogapi/internal/models"
	"blogapi/internal/permission"
	"blogapi/internal/store"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

const msgUsernameTaken = "A user with that username already exists."

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Validate checks the field rules for a new account.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username,
			validation.Required,
			validation.Length(3, 30),
			validation.Match(usernamePattern).Error("may only contain letters and numbers")),
		validation.Field(&in.Email, validation.Required, validation.Length(5, 150), is.EmailFormat),
		validation.Field(&in.FirstName, validation.Required, validation.RuneLength(2, 150)),
		validation.Field(&in.LastName, validation.RuneLength(2, 150)),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&in.PasswordConfirm, validation.Required),
	)
}

// Users manages accounts.
type Users struct {
	users UserRepository
	blogs *Blogs

	// hashCost is the bcrypt cost used for new passwords.
	hashCost int
}

// NewUsers creates the user service. Registered users get their default
// blog through blogs.
func NewUsers(users UserRepository, blogs *Blogs) *Users {
	return &Users{users: users, blogs: blogs, hashCost: bcrypt.DefaultCost}
}

// Register creates an active, non-superuser account and its default blog.
func (s *Users) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validationError(in.Validate()); err != nil {
		return nil, err
	}
	if in.Password != in.PasswordConfirm {
		return nil, apperr.Invalid("Passwords do not match")
	}

	existing, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, apperr.Field("username", msgUsernameTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, &models.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
		IsActive:     true,
	})
	if errors.Is(err, store.ErrUsernameTaken) {
		return nil, apperr.Field("username", msgUsernameTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if _, err := s.blogs.EnsureFor(ctx, u); err != nil {
		// Without its blog the account is unusable, and keeping it would
		// make a retry fail with the username taken.
		if delErr := s.users.Delete(ctx, u.ID); delErr != nil {
			slog.Error("failed to remove user without blog", "user_id", u.ID, "error", delErr)
		}
		return nil, err
	}

	slog.Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// List returns every user to superusers and only the caller otherwise.
func (s *Users) List(ctx context.Context, actor *permission.Actor) ([]models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.IsSuperuser {
		users, err := s.users.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		return users, nil
	}

	self, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if self == nil {
		return []models.User{}, nil
	}
	return []models.User{*self}, nil
}

// Get returns a single user. Users outside the caller's reach are
// reported as missing.
func (s *Users) Get(ctx context.Context, actor *permission.Actor, id uuid.UUID) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil || !permission.CanAccessUser(actor, u, permission.Read) {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}
