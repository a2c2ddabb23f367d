// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"blogapi/internal/apperr"
	"blogapi/internal/models"
	"blogapi/internal/permission"
)

var (
	errInvalidToken = apperr.Statusf(http.StatusUnauthorized, "Invalid token.")
	errInactiveUser = apperr.Statusf(http.StatusUnauthorized, "User inactive or deleted.")
)

// LoginInput is the body of a login request.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Auth checks credentials and maps API tokens to actors.
type Auth struct {
	users  UserRepository
	tokens TokenStore
}

// NewAuth creates the authentication service.
func NewAuth(users UserRepository, tokens TokenStore) *Auth {
	return &Auth{users: users, tokens: tokens}
}

// Login verifies the credentials and returns the user with their token.
func (a *Auth) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	if in.Username == "" || in.Password == "" {
		return nil, "", apperr.Invalid("Must provide username and password")
	}

	u, err := a.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		slog.Warn("failed login", "username", in.Username)
		return nil, "", apperr.Invalid("Invalid credentials")
	}
	if !u.IsActive {
		return nil, "", apperr.Invalid("User account is disabled")
	}

	token, err := a.IssueToken(ctx, u)
	if err != nil {
		return nil, "", err
	}
	slog.Info("user logged in", "user_id", u.ID)
	return u, token, nil
}

// IssueToken returns the user's token, creating it on first use.
func (a *Auth) IssueToken(ctx context.Context, u *models.User) (string, error) {
	token, err := a.tokens.Issue(ctx, u.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// ResolveActor maps a presented token to the actor it authenticates.
func (a *Auth) ResolveActor(ctx context.Context, token string) (*permission.Actor, error) {
	userID, err := a.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if userID == uuid.Nil {
		return nil, errInvalidToken
	}

	u, err := a.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil || !u.IsActive {
		return nil, errInactiveUser
	}
	return permission.ActorFor(u), nil
}

// Logout revokes the caller's token.
func (a *Auth) Logout(ctx context.Context, actor *permission.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := a.tokens.Revoke(ctx, actor.UserID); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
