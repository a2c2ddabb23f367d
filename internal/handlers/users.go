// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"blogapi/internal/middleware"
	"blogapi/internal/render"
	"blogapi/internal/service"
)

// Users groups the account and authentication handlers.
type Users struct {
	users *service.Users
	auth  *service.Auth
}

// NewUsers creates the user handler group.
func NewUsers(users *service.Users, auth *service.Auth) *Users {
	return &Users{users: users, auth: auth}
}

// Register creates an account with its blog and returns a token for it.
func (h *Users) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := render.Decode(w, r, &in); err != nil {
		render.Error(w, r, err)
		return
	}

	u, err := h.users.Register(r.Context(), in)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	token, err := h.auth.IssueToken(r.Context(), u)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, authResponse{
		User:    newUserView(u),
		Token:   token,
		Message: "User registered successfully",
	})
}

// Login exchanges credentials for the user's token.
func (h *Users) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := render.Decode(w, r, &in); err != nil {
		render.Error(w, r, err)
		return
	}

	u, token, err := h.auth.Login(r.Context(), in)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, authResponse{
		User:    newUserView(u),
		Token:   token,
		Message: "Login successful",
	})
}

// Logout revokes the caller's token.
func (h *Users) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.ActorFromCtx(r.Context())); err != nil {
		render.Error(w, r, err)
		return
	}
	render.NoContent(w)
}

// List returns the accounts visible to the caller.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), middleware.ActorFromCtx(r.Context()))
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, newUserViews(users))
}

// Get returns one account.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	u, err := h.users.Get(r.Context(), middleware.ActorFromCtx(r.Context()), id)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, newUserView(u))
}
