// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package permission decides whether an actor may read or write a resource.
// Every check is a pure function of the actor and the resource; the actor is
// always passed in explicitly and a nil actor means "not authenticated".
package permission

import (
	"net/http"

	"github.com/google/uuid"

	"blogapi/internal/models"
)

// Actor is the authenticated identity performing a request.
type Actor struct {
	UserID      uuid.UUID
	Username    string
	IsSuperuser bool
}

// ActorFor builds the actor for a loaded user.
func ActorFor(u *models.User) *Actor {
	return &Actor{UserID: u.ID, Username: u.Username, IsSuperuser: u.IsSuperuser}
}

// Action distinguishes safe reads from mutations.
type Action int

const (
	Read Action = iota
	Write
)

func (a Action) String() string {
	if a == Read {
		return "read"
	}
	return "write"
}

// ActionForMethod maps an HTTP method to the action it performs.
// GET, HEAD and OPTIONS are reads; everything else writes.
func ActionForMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return Read
	default:
		return Write
	}
}

// owns grants write access to superusers and to the owner.
func owns(actor *Actor, owner uuid.UUID) bool {
	return actor.IsSuperuser || (owner != uuid.Nil && actor.UserID == owner)
}

// CanAccessBlog reports whether actor may perform action on blog.
// Any authenticated actor reads; only the owner or a superuser writes.
func CanAccessBlog(actor *Actor, blog *models.Blog, action Action) bool {
	if actor == nil || blog == nil {
		return false
	}
	if action == Read {
		return true
	}
	return owns(actor, blog.UserID)
}

// CanAccessPost reports whether actor may perform action on post.
// Ownership is transitive through the post's blog.
func CanAccessPost(actor *Actor, post *models.Post, action Action) bool {
	if actor == nil || post == nil {
		return false
	}
	if action == Read {
		return true
	}
	return owns(actor, post.OwnerID())
}

// CanAccessTag reports whether actor may perform action on tags.
// Tags are global: any authenticated actor reads, only superusers write.
func CanAccessTag(actor *Actor, action Action) bool {
	if actor == nil {
		return false
	}
	return action == Read || actor.IsSuperuser
}

// CanAccessUser reports whether actor may perform action on user.
// Accounts are visible to themselves and to superusers; only superusers
// modify accounts through the API.
func CanAccessUser(actor *Actor, user *models.User, action Action) bool {
	if actor == nil || user == nil {
		return false
	}
	if actor.IsSuperuser {
		return true
	}
	return action == Read && actor.UserID == user.ID
}
