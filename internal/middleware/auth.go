// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"blogapi/internal/apperr"
	"blogapi/internal/permission"
	"blogapi/internal/render"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// actorKey is the context key for the authenticated actor.
const actorKey contextKey = "actor"

// ActorResolver maps an API token to the actor it authenticates.
type ActorResolver interface {
	ResolveActor(ctx context.Context, token string) (*permission.Actor, error)
}

// Authenticate reads the Authorization header and stores the resolved
// actor in the request context. Requests without the header pass through
// anonymous; requests with a bad token are rejected with 401.
func Authenticate(resolver ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := parseAuthorization(header)
			if !ok {
				unauthorized(w, r, apperr.Statusf(http.StatusUnauthorized, "Invalid token header."))
				return
			}

			actor, err := resolver.ResolveActor(r.Context(), token)
			if err != nil {
				unauthorized(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireAuth rejects requests that carry no authenticated actor.
// Must be applied after Authenticate in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ActorFromCtx(r.Context()) == nil {
			unauthorized(w, r, apperr.ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor *permission.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromCtx extracts the actor from the request context.
// Returns nil if the request is not authenticated.
func ActorFromCtx(ctx context.Context) *permission.Actor {
	actor, _ := ctx.Value(actorKey).(*permission.Actor)
	return actor
}

// parseAuthorization accepts "Token <key>" and "Bearer <key>".
func parseAuthorization(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", `Token realm="api"`)
	render.Error(w, r, err)
}
