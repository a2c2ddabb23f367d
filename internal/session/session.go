// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides Valkey-backed API token management. Each user
// has at most one opaque token; the token maps to the user id and the
// user id maps back to the token so it can be reused and revoked.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// tokenPrefix namespaces token -> user id keys in Valkey.
	tokenPrefix = "token:"

	// userPrefix namespaces user id -> token keys in Valkey.
	userPrefix = "user_token:"

	// keyLength is the byte length of a token (20 bytes = 40 hex chars).
	keyLength = 20

	// issueAttempts bounds the claim loop in Issue.
	issueAttempts = 3
)

var keyPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// TokenStore manages API tokens in Valkey.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration // 0 means tokens never expire
}

// NewTokenStore creates a token store backed by the given Valkey client.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue returns the user's token, generating and storing one if the user
// has none.
//
// The token key is written before the user claim, so a claim only ever
// names a token that was stored. A claim whose token has gone missing
// (expired first, or left behind by an older release) is dropped and a
// fresh token issued.
func (s *TokenStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	userKey := userPrefix + userID.String()

	for range issueAttempts {
		key, err := generateKey()
		if err != nil {
			return "", fmt.Errorf("token generate: %w", err)
		}

		if err := s.client.Set(ctx, tokenPrefix+key, userID.String(), s.ttl).Err(); err != nil {
			return "", fmt.Errorf("token store: %w", err)
		}

		created, err := s.client.SetNX(ctx, userKey, key, s.ttl).Result()
		if err != nil {
			s.discard(ctx, key)
			return "", fmt.Errorf("token reserve: %w", err)
		}
		if created {
			return key, nil
		}

		// Another token already claims the user; reuse it if it is live.
		s.discard(ctx, key)
		existing, err := s.client.Get(ctx, userKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("token lookup: %w", err)
		}
		live, err := s.client.Exists(ctx, tokenPrefix+existing).Result()
		if err != nil {
			return "", fmt.Errorf("token lookup: %w", err)
		}
		if live == 1 {
			return existing, nil
		}

		slog.Warn("dropping orphaned token claim", "user_id", userID)
		if err := s.client.Del(ctx, userKey).Err(); err != nil {
			return "", fmt.Errorf("token claim delete: %w", err)
		}
	}
	return "", errors.New("token issue: claim kept changing")
}

// Resolve returns the user a token belongs to, or uuid.Nil when the token
// is malformed, unknown or expired.
func (s *TokenStore) Resolve(ctx context.Context, key string) (uuid.UUID, error) {
	if !keyPattern.MatchString(key) {
		return uuid.Nil, nil
	}

	val, err := s.client.Get(ctx, tokenPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("token get: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token value: %w", err)
	}
	return id, nil
}

// Revoke deletes the user's token. Revoking a user without a token is
// not an error.
func (s *TokenStore) Revoke(ctx context.Context, userID uuid.UUID) error {
	key, err := s.client.Get(ctx, userPrefix+userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("token lookup: %w", err)
	}

	if err := s.client.Del(ctx, tokenPrefix+key, userPrefix+userID.String()).Err(); err != nil {
		return fmt.Errorf("token delete: %w", err)
	}
	return nil
}

// discard removes a token that never became the user's claim. Failure
// only leaves an unreachable key behind.
func (s *TokenStore) discard(ctx context.Context, key string) {
	if err := s.client.Del(ctx, tokenPrefix+key).Err(); err != nil {
		slog.Warn("token discard failed", "error", err)
	}
}

// generateKey creates a cryptographically random token.
func generateKey() (string, error) {
	b := make([]byte, keyLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
