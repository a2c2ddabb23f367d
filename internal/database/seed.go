// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// EnsureSuperuser creates the named superuser, or updates the existing
// account's email and password and makes sure it is an active superuser.
// Returns true when a new account was created.
func EnsureSuperuser(ctx context.Context, db *sql.DB, username, email, password string) (bool, error) {
	if username == "" || password == "" {
		return false, fmt.Errorf("ensure superuser: username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("ensure superuser bcrypt: %w", err)
	}

	// xmax = 0 only for freshly inserted rows, which tells create from update.
	var created bool
	err = db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, is_superuser, is_active)
		VALUES ($1, $2, $3, TRUE, TRUE)
		ON CONFLICT ON CONSTRAINT users_username_key DO UPDATE
		SET email = EXCLUDED.email,
		    password_hash = EXCLUDED.password_hash,
		    is_superuser = TRUE,
		    is_active = TRUE,
		    updated_at = NOW()
		RETURNING (xmax = 0)
	`, username, email, string(hash)).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("ensure superuser: %w", err)
	}

	if created {
		slog.Info("superuser created", "username", username)
	} else {
		slog.Info("superuser updated", "username", username)
	}
	return created, nil
}
