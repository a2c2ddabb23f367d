// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides shared helpers for the store tests: sqlmock
// fixtures for unit tests and a real database for integration tests, which
// are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"

	"blogapi/internal/database"
	"blogapi/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "blogapi")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "blogapi")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if _, err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users (and through the cascade their blogs and
// posts) by username. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, usernames ...string) {
	t.Helper()
	for _, u := range usernames {
		db.Exec("DELETE FROM users WHERE username = $1", u)
	}
}

// cleanTags removes test tags by name. Call in t.Cleanup().
func cleanTags(t *testing.T, db *sql.DB, names ...string) {
	t.Helper()
	for _, n := range names {
		db.Exec("DELETE FROM tags WHERE name = $1", n)
	}
}

// newMock returns a sqlmock-backed database.
func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var (
	fixtureTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	userCols = []string{"id", "username", "email", "first_name", "last_name", "password_hash",
		"is_superuser", "is_active", "created_at", "updated_at"}
	blogCols = []string{"id", "user_id", "title", "bio", "created_at", "updated_at"}
	tagCols  = []string{"id", "name", "created_at", "updated_at"}
	postCols = []string{"id", "blog_id", "title", "slug", "content", "excerpt", "cover_key",
		"is_published", "created_at", "updated_at", "published_at"}
)

func userValues(u *models.User) []driver.Value {
	return []driver.Value{u.ID.String(), u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash,
		u.IsSuperuser, u.IsActive, fixtureTime, fixtureTime}
}

func blogValues(b *models.Blog) []driver.Value {
	return append([]driver.Value{b.ID.String(), b.UserID.String(), b.Title, b.Bio, fixtureTime, fixtureTime},
		userValues(b.User)...)
}

func fixtureUser(username string) *models.User {
	return &models.User{ID: uuid.New(), Username: username, Email: username + "@example.com",
		PasswordHash: "hash", IsActive: true}
}

func fixtureBlog(u *models.User) *models.Blog {
	b := models.NewDefaultBlog(u)
	b.ID = uuid.New()
	return b
}

func blogRows(blogs ...*models.Blog) *sqlmock.Rows {
	rows := sqlmock.NewRows(append(append([]string{}, blogCols...), userCols...))
	for _, b := range blogs {
		rows.AddRow(blogValues(b)...)
	}
	return rows
}

func postRows(posts ...*models.Post) *sqlmock.Rows {
	cols := append(append(append([]string{}, postCols...), blogCols...), userCols...)
	rows := sqlmock.NewRows(cols)
	for _, p := range posts {
		var published driver.Value
		if p.PublishedAt != nil {
			published = *p.PublishedAt
		}
		vals := []driver.Value{p.ID.String(), p.Blog.ID.String(), p.Title, p.Slug, p.Content, p.Excerpt, nil,
			p.IsPublished, fixtureTime, fixtureTime, published}
		rows.AddRow(append(vals, blogValues(p.Blog)...)...)
	}
	return rows
}
