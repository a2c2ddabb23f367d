// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Services run against the in-memory stores from storetest, so these tests
// need neither PostgreSQL nor Valkey.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"blogapi/internal/middleware"
	"blogapi/internal/models"
	"blogapi/internal/permission"
	"blogapi/internal/service"
	"blogapi/internal/store/storetest"
)

// memListings is an in-memory listing cache that also receives the
// invalidations issued by the services.
type memListings struct {
	mu         sync.Mutex
	pages      map[string][]byte
	generation int64

	// beforeSet, when set, runs at the start of every Set.
	beforeSet func()
}

func newMemListings() *memListings {
	return &memListings{pages: make(map[string][]byte)}
}

func (m *memListings) Generation(context.Context) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

func (m *memListings) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.pages[key]
	return body, ok
}

func (m *memListings) Set(_ context.Context, key string, body []byte) {
	if m.beforeSet != nil {
		m.beforeSet()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[key] = body
}

func (m *memListings) InvalidateAll(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	clear(m.pages)
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	DB       *storetest.DB
	Tokens   *storetest.Tokens
	Objects  *storetest.Objects
	Listings *memListings

	Auth  *service.Auth
	Users *Users
	Blogs *Blogs
	Tags  *Tags
	Posts *Posts
}

// newTestEnv creates a test environment with object storage configured.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return buildEnv(t, storetest.NewObjects())
}

// newTestEnvWithoutStorage creates a test environment with no object
// storage, as when S3 credentials are not configured.
func newTestEnvWithoutStorage(t *testing.T) *testEnv {
	t.Helper()
	return buildEnv(t, nil)
}

func buildEnv(t *testing.T, objects *storetest.Objects) *testEnv {
	t.Helper()

	env := &testEnv{
		DB:       storetest.New(),
		Tokens:   storetest.NewTokens(),
		Objects:  objects,
		Listings: newMemListings(),
	}

	var storage service.ObjectStorage
	if objects != nil {
		storage = objects
	}

	blogs := service.NewBlogs(env.DB.Blogs(), env.Listings)
	tags := service.NewTags(env.DB.Tags(), env.Listings)
	users := service.NewUsers(env.DB.Users(), blogs)
	posts := service.NewPosts(env.DB.Posts(), blogs, tags, storage, env.Listings)
	env.Auth = service.NewAuth(env.DB.Users(), env.Tokens)

	env.Users = NewUsers(users, env.Auth)
	env.Blogs = NewBlogs(blogs)
	env.Tags = NewTags(tags)
	env.Posts = NewPosts(posts, env.Listings)
	return env
}

// register creates an account through the register handler and returns
// its actor and token.
func (env *testEnv) register(t *testing.T, username string) (*permission.Actor, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	env.Users.Register(rec, jsonRequest(http.MethodPost, "/api/users/register/", map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"first_name":       "Test",
		"last_name":        "User",
		"password":         "s3cretpass",
		"password_confirm": "s3cretpass",
	}, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		User  userView `json:"user"`
		Token string   `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return &permission.Actor{UserID: resp.User.ID, Username: resp.User.Username}, resp.Token
}

// superuser creates a superuser directly in the store. Superusers made
// this way have no blog until their first post.
func (env *testEnv) superuser(t *testing.T, username string) *permission.Actor {
	t.Helper()
	u, err := env.DB.Users().Create(context.Background(), &models.User{
		Username: username, IsSuperuser: true, IsActive: true,
	})
	require.NoError(t, err)
	return permission.ActorFor(u)
}

// jsonRequest builds a request with body encoded as JSON and actor in the
// context. A nil actor makes an anonymous request.
func jsonRequest(method, target string, body any, actor *permission.Actor) *http.Request {
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				panic(err)
			}
			rd = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), actor))
	}
	return req
}

// withID sets the {id} URL parameter the way chi would.
func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody unmarshals the recorded response into T.
func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// createPost creates a post through the handler and returns it.
func (env *testEnv) createPost(t *testing.T, actor *permission.Actor, body map[string]any) postDetail {
	t.Helper()
	rec := httptest.NewRecorder()
	env.Posts.Create(rec, jsonRequest(http.MethodPost, "/api/posts/", body, actor))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[postDetail](t, rec)
}
