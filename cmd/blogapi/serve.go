// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"blogapi/internal/cache"
	"blogapi/internal/database"
	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/router"
	"blogapi/internal/service"
	"blogapi/internal/session"
	"blogapi/internal/storage"
	"blogapi/internal/store"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if cfg.SuperuserUsername != "" && cfg.SuperuserPassword != "" {
		if _, err := database.EnsureSuperuser(ctx, db, cfg.SuperuserUsername, cfg.SuperuserEmail, cfg.SuperuserPassword); err != nil {
			return err
		}
	}

	// Valkey backs both the API tokens and the published listing cache.
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return fmt.Errorf("connect to valkey: %w", err)
	}
	defer valkeyClient.Close()

	tokens := session.NewTokenStore(valkeyClient, cfg.TokenTTL)
	listings := cache.NewListingCache(valkeyClient, cfg.ListingCacheTTL)

	// Object storage is optional; without it cover uploads answer 503.
	var objects service.ObjectStorage
	if cfg.StorageEnabled() {
		client, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			return fmt.Errorf("initialize object storage: %w", err)
		}
		objects = client
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, cover uploads disabled")
	}

	userStore := store.NewUserStore(db)
	blogStore := store.NewBlogStore(db)
	tagStore := store.NewTagStore(db)
	postStore := store.NewPostStore(db)

	blogs := service.NewBlogs(blogStore, listings)
	tags := service.NewTags(tagStore, listings)
	users := service.NewUsers(userStore, blogs)
	posts := service.NewPosts(postStore, blogs, tags, objects, listings)
	auth := service.NewAuth(userStore, tokens)

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute)
	defer limiter.Stop()

	r := router.New(auth, router.Handlers{
		Users: handlers.NewUsers(users, auth),
		Blogs: handlers.NewBlogs(blogs),
		Tags:  handlers.NewTags(tags),
		Posts: handlers.NewPosts(posts, listings),
	}, router.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AuthLimiter:    limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
