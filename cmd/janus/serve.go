package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/janus/internal/auth"
	"github.com/dropDatabas3/janus/internal/bootstrap"
	"github.com/dropDatabas3/janus/internal/cache"
	httpx "github.com/dropDatabas3/janus/internal/http"
	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/profile"
	"github.com/dropDatabas3/janus/internal/rbac"
	"github.com/dropDatabas3/janus/internal/session"
	"github.com/dropDatabas3/janus/internal/store/pg"
	"github.com/dropDatabas3/janus/internal/token"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta el servidor HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "janus",
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.Named("serve")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	denylist, err := cache.New(cache.Config{
		Kind:     cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return err
	}
	defer func() { _ = denylist.Close() }()

	tokens, err := token.NewEngine(token.Config{
		Issuer:      cfg.JWT.Issuer,
		SigningSeed: cfg.JWT.SigningSeed,
		AccessTTL:   cfg.AccessTTL(),
		RefreshTTL:  cfg.RefreshTTL(),
	}, denylist)
	if err != nil {
		// clave de firma mal configurada: fatal, no hay nada que servir
		return err
	}

	if err := bootstrap.SeedPermissions(ctx, store); err != nil {
		return err
	}

	sessions := session.NewManager(store, tokens)
	authSvc := auth.NewService(store, tokens, sessions)
	profiles := profile.NewService(store)
	eval := rbac.NewEvaluator(store, tokens)
	rbacSvc := rbac.NewService(store, sessions)

	router := httpx.NewRouter(httpx.Deps{
		Auth:               httpx.NewAuthHandler(authSvc, profiles, sessions),
		RBAC:               httpx.NewRBACHandler(rbacSvc),
		Tokens:             tokens,
		Eval:               eval,
		Store:              store,
		Cache:              denylist,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := httpx.NewServer(cfg.Server.Addr, router, cfg.ReadTimeout(), cfg.WriteTimeout())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("apagando")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
