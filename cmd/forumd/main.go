package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	commenthttp "github.com/MyNameIsWhaaat/peerthread/internal/comment/handler/http"
	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
	"github.com/MyNameIsWhaaat/peerthread/internal/comment/service"
	"github.com/MyNameIsWhaaat/peerthread/internal/comment/storage"
	"github.com/MyNameIsWhaaat/peerthread/internal/comment/storage/inmemory"
	"github.com/MyNameIsWhaaat/peerthread/internal/comment/storage/postgres"
	redisstore "github.com/MyNameIsWhaaat/peerthread/internal/comment/storage/redis"
	"github.com/MyNameIsWhaaat/peerthread/internal/config"
	"github.com/MyNameIsWhaaat/peerthread/internal/identity"
	"github.com/MyNameIsWhaaat/peerthread/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config (default "+config.DefaultConfigPath+" if present)")
	mintID := flag.String("mint-token", "", "print a signed token for this user id and exit")
	mintName := flag.String("username", "", "username for -mint-token")
	mintRole := flag.String("role", string(model.RoleMember), "role for -mint-token")
	mintVerified := flag.Bool("verified", false, "verified flag for -mint-token")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.RequireSecret(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ident := identity.NewVerifier(cfg.Auth.JWTSecret)

	if *mintID != "" {
		v := model.Viewer{ID: *mintID, Username: *mintName, Role: model.Role(*mintRole), Verified: *mintVerified}
		if v.Username == "" {
			v.Username = v.ID
		}
		tok, err := ident.Sign(v, cfg.Auth.TokenTTL)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

	log, err := logger.New(cfg.Log, cfg.Production())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, ident, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, ident *identity.Verifier, log *zap.Logger) error {
	repo, reactions, closeDB, err := openStorage(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeDB()

	unread, closeRedis, err := openUnread(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeRedis()

	svc := service.New(repo, reactions, unread, log)
	h := commenthttp.New(svc, ident, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (storage.Repository, storage.ReactionRepository, func(), error) {
	if cfg.Driver != config.DriverPostgres {
		log.Info("using in-memory storage")
		return inmemory.New(), inmemory.NewReactions(), func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("using postgres storage")
	return postgres.New(db), postgres.NewReactions(db), func() { _ = db.Close() }, nil
}

func openUnread(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (storage.UnreadCounter, func(), error) {
	if cfg.URL == "" {
		return inmemory.NewUnread(), func() {}, nil
	}
	u, err := redisstore.Connect(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("using redis unread counters")
	return u, func() { _ = u.Close() }, nil
}
