package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ministeriokids/api/internal/attendance"
	"github.com/ministeriokids/api/internal/audit"
	"github.com/ministeriokids/api/internal/config"
	"github.com/ministeriokids/api/internal/dashboard"
	"github.com/ministeriokids/api/internal/db"
	"github.com/ministeriokids/api/internal/devotional"
	internalhttp "github.com/ministeriokids/api/internal/http"
	"github.com/ministeriokids/api/internal/messaging"
	"github.com/ministeriokids/api/internal/notes"
	"github.com/ministeriokids/api/internal/repo"
	"github.com/ministeriokids/api/internal/roster"
	"github.com/ministeriokids/api/internal/service"
	"github.com/ministeriokids/api/internal/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	if err := db.Migrate(cfg.DBDSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	users := repo.NewUsers(pool)
	sessions := session.NewRedisStore(redisClient)
	authService := service.NewAuthService(users, sessions, cfg.SessionTTL)

	if err := authService.BootstrapAdmin(ctx, cfg.AdminBootstrapPwd); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	auditRepo := audit.NewRepository(pool)

	handler := internalhttp.NewRouter(internalhttp.Deps{
		Config:     cfg,
		DB:         pool,
		Redis:      redisClient,
		Auth:       authService,
		Audit:      auditRepo,
		Roster:     roster.NewService(roster.NewRepository(pool), auditRepo),
		Attendance: attendance.NewService(attendance.NewRepository(pool), auditRepo),
		Devotional: devotional.NewService(devotional.NewRepository(pool), auditRepo),
		Notes:      notes.NewService(notes.NewRepository(pool), auditRepo),
		Messaging:  messaging.NewService(messaging.NewRepository(pool), auditRepo),
		Dashboard:  dashboard.NewRepository(pool),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen: %w", err)
		}
	}

	return nil
}
