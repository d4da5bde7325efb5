package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"pequenoestilo/backend/internal/config"
	"pequenoestilo/backend/internal/httpapi"
	"pequenoestilo/backend/internal/notes"
	"pequenoestilo/backend/internal/service"
	"pequenoestilo/backend/internal/store/boutique"
	"pequenoestilo/backend/internal/store/kv"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := validateSecurityConfig(cfg); err != nil {
		log.WithError(err).Fatal("invalid security configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, backendName, err := openBackend(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("storage backend unavailable")
	}
	closers := []func() error{backend.Close}
	log.WithField("backend", backendName).Info("storage ready")

	repo, err := boutique.Open(ctx, backend)
	if err != nil {
		log.WithError(err).Fatal("open boutique store")
	}

	var intro *notes.Generator
	if cfg.GeminiAPIKey != "" {
		intro = notes.NewGenerator(cfg.GeminiAPIKey, cfg.GeminiModel, log)
		log.WithField("model", intro.Model()).Info("intro generator enabled")
	} else {
		log.Info("intro generator disabled, fixed fallback text only")
	}

	svc := service.New(repo, intro, log)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.OwnerUsername, cfg.OwnerPassword)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, log)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Address()).Info("boutique backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.WithError(err).Warn("close error")
		}
	}

	log.Info("server stopped")
}

// openBackend picks the key-value backend for the two persistence slots:
// postgres when DATABASE_URL is set, else redis when REDIS_ADDR is set,
// else JSON files under DATA_DIR.
func openBackend(ctx context.Context, cfg config.Config) (kv.Store, string, error) {
	if cfg.DatabaseURL != "" {
		pg, err := kv.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("postgres: %w", err)
		}
		return pg, "postgres", nil
	}
	if cfg.RedisAddr != "" {
		rd := kv.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rd.Ping(ctx); err != nil {
			return nil, "", fmt.Errorf("redis: %w", err)
		}
		return rd, "redis", nil
	}
	fs, err := kv.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, "", fmt.Errorf("file store: %w", err)
	}
	return fs, "file", nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.OwnerPassword) < 8 {
		return fmt.Errorf("OWNER_PASSWORD must be set and at least 8 characters")
	}
	return nil
}
