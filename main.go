package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tetrecs-server/api"
	"tetrecs-server/auth"
	"tetrecs-server/config"
	"tetrecs-server/loghandler"
	"tetrecs-server/sessions"
	"tetrecs-server/storage"
	"tetrecs-server/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main")
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, cfg.SlogLevel())))

	slog.Info("configuration",
		"tag", "main",
		"board", fmt.Sprintf("%dx%d", cfg.BoardRows, cfg.BoardCols),
		"lives", cfg.InitialLives,
		"leaderboard", cfg.LeaderboardSize,
		"port", cfg.WSPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("could not open score store", "tag", "main", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	validator, err := auth.NewValidator(cfg.AuthBaseURL)
	if err != nil {
		slog.Error("invalid auth configuration", "tag", "main", "err", err)
		os.Exit(1)
	}
	if validator.Enabled() {
		slog.Info("auth configured", "tag", "main", "base_url", cfg.AuthBaseURL)
	} else {
		slog.Info("AUTH_BASE_URL is not set; tokens are ignored and players are anonymous", "tag", "main")
	}

	mgr := sessions.NewManager(cfg, store, sessions.WithValidator(validator))
	hub := ws.NewHub(cfg, mgr)
	go hub.Run(ctx)

	apiHandler := api.NewHandler(cfg, store, validator, mgr)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/api/scores", apiHandler.Scores)
	mux.HandleFunc("/api/health", apiHandler.Health)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.WSPort), Handler: mux}
	go func() {
		slog.Info("TetrECS server listening", "tag", "main", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "tag", "main", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down", "tag", "main")
	mgr.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "tag", "main", "err", err)
	}
}

// openStore uses Postgres when DATABASE_URL is set and the local scores file otherwise.
func openStore(ctx context.Context, cfg *config.Config) (storage.ScoreStore, error) {
	if cfg.DatabaseURL != "" {
		return storage.NewStore(ctx, cfg.DatabaseURL)
	}
	fs, err := storage.NewFileStore(cfg.ScoresFile, cfg.LeaderboardSize)
	if err != nil {
		return nil, err
	}
	slog.Info("using local score file", "tag", "main", "path", fs.Path())
	return fs, nil
}
