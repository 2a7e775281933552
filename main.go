package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"hanabi-server/api"
	"hanabi-server/config"
	"hanabi-server/lobby"
	"hanabi-server/loghandler"
	"hanabi-server/storage"
	"hanabi-server/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found; using environment variables.")
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, cfg.SlogLevel())))

	if cfg.AuthBaseURL == "" {
		slog.Info("AUTH_BASE_URL is not set; players join as guests and /api/history is unavailable", "tag", "main")
	} else {
		slog.Info("auth configured", "tag", "main", "baseURL", cfg.AuthBaseURL)
	}
	slog.Info("configuration", "tag", "main",
		"wsPort", cfg.WSPort,
		"minPlayers", cfg.MinPlayers,
		"maxPlayers", cfg.MaxPlayers,
		"turnLimitSec", cfg.TurnLimitSec,
		"messagesPerSecond", cfg.MessagesPerSecond)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Storage: %v", err)
	}
	if store == nil {
		slog.Info("DATABASE_URL is not set; match history is not persisted", "tag", "main")
	}
	defer store.Close()

	lb := lobby.New(ctx, cfg, store)

	hub := ws.NewHub(cfg, lb)
	go hub.Run(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", hub.ServeWS)
	api.NewHandler(cfg, store).RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.WSPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "tag", "main", "err", err)
		}
	}()

	log.Printf("Hanabi server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
