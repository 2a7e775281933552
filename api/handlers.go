package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"hanabi-server/auth"
	"hanabi-server/config"
	"hanabi-server/storage"
)

const bearerPrefix = "Bearer "

// Handler holds dependencies for API handlers.
type Handler struct {
	Config       *config.Config
	HistoryStore storage.HistoryStore
	Validate     func(baseURL, token string) (jwt.MapClaims, error)
}

// NewHandler creates a new API handler with the given dependencies.
// historyStore may be nil; every endpoint then serves empty results.
func NewHandler(cfg *config.Config, historyStore storage.HistoryStore) *Handler {
	return &Handler{
		Config:       cfg,
		HistoryStore: historyStore,
		Validate:     auth.ValidateToken,
	}
}

// RegisterRoutes mounts the read API under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Use(CORS)
		r.Get("/matches", h.Matches)
		r.Get("/history", h.History)
		r.Get("/stats", h.Stats)
	})
}

// CORS sets CORS headers and answers preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request through slog.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("request", "tag", "http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start).Round(time.Microsecond).String(),
			"req", middleware.GetReqID(r.Context()))
	})
}

// extractUserID validates the Authorization header and returns the user ID, or empty string on failure.
func (h *Handler) extractUserID(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	token := strings.TrimSpace(authHeader[len(bearerPrefix):])
	if token == "" {
		return ""
	}
	claims, err := h.Validate(h.Config.AuthBaseURL, token)
	if err != nil {
		slog.Debug("token rejected", "tag", "api", "err", err)
		return ""
	}
	return auth.UserIDFromClaims(claims)
}

// Matches returns the most recent matches, newest first.
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	list := []storage.MatchRecord{}
	if h.HistoryStore != nil {
		var err error
		list, err = h.HistoryStore.ListRecent(r.Context(), limit, offset)
		if err != nil {
			slog.Error("ListRecent failed", "tag", "api", "err", err)
			http.Error(w, "failed to load matches", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, list)
}

// History returns the matches the authenticated user played in.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := h.extractUserID(r)
	if userID == "" {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	list := []storage.MatchRecord{}
	if h.HistoryStore != nil {
		var err error
		list, err = h.HistoryStore.ListByUserID(r.Context(), userID)
		if err != nil {
			slog.Error("ListByUserID failed", "tag", "api", "err", err)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, list)
}

// Stats returns aggregate numbers over all stored matches.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := &storage.Stats{}
	if h.HistoryStore != nil {
		var err error
		stats, err = h.HistoryStore.GetStats(r.Context())
		if err != nil {
			slog.Error("GetStats failed", "tag", "api", "err", err)
			http.Error(w, "failed to load stats", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "tag", "api", "err", err)
	}
}
