package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"tetrecs-server/auth"
	"tetrecs-server/config"
	"tetrecs-server/storage"
)

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Count() int
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config    *config.Config
	Store     storage.ScoreStore
	Validator *auth.Validator
	Sessions  SessionCounter
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, store storage.ScoreStore, validator *auth.Validator, sessions SessionCounter) *Handler {
	return &Handler{
		Config:    cfg,
		Store:     store,
		Validator: validator,
		Sessions:  sessions,
	}
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// extractUserID validates the Authorization header and returns the user ID, or empty string on failure.
func (h *Handler) extractUserID(r *http.Request) string {
	token := auth.BearerToken(r.Header.Get("Authorization"))
	if token == "" || !h.Validator.Enabled() {
		return ""
	}
	claims, err := h.Validator.Validate(token)
	if err != nil {
		slog.Debug("rejected bearer token", "tag", "api", "err", err)
		return ""
	}
	return auth.UserIDFromClaims(claims)
}

// ScoresResponse is the JSON structure for /api/scores.
type ScoresResponse struct {
	Entries          []storage.ScoreRecord `json:"entries"`
	CurrentUserEntry *storage.ScoreRecord  `json:"current_user_entry,omitempty"`
}

// Scores returns the high-score table. With a valid bearer token, the caller's
// rows are marked and their best score is added when it is outside the table.
func (h *Handler) Scores(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = h.Config.LeaderboardSize
	}

	entries := []storage.ScoreRecord{}
	if h.Store != nil {
		var err error
		entries, err = h.Store.TopScores(r.Context(), limit)
		if err != nil {
			slog.Error("TopScores failed", "tag", "api", "err", err)
			http.Error(w, "failed to load scores", http.StatusInternalServerError)
			return
		}
	}

	var current *storage.ScoreRecord
	if userID := h.extractUserID(r); userID != "" && h.Store != nil {
		inTop := false
		for i := range entries {
			if entries[i].UserID == userID {
				entries[i].IsCurrentUser = true
				inTop = true
			}
		}
		if !inTop {
			best, err := h.Store.BestForUser(r.Context(), userID)
			if err != nil {
				slog.Error("BestForUser failed", "tag", "api", "err", err)
			} else if best != nil {
				best.IsCurrentUser = true
				current = best
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	resp := ScoresResponse{Entries: entries, CurrentUserEntry: current}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encode scores response", "tag", "api", "err", err)
	}
}

// HealthResponse is the JSON structure for /api/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// Health reports liveness and the number of live sessions.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	resp := HealthResponse{Status: "ok"}
	if h.Sessions != nil {
		resp.Sessions = h.Sessions.Count()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encode health response", "tag", "api", "err", err)
	}
}
