package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/davidahmann/agegate/internal/auth"
	"github.com/davidahmann/agegate/internal/review"
)

type SessionCounter interface {
	Active() int
}

type ClaimLookup interface {
	Get(artifactID string) (review.ClaimRecord, bool)
}

type Handler struct {
	Auth     auth.Authenticator
	Sessions SessionCounter
	Claims   ClaimLookup
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Interviews(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Sessions == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "interview engine not configured"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"active": h.Sessions.Active()})
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if h.Claims == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "review gate not configured"})
		return
	}

	artifactID := r.PathValue("artifactID")
	if artifactID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing artifact_id"})
		return
	}

	rec, ok := h.Claims.Get(artifactID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no decision recorded"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"artifact_id":  rec.ArtifactID,
		"requester_id": rec.RequesterID,
		"status":       string(rec.Status),
		"decision":     string(rec.Decision),
		"moderator_id": rec.ModeratorID,
		"updated_at":   rec.UpdatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) ensureAuth(w http.ResponseWriter, r *http.Request) bool {
	if h.Auth == nil {
		return true
	}
	if _, err := h.Auth.Authenticate(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /v1/interviews", h.Interviews)
	mux.HandleFunc("GET /v1/reviews/{artifactID}", h.Review)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
