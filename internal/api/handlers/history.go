package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/api/middleware"
	"github.com/mika/mahjong-copilot-server/internal/domain"
	"github.com/mika/mahjong-copilot-server/internal/service"
)

type HistoryHandler struct {
	history *service.HistoryService
}

func NewHistoryHandler(history *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

type MatchListResponse struct {
	Matches []*domain.MatchRecord `json:"matches"`
}

// List returns the requesting player's finished matches, most recent first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	matches, err := h.history.GetPlayerHistory(r.Context(), userID, limit, offset)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MatchListResponse{Matches: matches})
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserID(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid match id", http.StatusBadRequest)
		return
	}

	match, err := h.history.GetMatch(r.Context(), id)
	if err != nil {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(match)
}

// GetByRoom lists all recorded matches played under a room code.
func (h *HistoryHandler) GetByRoom(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserID(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matches, err := h.history.GetRoomHistory(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MatchListResponse{Matches: matches})
}
