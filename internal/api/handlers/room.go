package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mika/mahjong-copilot-server/internal/api/middleware"
	"github.com/mika/mahjong-copilot-server/internal/domain"
	"github.com/mika/mahjong-copilot-server/internal/session"
	"github.com/mika/mahjong-copilot-server/internal/websocket"
)

// RoomHandler exposes the REST surface over the in-memory room registry.
// Live gameplay flows over the websocket; these endpoints cover room
// creation, joining, and lookup.
type RoomHandler struct {
	registry *session.Registry
	hub      *websocket.Hub
}

func NewRoomHandler(registry *session.Registry, hub *websocket.Hub) *RoomHandler {
	return &RoomHandler{registry: registry, hub: hub}
}

type RoomResponse struct {
	Room *domain.RoomSnapshot `json:"room"`
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	room, err := h.registry.CreateRoom(userID, middleware.GetDisplayName(r.Context()))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(RoomResponse{Room: room.Snapshot()})
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserID(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	room, err := h.registry.Room(chi.URLParam(r, "code"))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RoomResponse{Room: room.Snapshot()})
}

func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	room, err := h.registry.JoinRoom(chi.URLParam(r, "code"), userID, middleware.GetDisplayName(r.Context()))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastRoom(room.Code())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RoomResponse{Room: room.Snapshot()})
}

func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	room, deleted, err := h.registry.LeaveRoom(userID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	if h.hub != nil && !deleted {
		h.hub.BroadcastRoom(room.Code())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true, "roomClosed": deleted})
}

// writeSessionError maps session errors to HTTP status codes.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		http.Error(w, "Room not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrRoomFull):
		http.Error(w, "Room is full", http.StatusConflict)
	case errors.Is(err, domain.ErrGameInProgress):
		http.Error(w, "Game already in progress", http.StatusConflict)
	case errors.Is(err, domain.ErrAlreadyInRoom):
		http.Error(w, "Already in a room", http.StatusConflict)
	case errors.Is(err, domain.ErrNotInRoom):
		http.Error(w, "Not in a room", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotHost):
		http.Error(w, "Host only", http.StatusForbidden)
	case errors.Is(err, domain.ErrWrongPhase):
		http.Error(w, "Wrong game phase", http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
