package session

import (
	"log"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Registry owns the mapping from room code to live room and from player id
// to room code. It is purely in-memory; independent instances can coexist,
// which keeps lifecycle explicit in tests.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	playerRooms map[uuid.UUID]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		playerRooms: make(map[uuid.UUID]string),
	}
}

// CreateRoom builds a new room with the creator as its host and returns it.
// The creator must not already be in a room.
func (g *Registry) CreateRoom(creatorID uuid.UUID, displayName string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.playerRooms[creatorID]; ok {
		return nil, domain.ErrAlreadyInRoom
	}

	code := g.generateCode()
	room := newRoom(code)
	room.addPlayer(creatorID, displayName, true)

	g.rooms[code] = room
	g.playerRooms[creatorID] = code

	log.Printf("created room %s (host %s)", code, creatorID)
	return room, nil
}

// JoinRoom adds a player to an existing waiting room.
func (g *Registry) JoinRoom(code string, playerID uuid.UUID, displayName string) (*Room, error) {
	code = normalizeCode(code)

	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	if _, indexed := g.playerRooms[playerID]; indexed {
		return nil, domain.ErrAlreadyInRoom
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if len(room.players) >= domain.MaxRoomPlayers {
		return nil, domain.ErrRoomFull
	}
	if room.game.Phase != domain.PhaseWaiting {
		return nil, domain.ErrGameInProgress
	}

	room.addPlayerLocked(playerID, displayName, false)
	g.playerRooms[playerID] = code

	log.Printf("player %s joined room %s", playerID, code)
	return room, nil
}

// LeaveRoom removes the player from their room. The returned room is nil
// and deleted is true when the last participant left and the room was torn
// down. If the departing player was host, the earliest-joined remaining
// player becomes host and is forced ready.
func (g *Registry) LeaveRoom(playerID uuid.UUID) (*Room, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	code, ok := g.playerRooms[playerID]
	if !ok {
		return nil, false, domain.ErrNotInRoom
	}
	delete(g.playerRooms, playerID)

	room := g.rooms[code]
	room.mu.Lock()
	defer room.mu.Unlock()

	wasHost := false
	if p, ok := room.players[playerID]; ok {
		wasHost = p.IsHost
	}
	room.removePlayerLocked(playerID)

	if len(room.players) == 0 {
		// Tear down timers before dropping the last reference so no
		// deadline callback fires against a deleted room.
		room.turns.Stop()
		delete(g.rooms, code)
		log.Printf("room %s deleted (last player left)", code)
		return nil, true, nil
	}

	if wasHost {
		room.reassignHostLocked()
	}
	room.recomputeActiveLocked()

	return room, false, nil
}

// Room returns the room with the given code.
func (g *Registry) Room(code string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	room, ok := g.rooms[normalizeCode(code)]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// RoomFor returns the room the player is currently in.
func (g *Registry) RoomFor(playerID uuid.UUID) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	code, ok := g.playerRooms[playerID]
	if !ok {
		return nil, domain.ErrNotInRoom
	}
	return g.rooms[code], nil
}

// RoomCount returns the number of active rooms.
func (g *Registry) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// generateCode samples the alphabet until an unused code turns up. With a
// 36^4 code space collisions govern retries, not a hard cap.
func (g *Registry) generateCode() string {
	for {
		b := make([]byte, domain.RoomCodeLength)
		for i := range b {
			b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(b)
		if _, taken := g.rooms[code]; !taken {
			return code
		}
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
