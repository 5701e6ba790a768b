package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/service"
	"github.com/mika/mahjong-copilot-server/internal/session"
)

// Hub owns the websocket client set and fans room state out to the clients
// attached to each room. Room mutations go through the session registry;
// the hub only routes messages and broadcasts the resulting snapshots.
type Hub struct {
	registry   *session.Registry
	history    *service.HistoryService
	callWindow time.Duration

	clients map[*Client]bool
	byRoom  map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex
}

func NewHub(registry *session.Registry, history *service.HistoryService, callWindow time.Duration) *Hub {
	return &Hub{
		registry:   registry,
		history:    history,
		callWindow: callWindow,
		clients:    make(map[*Client]bool),
		byRoom:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.byRoom = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.handleDisconnect(client)
		}
	}
}

// Stop shuts down the hub and closes every client connection. It blocks
// until Run() has exited.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister safely unregisters a client, tolerating a hub that is already
// stopping.
func (h *Hub) Unregister(client *Client) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	// Block until the Run loop takes the client; dropping the request here
	// would leave a disconnected player marked online. The stop case keeps
	// this from hanging when the hub shuts down first.
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}

// handleDisconnect marks the player offline but keeps them in the room so
// they can reconnect with their seat and tiles intact.
func (h *Hub) handleDisconnect(client *Client) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	code := client.roomCode
	if code != "" {
		h.detachLocked(client, code)
	}
	client.Close()
	h.mu.Unlock()

	if code == "" {
		return
	}
	room, err := h.registry.Room(code)
	if err != nil {
		return
	}
	if err := room.UpdatePlayerConnection(client.userID, false); err != nil {
		log.Printf("hub: mark offline %s in %s: %v", client.userID, code, err)
	}
	h.BroadcastRoom(code)
}

func (h *Hub) attach(client *Client, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.roomCode != "" && client.roomCode != code {
		h.detachLocked(client, client.roomCode)
	}
	client.roomCode = code
	if h.byRoom[code] == nil {
		h.byRoom[code] = make(map[*Client]bool)
	}
	h.byRoom[code][client] = true
}

func (h *Hub) detach(client *Client, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(client, code)
}

func (h *Hub) detachLocked(client *Client, code string) {
	if set := h.byRoom[code]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.byRoom, code)
		}
	}
	if client.roomCode == code {
		client.roomCode = ""
	}
}

// BroadcastRoom sends the current room snapshot to every attached client.
func (h *Hub) BroadcastRoom(code string) {
	room, err := h.registry.Room(code)
	if err != nil {
		return
	}
	msg, err := NewMessage(MessageTypeRoomState, RoomStatePayload{Room: room.Snapshot()})
	if err != nil {
		log.Printf("hub: marshal room state for %s: %v", code, err)
		return
	}
	h.broadcastMessage(code, msg)
}

func (h *Hub) broadcastMessage(code string, msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.byRoom[code] {
		client.Send(msg)
	}
}

// sendToPlayer delivers a message to one player's connection in the room,
// if they are attached.
func (h *Hub) sendToPlayer(code string, playerID uuid.UUID, msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.byRoom[code] {
		if client.userID == playerID {
			client.Send(msg)
		}
	}
}

// notifyRoomClosed tells remaining attached clients the room is gone and
// detaches them.
func (h *Hub) notifyRoomClosed(code string) {
	msg, err := NewMessage(MessageTypeRoomClosed, RoomClosedPayload{Code: code})
	if err != nil {
		return
	}

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.byRoom[code]))
	for client := range h.byRoom[code] {
		clients = append(clients, client)
		client.roomCode = ""
	}
	delete(h.byRoom, code)
	h.mu.Unlock()

	for _, client := range clients {
		client.Send(msg)
	}
}
