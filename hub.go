package main

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	maxConnsPerIP = 8
	maxTotalConns = 1000

	TickRate       = 20 // simulation ticks per second
	BroadcastRate  = 10 // state snapshots per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

// Hub manages all connected clients and drives the simulation clock.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	rooms    *RoomManager
	auth     *Auth
	recorder *Recorder

	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	stop chan struct{}
}

// NewHub creates a Hub around a room registry.
func NewHub(rooms *RoomManager, auth *Auth, recorder *Recorder) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		rooms:      rooms,
		auth:       auth,
		recorder:   recorder,
		ipConns:    make(map[string]int),
		stop:       make(chan struct{}),
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

			// A dropped socket leaves its room; the registry cancels any
			// bombs or streams the player owned.
			code, playerID, ok := h.rooms.RemoveConnection(client.connID, time.Now())
			if ok && playerID != "" {
				h.BroadcastToRoom(code, Envelope{T: MsgPlayerLeft, Data: PlayerLeftMsg{
					RoomCode: code,
					PlayerID: playerID,
				}})
			}

		case <-h.stop:
			return
		}
	}
}

// RunSimulation is the external scheduler the core depends on: it calls
// Tick at a fixed cadence, fans detonation and stream events out to
// their rooms, and periodically broadcasts msgpack state frames.
func (h *Hub) RunSimulation() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	var tick uint64
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			tick++

			for _, event := range h.rooms.Tick(now) {
				h.BroadcastToRoom(event.RoomCode, Envelope{T: MsgAttackOut, Data: event})
			}

			if tick%BroadcastEvery == 0 {
				h.broadcastStates(now)
			}

		case <-h.stop:
			return
		}
	}
}

// Stop terminates the hub loops.
func (h *Hub) Stop() {
	close(h.stop)
}

// broadcastStates sends every room's snapshot to its members as a
// binary msgpack frame.
func (h *Hub) broadcastStates(now time.Time) {
	for _, state := range h.rooms.ListRooms(now) {
		data, err := msgpack.Marshal(StateMsg{
			Room:       state,
			ServerTime: now.UnixMilli(),
			TickRate:   TickRate,
		})
		if err != nil {
			log.Printf("state marshal error: %v", err)
			continue
		}
		h.broadcastBinaryToRoom(state.Code, data)
	}
}

// BroadcastToRoom sends a JSON envelope to every connection in a room.
func (h *Hub) BroadcastToRoom(code string, msg Envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.roomCode == code {
			client.SendRaw(data)
		}
	}
}

func (h *Hub) broadcastBinaryToRoom(code string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.roomCode == code {
			client.SendBinary(data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
