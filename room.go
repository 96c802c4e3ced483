package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RoomStatus is the room lifecycle phase.
type RoomStatus string

const (
	StatusLobby      RoomStatus = "lobby"
	StatusInProgress RoomStatus = "in-progress"
	StatusFinished   RoomStatus = "finished"
)

const (
	DefaultMaxPlayers = 4
	roomCodePrefix    = "KART-"
	roomCodeLength    = 4
	// Vowel-light alphabet: no I, O, 0, 1 so codes read unambiguously.
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxCodeAttempts  = 64
)

// Room is one match instance. All mutation goes through RoomManager
// methods while holding mu; rooms are fully independent of each other.
type Room struct {
	mu            sync.Mutex
	code          string
	hostPlayerID  string
	maxPlayers    int
	status        RoomStatus
	players       map[string]*Player
	crateSlots    map[string]*CrateSlot
	activeBombs   map[string]*ActiveBomb
	bulletStreams map[string]*ActiveBulletStream
	spectators    map[string]bool // conn ids
	gameStartedAt time.Time
	gameEndedAt   time.Time
	lastUpdatedAt time.Time
}

// empty reports whether nobody is left watching or playing. Caller holds mu.
func (r *Room) empty() bool {
	return len(r.players) == 0 && len(r.spectators) == 0
}

// EventSink receives wallet-addressed combat records. Implementations
// must never block the caller; the simulation does not wait on them.
type EventSink interface {
	RecordKill(KillEvent)
	RecordItem(ItemEvent)
}

// RoomManager owns every room, keyed by code. It is the only way shared
// room state is reached; no mutable references escape it.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	rngMu sync.Mutex
	rng   *rand.Rand

	sink EventSink // optional, may be nil
}

// NewRoomManager creates a registry seeded from crypto/rand.
func NewRoomManager() *RoomManager {
	var seed [8]byte
	crand.Read(seed[:])
	return NewRoomManagerWithRand(rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:])))))
}

// NewRoomManagerWithRand creates a registry with an injected random
// source so tests can pin weapon rolls and room codes.
func NewRoomManagerWithRand(rng *rand.Rand) *RoomManager {
	return &RoomManager{
		rooms: make(map[string]*Room),
		rng:   rng,
	}
}

// SetEventSink attaches a recorder for kill/item records.
func (rm *RoomManager) SetEventSink(sink EventSink) {
	rm.sink = sink
}

func (rm *RoomManager) randomWeaponType() WeaponType {
	rm.rngMu.Lock()
	defer rm.rngMu.Unlock()
	return weaponPool[rm.rng.Intn(len(weaponPool))]
}

func (rm *RoomManager) randomCode() string {
	rm.rngMu.Lock()
	defer rm.rngMu.Unlock()
	var b strings.Builder
	b.WriteString(roomCodePrefix)
	for i := 0; i < roomCodeLength; i++ {
		b.WriteByte(roomCodeAlphabet[rm.rng.Intn(len(roomCodeAlphabet))])
	}
	return b.String()
}

// generateCode draws codes until an unused one appears, bounded so a
// pathologically full namespace fails loudly instead of spinning.
// Caller holds rm.mu.
func (rm *RoomManager) generateCode() (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := rm.randomCode()
		if _, taken := rm.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeGenerationFailed
}

// CreateRoom makes a new lobby with the host as its sole player.
func (rm *RoomManager) CreateRoom(hostName, wallet string, maxPlayers int, now time.Time) (RoomState, PlayerState, error) {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}

	rm.mu.Lock()
	code, err := rm.generateCode()
	if err != nil {
		rm.mu.Unlock()
		return RoomState{}, PlayerState{}, err
	}

	hostID := uuid.NewString()
	room := &Room{
		code:          code,
		hostPlayerID:  hostID,
		maxPlayers:    maxPlayers,
		status:        StatusLobby,
		players:       make(map[string]*Player),
		crateSlots:    make(map[string]*CrateSlot),
		activeBombs:   make(map[string]*ActiveBomb),
		bulletStreams: make(map[string]*ActiveBulletStream),
		spectators:    make(map[string]bool),
		lastUpdatedAt: now,
	}
	for _, spawn := range CrateSpawnPoints {
		room.crateSlots[spawn.ID] = &CrateSlot{
			ID:          spawn.ID,
			Position:    spawn.Position,
			IsAvailable: true,
			WeaponType:  rm.randomWeaponType(),
			UpdatedAt:   now,
		}
	}

	host := NewPlayer(hostID, hostName, "", wallet, now)
	room.players[hostID] = host
	rm.rooms[code] = room
	rm.mu.Unlock()

	room.mu.Lock()
	defer room.mu.Unlock()
	return room.toState(), host.ToState(), nil
}

// lookup finds a room by code, case-insensitively.
func (rm *RoomManager) lookup(code string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[strings.ToUpper(code)]
}

// dropIfEmpty destroys the room the moment it has no players and no
// spectators left.
func (rm *RoomManager) dropIfEmpty(room *Room) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.empty() {
		delete(rm.rooms, room.code)
	}
}

// GetRoom returns a snapshot, advancing lazy timers first so callers
// never observe stale expired state between ticks.
func (rm *RoomManager) GetRoom(code string, now time.Time) (RoomState, bool) {
	room := rm.lookup(code)
	if room == nil {
		return RoomState{}, false
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	rm.advanceRoomTimers(room, now)
	return room.toState(), true
}

// ListRooms snapshots every live room.
func (rm *RoomManager) ListRooms(now time.Time) []RoomState {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	states := make([]RoomState, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		rm.advanceRoomTimers(room, now)
		states = append(states, room.toState())
		room.mu.Unlock()
	}
	return states
}

// RoomCount returns the number of live rooms.
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// JoinRoomAsPlayer adds a player, failing when the room is unknown or full.
func (rm *RoomManager) JoinRoomAsPlayer(code, connID, name, wallet string, now time.Time) (RoomState, PlayerState, error) {
	room := rm.lookup(code)
	if room == nil {
		return RoomState{}, PlayerState{}, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	rm.advanceRoomTimers(room, now)

	if len(room.players) >= room.maxPlayers {
		return RoomState{}, PlayerState{}, ErrRoomFull
	}

	player := NewPlayer(uuid.NewString(), name, connID, wallet, now)
	room.players[player.ID] = player
	room.lastUpdatedAt = now

	return room.toState(), player.ToState(), nil
}

// JoinRoomAsSpectator registers a watching connection.
func (rm *RoomManager) JoinRoomAsSpectator(code, connID string, now time.Time) (RoomState, error) {
	room := rm.lookup(code)
	if room == nil {
		return RoomState{}, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	rm.advanceRoomTimers(room, now)

	room.spectators[connID] = true
	room.lastUpdatedAt = now
	return room.toState(), nil
}

// AttachHostConn binds the websocket connection of an HTTP-created host
// to its player record. Returns false when the room or host is gone.
func (rm *RoomManager) AttachHostConn(code, connID, hostPlayerID string, now time.Time) bool {
	room := rm.lookup(code)
	if room == nil {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	rm.advanceRoomTimers(room, now)

	host, ok := room.players[hostPlayerID]
	if !ok {
		return false
	}
	host.ConnID = connID
	host.UpdatedAt = now
	room.lastUpdatedAt = now
	return true
}

// removePlayerCombatState cancels bombs and bullet streams owned by a
// departing player. This is the primary cancellation path; the tick's
// owner-missing checks are only a safety net. Caller holds room.mu.
func removePlayerCombatState(room *Room, playerID string) {
	for id, bomb := range room.activeBombs {
		if bomb.OwnerPlayerID == playerID {
			delete(room.activeBombs, id)
		}
	}
	for id, stream := range room.bulletStreams {
		if stream.OwnerPlayerID == playerID {
			delete(room.bulletStreams, id)
		}
	}
}

// LeaveRoom removes a player (by id) or a spectator (by conn id).
// Idempotent: unknown rooms and members report ok=false, nothing breaks.
func (rm *RoomManager) LeaveRoom(code, playerID, connID string, now time.Time) (string, bool) {
	room := rm.lookup(code)
	if room == nil {
		return "", false
	}

	room.mu.Lock()
	rm.advanceRoomTimers(room, now)

	if playerID != "" {
		if _, ok := room.players[playerID]; ok {
			delete(room.players, playerID)
			removePlayerCombatState(room, playerID)
			room.lastUpdatedAt = now
			emptied := room.empty()
			room.mu.Unlock()
			if emptied {
				rm.dropIfEmpty(room)
			}
			return playerID, true
		}
	}

	if room.spectators[connID] {
		delete(room.spectators, connID)
		room.lastUpdatedAt = now
		emptied := room.empty()
		room.mu.Unlock()
		if emptied {
			rm.dropIfEmpty(room)
		}
		return "", true
	}

	room.mu.Unlock()
	return "", false
}

// RemoveConnection handles a dropped socket: it scans rooms for a
// player or spectator bound to the connection and removes them.
func (rm *RoomManager) RemoveConnection(connID string, now time.Time) (string, string, bool) {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	for _, room := range rooms {
		room.mu.Lock()
		rm.advanceRoomTimers(room, now)

		if room.spectators[connID] {
			delete(room.spectators, connID)
			room.lastUpdatedAt = now
			code := room.code
			emptied := room.empty()
			room.mu.Unlock()
			if emptied {
				rm.dropIfEmpty(room)
			}
			return code, "", true
		}

		for playerID, player := range room.players {
			if player.ConnID != connID {
				continue
			}
			delete(room.players, playerID)
			removePlayerCombatState(room, playerID)
			room.lastUpdatedAt = now
			code := room.code
			emptied := room.empty()
			room.mu.Unlock()
			if emptied {
				rm.dropIfEmpty(room)
			}
			return code, playerID, true
		}

		room.mu.Unlock()
	}

	return "", "", false
}

// UpdatePosition applies a client-reported movement patch. Positions
// are trusted; unknown rooms or players are silently ignored.
func (rm *RoomManager) UpdatePosition(code, playerID string, position, velocity Vec2, rotation float64, now time.Time) {
	room := rm.lookup(code)
	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	rm.advanceRoomTimers(room, now)

	player, ok := room.players[playerID]
	if !ok {
		return
	}
	player.Position = position
	player.Velocity = velocity
	player.Rotation = rotation
	player.UpdatedAt = now
	room.lastUpdatedAt = now
}

// StartGame flips the room to in-progress. The transport verifies host
// identity before calling; the core trusts it.
func (rm *RoomManager) StartGame(code string, now time.Time) (RoomState, error) {
	room := rm.lookup(code)
	if room == nil {
		return RoomState{}, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	rm.advanceRoomTimers(room, now)

	room.status = StatusInProgress
	room.gameStartedAt = now
	room.gameEndedAt = time.Time{}
	room.lastUpdatedAt = now
	return room.toState(), nil
}

// EndGame marks the match finished.
func (rm *RoomManager) EndGame(code string, now time.Time) (RoomState, error) {
	room := rm.lookup(code)
	if room == nil {
		return RoomState{}, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	rm.advanceRoomTimers(room, now)

	room.status = StatusFinished
	room.gameEndedAt = now
	room.lastUpdatedAt = now
	return room.toState(), nil
}

// PickupCrate arms a player from an available slot and schedules the
// slot's respawn. The emitted event embeds both deadlines so clients
// can predict without waiting for the next snapshot.
func (rm *RoomManager) PickupCrate(code, playerID, slotID string, now time.Time) (ItemEvent, error) {
	room := rm.lookup(code)
	if room == nil {
		return ItemEvent{}, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	rm.advanceRoomTimers(room, now)

	player, ok := room.players[playerID]
	if !ok {
		return ItemEvent{}, ErrPlayerNotFound
	}
	if player.Armed() {
		return ItemEvent{}, ErrPlayerAlreadyArmed
	}

	slot, ok := room.crateSlots[slotID]
	if !ok {
		return ItemEvent{}, ErrSlotNotFound
	}
	if !slot.IsAvailable {
		return ItemEvent{}, ErrCrateNotAvailable
	}

	weapon := slot.WeaponType
	slot.Take(now)
	player.GrantWeapon(weapon, now)
	room.lastUpdatedAt = now

	event := newItemEvent(room.code, playerID, ItemKindPickup, string(weapon), slot.ID, PickupPayload{
		RespawnAt:       slot.RespawnAt.UnixMilli(),
		WeaponExpiresAt: player.WeaponExpiresAt.UnixMilli(),
	}, now)

	if rm.sink != nil {
		rm.sink.RecordItem(event)
	}
	return event, nil
}

// advanceRoomTimers runs the lazy sweeps every mutating call performs
// before acting: crate respawns and weapon expiries. Combat entities
// advance only in Tick. Caller holds room.mu.
func (rm *RoomManager) advanceRoomTimers(room *Room, now time.Time) {
	changed := false

	for _, slot := range room.crateSlots {
		if slot.RespawnDue(now) {
			slot.Respawn(rm.randomWeaponType(), now)
			changed = true
		}
	}

	for _, player := range room.players {
		if player.WeaponExpiredAt(now) {
			player.ClearWeapon(now)
			changed = true
		}
	}

	if changed {
		room.lastUpdatedAt = now
	}
}

// toState builds the broadcast snapshot. Caller holds mu.
func (r *Room) toState() RoomState {
	players := make([]PlayerState, 0, len(r.players))
	for _, player := range r.players {
		players = append(players, player.ToState())
	}
	slots := make([]CrateSlotState, 0, len(r.crateSlots))
	for _, slot := range r.crateSlots {
		slots = append(slots, slot.ToState())
	}

	state := RoomState{
		Code:          r.code,
		HostPlayerID:  r.hostPlayerID,
		MaxPlayers:    r.maxPlayers,
		Status:        string(r.status),
		Players:       players,
		CrateSlots:    slots,
		Spectators:    len(r.spectators),
		LastUpdatedAt: r.lastUpdatedAt.UnixMilli(),
	}
	if !r.gameStartedAt.IsZero() {
		state.GameStartedAt = r.gameStartedAt.UnixMilli()
	}
	if !r.gameEndedAt.IsZero() && !r.gameStartedAt.IsZero() {
		state.GameDurationSeconds = int(r.gameEndedAt.Sub(r.gameStartedAt).Seconds())
	}
	return state
}
