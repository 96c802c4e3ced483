package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin     = "join"     // join a room as player or spectator
	MsgLeave    = "leave"    // leave the current room
	MsgPosition = "position" // client-reported movement patch
	MsgAttack   = "attack"   // fire the held weapon
	MsgPickup   = "pickup"   // grab a crate slot
)

// Server -> Client message types
const (
	MsgJoined       = "joined"
	MsgPlayerJoined = "player_joined"
	MsgPlayerLeft   = "player_left"
	MsgPositionOut  = "position"
	MsgAttackOut    = "attack"
	MsgItem         = "item"
	MsgState        = "state"
	MsgGameStarted  = "game_started"
	MsgGameEnded    = "game_ended"
	MsgError        = "error"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg attaches a connection to a room. Role defaults to "player";
// a HostToken reclaims the player created by POST /api/rooms.
type JoinMsg struct {
	RoomCode      string `json:"roomCode"`
	Role          string `json:"role,omitempty"` // "player" or "spectator"
	PlayerName    string `json:"playerName,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	HostToken     string `json:"hostToken,omitempty"`
}

// LeaveMsg detaches the connection from its room.
type LeaveMsg struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId,omitempty"`
}

// PositionMsg is the client-trusted movement report.
type PositionMsg struct {
	RoomCode string  `json:"roomCode"`
	PlayerID string  `json:"playerId"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Rotation float64 `json:"rotation"`
}

// AttackMsg asks the resolver to fire. WeaponType "unknown" fires
// whatever the player holds.
type AttackMsg struct {
	RoomCode   string `json:"roomCode"`
	PlayerID   string `json:"playerId"`
	WeaponType string `json:"weaponType"`
	Position   Vec2   `json:"position"`
	Direction  Vec2   `json:"direction"`
}

// PickupMsg asks for a crate slot.
type PickupMsg struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	SlotID   string `json:"slotId"`
}

// PlayerState is the wire form of a player.
type PlayerState struct {
	ID               string  `json:"id" msgpack:"id"`
	Name             string  `json:"name" msgpack:"name"`
	WalletAddress    string  `json:"walletAddress,omitempty" msgpack:"walletAddress,omitempty"`
	Position         Vec2    `json:"position" msgpack:"position"`
	Velocity         Vec2    `json:"velocity" msgpack:"velocity"`
	Rotation         float64 `json:"rotation" msgpack:"rotation"`
	HP               int     `json:"hp" msgpack:"hp"`
	Kills            int     `json:"kills" msgpack:"kills"`
	Deaths           int     `json:"deaths" msgpack:"deaths"`
	ActiveWeaponType string  `json:"activeWeaponType,omitempty" msgpack:"activeWeaponType,omitempty"`
	WeaponExpiresAt  int64   `json:"weaponExpiresAt,omitempty" msgpack:"weaponExpiresAt,omitempty"`
	UpdatedAt        int64   `json:"updatedAt" msgpack:"updatedAt"`
}

// CrateSlotState is the wire form of a crate slot.
type CrateSlotState struct {
	ID          string `json:"id" msgpack:"id"`
	Position    Vec2   `json:"position" msgpack:"position"`
	IsAvailable bool   `json:"isAvailable" msgpack:"isAvailable"`
	WeaponType  string `json:"weaponType" msgpack:"weaponType"`
	RespawnAt   int64  `json:"respawnAt,omitempty" msgpack:"respawnAt,omitempty"`
	UpdatedAt   int64  `json:"updatedAt" msgpack:"updatedAt"`
}

// RoomState is the full room snapshot for broadcast.
type RoomState struct {
	Code                string           `json:"code" msgpack:"code"`
	HostPlayerID        string           `json:"hostPlayerId" msgpack:"hostPlayerId"`
	MaxPlayers          int              `json:"maxPlayers" msgpack:"maxPlayers"`
	Status              string           `json:"status" msgpack:"status"`
	Players             []PlayerState    `json:"players" msgpack:"players"`
	CrateSlots          []CrateSlotState `json:"crateSlots" msgpack:"crateSlots"`
	Spectators          int              `json:"spectators" msgpack:"spectators"`
	GameStartedAt       int64            `json:"gameStartedAt,omitempty" msgpack:"gameStartedAt,omitempty"`
	GameDurationSeconds int              `json:"gameDurationSeconds,omitempty" msgpack:"gameDurationSeconds,omitempty"`
	LastUpdatedAt       int64            `json:"lastUpdatedAt" msgpack:"lastUpdatedAt"`
}

// JoinedMsg confirms a join and tells the client who it is.
type JoinedMsg struct {
	Room     RoomState    `json:"room"`
	Role     string       `json:"role"`
	Player   *PlayerState `json:"player,omitempty"`
	PlayerID string       `json:"playerId,omitempty"`
}

// PlayerJoinedMsg announces a new player to a room.
type PlayerJoinedMsg struct {
	RoomCode string      `json:"roomCode"`
	Player   PlayerState `json:"player"`
}

// PlayerLeftMsg announces a departure.
type PlayerLeftMsg struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

// StateMsg is the periodic snapshot broadcast, sent msgpack-encoded as
// a binary frame.
type StateMsg struct {
	Room       RoomState `json:"room" msgpack:"room"`
	ServerTime int64     `json:"serverTime" msgpack:"serverTime"`
	TickRate   int       `json:"tickRate" msgpack:"tickRate"`
}

// GameStartedMsg announces the host started the match.
type GameStartedMsg struct {
	Room RoomState `json:"room"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
