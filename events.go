package main

import (
	"time"

	"github.com/google/uuid"
)

// WeaponType identifies a crate weapon.
type WeaponType string

const (
	WeaponRocket WeaponType = "rocket"
	WeaponBomb   WeaponType = "bomb"
	WeaponBullet WeaponType = "bullet"
	// WeaponUnknown is the wildcard clients send when they fire whatever
	// they are holding.
	WeaponUnknown WeaponType = "unknown"
)

// weaponPool is what crate slots roll from.
var weaponPool = []WeaponType{WeaponRocket, WeaponBomb, WeaponBullet}

// Attack phases carried in event payloads.
const (
	PhaseRocketFire  = "rocket_fire"
	PhaseBombPlace   = "bomb_place"
	PhaseBombExplode = "bomb_explode"
	PhaseBulletStart = "bullet_start"
	PhaseBulletTrace = "bullet_trace"
	PhaseBulletEnd   = "bullet_end"
)

// HitType values reported by the tracer.
const (
	HitNone   = "none"
	HitWall   = "wall"
	HitPlayer = "player"
)

// AttackEvent describes one combat occurrence for broadcast. It is
// produced by the resolver or the tick and never persisted by the core.
type AttackEvent struct {
	ID         string      `json:"id" msgpack:"id"`
	RoomCode   string      `json:"roomCode" msgpack:"roomCode"`
	PlayerID   string      `json:"playerId" msgpack:"playerId"`
	WeaponType WeaponType  `json:"weaponType" msgpack:"weaponType"`
	Position   Vec2        `json:"position" msgpack:"position"`
	Direction  Vec2        `json:"direction" msgpack:"direction"`
	CreatedAt  int64       `json:"createdAt" msgpack:"createdAt"` // unix ms
	Payload    interface{} `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// ItemEvent describes a crate pickup or weapon use for broadcast.
type ItemEvent struct {
	ID        string      `json:"id" msgpack:"id"`
	RoomCode  string      `json:"roomCode" msgpack:"roomCode"`
	PlayerID  string      `json:"playerId" msgpack:"playerId"`
	Kind      string      `json:"kind" msgpack:"kind"` // "pickup" or "use"
	ItemType  string      `json:"itemType" msgpack:"itemType"`
	SlotID    string      `json:"slotId,omitempty" msgpack:"slotId,omitempty"`
	CreatedAt int64       `json:"createdAt" msgpack:"createdAt"`
	Payload   interface{} `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// ItemEvent kinds.
const (
	ItemKindPickup = "pickup"
	ItemKindUse    = "use"
)

// KillEvent is the wallet-addressed record handed to the recorder when
// damage lands. The core never waits on what the recorder does with it.
type KillEvent struct {
	RoomCode       string `json:"roomCode"`
	AttackerID     string `json:"attackerId"`
	AttackerName   string `json:"attackerName"`
	AttackerWallet string `json:"attackerWallet,omitempty"`
	VictimID       string `json:"victimId"`
	VictimName     string `json:"victimName"`
	VictimWallet   string `json:"victimWallet,omitempty"`
	WeaponType     string `json:"weaponType"`
	HealthDepleted int    `json:"healthDepleted"`
	Killed         bool   `json:"killed"`
	Timestamp      int64  `json:"timestamp"`
}

// RocketFirePayload carries the resolved trace of an instantaneous shot.
type RocketFirePayload struct {
	Phase       string `json:"phase" msgpack:"phase"`
	Start       Vec2   `json:"start" msgpack:"start"`
	End         Vec2   `json:"end" msgpack:"end"`
	HitType     string `json:"hitType" msgpack:"hitType"`
	HitPlayerID string `json:"hitPlayerId,omitempty" msgpack:"hitPlayerId,omitempty"`
	TravelMs    int    `json:"travelMs" msgpack:"travelMs"`
}

// BombPlacePayload announces a live bomb so clients can render the fuse.
type BombPlacePayload struct {
	Phase       string  `json:"phase" msgpack:"phase"`
	BombID      string  `json:"bombId" msgpack:"bombId"`
	Position    Vec2    `json:"position" msgpack:"position"`
	ExplodeAt   int64   `json:"explodeAt" msgpack:"explodeAt"`
	Radius      float64 `json:"radius" msgpack:"radius"`
	TouchRadius float64 `json:"touchRadius" msgpack:"touchRadius"`
}

// BombExplodePayload lists everyone caught in a detonation.
type BombExplodePayload struct {
	Phase        string   `json:"phase" msgpack:"phase"`
	BombID       string   `json:"bombId" msgpack:"bombId"`
	Position     Vec2     `json:"position" msgpack:"position"`
	Radius       float64  `json:"radius" msgpack:"radius"`
	Trigger      string   `json:"trigger" msgpack:"trigger"` // "touch" or "timer"
	HitPlayerIDs []string `json:"hitPlayerIds" msgpack:"hitPlayerIds"`
}

// BulletStartPayload opens a stream; shots follow as bullet_trace events.
type BulletStartPayload struct {
	Phase     string `json:"phase" msgpack:"phase"`
	BurstID   string `json:"burstId" msgpack:"burstId"`
	StartedAt int64  `json:"startedAt" msgpack:"startedAt"`
	EndsAt    int64  `json:"endsAt" msgpack:"endsAt"`
}

// BulletTracePayload carries one shot of a stream.
type BulletTracePayload struct {
	Phase       string `json:"phase" msgpack:"phase"`
	BurstID     string `json:"burstId" msgpack:"burstId"`
	From        Vec2   `json:"from" msgpack:"from"`
	To          Vec2   `json:"to" msgpack:"to"`
	HitType     string `json:"hitType" msgpack:"hitType"`
	HitPlayerID string `json:"hitPlayerId,omitempty" msgpack:"hitPlayerId,omitempty"`
}

// BulletEndPayload closes a stream.
type BulletEndPayload struct {
	Phase   string `json:"phase" msgpack:"phase"`
	BurstID string `json:"burstId" msgpack:"burstId"`
}

// PickupPayload embeds the deadlines clients need for prediction.
type PickupPayload struct {
	RespawnAt       int64 `json:"respawnAt" msgpack:"respawnAt"`
	WeaponExpiresAt int64 `json:"weaponExpiresAt" msgpack:"weaponExpiresAt"`
}

// UsePayload marks the consumption instant of a weapon.
type UsePayload struct {
	ConsumedAt int64 `json:"consumedAt" msgpack:"consumedAt"`
}

func newAttackEvent(roomCode, playerID string, weapon WeaponType, position, direction Vec2, payload interface{}, now time.Time) AttackEvent {
	return AttackEvent{
		ID:         uuid.NewString(),
		RoomCode:   roomCode,
		PlayerID:   playerID,
		WeaponType: weapon,
		Position:   position,
		Direction:  direction,
		CreatedAt:  now.UnixMilli(),
		Payload:    payload,
	}
}

func newItemEvent(roomCode, playerID, kind, itemType, slotID string, payload interface{}, now time.Time) ItemEvent {
	return ItemEvent{
		ID:        uuid.NewString(),
		RoomCode:  roomCode,
		PlayerID:  playerID,
		Kind:      kind,
		ItemType:  itemType,
		SlotID:    slotID,
		CreatedAt: now.UnixMilli(),
		Payload:   payload,
	}
}
