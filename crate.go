package main

import "time"

const CrateRespawnDelay = 60 * time.Second

// CrateSpawnPoints are the eight fixed arena crate locations.
var CrateSpawnPoints = []struct {
	ID       string
	Position Vec2
}{
	{ID: "crate-1", Position: Vec2{X: 1600, Y: 600}},
	{ID: "crate-2", Position: Vec2{X: 1080, Y: 760}},
	{ID: "crate-3", Position: Vec2{X: 2120, Y: 760}},
	{ID: "crate-4", Position: Vec2{X: 960, Y: 1000}},
	{ID: "crate-5", Position: Vec2{X: 2240, Y: 1000}},
	{ID: "crate-6", Position: Vec2{X: 1080, Y: 1240}},
	{ID: "crate-7", Position: Vec2{X: 2120, Y: 1240}},
	{ID: "crate-8", Position: Vec2{X: 1600, Y: 1400}},
}

// CrateSlot is a fixed spawn point cycling between available and
// respawning. The offered weapon is re-rolled on every respawn, so a
// slot is never pinned to one type. RespawnAt is zero while available.
type CrateSlot struct {
	ID          string
	Position    Vec2
	IsAvailable bool
	WeaponType  WeaponType
	RespawnAt   time.Time
	UpdatedAt   time.Time
}

// Take marks the slot unavailable and schedules its respawn.
func (s *CrateSlot) Take(now time.Time) {
	s.IsAvailable = false
	s.RespawnAt = now.Add(CrateRespawnDelay)
	s.UpdatedAt = now
}

// Respawn makes the slot available again with a fresh weapon roll.
func (s *CrateSlot) Respawn(weapon WeaponType, now time.Time) {
	s.IsAvailable = true
	s.RespawnAt = time.Time{}
	s.WeaponType = weapon
	s.UpdatedAt = now
}

// RespawnDue reports whether an unavailable slot should come back.
func (s *CrateSlot) RespawnDue(now time.Time) bool {
	return !s.IsAvailable && !s.RespawnAt.IsZero() && !s.RespawnAt.After(now)
}

// ToState converts to the wire representation.
func (s *CrateSlot) ToState() CrateSlotState {
	return CrateSlotState{
		ID:          s.ID,
		Position:    s.Position,
		IsAvailable: s.IsAvailable,
		WeaponType:  string(s.WeaponType),
		RespawnAt:   unixMilliOrZero(s.RespawnAt),
		UpdatedAt:   s.UpdatedAt.UnixMilli(),
	}
}
