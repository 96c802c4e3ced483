package main

import "errors"

// Closed set of failure tags returned by registry operations.
// The transport layer branches on these with errors.Is and maps them
// to client-facing error strings; nothing in the core ever panics.
var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomFull             = errors.New("room is full")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrNoActiveWeapon       = errors.New("no active weapon")
	ErrWeaponMismatch       = errors.New("weapon mismatch")
	ErrWeaponExpired        = errors.New("weapon expired")
	ErrPlayerAlreadyArmed   = errors.New("player already has an active weapon")
	ErrSlotNotFound         = errors.New("crate slot not found")
	ErrCrateNotAvailable    = errors.New("crate not available")
	ErrCodeGenerationFailed = errors.New("room code generation failed")
)
