package main

import "time"

const (
	BombTimer       = 5 * time.Second
	BombRadius      = 152.0
	BombTouchRadius = 64.0
	BombDamage      = 70
	BombTouchDamage = 100

	BulletStreamDuration = 6 * time.Second
	BulletInterval       = 130 * time.Millisecond
	BulletRange          = 920.0
	BulletDamage         = 20
)

// ActiveBomb sits where it was placed until its fuse elapses or another
// player drives within the touch radius, whichever happens first.
type ActiveBomb struct {
	ID            string
	OwnerPlayerID string
	Position      Vec2
	PlacedAt      time.Time
	ExplodeAt     time.Time
	Radius        float64
	TouchRadius   float64
}

// ActiveBulletStream fires automatic shots from the owner's current
// position at a fixed cadence until its end time. FallbackDirection is
// the last usable aim, used when the owner is stationary.
type ActiveBulletStream struct {
	ID                string
	OwnerPlayerID     string
	StartedAt         time.Time
	EndsAt            time.Time
	NextShotAt        time.Time
	ShotInterval      time.Duration
	Range             float64
	Damage            int
	FallbackDirection Vec2
}
