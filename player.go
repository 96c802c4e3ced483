package main

import "time"

const (
	PlayerMaxHP     = 100
	PlayerHitRadius = 36.0
	WeaponDuration  = 40 * time.Second
)

// PlayerSpawn is the fixed spawn point every kart starts from.
var PlayerSpawn = Vec2{X: 800, Y: 600}

// Player is the authoritative record for one kart. Positions and
// velocities are client-reported and trusted; the velocity only serves
// as an aim-direction hint for bullet streams.
type Player struct {
	ID            string
	Name          string
	WalletAddress string
	ConnID        string
	Position      Vec2
	Velocity      Vec2
	Rotation      float64
	HP            int
	Kills         int
	Deaths        int

	// Weapon ownership. At most one weapon is held at a time; a zero
	// WeaponExpiresAt means unarmed.
	ActiveWeaponType WeaponType
	WeaponGrantedAt  time.Time
	WeaponExpiresAt  time.Time

	UpdatedAt time.Time
}

// NewPlayer creates a player at the fixed spawn with full health.
func NewPlayer(id, name, connID, wallet string, now time.Time) *Player {
	return &Player{
		ID:            id,
		Name:          name,
		WalletAddress: wallet,
		ConnID:        connID,
		Position:      PlayerSpawn,
		HP:            PlayerMaxHP,
		UpdatedAt:     now,
	}
}

// Armed reports whether the player currently holds a weapon.
func (p *Player) Armed() bool {
	return p.ActiveWeaponType != ""
}

// GrantWeapon arms the player with a time-limited weapon.
func (p *Player) GrantWeapon(weapon WeaponType, now time.Time) {
	p.ActiveWeaponType = weapon
	p.WeaponGrantedAt = now
	p.WeaponExpiresAt = now.Add(WeaponDuration)
	p.UpdatedAt = now
}

// ClearWeapon drops whatever the player holds.
func (p *Player) ClearWeapon(now time.Time) {
	p.ActiveWeaponType = ""
	p.WeaponGrantedAt = time.Time{}
	p.WeaponExpiresAt = time.Time{}
	p.UpdatedAt = now
}

// WeaponExpiredAt reports whether the held weapon has passed its expiry.
func (p *Player) WeaponExpiredAt(now time.Time) bool {
	return p.Armed() && !p.WeaponExpiresAt.After(now)
}

// ToState converts to the wire representation.
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:               p.ID,
		Name:             p.Name,
		WalletAddress:    p.WalletAddress,
		Position:         p.Position,
		Velocity:         p.Velocity,
		Rotation:         p.Rotation,
		HP:               p.HP,
		Kills:            p.Kills,
		Deaths:           p.Deaths,
		ActiveWeaponType: string(p.ActiveWeaponType),
		WeaponExpiresAt:  unixMilliOrZero(p.WeaponExpiresAt),
		UpdatedAt:        p.UpdatedAt.UnixMilli(),
	}
}

func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
