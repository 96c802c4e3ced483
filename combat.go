package main

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	RocketDamage      = 100
	RocketRange       = 1800.0
	RocketTravelSpeed = 980.0 // units/s, client animation hint only
	rocketTravelMinMs = 120
	rocketTravelMaxMs = 920

	// Bullet shots use a slightly tighter hit circle than rockets.
	bulletHitRadius = PlayerHitRadius - 4
)

// UseWeaponResult is what a successful fire returns for broadcast.
type UseWeaponResult struct {
	WeaponType   WeaponType
	ItemEvent    ItemEvent
	AttackEvents []AttackEvent
}

// UseWeapon is the single firing entry point. The held weapon is
// consumed before dispatch, so a weapon fires exactly once no matter
// what the shot does.
func (rm *RoomManager) UseWeapon(code, playerID string, requested WeaponType, position, direction Vec2, now time.Time) (UseWeaponResult, error) {
	room := rm.lookup(code)
	if room == nil {
		return UseWeaponResult{}, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	rm.advanceRoomTimers(room, now)

	player, ok := room.players[playerID]
	if !ok {
		return UseWeaponResult{}, ErrPlayerNotFound
	}
	if !player.Armed() {
		return UseWeaponResult{}, ErrNoActiveWeapon
	}
	if requested != WeaponUnknown && requested != player.ActiveWeaponType {
		return UseWeaponResult{}, ErrWeaponMismatch
	}
	// Lazy expiry: the tick sweeps this too, but a fire attempt between
	// ticks must not use a stale weapon.
	if player.WeaponExpiredAt(now) {
		player.ClearWeapon(now)
		room.lastUpdatedAt = now
		return UseWeaponResult{}, ErrWeaponExpired
	}

	weapon := player.ActiveWeaponType
	player.ClearWeapon(now)
	room.lastUpdatedAt = now

	itemEvent := newItemEvent(room.code, player.ID, ItemKindUse, string(weapon), "", UsePayload{
		ConsumedAt: now.UnixMilli(),
	}, now)

	origin := player.Position
	aim := resolveDirection(direction, player.Velocity)

	var attack AttackEvent
	switch weapon {
	case WeaponRocket:
		attack = rm.fireRocket(room, player, origin, aim, now)
	case WeaponBomb:
		attack = rm.placeBomb(room, player, origin, now)
	case WeaponBullet:
		attack = rm.startBulletStream(room, player, origin, aim, now)
	}

	if rm.sink != nil {
		rm.sink.RecordItem(itemEvent)
	}
	return UseWeaponResult{
		WeaponType:   weapon,
		ItemEvent:    itemEvent,
		AttackEvents: []AttackEvent{attack},
	}, nil
}

// fireRocket resolves an instantaneous ray out to RocketRange. The
// travel time in the payload is a rendering hint; damage lands now.
func (rm *RoomManager) fireRocket(room *Room, shooter *Player, origin, direction Vec2, now time.Time) AttackEvent {
	trace := traceShot(room, shooter.ID, origin, direction, RocketRange, PlayerHitRadius)
	if trace.HitPlayerID != "" {
		rm.applyDamage(room, shooter.ID, trace.HitPlayerID, RocketDamage, WeaponRocket, now)
	}

	distance := math.Hypot(trace.End.X-origin.X, trace.End.Y-origin.Y)
	travelMs := int(Clamp(math.Round(distance/RocketTravelSpeed*1000), rocketTravelMinMs, rocketTravelMaxMs))

	return newAttackEvent(room.code, shooter.ID, WeaponRocket, origin, direction, RocketFirePayload{
		Phase:       PhaseRocketFire,
		Start:       origin,
		End:         trace.End,
		HitType:     trace.HitType,
		HitPlayerID: trace.HitPlayerID,
		TravelMs:    travelMs,
	}, now)
}

// placeBomb drops a fused bomb at the firing position. No immediate
// damage; the tick detonates it on touch or fuse.
func (rm *RoomManager) placeBomb(room *Room, shooter *Player, origin Vec2, now time.Time) AttackEvent {
	bomb := &ActiveBomb{
		ID:            uuid.NewString(),
		OwnerPlayerID: shooter.ID,
		Position:      origin,
		PlacedAt:      now,
		ExplodeAt:     now.Add(BombTimer),
		Radius:        BombRadius,
		TouchRadius:   BombTouchRadius,
	}
	room.activeBombs[bomb.ID] = bomb
	room.lastUpdatedAt = now

	return newAttackEvent(room.code, shooter.ID, WeaponBomb, bomb.Position, Vec2{X: 0, Y: 1}, BombPlacePayload{
		Phase:       PhaseBombPlace,
		BombID:      bomb.ID,
		Position:    bomb.Position,
		ExplodeAt:   bomb.ExplodeAt.UnixMilli(),
		Radius:      bomb.Radius,
		TouchRadius: bomb.TouchRadius,
	}, now)
}

// startBulletStream opens an automatic stream anchored to the owner.
// The first shot fires on the next tick, not here.
func (rm *RoomManager) startBulletStream(room *Room, shooter *Player, origin, direction Vec2, now time.Time) AttackEvent {
	stream := &ActiveBulletStream{
		ID:                uuid.NewString(),
		OwnerPlayerID:     shooter.ID,
		StartedAt:         now,
		EndsAt:            now.Add(BulletStreamDuration),
		NextShotAt:        now,
		ShotInterval:      BulletInterval,
		Range:             BulletRange,
		Damage:            BulletDamage,
		FallbackDirection: direction,
	}
	room.bulletStreams[stream.ID] = stream
	room.lastUpdatedAt = now

	return newAttackEvent(room.code, shooter.ID, WeaponBullet, origin, direction, BulletStartPayload{
		Phase:     PhaseBulletStart,
		BurstID:   stream.ID,
		StartedAt: stream.StartedAt.UnixMilli(),
		EndsAt:    stream.EndsAt.UnixMilli(),
	}, now)
}

// applyDamage reduces the target's hp, floored at zero. Reaching zero
// is an elimination: deaths increment, hp snaps back to full, the held
// weapon drops, and the source is credited a kill. The player stays on
// the field — there is no respawn countdown in this model.
// Returns whether damage applied and whether the target was eliminated.
func (rm *RoomManager) applyDamage(room *Room, sourceID, targetID string, amount int, weapon WeaponType, now time.Time) (bool, bool) {
	if amount <= 0 || sourceID == targetID {
		return false, false
	}
	target, ok := room.players[targetID]
	if !ok {
		return false, false
	}

	target.HP -= amount
	if target.HP < 0 {
		target.HP = 0
	}
	target.UpdatedAt = now

	killed := false
	if target.HP == 0 {
		killed = true
		target.Deaths++
		target.HP = PlayerMaxHP
		target.ClearWeapon(now)
	}

	source := room.players[sourceID]
	if killed && source != nil {
		source.Kills++
		source.UpdatedAt = now
	}
	room.lastUpdatedAt = now

	if rm.sink != nil {
		record := KillEvent{
			RoomCode:       room.code,
			AttackerID:     sourceID,
			VictimID:       target.ID,
			VictimName:     target.Name,
			VictimWallet:   target.WalletAddress,
			WeaponType:     string(weapon),
			HealthDepleted: amount,
			Killed:         killed,
			Timestamp:      now.UnixMilli(),
		}
		if source != nil {
			record.AttackerName = source.Name
			record.AttackerWallet = source.WalletAddress
		}
		rm.sink.RecordKill(record)
	}
	return true, killed
}
