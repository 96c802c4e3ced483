package main

import "time"

// Tick advances every time-bound entity across all rooms and returns
// the attack events the advancement produced, as one batch for
// broadcast. There is no background thread in the simulation: game time
// moves only when an external scheduler calls this.
func (rm *RoomManager) Tick(now time.Time) []AttackEvent {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	var attackEvents []AttackEvent
	for _, room := range rooms {
		room.mu.Lock()
		rm.advanceRoomTimers(room, now)
		attackEvents = rm.advanceBombs(room, now, attackEvents)
		attackEvents = rm.advanceBulletStreams(room, now, attackEvents)
		room.mu.Unlock()
	}
	return attackEvents
}

// advanceBombs detonates bombs whose fuse elapsed or that another
// player touched, touch winning when both apply. Bombs of departed
// owners are discarded; player removal already cancels them, this is
// the safety net. Caller holds room.mu.
func (rm *RoomManager) advanceBombs(room *Room, now time.Time, attackEvents []AttackEvent) []AttackEvent {
	for id, bomb := range room.activeBombs {
		if _, ok := room.players[bomb.OwnerPlayerID]; !ok {
			delete(room.activeBombs, id)
			continue
		}

		toucherID := ""
		touchRadiusSq := bomb.TouchRadius * bomb.TouchRadius
		for _, player := range room.players {
			if player.ID == bomb.OwnerPlayerID {
				continue
			}
			if DistanceSq(player.Position, bomb.Position) <= touchRadiusSq {
				toucherID = player.ID
				break
			}
		}

		if toucherID != "" || !bomb.ExplodeAt.After(now) {
			attackEvents = append(attackEvents, rm.explodeBomb(room, bomb, toucherID, now))
			delete(room.activeBombs, id)
		}
	}
	return attackEvents
}

// explodeBomb applies touch damage to the toucher and blast damage to
// everyone else inside the radius, owner excluded, then reports the
// detonation. Caller holds room.mu.
func (rm *RoomManager) explodeBomb(room *Room, bomb *ActiveBomb, toucherID string, now time.Time) AttackEvent {
	hitIDs := make([]string, 0, 2)

	if toucherID != "" {
		if applied, _ := rm.applyDamage(room, bomb.OwnerPlayerID, toucherID, BombTouchDamage, WeaponBomb, now); applied {
			hitIDs = append(hitIDs, toucherID)
		}
	}

	radiusSq := bomb.Radius * bomb.Radius
	for _, player := range room.players {
		if player.ID == bomb.OwnerPlayerID || player.ID == toucherID {
			continue
		}
		if DistanceSq(player.Position, bomb.Position) > radiusSq {
			continue
		}
		if applied, _ := rm.applyDamage(room, bomb.OwnerPlayerID, player.ID, BombDamage, WeaponBomb, now); applied {
			hitIDs = append(hitIDs, player.ID)
		}
	}

	trigger := "timer"
	if toucherID != "" {
		trigger = "touch"
	}

	return newAttackEvent(room.code, bomb.OwnerPlayerID, WeaponBomb, bomb.Position, Vec2{X: 0, Y: 1}, BombExplodePayload{
		Phase:        PhaseBombExplode,
		BombID:       bomb.ID,
		Position:     bomb.Position,
		Radius:       bomb.Radius,
		Trigger:      trigger,
		HitPlayerIDs: hitIDs,
	}, now)
}

// advanceBulletStreams fires every shot that has come due. A stream
// that missed ticks catches up by firing several shots in one pass
// instead of dropping them. Caller holds room.mu.
func (rm *RoomManager) advanceBulletStreams(room *Room, now time.Time, attackEvents []AttackEvent) []AttackEvent {
	for id, stream := range room.bulletStreams {
		owner, ok := room.players[stream.OwnerPlayerID]
		if !ok {
			delete(room.bulletStreams, id)
			continue
		}

		for !stream.NextShotAt.After(now) && !stream.NextShotAt.After(stream.EndsAt) {
			direction := resolveDirection(owner.Velocity, stream.FallbackDirection)
			stream.FallbackDirection = direction
			origin := owner.Position

			trace := traceShot(room, owner.ID, origin, direction, stream.Range, bulletHitRadius)
			if trace.HitPlayerID != "" {
				rm.applyDamage(room, owner.ID, trace.HitPlayerID, stream.Damage, WeaponBullet, now)
			}

			attackEvents = append(attackEvents, newAttackEvent(room.code, owner.ID, WeaponBullet, origin, direction, BulletTracePayload{
				Phase:       PhaseBulletTrace,
				BurstID:     stream.ID,
				From:        origin,
				To:          trace.End,
				HitType:     trace.HitType,
				HitPlayerID: trace.HitPlayerID,
			}, now))

			stream.NextShotAt = stream.NextShotAt.Add(stream.ShotInterval)
		}

		if stream.NextShotAt.After(stream.EndsAt) && !stream.EndsAt.After(now) {
			attackEvents = append(attackEvents, newAttackEvent(room.code, owner.ID, WeaponBullet, owner.Position, stream.FallbackDirection, BulletEndPayload{
				Phase:   PhaseBulletEnd,
				BurstID: stream.ID,
			}, now))
			delete(room.bulletStreams, id)
		}
	}
	return attackEvents
}
