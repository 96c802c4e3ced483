package main

const traceStep = 12.0

// TraceResult is the first obstruction a ray march found, or the
// terminal point when nothing was in the way.
type TraceResult struct {
	End         Vec2
	HitType     string
	HitPlayerID string
}

// traceShot marches a point from origin along a unit direction in fixed
// steps up to maxDistance. Walls and players are tested in the same
// per-step pass, so a player standing in front of a wall is hit before
// the wall. The shooter never blocks its own shot. Linear O(dist/step)
// sweep on purpose: determinism over analytic intersection.
func traceShot(room *Room, shooterID string, origin, direction Vec2, maxDistance, hitRadius float64) TraceResult {
	end := origin.Add(direction.Scale(maxDistance))

	for distance := traceStep; distance <= maxDistance; distance += traceStep {
		point := origin.Add(direction.Scale(distance))

		if !insideWorld(point.X, point.Y) || blockedPoint(point.X, point.Y) {
			return TraceResult{End: point, HitType: HitWall}
		}

		if hit := playerHitAtPoint(room, shooterID, point, hitRadius); hit != nil {
			return TraceResult{End: point, HitType: HitPlayer, HitPlayerID: hit.ID}
		}

		end = point
	}

	return TraceResult{End: end, HitType: HitNone}
}

// playerHitAtPoint returns the first other player within hitRadius of
// the point. Radius-squared comparison avoids a sqrt per step.
func playerHitAtPoint(room *Room, shooterID string, point Vec2, hitRadius float64) *Player {
	radiusSq := hitRadius * hitRadius
	for _, player := range room.players {
		if player.ID == shooterID {
			continue
		}
		if DistanceSq(player.Position, point) <= radiusSq {
			return player
		}
	}
	return nil
}
