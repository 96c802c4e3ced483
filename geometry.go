package main

const (
	WorldWidth  = 3200.0
	WorldHeight = 2000.0
)

// RectBounds is an axis-aligned obstacle in min/max form so the tracer
// can test a point with four comparisons.
type RectBounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Contains reports whether the point falls inside the rectangle.
func (r RectBounds) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

func centeredRect(cx, cy, width, height float64) RectBounds {
	return RectBounds{
		MinX: cx - width/2,
		MaxX: cx + width/2,
		MinY: cy - height/2,
		MaxY: cy + height/2,
	}
}

// MapBlockers is the static obstacle catalog: the arena frame, four
// corner blocks and eight inner barrier arms. Built once at startup and
// never mutated.
var MapBlockers = buildMapBlockers()

func buildMapBlockers() []RectBounds {
	const (
		arenaX = 360.0
		arenaY = 220.0
		arenaW = 2480.0
		arenaH = 1560.0
		frameT = 60.0
	)

	blockers := make([]RectBounds, 0, 16)

	// Arena frame walls
	blockers = append(blockers,
		centeredRect(arenaX+arenaW/2, arenaY+frameT/2, arenaW, frameT),
		centeredRect(arenaX+arenaW/2, arenaY+arenaH-frameT/2, arenaW, frameT),
		centeredRect(arenaX+frameT/2, arenaY+arenaH/2, frameT, arenaH),
		centeredRect(arenaX+arenaW-frameT/2, arenaY+arenaH/2, frameT, arenaH),
	)

	// Corner blocks
	const cornerSize = 210.0
	blockers = append(blockers,
		centeredRect(arenaX+250, arenaY+250, cornerSize, cornerSize),
		centeredRect(arenaX+arenaW-250, arenaY+250, cornerSize, cornerSize),
		centeredRect(arenaX+250, arenaY+arenaH-250, cornerSize, cornerSize),
		centeredRect(arenaX+arenaW-250, arenaY+arenaH-250, cornerSize, cornerSize),
	)

	// Inner L-shaped barriers around the center
	cx := arenaX + arenaW/2
	cy := arenaY + arenaH/2
	leftX := cx - 340
	rightX := cx + 340
	topY := cy - 260
	bottomY := cy + 260
	const (
		arm   = 240.0
		wallT = 58.0
	)

	blockers = append(blockers,
		centeredRect(leftX+arm/2, topY, arm, wallT),
		centeredRect(leftX, topY+arm/2, wallT, arm),
		centeredRect(rightX-arm/2, topY, arm, wallT),
		centeredRect(rightX, topY+arm/2, wallT, arm),
		centeredRect(leftX, bottomY-arm/2, wallT, arm),
		centeredRect(leftX+arm/2, bottomY, arm, wallT),
		centeredRect(rightX, bottomY-arm/2, wallT, arm),
		centeredRect(rightX-arm/2, bottomY, arm, wallT),
	)

	return blockers
}

// insideWorld reports whether the point lies within the world bounds.
func insideWorld(x, y float64) bool {
	return x >= 0 && x <= WorldWidth && y >= 0 && y <= WorldHeight
}

// blockedPoint reports whether the point falls inside any static obstacle.
func blockedPoint(x, y float64) bool {
	for _, blocker := range MapBlockers {
		if blocker.Contains(x, y) {
			return true
		}
	}
	return false
}
