package main

import (
	"crypto/rand"
	"encoding/hex"
	"math"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Vec2 is a 2D point or direction in world units.
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Length returns the magnitude of v.
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector of v and true, or a zero vector and
// false when v is too short to carry a direction.
func (v Vec2) Normalize() (Vec2, bool) {
	length := v.Length()
	if length < 1e-5 {
		return Vec2{}, false
	}
	return Vec2{X: v.X / length, Y: v.Y / length}, true
}

// DistanceSq returns the squared distance between two points.
func DistanceSq(a, b Vec2) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// resolveDirection picks the first of preferred/fallback that normalizes
// to a usable unit vector, defaulting to straight down so a stationary
// shooter still aims somewhere deterministic.
func resolveDirection(preferred, fallback Vec2) Vec2 {
	if dir, ok := preferred.Normalize(); ok {
		return dir
	}
	if dir, ok := fallback.Normalize(); ok {
		return dir
	}
	return Vec2{X: 0, Y: 1}
}
