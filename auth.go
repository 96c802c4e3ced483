package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const hostTokenExpiry = 12 * time.Hour

// Auth issues and validates host tokens. Creating a room over HTTP
// returns a token binding the host player to its room; start/end calls
// and the host's websocket attach present it, so the core never has to
// verify host identity itself.
type Auth struct {
	jwtSecret []byte
}

// NewAuth creates an Auth handler, persisting its secret in the
// database so tokens survive restarts.
func NewAuth(db *DB) *Auth {
	return &Auth{jwtSecret: loadOrCreateSecret(db)}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// IssueHostToken signs a token proving ownership of a room's host player.
func (a *Auth) IssueHostToken(roomCode, hostPlayerID string) (string, error) {
	claims := jwt.MapClaims{
		"room": roomCode,
		"pid":  hostPlayerID,
		"exp":  time.Now().Add(hostTokenExpiry).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateHostToken returns the (roomCode, hostPlayerID) a token was
// issued for.
func (a *Auth) ValidateHostToken(tokenStr string) (string, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	roomCode, ok := claims["room"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	playerID, ok := claims["pid"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	return roomCode, playerID, nil
}
