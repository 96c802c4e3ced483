package main

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 60
	maxNameLen        = 24
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	connID     string
	remoteAddr string
	roomCode   string
	playerID   string
	role       string // "player" or "spectator"
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		connID:     GenerateID(8),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF marker distinguishes binary state frames from text
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgLeave:
		c.handleLeave(env.D)
	case MsgPosition:
		c.handlePosition(env.D)
	case MsgAttack:
		c.handleAttack(env.D)
	case MsgPickup:
		c.handlePickup(env.D)
	}
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	now := time.Now()

	// Host reclaim: the room was created over HTTP, this socket proves
	// ownership with its token and binds to the existing host player.
	if msg.HostToken != "" {
		code, hostID, err := c.hub.auth.ValidateHostToken(msg.HostToken)
		if err != nil || code != msg.RoomCode {
			c.sendError("invalid host token")
			return
		}
		if !c.hub.rooms.AttachHostConn(code, c.connID, hostID, now) {
			c.sendError("room not found")
			return
		}
		c.roomCode = code
		c.playerID = hostID
		c.role = "player"

		state, _ := c.hub.rooms.GetRoom(code, now)
		c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{Room: state, Role: "player", PlayerID: hostID}})
		return
	}

	if msg.Role == "spectator" {
		state, err := c.hub.rooms.JoinRoomAsSpectator(msg.RoomCode, c.connID, now)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.roomCode = state.Code
		c.role = "spectator"
		c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{Room: state, Role: "spectator"}})
		return
	}

	name := msg.PlayerName
	if name == "" {
		name = "Racer"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	state, player, err := c.hub.rooms.JoinRoomAsPlayer(msg.RoomCode, c.connID, name, msg.WalletAddress, now)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.roomCode = state.Code
	c.playerID = player.ID
	c.role = "player"

	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{Room: state, Role: "player", Player: &player, PlayerID: player.ID}})
	c.hub.BroadcastToRoom(state.Code, Envelope{T: MsgPlayerJoined, Data: PlayerJoinedMsg{
		RoomCode: state.Code,
		Player:   player,
	}})
}

func (c *Client) handleLeave(data json.RawMessage) {
	if c.roomCode == "" {
		return
	}
	var msg LeaveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	code := c.roomCode
	playerID, ok := c.hub.rooms.LeaveRoom(code, c.playerID, c.connID, time.Now())
	if ok && playerID != "" {
		c.hub.BroadcastToRoom(code, Envelope{T: MsgPlayerLeft, Data: PlayerLeftMsg{
			RoomCode: code,
			PlayerID: playerID,
		}})
	}
	c.roomCode = ""
	c.playerID = ""
	c.role = ""
}

func (c *Client) handlePosition(data json.RawMessage) {
	if c.roomCode == "" || c.playerID == "" {
		return
	}
	var msg PositionMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	c.hub.rooms.UpdatePosition(c.roomCode, c.playerID, msg.Position, msg.Velocity, msg.Rotation, time.Now())

	// Relay raw movement to the rest of the room for interpolation
	msg.RoomCode = c.roomCode
	msg.PlayerID = c.playerID
	c.hub.BroadcastToRoom(c.roomCode, Envelope{T: MsgPositionOut, Data: msg})
}

func (c *Client) handleAttack(data json.RawMessage) {
	if c.roomCode == "" || c.playerID == "" {
		return
	}
	var msg AttackMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	weapon := WeaponType(msg.WeaponType)
	if weapon == "" {
		weapon = WeaponUnknown
	}

	result, err := c.hub.rooms.UseWeapon(c.roomCode, c.playerID, weapon, msg.Position, msg.Direction, time.Now())
	if err != nil {
		// Expiry and mismatch are routine gameplay outcomes, not faults
		if !errors.Is(err, ErrWeaponExpired) && !errors.Is(err, ErrNoActiveWeapon) {
			log.Printf("attack rejected for %s: %v", c.playerID, err)
		}
		c.sendError(err.Error())
		return
	}

	c.hub.BroadcastToRoom(c.roomCode, Envelope{T: MsgItem, Data: result.ItemEvent})
	for _, event := range result.AttackEvents {
		c.hub.BroadcastToRoom(c.roomCode, Envelope{T: MsgAttackOut, Data: event})
	}
}

func (c *Client) handlePickup(data json.RawMessage) {
	if c.roomCode == "" || c.playerID == "" {
		return
	}
	var msg PickupMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	event, err := c.hub.rooms.PickupCrate(c.roomCode, c.playerID, msg.SlotID, time.Now())
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.hub.BroadcastToRoom(c.roomCode, Envelope{T: MsgItem, Data: event})
}
