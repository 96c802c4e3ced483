package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type createRoomRequest struct {
	HostName      string `json:"hostName"`
	WalletAddress string `json:"walletAddress,omitempty"`
	MaxPlayers    int    `json:"maxPlayers,omitempty"`
}

// hostFromRequest validates the host token and checks it matches the
// room in the path. Start/end are host-only operations; the registry
// itself trusts whoever calls it.
func hostFromRequest(r *http.Request, auth *Auth, code string) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		return false
	}
	tokenRoom, _, err := auth.ValidateHostToken(token)
	return err == nil && strings.EqualFold(tokenRoom, code)
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, auth *Auth, db *DB, publicURL string) *http.ServeMux {
	mux := http.NewServeMux()
	rooms := hub.rooms

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "now": time.Now().UnixMilli()})
	})

	mux.HandleFunc("GET /api/rooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms.ListRooms(time.Now())})
	})

	mux.HandleFunc("POST /api/rooms", func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		hostName := strings.TrimSpace(req.HostName)
		if hostName == "" {
			hostName = "Host"
		}
		if len(hostName) > maxNameLen {
			hostName = hostName[:maxNameLen]
		}
		maxPlayers := req.MaxPlayers
		if maxPlayers < 2 || maxPlayers > 8 {
			maxPlayers = DefaultMaxPlayers
		}

		room, host, err := rooms.CreateRoom(hostName, req.WalletAddress, maxPlayers, time.Now())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}

		hostToken, err := auth.IssueHostToken(room.Code, host.ID)
		if err != nil {
			log.Printf("host token error: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"room":       room,
			"hostPlayer": host,
			"hostToken":  hostToken,
		})
	})

	mux.HandleFunc("GET /api/rooms/{code}", func(w http.ResponseWriter, r *http.Request) {
		room, ok := rooms.GetRoom(r.PathValue("code"), time.Now())
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"room": room})
	})

	mux.HandleFunc("POST /api/rooms/{code}/start", func(w http.ResponseWriter, r *http.Request) {
		code := r.PathValue("code")
		if !hostFromRequest(r, auth, code) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "only host can start the game"})
			return
		}
		room, err := rooms.StartGame(code, time.Now())
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		hub.BroadcastToRoom(room.Code, Envelope{T: MsgGameStarted, Data: GameStartedMsg{Room: room}})
		writeJSON(w, http.StatusOK, map[string]interface{}{"room": room})
	})

	mux.HandleFunc("POST /api/rooms/{code}/end", func(w http.ResponseWriter, r *http.Request) {
		code := r.PathValue("code")
		if !hostFromRequest(r, auth, code) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "only host can end the game"})
			return
		}
		room, err := rooms.EndGame(code, time.Now())
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		if db != nil {
			if err := db.RecordMatch(room.Code, room.GameDurationSeconds, len(room.Players)); err != nil {
				log.Printf("match archive error: %v", err)
			}
		}
		hub.BroadcastToRoom(room.Code, Envelope{T: MsgGameEnded, Data: GameStartedMsg{Room: room}})
		writeJSON(w, http.StatusOK, map[string]interface{}{"room": room})
	})

	// QR code with the join URL, for couch parties scanning their way in
	mux.HandleFunc("GET /api/rooms/{code}/qr", func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(r.PathValue("code"))
		if _, ok := rooms.GetRoom(code, time.Now()); !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		size := 256
		if s, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && s >= 64 && s <= 1024 {
			size = s
		}
		png, err := qrcode.Encode(publicURL+"/join/"+code, qrcode.Medium, size)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	mux.HandleFunc("GET /api/stats/kills", func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": []WalletKills{}})
			return
		}
		limit := 20
		if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
			limit = l
		}
		board, err := db.KillLeaderboard(limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
			return
		}
		if board == nil {
			board = []WalletKills{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": board})
	})

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	return mux
}
