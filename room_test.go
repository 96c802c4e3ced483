package main

import (
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestManager() *RoomManager {
	return NewRoomManagerWithRand(rand.New(rand.NewSource(7)))
}

// captureSink records events synchronously for assertions.
type captureSink struct {
	mu    sync.Mutex
	kills []KillEvent
	items []ItemEvent
}

func (s *captureSink) RecordKill(evt KillEvent) {
	s.mu.Lock()
	s.kills = append(s.kills, evt)
	s.mu.Unlock()
}

func (s *captureSink) RecordItem(evt ItemEvent) {
	s.mu.Lock()
	s.items = append(s.items, evt)
	s.mu.Unlock()
}

func (s *captureSink) killCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.kills)
}

func armPlayer(t *testing.T, rm *RoomManager, code, playerID string, weapon WeaponType, now time.Time) {
	t.Helper()
	room := rm.lookup(code)
	if room == nil {
		t.Fatalf("room %s not found", code)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	player, ok := room.players[playerID]
	if !ok {
		t.Fatalf("player %s not found", playerID)
	}
	player.GrantWeapon(weapon, now)
}

func setSlotWeapon(t *testing.T, rm *RoomManager, code, slotID string, weapon WeaponType) {
	t.Helper()
	room := rm.lookup(code)
	if room == nil {
		t.Fatalf("room %s not found", code)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	slot, ok := room.crateSlots[slotID]
	if !ok {
		t.Fatalf("slot %s not found", slotID)
	}
	slot.WeaponType = weapon
}

func findPlayer(t *testing.T, state RoomState, playerID string) PlayerState {
	t.Helper()
	for _, p := range state.Players {
		if p.ID == playerID {
			return p
		}
	}
	t.Fatalf("player %s not in state", playerID)
	return PlayerState{}
}

func findSlot(t *testing.T, state RoomState, slotID string) CrateSlotState {
	t.Helper()
	for _, s := range state.CrateSlots {
		if s.ID == slotID {
			return s
		}
	}
	t.Fatalf("slot %s not in state", slotID)
	return CrateSlotState{}
}

func TestCreateRoom(t *testing.T) {
	rm := newTestManager()

	state, host, err := rm.CreateRoom("Alice", "", 4, testTime)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	if !strings.HasPrefix(state.Code, "KART-") {
		t.Errorf("code %q missing prefix", state.Code)
	}
	if len(state.Code) != len("KART-")+4 {
		t.Errorf("code %q has wrong length", state.Code)
	}
	for _, c := range state.Code[len("KART-"):] {
		if !strings.ContainsRune(roomCodeAlphabet, c) {
			t.Errorf("code %q contains %q outside the alphabet", state.Code, c)
		}
	}

	if state.Status != string(StatusLobby) {
		t.Errorf("expected lobby status, got %q", state.Status)
	}
	if state.HostPlayerID != host.ID {
		t.Errorf("host id mismatch: %q vs %q", state.HostPlayerID, host.ID)
	}
	if len(state.Players) != 1 {
		t.Errorf("expected 1 player, got %d", len(state.Players))
	}
	if host.HP != PlayerMaxHP {
		t.Errorf("host hp = %d, want %d", host.HP, PlayerMaxHP)
	}
	if host.Position != PlayerSpawn {
		t.Errorf("host spawned at %v, want %v", host.Position, PlayerSpawn)
	}

	if len(state.CrateSlots) != len(CrateSpawnPoints) {
		t.Fatalf("expected %d crate slots, got %d", len(CrateSpawnPoints), len(state.CrateSlots))
	}
	for _, slot := range state.CrateSlots {
		if !slot.IsAvailable {
			t.Errorf("slot %s should start available", slot.ID)
		}
		if slot.WeaponType == "" {
			t.Errorf("slot %s has no weapon roll", slot.ID)
		}
	}
}

func TestCreateRoomUniqueCodes(t *testing.T) {
	rm := newTestManager()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		state, _, err := rm.CreateRoom("Host", "", 4, testTime)
		if err != nil {
			t.Fatalf("CreateRoom %d failed: %v", i, err)
		}
		if seen[state.Code] {
			t.Fatalf("duplicate code %s", state.Code)
		}
		seen[state.Code] = true
	}
}

func TestJoinRoom(t *testing.T) {
	rm := newTestManager()
	state, _, _ := rm.CreateRoom("Alice", "", 4, testTime)

	joined, player, err := rm.JoinRoomAsPlayer(state.Code, "conn-b", "Bob", "0xBOB", testTime)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if len(joined.Players) != 2 {
		t.Errorf("expected 2 players, got %d", len(joined.Players))
	}
	if player.Name != "Bob" {
		t.Errorf("player name = %q", player.Name)
	}
	if player.WalletAddress != "0xBOB" {
		t.Errorf("wallet = %q", player.WalletAddress)
	}
}

func TestJoinRoomCaseInsensitive(t *testing.T) {
	rm := newTestManager()
	state, _, _ := rm.CreateRoom("Alice", "", 4, testTime)

	if _, _, err := rm.JoinRoomAsPlayer(strings.ToLower(state.Code), "conn-b", "Bob", "", testTime); err != nil {
		t.Errorf("lowercase code rejected: %v", err)
	}
}

func TestJoinRoomFull(t *testing.T) {
	rm := newTestManager()
	state, _, _ := rm.CreateRoom("Alice", "", 2, testTime)

	if _, _, err := rm.JoinRoomAsPlayer(state.Code, "conn-b", "Bob", "", testTime); err != nil {
		t.Fatalf("second player rejected: %v", err)
	}
	if _, _, err := rm.JoinRoomAsPlayer(state.Code, "conn-c", "Carol", "", testTime); err != ErrRoomFull {
		t.Errorf("expected ErrRoomFull, got %v", err)
	}
}

func TestJoinRoomNotFound(t *testing.T) {
	rm := newTestManager()
	if _, _, err := rm.JoinRoomAsPlayer("KART-ZZZZ", "conn", "Bob", "", testTime); err != ErrRoomNotFound {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestLeaveLastPlayerDestroysRoom(t *testing.T) {
	rm := newTestManager()
	state, host, _ := rm.CreateRoom("Alice", "", 4, testTime)

	if _, ok := rm.LeaveRoom(state.Code, host.ID, "", testTime); !ok {
		t.Fatal("leave reported failure")
	}
	if rm.RoomCount() != 0 {
		t.Errorf("room survived last player leaving")
	}
	if _, ok := rm.GetRoom(state.Code, testTime); ok {
		t.Errorf("destroyed room still resolvable")
	}
}

func TestSpectatorKeepsRoomAlive(t *testing.T) {
	rm := newTestManager()
	state, host, _ := rm.CreateRoom("Alice", "", 4, testTime)

	if _, err := rm.JoinRoomAsSpectator(state.Code, "spec-1", testTime); err != nil {
		t.Fatalf("spectate failed: %v", err)
	}

	rm.LeaveRoom(state.Code, host.ID, "", testTime)
	if rm.RoomCount() != 1 {
		t.Fatal("room destroyed while a spectator remained")
	}

	rm.LeaveRoom(state.Code, "", "spec-1", testTime)
	if rm.RoomCount() != 0 {
		t.Errorf("room survived last spectator leaving")
	}
}

func TestRemoveConnection(t *testing.T) {
	rm := newTestManager()
	state, _, _ := rm.CreateRoom("Alice", "", 4, testTime)
	_, player, _ := rm.JoinRoomAsPlayer(state.Code, "conn-b", "Bob", "", testTime)

	code, playerID, ok := rm.RemoveConnection("conn-b", testTime)
	if !ok {
		t.Fatal("RemoveConnection did not find the connection")
	}
	if code != state.Code || playerID != player.ID {
		t.Errorf("got (%s, %s), want (%s, %s)", code, playerID, state.Code, player.ID)
	}

	current, _ := rm.GetRoom(state.Code, testTime)
	if len(current.Players) != 1 {
		t.Errorf("player not removed, %d remain", len(current.Players))
	}

	if _, _, ok := rm.RemoveConnection("conn-b", testTime); ok {
		t.Errorf("second removal of the same connection reported success")
	}
}

func TestLeaveCancelsOwnedEntities(t *testing.T) {
	rm := newTestManager()
	state, host, _ := rm.CreateRoom("Alice", "", 4, testTime)
	rm.JoinRoomAsPlayer(state.Code, "conn-b", "Bob", "", testTime)

	armPlayer(t, rm, state.Code, host.ID, WeaponBomb, testTime)
	if _, err := rm.UseWeapon(state.Code, host.ID, WeaponBomb, PlayerSpawn, Vec2{}, testTime); err != nil {
		t.Fatalf("bomb place failed: %v", err)
	}

	rm.LeaveRoom(state.Code, host.ID, "", testTime)

	room := rm.lookup(state.Code)
	room.mu.Lock()
	bombs := len(room.activeBombs)
	room.mu.Unlock()
	if bombs != 0 {
		t.Errorf("%d bombs survived their owner leaving", bombs)
	}

	events := rm.Tick(testTime.Add(BombTimer))
	if len(events) != 0 {
		t.Errorf("orphaned bomb detonated: %d events", len(events))
	}
}

func TestStartAndEndGame(t *testing.T) {
	rm := newTestManager()
	state, _, _ := rm.CreateRoom("Alice", "", 4, testTime)

	started, err := rm.StartGame(state.Code, testTime)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != string(StatusInProgress) {
		t.Errorf("status = %q after start", started.Status)
	}
	if started.GameStartedAt != testTime.UnixMilli() {
		t.Errorf("gameStartedAt = %d", started.GameStartedAt)
	}

	ended, err := rm.EndGame(state.Code, testTime.Add(90*time.Second))
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if ended.Status != string(StatusFinished) {
		t.Errorf("status = %q after end", ended.Status)
	}
	if ended.GameDurationSeconds != 90 {
		t.Errorf("duration = %d, want 90", ended.GameDurationSeconds)
	}
}

func TestUpdatePosition(t *testing.T) {
	rm := newTestManager()
	state, host, _ := rm.CreateRoom("Alice", "", 4, testTime)

	pos := Vec2{X: 1234, Y: 777}
	vel := Vec2{X: 5, Y: -3}
	rm.UpdatePosition(state.Code, host.ID, pos, vel, 1.5, testTime.Add(time.Second))

	current, _ := rm.GetRoom(state.Code, testTime.Add(time.Second))
	p := findPlayer(t, current, host.ID)
	if p.Position != pos {
		t.Errorf("position = %v, want %v", p.Position, pos)
	}
	if p.Velocity != vel {
		t.Errorf("velocity = %v, want %v", p.Velocity, vel)
	}
	if p.Rotation != 1.5 {
		t.Errorf("rotation = %v", p.Rotation)
	}

	// Unknown room and player are silently ignored
	rm.UpdatePosition("KART-ZZZZ", host.ID, pos, vel, 0, testTime)
	rm.UpdatePosition(state.Code, "nobody", pos, vel, 0, testTime)
}

func TestAttachHostConn(t *testing.T) {
	rm := newTestManager()
	state, host, _ := rm.CreateRoom("Alice", "", 4, testTime)

	if !rm.AttachHostConn(state.Code, "conn-host", host.ID, testTime) {
		t.Fatal("attach failed for valid host")
	}
	if rm.AttachHostConn(state.Code, "conn-x", "nobody", testTime) {
		t.Errorf("attach succeeded for unknown player")
	}
	if rm.AttachHostConn("KART-ZZZZ", "conn-x", host.ID, testTime) {
		t.Errorf("attach succeeded for unknown room")
	}

	// The attached connection now routes disconnects to the host player
	code, playerID, ok := rm.RemoveConnection("conn-host", testTime)
	if !ok || code != state.Code || playerID != host.ID {
		t.Errorf("disconnect routed to (%s, %s, %v)", code, playerID, ok)
	}
}

// Full match flow: host creates, opponent joins, bomb crate is picked
// up, placed, and driven into.
func TestMatchFlow(t *testing.T) {
	rm := newTestManager()
	sink := &captureSink{}
	rm.SetEventSink(sink)

	state, host, err := rm.CreateRoom("Alice", "0xALICE", 2, testTime)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, bob, err := rm.JoinRoomAsPlayer(state.Code, "conn-b", "Bob", "0xBOB", testTime)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := rm.StartGame(state.Code, testTime); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Host drives to a crate holding a bomb and picks it up
	setSlotWeapon(t, rm, state.Code, "crate-1", WeaponBomb)
	slotPos := findSlot(t, state, "crate-1").Position
	rm.UpdatePosition(state.Code, host.ID, slotPos, Vec2{}, 0, testTime)
	if _, err := rm.PickupCrate(state.Code, host.ID, "crate-1", testTime); err != nil {
		t.Fatalf("pickup: %v", err)
	}

	// Bomb goes down where the host stands
	result, err := rm.UseWeapon(state.Code, host.ID, WeaponBomb, slotPos, Vec2{}, testTime)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if result.WeaponType != WeaponBomb {
		t.Fatalf("used %q", result.WeaponType)
	}

	// Bob drives onto it before the fuse runs out
	rm.UpdatePosition(state.Code, bob.ID, slotPos.Add(Vec2{X: 30}), Vec2{}, 0, testTime.Add(time.Second))
	events := rm.Tick(testTime.Add(time.Second))
	if len(events) != 1 {
		t.Fatalf("expected 1 detonation event, got %d", len(events))
	}
	payload, ok := events[0].Payload.(BombExplodePayload)
	if !ok {
		t.Fatalf("payload type %T", events[0].Payload)
	}
	if payload.Trigger != "touch" {
		t.Errorf("trigger = %q, want touch", payload.Trigger)
	}
	if len(payload.HitPlayerIDs) != 1 || payload.HitPlayerIDs[0] != bob.ID {
		t.Errorf("hit ids = %v", payload.HitPlayerIDs)
	}

	final, _ := rm.GetRoom(state.Code, testTime.Add(time.Second))
	bobNow := findPlayer(t, final, bob.ID)
	aliceNow := findPlayer(t, final, host.ID)
	if bobNow.Deaths != 1 || bobNow.HP != PlayerMaxHP {
		t.Errorf("victim deaths=%d hp=%d", bobNow.Deaths, bobNow.HP)
	}
	if aliceNow.Kills != 1 {
		t.Errorf("attacker kills = %d", aliceNow.Kills)
	}

	if sink.killCount() != 1 {
		t.Fatalf("recorded %d kill events", sink.killCount())
	}
	sink.mu.Lock()
	kill := sink.kills[0]
	sink.mu.Unlock()
	if !kill.Killed || kill.AttackerWallet != "0xALICE" || kill.VictimWallet != "0xBOB" {
		t.Errorf("kill record = %+v", kill)
	}
}
