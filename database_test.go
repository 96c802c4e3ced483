package main

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if got := db.GetSetting("missing"); got != "" {
		t.Errorf("missing key = %q", got)
	}
	if err := db.SetSetting("k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := db.GetSetting("k"); got != "v1" {
		t.Errorf("got %q", got)
	}
	if err := db.SetSetting("k", "v2"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got := db.GetSetting("k"); got != "v2" {
		t.Errorf("after upsert got %q", got)
	}
}

func TestRecordMatch(t *testing.T) {
	db := openTestDB(t)

	if err := db.RecordMatch("KART-ABCD", 180, 3); err != nil {
		t.Fatalf("record: %v", err)
	}

	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM matches WHERE room_code = ?", "KART-ABCD").Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d", count)
	}
}

// The recorder is the write path for combat records; drive it end to
// end against a real database file.
func TestRecorderFlush(t *testing.T) {
	db := openTestDB(t)
	rec := NewRecorder(db)

	now := time.Now().UnixMilli()
	rec.RecordKill(KillEvent{
		RoomCode:       "KART-ABCD",
		AttackerID:     "a",
		AttackerName:   "Alice",
		AttackerWallet: "0xALICE",
		VictimID:       "b",
		VictimName:     "Bob",
		VictimWallet:   "0xBOB",
		WeaponType:     string(WeaponRocket),
		HealthDepleted: 100,
		Killed:         true,
		Timestamp:      now,
	})
	rec.RecordKill(KillEvent{
		RoomCode:       "KART-ABCD",
		AttackerID:     "a",
		AttackerName:   "Alice",
		AttackerWallet: "0xALICE",
		VictimID:       "b",
		VictimName:     "Bob",
		WeaponType:     string(WeaponBullet),
		HealthDepleted: 20,
		Killed:         false,
		Timestamp:      now,
	})
	rec.RecordItem(ItemEvent{
		ID:        "evt-1",
		RoomCode:  "KART-ABCD",
		PlayerID:  "a",
		Kind:      ItemKindPickup,
		ItemType:  string(WeaponRocket),
		SlotID:    "crate-1",
		CreatedAt: now,
	})

	// Stop drains and flushes everything still queued
	rec.Stop()

	kills, err := db.RoomKillCount("KART-ABCD")
	if err != nil {
		t.Fatalf("kill count: %v", err)
	}
	if kills != 1 {
		t.Errorf("confirmed kills = %d, want 1", kills)
	}

	board, err := db.KillLeaderboard(10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 {
		t.Fatalf("leaderboard rows = %d", len(board))
	}
	if board[0].Wallet != "0xALICE" || board[0].Kills != 1 {
		t.Errorf("row = %+v", board[0])
	}

	var items int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM item_events").Scan(&items); err != nil {
		t.Fatalf("item query: %v", err)
	}
	if items != 1 {
		t.Errorf("item rows = %d", items)
	}
}

func TestJWTSecretPersisted(t *testing.T) {
	db := openTestDB(t)

	first := NewAuth(db)
	second := NewAuth(db)

	token, err := first.IssueHostToken("KART-ABCD", "player-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := second.ValidateHostToken(token); err != nil {
		t.Errorf("reloaded secret rejected token: %v", err)
	}
}
