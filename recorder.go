package main

import (
	"log"
	"sync"
	"time"
)

// Recorder persists wallet-addressed combat records with batched
// background writes. The simulation hands records over and moves on:
// enqueueing never blocks, and a full queue drops the record rather
// than stalling a tick. This stands in for the on-chain recorder the
// original deployment forwarded events to.
type Recorder struct {
	db    *DB
	kills chan KillEvent
	items chan ItemEvent
	stop  chan struct{}
	wg    sync.WaitGroup
}

// NewRecorder creates and starts the recorder background writer
func NewRecorder(db *DB) *Recorder {
	r := &Recorder{
		db:    db,
		kills: make(chan KillEvent, 1024),
		items: make(chan ItemEvent, 1024),
		stop:  make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

// RecordKill enqueues a damage/elimination record (non-blocking)
func (r *Recorder) RecordKill(evt KillEvent) {
	select {
	case r.kills <- evt:
	default:
		// Queue full — drop rather than blocking the simulation
	}
}

// RecordItem enqueues a pickup/use record (non-blocking)
func (r *Recorder) RecordItem(evt ItemEvent) {
	select {
	case r.items <- evt:
	default:
	}
}

// Stop gracefully shuts down the writer, flushing what is queued
func (r *Recorder) Stop() {
	close(r.stop)
	r.wg.Wait()
}

// writer batches records and flushes them on size or interval
func (r *Recorder) writer() {
	defer r.wg.Done()

	killBatch := make([]KillEvent, 0, 64)
	itemBatch := make([]ItemEvent, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	flush := func() {
		if len(killBatch) > 0 {
			r.flushKills(killBatch)
			killBatch = killBatch[:0]
		}
		if len(itemBatch) > 0 {
			r.flushItems(itemBatch)
			itemBatch = itemBatch[:0]
		}
	}

	for {
		select {
		case evt := <-r.kills:
			killBatch = append(killBatch, evt)
			if len(killBatch) >= 50 {
				flush()
			}
		case evt := <-r.items:
			itemBatch = append(itemBatch, evt)
			if len(itemBatch) >= 50 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-r.stop:
			// Drain remaining records
			for {
				select {
				case evt := <-r.kills:
					killBatch = append(killBatch, evt)
				case evt := <-r.items:
					itemBatch = append(itemBatch, evt)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (r *Recorder) flushKills(events []KillEvent) {
	if r.db == nil {
		return
	}
	tx, err := r.db.conn.Begin()
	if err != nil {
		log.Printf("recorder: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO kill_events
		(room_code, attacker_id, attacker_name, attacker_wallet, victim_id, victim_name, victim_wallet, weapon, health_depleted, killed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("recorder: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		killed := 0
		if evt.Killed {
			killed = 1
		}
		if _, err := stmt.Exec(
			evt.RoomCode, evt.AttackerID, evt.AttackerName, evt.AttackerWallet,
			evt.VictimID, evt.VictimName, evt.VictimWallet,
			evt.WeaponType, evt.HealthDepleted, killed, evt.Timestamp,
		); err != nil {
			log.Printf("recorder: insert kill error: %v", err)
		}
	}
	tx.Commit()
}

func (r *Recorder) flushItems(events []ItemEvent) {
	if r.db == nil {
		return
	}
	tx, err := r.db.conn.Begin()
	if err != nil {
		log.Printf("recorder: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO item_events
		(event_id, room_code, player_id, kind, item_type, slot_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("recorder: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		if _, err := stmt.Exec(
			evt.ID, evt.RoomCode, evt.PlayerID, evt.Kind, evt.ItemType, evt.SlotID, evt.CreatedAt,
		); err != nil {
			log.Printf("recorder: insert item error: %v", err)
		}
	}
	tx.Commit()
}
