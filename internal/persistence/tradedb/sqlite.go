// Package tradedb persists settled-trade audit records in sqlite: one
// header row per trade plus one row per offered item, keyed by a generated
// record identifier. It is the dispute-resolution source of truth.
package tradedb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tradewinds.gg/internal/trade"
)

type Store struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu orders channel sends against Close: a send may not race the
	// close(s.ch) or it panics the sender.
	mu     sync.RWMutex
	closed bool
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db: db,
		// Item rows may arrive in bursts when large trades settle; buffer
		// so the session never stalls on the writer.
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			record_id TEXT PRIMARY KEY,
			party_a TEXT NOT NULL,
			party_b TEXT NOT NULL,
			origin_a TEXT NOT NULL,
			origin_b TEXT NOT NULL,
			location TEXT NOT NULL,
			money_a INTEGER NOT NULL,
			money_b INTEGER NOT NULL,
			premium_a INTEGER NOT NULL,
			premium_b INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trade_items (
			record_id TEXT NOT NULL,
			sender TEXT NOT NULL,
			item_id TEXT NOT NULL,
			item_type TEXT NOT NULL,
			checksum TEXT NOT NULL,
			snapshot BLOB,
			outcome TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trade_items_record ON trade_items(record_id);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_party_a ON trades(party_a);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_party_b ON trades(party_b);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordTrade writes the header synchronously: settlement must not proceed
// unless the audit header is durable.
func (s *Store) RecordTrade(h trade.TradeHeader) (string, error) {
	if s == nil {
		return "", fmt.Errorf("nil trade store")
	}
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return "", fmt.Errorf("trade store closed")
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO trades (record_id, party_a, party_b, origin_a, origin_b, location,
			money_a, money_b, premium_a, premium_b, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		id, h.PartyA, h.PartyB, h.OriginA, h.OriginB, h.Location,
		int64(h.MoneyA), int64(h.MoneyB), int64(h.PremiumA), int64(h.PremiumB),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecordItems hands the per-item rows to the background writer. Unlike the
// header these arrive after the mutation is already done, so the session
// does not wait on them.
func (s *Store) RecordItems(rows []trade.ItemRow) error {
	if s == nil || len(rows) == 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	s.ch <- req{rows: rows}
	return nil
}

// req is one unit of work for the background writer. A req with a nil rows
// slice and a non-nil ack is a flush barrier.
type req struct {
	rows []trade.ItemRow
	ack  chan struct{}
}

func (s *Store) loop() {
	ctx := context.Background()
	for r := range s.ch {
		if r.ack != nil {
			close(r.ack)
			continue
		}
		rows := r.rows
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		ok := true
		for _, r := range rows {
			if _, err := tx.Exec(
				`INSERT INTO trade_items (record_id, sender, item_id, item_type, checksum, snapshot, outcome)
				 VALUES (?,?,?,?,?,?,?)`,
				r.TradeID, r.Sender, r.ItemID, r.ItemType, r.Checksum, r.Snapshot, string(r.Outcome),
			); err != nil {
				ok = false
				break
			}
		}
		if ok {
			_ = tx.Commit()
		} else {
			_ = tx.Rollback()
		}
	}
}

// TradeRecord is the read-back form of one settled trade header.
type TradeRecord struct {
	RecordID  string
	PartyA    string
	PartyB    string
	OriginA   string
	OriginB   string
	Location  string
	MoneyA    uint64
	MoneyB    uint64
	PremiumA  uint64
	PremiumB  uint64
	CreatedAt string
}

func (s *Store) Trade(recordID string) (TradeRecord, error) {
	var r TradeRecord
	var ma, mb, pa, pb int64
	err := s.db.QueryRow(
		`SELECT record_id, party_a, party_b, origin_a, origin_b, location,
			money_a, money_b, premium_a, premium_b, created_at
		 FROM trades WHERE record_id = ?`, recordID,
	).Scan(&r.RecordID, &r.PartyA, &r.PartyB, &r.OriginA, &r.OriginB, &r.Location,
		&ma, &mb, &pa, &pb, &r.CreatedAt)
	if err != nil {
		return TradeRecord{}, err
	}
	r.MoneyA, r.MoneyB = uint64(ma), uint64(mb)
	r.PremiumA, r.PremiumB = uint64(pa), uint64(pb)
	return r, nil
}

func (s *Store) Items(recordID string) ([]trade.ItemRow, error) {
	rows, err := s.db.Query(
		`SELECT record_id, sender, item_id, item_type, checksum, snapshot, outcome
		 FROM trade_items WHERE record_id = ? ORDER BY rowid`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []trade.ItemRow
	for rows.Next() {
		var r trade.ItemRow
		var outcome string
		if err := rows.Scan(&r.TradeID, &r.Sender, &r.ItemID, &r.ItemType, &r.Checksum, &r.Snapshot, &outcome); err != nil {
			return nil, err
		}
		r.Outcome = trade.ItemOutcome(outcome)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Flush blocks until every previously queued item batch has been written.
func (s *Store) Flush() {
	if s == nil {
		return
	}
	ack := make(chan struct{})
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return
	}
	s.ch <- req{ack: ack}
	s.mu.RUnlock()
	<-ack
}
