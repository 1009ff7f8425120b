// Package log writes the compressed JSONL trade journal: a secondary,
// grep-able forensic stream next to the sqlite store.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"tradewinds.gg/internal/trade"
)

// JSONLZstdWriter appends JSON lines to hourly-rotated zstd files.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{baseDir: baseDir, prefix: prefix}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// tradeEntry is one journal line for a settled trade header.
type tradeEntry struct {
	Kind     string `json:"kind"` // "trade"
	RecordID string `json:"record_id"`
	At       string `json:"at"`
	PartyA   string `json:"party_a"`
	PartyB   string `json:"party_b"`
	OriginA  string `json:"origin_a"`
	OriginB  string `json:"origin_b"`
	Location string `json:"location"`
	MoneyA   uint64 `json:"money_a"`
	MoneyB   uint64 `json:"money_b"`
	PremiumA uint64 `json:"premium_a"`
	PremiumB uint64 `json:"premium_b"`
}

// itemEntry is one journal line per offered item.
type itemEntry struct {
	Kind     string `json:"kind"` // "item"
	RecordID string `json:"record_id"`
	Sender   string `json:"sender"`
	ItemID   string `json:"item_id"`
	ItemType string `json:"item_type"`
	Checksum string `json:"checksum"`
	Outcome  string `json:"outcome"`
}

// TradeJournal mirrors audit writes into the JSONL stream. The sqlite store
// assigns record IDs; the journal only echoes them.
type TradeJournal struct{ w *JSONLZstdWriter }

func NewTradeJournal(dataDir string) *TradeJournal {
	return &TradeJournal{w: NewJSONLZstdWriter(filepath.Join(dataDir, "audit"), "trades")}
}

func (j *TradeJournal) WriteTrade(recordID string, h trade.TradeHeader) error {
	return j.w.Write(tradeEntry{
		Kind:     "trade",
		RecordID: recordID,
		At:       time.Now().UTC().Format(time.RFC3339Nano),
		PartyA:   h.PartyA,
		PartyB:   h.PartyB,
		OriginA:  h.OriginA,
		OriginB:  h.OriginB,
		Location: h.Location,
		MoneyA:   h.MoneyA,
		MoneyB:   h.MoneyB,
		PremiumA: h.PremiumA,
		PremiumB: h.PremiumB,
	})
}

func (j *TradeJournal) WriteItems(rows []trade.ItemRow) error {
	for _, r := range rows {
		if err := j.w.Write(itemEntry{
			Kind:     "item",
			RecordID: r.TradeID,
			Sender:   r.Sender,
			ItemID:   r.ItemID,
			ItemType: r.ItemType,
			Checksum: r.Checksum,
			Outcome:  string(r.Outcome),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (j *TradeJournal) Close() error { return j.w.Close() }
