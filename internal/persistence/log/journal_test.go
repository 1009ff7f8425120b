package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"tradewinds.gg/internal/trade"
)

func TestJournalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	j := NewTradeJournal(dir)

	header := trade.TradeHeader{PartyA: "X", PartyB: "Y", Location: "plaza", MoneyA: 300}
	if err := j.WriteTrade("REC001", header); err != nil {
		t.Fatalf("write trade: %v", err)
	}
	rows := []trade.ItemRow{
		{TradeID: "REC001", Sender: "X", ItemID: "I1", ItemType: "WEAPON", Checksum: "abc", Outcome: trade.OutcomeTransferred},
	}
	if err := j.WriteItems(rows); err != nil {
		t.Fatalf("write items: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "audit", "trades-*.jsonl.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("journal files: %v (%v)", matches, err)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var v map[string]any
		if err := json.Unmarshal(sc.Bytes(), &v); err != nil {
			t.Fatalf("bad jsonl line: %v", err)
		}
		lines = append(lines, v)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("lines: got %d want 2", len(lines))
	}
	if lines[0]["kind"] != "trade" || lines[0]["record_id"] != "REC001" || lines[0]["party_a"] != "X" {
		t.Fatalf("trade line: %v", lines[0])
	}
	if lines[1]["kind"] != "item" || lines[1]["item_id"] != "I1" || lines[1]["outcome"] != "TRANSFERRED" {
		t.Fatalf("item line: %v", lines[1])
	}
}
