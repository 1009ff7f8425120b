package trade

import (
	"fmt"
	"sync"
	"testing"

	"tradewinds.gg/internal/protocol"
)

type fakeItem struct {
	mu       sync.Mutex
	id       string
	typ      string
	bound    bool
	monopoly bool
	susp     bool
	locked   bool
	guild    string
	dropProt bool

	// boundAfter, when > 0, makes Bound() report true from call N+1 on, to
	// model a flag set by an external system at a precise point in the
	// protocol (offer check and re-validation each read the flag once).
	boundAfter int
	boundCalls int
}

func item(id string) *fakeItem { return &fakeItem{id: id, typ: "WEAPON"} }

func (it *fakeItem) ID() string   { return it.id }
func (it *fakeItem) Type() string { return it.typ }

func (it *fakeItem) Bound() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.boundAfter > 0 {
		it.boundCalls++
		return it.boundCalls > it.boundAfter
	}
	return it.bound
}

func (it *fakeItem) Monopoly() bool   { it.mu.Lock(); defer it.mu.Unlock(); return it.monopoly }
func (it *fakeItem) Suspicious() bool { it.mu.Lock(); defer it.mu.Unlock(); return it.susp }
func (it *fakeItem) Locked() bool     { it.mu.Lock(); defer it.mu.Unlock(); return it.locked }
func (it *fakeItem) GuildOwner() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.guild
}

func (it *fakeItem) setBound(v bool) { it.mu.Lock(); defer it.mu.Unlock(); it.bound = v }

func (it *fakeItem) ClearDropProtection() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.dropProt = false
}

func (it *fakeItem) Snapshot() []byte { return []byte(`{"id":"` + it.id + `"}`) }
func (it *fakeItem) Checksum() string { return "sum-" + it.id }
func (it *fakeItem) Display() protocol.Event {
	return protocol.Event{"name": it.id, "item_type": it.typ}
}

type fakeInv struct {
	mu    sync.Mutex
	slots int
	items map[string]*fakeItem
}

func newFakeInv(slots int, its ...*fakeItem) *fakeInv {
	inv := &fakeInv{slots: slots, items: make(map[string]*fakeItem)}
	for _, it := range its {
		inv.items[it.id] = it
	}
	return inv
}

func (v *fakeInv) Find(id string) (Item, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	it, ok := v.items[id]
	if !ok {
		return nil, false
	}
	return it, true
}

func (v *fakeInv) FreeSlots(n int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.items)+n <= v.slots
}

func (v *fakeInv) Remove(it Item) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.items, it.ID())
}

func (v *fakeInv) Add(it Item) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items[it.ID()] = it.(*fakeItem)
}

func (v *fakeInv) has(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.items[id]
	return ok
}

func (v *fakeInv) drop(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.items, id)
}

type fakeLedger struct {
	mu      sync.Mutex
	money   uint64
	premium uint64
	debits  int
	credits int
}

func (l *fakeLedger) Balance(kind Currency) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if kind == CurrencyPremium {
		return l.premium
	}
	return l.money
}

func (l *fakeLedger) Debit(kind Currency, amount uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debits++
	if kind == CurrencyPremium {
		if l.premium < amount {
			return false
		}
		l.premium -= amount
		return true
	}
	if l.money < amount {
		return false
	}
	l.money -= amount
	return true
}

func (l *fakeLedger) Credit(kind Currency, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credits++
	if kind == CurrencyPremium {
		l.premium += amount
		return
	}
	l.money += amount
}

func (l *fakeLedger) set(money, premium uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.money, l.premium = money, premium
}

type fakePlayer struct {
	id    string
	inv   *fakeInv
	led   *fakeLedger
	stall map[string]bool

	mu     sync.Mutex
	events []protocol.Event
}

func player(id string, inv *fakeInv, led *fakeLedger) *fakePlayer {
	return &fakePlayer{id: id, inv: inv, led: led, stall: make(map[string]bool)}
}

func (p *fakePlayer) ID() string                 { return p.id }
func (p *fakePlayer) Inventory() Inventory       { return p.inv }
func (p *fakePlayer) Ledger() Ledger             { return p.led }
func (p *fakePlayer) Origin() string             { return "10.0.0.1:5000" }
func (p *fakePlayer) Location() string           { return "plaza" }
func (p *fakePlayer) StallListed(id string) bool { return p.stall[id] }

func (p *fakePlayer) Notify(ev protocol.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

// lastCode returns the code of the most recent TRADE_RESULT event.
func (p *fakePlayer) lastCode() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i]["type"] == "TRADE_RESULT" {
			code, _ := p.events[i]["code"].(string)
			return code
		}
	}
	return ""
}

func (p *fakePlayer) countType(typ string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev["type"] == typ {
			n++
		}
	}
	return n
}

func (p *fakePlayer) lastOfType(typ string) (protocol.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i]["type"] == typ {
			return p.events[i], true
		}
	}
	return nil, false
}

type fakeTrust struct {
	elevated map[string]bool
	admins   map[string]bool
	trusted  bool
}

func (t *fakeTrust) Elevated(id string) bool          { return t.elevated[id] }
func (t *fakeTrust) Admin(id string) bool             { return t.admins[id] }
func (t *fakeTrust) TrustedPartners(a, b string) bool { return t.trusted }

type fakeSink struct {
	mu         sync.Mutex
	headers    []TradeHeader
	itemRows   []ItemRow
	failHeader bool
}

func (s *fakeSink) RecordTrade(h TradeHeader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failHeader {
		return "", fmt.Errorf("sink down")
	}
	s.headers = append(s.headers, h)
	return fmt.Sprintf("REC%03d", len(s.headers)), nil
}

func (s *fakeSink) RecordItems(rows []ItemRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemRows = append(s.itemRows, rows...)
	return nil
}

func (s *fakeSink) headerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.headers)
}

func (s *fakeSink) rows() []ItemRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ItemRow, len(s.itemRows))
	copy(out, s.itemRows)
	return out
}

// fixture wires a broker with two connected players and an open session.
type fixture struct {
	broker *Broker
	trust  *fakeTrust
	sink   *fakeSink
	x, y   *fakePlayer
	sess   *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	trust := &fakeTrust{elevated: map[string]bool{}, admins: map[string]bool{}}
	sink := &fakeSink{}
	b := NewBroker(Limits{}, trust, sink)
	x := player("X", newFakeInv(40), &fakeLedger{})
	y := player("Y", newFakeInv(40), &fakeLedger{})
	s, err := b.Open(x, y)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return &fixture{broker: b, trust: trust, sink: sink, x: x, y: y, sess: s}
}
