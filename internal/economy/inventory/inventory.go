// Package inventory is the reference slot-bounded item store backing a
// player. Real deployments may swap in their own implementation of the
// trade collaborator interfaces; the server and the tests use this one.
package inventory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"tradewinds.gg/internal/protocol"
	"tradewinds.gg/internal/trade"
)

// Flags are the item attributes the trade protocol inspects. They can be
// flipped by systems outside any trade session, which is exactly why the
// session re-validates at commit time.
type Flags struct {
	Bound         bool `json:"bound,omitempty"`
	Monopoly      bool `json:"monopoly,omitempty"`
	Suspicious    bool `json:"suspicious,omitempty"`
	Locked        bool `json:"locked,omitempty"`
	DropProtected bool `json:"drop_protected,omitempty"`
}

// Item is a concrete inventory item. All accessors lock: flag mutations
// arrive from outside the owning player's command stream.
type Item struct {
	mu sync.Mutex

	id         string
	typ        string
	name       string
	guildOwner string
	flags      Flags
	// enhance is the optional attached enhancement sub-record, shown to the
	// counterpart alongside the base item.
	enhance map[string]any
}

func NewItem(id, typ, name string) *Item {
	return &Item{id: id, typ: typ, name: name}
}

func (it *Item) ID() string   { return it.id }
func (it *Item) Type() string { return it.typ }

func (it *Item) Bound() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.flags.Bound
}

func (it *Item) Monopoly() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.flags.Monopoly
}

func (it *Item) Suspicious() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.flags.Suspicious
}

func (it *Item) Locked() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.flags.Locked
}

func (it *Item) GuildOwner() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.guildOwner
}

func (it *Item) SetGuildOwner(id string) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.guildOwner = id
}

func (it *Item) SetFlags(f Flags) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.flags = f
}

func (it *Item) SetEnhance(enhance map[string]any) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.enhance = enhance
}

func (it *Item) ClearDropProtection() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.flags.DropProtected = false
}

// itemState is the serialized form used for snapshots and checksums.
type itemState struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	GuildOwner string         `json:"guild_owner,omitempty"`
	Flags      Flags          `json:"flags"`
	Enhance    map[string]any `json:"enhance,omitempty"`
}

func (it *Item) Snapshot() []byte {
	it.mu.Lock()
	st := itemState{
		ID:         it.id,
		Type:       it.typ,
		Name:       it.name,
		GuildOwner: it.guildOwner,
		Flags:      it.flags,
		Enhance:    it.enhance,
	}
	it.mu.Unlock()
	b, _ := json.Marshal(st)
	return b
}

func (it *Item) Checksum() string {
	sum := sha256.Sum256(it.Snapshot())
	return hex.EncodeToString(sum[:])
}

func (it *Item) Display() protocol.Event {
	it.mu.Lock()
	defer it.mu.Unlock()
	ev := protocol.Event{"name": it.name, "item_type": it.typ}
	if it.enhance != nil {
		ev["enhance"] = it.enhance
	}
	return ev
}

// Bag is a slot-bounded inventory. It holds trade.Item values, not just
// this package's concrete type, so items arriving from a counterpart with
// a different Inventory implementation are kept rather than dropped.
type Bag struct {
	mu    sync.Mutex
	slots int
	items map[string]trade.Item
}

func NewBag(slots int) *Bag {
	return &Bag{slots: slots, items: make(map[string]trade.Item)}
}

func (b *Bag) Find(itemID string) (trade.Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	it, ok := b.items[itemID]
	if !ok {
		return nil, false
	}
	return it, true
}

func (b *Bag) FreeSlots(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)+n <= b.slots
}

// Remove takes the item out with disappear semantics: it is not dropped
// anywhere, it just stops existing in this bag.
func (b *Bag) Remove(it trade.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.items, it.ID())
}

func (b *Bag) Add(it trade.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[it.ID()] = it
}

// Put inserts an item directly, for setup outside a trade.
func (b *Bag) Put(it *Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[it.id] = it
}

func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
