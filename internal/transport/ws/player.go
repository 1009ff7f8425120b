package ws

import (
	"encoding/json"
	"sync"
	"time"

	"tradewinds.gg/internal/economy/inventory"
	"tradewinds.gg/internal/economy/ledger"
	"tradewinds.gg/internal/protocol"
	"tradewinds.gg/internal/trade"
)

// Player is one connected client. It implements trade.Participant: the
// trade session notifies it, queries its bag and wallet, and reads its
// origin/location metadata for the audit header.
type Player struct {
	id       string
	name     string
	origin   string
	location string

	bag    *inventory.Bag
	wallet *ledger.Wallet

	out chan []byte

	mu    sync.Mutex
	stall map[string]bool
	rl    rateWindow
}

type rateWindow struct {
	start time.Time
	count int
}

func (p *Player) ID() string                 { return p.id }
func (p *Player) Inventory() trade.Inventory { return p.bag }
func (p *Player) Ledger() trade.Ledger       { return p.wallet }
func (p *Player) Origin() string             { return p.origin }
func (p *Player) Location() string           { return p.location }

func (p *Player) StallListed(itemID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stall[itemID]
}

// ListInStall marks an item as listed in this player's vendor stall.
func (p *Player) ListInStall(itemID string, listed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if listed {
		p.stall[itemID] = true
	} else {
		delete(p.stall, itemID)
	}
}

// Notify is fire-and-forget: a stalled connection drops frames rather than
// blocking the trade session.
func (p *Player) Notify(ev protocol.Event) {
	b, err := json.Marshal(protocol.EventMsg{
		Type:            protocol.TypeEvent,
		ProtocolVersion: protocol.Version,
		Event:           ev,
	})
	if err != nil {
		return
	}
	select {
	case p.out <- b:
	default:
	}
}

// rateAllow is a fixed-window limiter for offer commands.
func (p *Player) rateAllow(window time.Duration, max int) bool {
	if max <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if now.Sub(p.rl.start) >= window {
		p.rl = rateWindow{start: now}
	}
	if p.rl.count >= max {
		return false
	}
	p.rl.count++
	return true
}
