package trade

import (
	"fmt"
	"sync"
	"sync/atomic"

	"tradewinds.gg/internal/protocol"
)

// Broker tracks which player is bound to which live session and enforces
// the one-active-session-per-player rule. A new session cannot silently
// supersede an existing one; Open fails busy instead.
type Broker struct {
	limits Limits
	trust  TrustPolicy
	sink   AuditSink

	nextTradeNum atomic.Uint64

	mu     sync.Mutex
	active map[string]*Session
}

func NewBroker(limits Limits, trust TrustPolicy, sink AuditSink) *Broker {
	if limits.MaxOfferItems <= 0 {
		limits.MaxOfferItems = DefaultMaxOfferItems
	}
	if limits.MaxCurrency == 0 {
		limits.MaxCurrency = DefaultMaxCurrency
	}
	return &Broker{
		limits: limits,
		trust:  trust,
		sink:   sink,
		active: make(map[string]*Session),
	}
}

func (b *Broker) newTradeID() string {
	n := b.nextTradeNum.Add(1)
	return fmt.Sprintf("TR%06d", n)
}

// Open binds a new session to both players. It fails with E_TRADE_BUSY if
// either side already has a live session, and with E_INVALID_TARGET when a
// player would trade with itself.
func (b *Broker) Open(pa, pb Participant) (*Session, error) {
	if pa == nil || pb == nil || pa.ID() == pb.ID() {
		return nil, &CodeError{Code: protocol.ErrInvalidTarget, Msg: "bad trade target"}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, busy := b.active[pa.ID()]; busy {
		return nil, &CodeError{Code: protocol.ErrTradeBusy, Msg: pa.ID() + " already trading"}
	}
	if _, busy := b.active[pb.ID()]; busy {
		return nil, &CodeError{Code: protocol.ErrTradeBusy, Msg: pb.ID() + " already trading"}
	}

	s := &Session{
		id:     b.newTradeID(),
		broker: b,
		a:      &side{p: pa, items: make(map[string]Item)},
		b:      &side{p: pb, items: make(map[string]Item)},
	}
	b.active[pa.ID()] = s
	b.active[pb.ID()] = s
	return s, nil
}

// Lookup returns the live session the player is bound to, if any.
func (b *Broker) Lookup(playerID string) (*Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.active[playerID]
	return s, ok
}

// Drop cancels the player's live session, if any. Called on disconnect so
// no session outlives a gone participant.
func (b *Broker) Drop(playerID string) {
	b.mu.Lock()
	s := b.active[playerID]
	b.mu.Unlock()
	if s != nil {
		s.Cancel(playerID)
	}
}

// release clears both pointers, but only if they still reference s.
func (b *Broker) release(s *Session, ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		if b.active[id] == s {
			delete(b.active, id)
		}
	}
}

// CodeError carries a protocol error code across the library boundary so
// the transport can echo it to the client.
type CodeError struct {
	Code string
	Msg  string
}

func (e *CodeError) Error() string { return e.Code + ": " + e.Msg }
