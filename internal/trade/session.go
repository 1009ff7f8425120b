package trade

import (
	"sync"

	"tradewinds.gg/internal/protocol"
)

type sessionState int

const (
	stateNegotiating sessionState = iota
	stateClosed
)

// Session is the live negotiation state binding two players. All operations
// serialize on s.mu for the session's whole lifetime: both players' command
// streams reach the same session concurrently, and commit re-validation must
// not be interleaved with a mutation from the other side.
type Session struct {
	id     string
	broker *Broker

	mu    sync.Mutex
	state sessionState
	a, b  *side
}

// side is one participant's half of the negotiation.
type side struct {
	p        Participant
	items    map[string]Item
	money    uint64
	premium  uint64
	accepted bool
}

func (s *Session) ID() string { return s.id }

// sideOf resolves the submitter to (own side, counterpart side).
func (s *Session) sideOf(playerID string) (me, other *side, ok bool) {
	switch playerID {
	case s.a.p.ID():
		return s.a, s.b, true
	case s.b.p.ID():
		return s.b, s.a, true
	}
	return nil, nil, false
}

// Cancel aborts the session on behalf of one participant. Safe to call on
// an already closed session.
func (s *Session) Cancel(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	if _, _, ok := s.sideOf(playerID); !ok {
		return
	}
	s.closeLocked(false)
}

// closeLocked is the single exit point for every terminal outcome. It clears
// both broker pointers exactly once; the failure notice is skipped on the
// commit path, which has already sent its own success messages.
func (s *Session) closeLocked(committed bool) {
	if s.state == stateClosed {
		return
	}
	s.state = stateClosed
	s.broker.release(s, s.a.p.ID(), s.b.p.ID())
	if !committed {
		s.a.p.Notify(protocol.Event{"type": "TRADE_CLOSED", "trade_id": s.id, "with": s.b.p.ID()})
		s.b.p.Notify(protocol.Event{"type": "TRADE_CLOSED", "trade_id": s.id, "with": s.a.p.ID()})
	}
}

// result builds the submitter-facing outcome event for one trade action.
func result(op string, ok bool, code, msg string) protocol.Event {
	ev := protocol.Event{"type": "TRADE_RESULT", "op": op, "ok": ok}
	if code != "" {
		ev["code"] = code
		ev["msg"] = msg
	}
	return ev
}
