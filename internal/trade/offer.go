package trade

import "tradewinds.gg/internal/protocol"

// AddItem offers one item from the submitter's inventory. A failed check
// rejects only this offer; the session keeps negotiating. On success the
// counterpart receives the item's display info so both clients render the
// same offer state.
func (s *Session) AddItem(playerID, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	me, other, ok := s.sideOf(playerID)
	if !ok {
		return
	}

	c := &offerCtx{s: s, me: me, other: other, itemID: itemID}
	for _, chk := range offerChecks {
		if code, msg := chk.run(c); code != "" {
			me.p.Notify(result(protocol.OpOfferItem, false, code, msg))
			return
		}
	}

	me.items[itemID] = c.item
	other.p.Notify(protocol.Event{
		"type":      "TRADE_OFFER_ITEM",
		"trade_id":  s.id,
		"from":      playerID,
		"item_id":   itemID,
		"item_type": c.item.Type(),
		"display":   c.item.Display(),
	})
	me.p.Notify(result(protocol.OpOfferItem, true, "", ""))
}

// SetCurrency replaces (not adds to) the submitter's offered amount for one
// currency kind. Unlike item offers, a currency violation is session-fatal:
// an over-cap amount or an uncovered balance aborts the whole trade.
func (s *Session) SetCurrency(playerID string, kind Currency, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	me, other, ok := s.sideOf(playerID)
	if !ok {
		return
	}

	if amount > s.broker.limits.MaxCurrency {
		me.p.Notify(result(opForKind(kind), false, protocol.ErrOverLimit, "amount over trade limit"))
		s.closeLocked(false)
		return
	}
	if me.p.Ledger().Balance(kind) < amount {
		me.p.Notify(result(opForKind(kind), false, protocol.ErrNoFunds, "insufficient "+kind.String()))
		s.closeLocked(false)
		return
	}

	if kind == CurrencyPremium {
		me.premium = amount
	} else {
		me.money = amount
	}
	other.p.Notify(protocol.Event{
		"type":     "TRADE_OFFER_" + opSuffix(kind),
		"trade_id": s.id,
		"from":     playerID,
		"amount":   amount,
	})
}

func opForKind(kind Currency) string {
	if kind == CurrencyPremium {
		return protocol.OpSetPremium
	}
	return protocol.OpSetMoney
}

func opSuffix(kind Currency) string {
	if kind == CurrencyPremium {
		return "PREMIUM"
	}
	return "MONEY"
}
