package trade

import "tradewinds.gg/internal/protocol"

// Accept records one side's consent. Commit evaluation fires exactly once,
// on the transition where the second flag becomes true; a repeated accept
// is a no-op so a duplicate command cannot run the commit twice.
func (s *Session) Accept(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	me, other, ok := s.sideOf(playerID)
	if !ok {
		return
	}
	if me.accepted {
		return
	}
	me.accepted = true
	other.p.Notify(protocol.Event{"type": "TRADE_ACCEPT", "trade_id": s.id, "from": playerID})

	if s.a.accepted && s.b.accepted {
		s.commitLocked()
	}
}

// commitLocked runs the commit protocol: re-validate, then settle, then
// close. It runs entirely under s.mu so no command from either side can
// observe or alter session state between re-validation and settlement.
func (s *Session) commitLocked() {
	if code, msg := s.revalidateLocked(); code != "" {
		// No mutation has happened and no audit record is written; both
		// sides just get the close notice.
		s.a.p.Notify(result(protocol.OpAccept, false, code, msg))
		s.b.p.Notify(result(protocol.OpAccept, false, code, msg))
		s.closeLocked(false)
		return
	}
	s.settleLocked()
}

func (s *Session) settleLocked() {
	recordID, err := s.broker.sink.RecordTrade(TradeHeader{
		PartyA:   s.a.p.ID(),
		PartyB:   s.b.p.ID(),
		OriginA:  s.a.p.Origin(),
		OriginB:  s.b.p.Origin(),
		Location: s.a.p.Location(),
		MoneyA:   s.a.money,
		MoneyB:   s.b.money,
		PremiumA: s.a.premium,
		PremiumB: s.b.premium,
	})
	if err != nil {
		// The trade must not settle without its audit header.
		s.a.p.Notify(result(protocol.OpAccept, false, protocol.ErrInternal, "audit unavailable"))
		s.b.p.Notify(result(protocol.OpAccept, false, protocol.ErrInternal, "audit unavailable"))
		s.closeLocked(false)
		return
	}

	// Currency first, all four directions unconditionally: re-validation
	// covered the balances and the residual-race exception below applies to
	// items only.
	transferCurrency(s.a, s.b)
	transferCurrency(s.b, s.a)

	rows := make([]ItemRow, 0, len(s.a.items)+len(s.b.items))
	rows = append(rows, s.settleItemsLocked(recordID, s.a, s.b)...)
	rows = append(rows, s.settleItemsLocked(recordID, s.b, s.a)...)
	if len(rows) > 0 {
		_ = s.broker.sink.RecordItems(rows)
	}

	s.a.p.Notify(protocol.Event{"type": "TRADE_DONE", "trade_id": s.id, "with": s.b.p.ID(), "record_id": recordID})
	s.b.p.Notify(protocol.Event{"type": "TRADE_DONE", "trade_id": s.id, "with": s.a.p.ID(), "record_id": recordID})
	s.closeLocked(true)
}

func transferCurrency(from, to *side) {
	if from.money > 0 {
		_ = from.p.Ledger().Debit(CurrencyMoney, from.money)
		to.p.Ledger().Credit(CurrencyMoney, from.money)
	}
	if from.premium > 0 {
		_ = from.p.Ledger().Debit(CurrencyPremium, from.premium)
		to.p.Ledger().Credit(CurrencyPremium, from.premium)
	}
}

// settleItemsLocked moves one side's offered items to the counterpart. An
// item whose bound/monopoly flag flipped after re-validation stays with its
// owner: that single item is skipped, the rest of the trade proceeds, and
// the skip is visible only in the audit rows.
func (s *Session) settleItemsLocked(recordID string, from, to *side) []ItemRow {
	rows := make([]ItemRow, 0, len(from.items))
	inv := from.p.Inventory()
	for id := range from.items {
		it, ok := inv.Find(id)
		if !ok || it.Bound() || it.Monopoly() {
			rows = append(rows, ItemRow{
				TradeID:  recordID,
				Sender:   from.p.ID(),
				ItemID:   id,
				Outcome:  OutcomeSkippedNotTradeable,
				ItemType: itemType(it),
			})
			continue
		}
		it.ClearDropProtection()
		inv.Remove(it)
		to.p.Inventory().Add(it)
		rows = append(rows, ItemRow{
			TradeID:  recordID,
			Sender:   from.p.ID(),
			ItemID:   id,
			ItemType: it.Type(),
			Checksum: it.Checksum(),
			Snapshot: it.Snapshot(),
			Outcome:  OutcomeTransferred,
		})
	}
	return rows
}

func itemType(it Item) string {
	if it == nil {
		return ""
	}
	return it.Type()
}
