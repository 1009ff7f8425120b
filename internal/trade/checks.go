package trade

import "tradewinds.gg/internal/protocol"

// offerCtx is the state one item-offer check runs against.
type offerCtx struct {
	s      *Session
	me     *side
	other  *side
	itemID string
	item   Item // nil until the in_inventory check resolves it
}

// offerCheck is one named precondition on an item offer. It returns a
// rejection code ("" means pass). Checks run in order, short-circuit.
type offerCheck struct {
	name string
	run  func(c *offerCtx) (code, msg string)
}

// offerChecks is the full validation chain for OFFER_ITEM, in the order the
// failures should be reported.
var offerChecks = []offerCheck{
	{name: "in_inventory", run: func(c *offerCtx) (string, string) {
		it, ok := c.me.p.Inventory().Find(c.itemID)
		if !ok {
			return protocol.ErrItemNotFound, "item not in inventory"
		}
		c.item = it
		return "", ""
	}},
	{name: "not_already_offered", run: func(c *offerCtx) (string, string) {
		if _, dup := c.me.items[c.itemID]; dup {
			return protocol.ErrDuplicateOffer, "item already offered"
		}
		return "", ""
	}},
	{name: "not_offered_by_counterpart", run: func(c *offerCtx) (string, string) {
		// An identifier may live in at most one of the two offered sets.
		// Both bags are keyed by ID, so settling a session with the same
		// identifier on both sides would overwrite one item with the other.
		if _, dup := c.other.items[c.itemID]; dup {
			return protocol.ErrCounterpartOffer, "counterpart already offered this identifier"
		}
		return "", ""
	}},
	{name: "tradeable_flags", run: func(c *offerCtx) (string, string) {
		// Two elevated players may move bound or flagged goods between
		// themselves; everyone else may not.
		trust := c.s.broker.trust
		if trust.Elevated(c.me.p.ID()) && trust.Elevated(c.other.p.ID()) {
			return "", ""
		}
		if c.item.Bound() || c.item.Monopoly() {
			return protocol.ErrItemBound, "item is bound"
		}
		if c.item.Suspicious() {
			return protocol.ErrItemSuspicious, "item is flagged"
		}
		return "", ""
	}},
	{name: "locked_needs_trust", run: func(c *offerCtx) (string, string) {
		if !c.item.Locked() {
			return "", ""
		}
		trust := c.s.broker.trust
		if trust.Admin(c.me.p.ID()) && trust.Admin(c.other.p.ID()) {
			return "", ""
		}
		if !trust.TrustedPartners(c.me.p.ID(), c.other.p.ID()) {
			return protocol.ErrItemLocked, "locked item needs a trusted partner"
		}
		return "", ""
	}},
	{name: "not_guild_owned", run: func(c *offerCtx) (string, string) {
		if c.item.GuildOwner() != "" {
			return protocol.ErrGuildItem, "guild-owned item"
		}
		return "", ""
	}},
	{name: "not_stall_listed", run: func(c *offerCtx) (string, string) {
		if c.me.p.StallListed(c.itemID) {
			return protocol.ErrStallListed, "item listed in vendor stall"
		}
		return "", ""
	}},
	{name: "offer_cap", run: func(c *offerCtx) (string, string) {
		if len(c.me.items) >= c.s.broker.limits.MaxOfferItems {
			return protocol.ErrOfferCap, "offer is full"
		}
		return "", ""
	}},
	{name: "counterpart_capacity", run: func(c *offerCtx) (string, string) {
		if !c.other.p.Inventory().FreeSlots(len(c.me.items) + 1) {
			return protocol.ErrBagFull, "target bag full"
		}
		return "", ""
	}},
}

// revalidateLocked re-runs every precondition the trade depends on at the
// instant of commit. Offer-time checks only constrain what may enter the
// offer; third parties can change inventories and balances afterwards, so
// nothing captured earlier is trusted here.
func (s *Session) revalidateLocked() (code, msg string) {
	for _, sd := range []*side{s.a, s.b} {
		inv := sd.p.Inventory()
		for id := range sd.items {
			it, ok := inv.Find(id)
			if !ok {
				return protocol.ErrRevalidate, "offered item gone: " + id
			}
			if it.Bound() || it.Monopoly() {
				return protocol.ErrRevalidate, "offered item no longer tradeable: " + id
			}
		}
	}
	// Capacity is count-based: each side must fit what the counterpart is
	// about to send.
	if !s.a.p.Inventory().FreeSlots(len(s.b.items)) {
		return protocol.ErrRevalidate, "no room on " + s.a.p.ID()
	}
	if !s.b.p.Inventory().FreeSlots(len(s.a.items)) {
		return protocol.ErrRevalidate, "no room on " + s.b.p.ID()
	}
	for _, sd := range []*side{s.a, s.b} {
		led := sd.p.Ledger()
		if led.Balance(CurrencyMoney) < sd.money {
			return protocol.ErrNoFunds, sd.p.ID() + " short on money"
		}
		if led.Balance(CurrencyPremium) < sd.premium {
			return protocol.ErrNoFunds, sd.p.ID() + " short on premium"
		}
	}
	return "", ""
}
