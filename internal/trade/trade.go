// Package trade implements the two-party trade negotiation and settlement
// protocol: offer revision, mutual consent, commit-time re-validation and
// atomic-intent settlement with audit records.
//
// The session owns none of the resources it exchanges. Inventories and
// currency ledgers belong to their players and can be mutated by other
// systems between any two session operations, so everything captured at
// offer time is re-checked at commit time.
package trade

import "tradewinds.gg/internal/protocol"

// Currency identifies one of the two tradeable currency kinds.
type Currency int

const (
	CurrencyMoney Currency = iota
	CurrencyPremium
)

func (c Currency) String() string {
	if c == CurrencyPremium {
		return "premium"
	}
	return "money"
}

// Item is the handle the session sees for an offered inventory item.
type Item interface {
	ID() string
	Type() string
	Bound() bool
	Monopoly() bool
	Suspicious() bool
	Locked() bool
	GuildOwner() string
	ClearDropProtection()
	Snapshot() []byte
	Checksum() string
	// Display returns the client-facing description of the item, including
	// any attached enhancement sub-record, so both clients render the same
	// offer state.
	Display() protocol.Event
}

// Inventory is the per-player item store. Remove uses disappear semantics:
// the item leaves the inventory without being dropped into the world.
type Inventory interface {
	Find(itemID string) (Item, bool)
	FreeSlots(n int) bool
	Remove(it Item)
	Add(it Item)
}

// Ledger is the per-player currency store. Debit reports false and leaves
// the balance untouched when funds are insufficient.
type Ledger interface {
	Balance(kind Currency) uint64
	Debit(kind Currency, amount uint64) bool
	Credit(kind Currency, amount uint64)
}

// Participant is one side of a trade. The session holds non-owning
// references to both.
type Participant interface {
	ID() string
	Inventory() Inventory
	Ledger() Ledger
	// Notify is fire-and-forget delivery to this player's client.
	Notify(ev protocol.Event)
	// Origin is network origin metadata for the audit header.
	Origin() string
	// Location is the map/location context for the audit header.
	Location() string
	// StallListed reports whether the item is currently listed for sale in
	// this player's personal vendor stall.
	StallListed(itemID string) bool
}

// TrustPolicy answers the privilege queries used by item-offer validation.
type TrustPolicy interface {
	Elevated(playerID string) bool
	Admin(playerID string) bool
	TrustedPartners(a, b string) bool
}

// TradeHeader is the audit header persisted for every settled trade.
type TradeHeader struct {
	PartyA   string
	PartyB   string
	OriginA  string
	OriginB  string
	Location string
	MoneyA   uint64
	MoneyB   uint64
	PremiumA uint64
	PremiumB uint64
}

// ItemOutcome tags what happened to one offered item during settle.
type ItemOutcome string

const (
	OutcomeTransferred         ItemOutcome = "TRANSFERRED"
	OutcomeSkippedNotTradeable ItemOutcome = "SKIPPED_NOT_TRADEABLE"
)

// ItemRow is one per-item audit row, keyed by the trade record ID.
type ItemRow struct {
	TradeID  string
	Sender   string
	ItemID   string
	ItemType string
	Checksum string
	Snapshot []byte
	Outcome  ItemOutcome
}

// AuditSink is durable append-only storage for settled trades.
// RecordTrade assigns and returns the trade record identifier.
type AuditSink interface {
	RecordTrade(h TradeHeader) (string, error)
	RecordItems(rows []ItemRow) error
}

// Limits are the per-session caps. Zero values are replaced by the spec
// defaults in NewBroker.
type Limits struct {
	MaxOfferItems int
	MaxCurrency   uint64
}

const (
	DefaultMaxOfferItems = 20
	DefaultMaxCurrency   = 1_000_000_000
)
