package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session establishment / routing.
	ErrTradeBusy     = "E_TRADE_BUSY"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrRateLimit     = "E_RATE_LIMIT"

	// Offer rejections (single-action failures, session stays open).
	ErrNotParticipant   = "E_NOT_PARTICIPANT"
	ErrItemNotFound     = "E_ITEM_NOT_FOUND"
	ErrDuplicateOffer   = "E_DUPLICATE_OFFER"
	ErrCounterpartOffer = "E_COUNTERPART_OFFER"
	ErrItemBound        = "E_ITEM_BOUND"
	ErrItemSuspicious   = "E_ITEM_SUSPICIOUS"
	ErrItemLocked       = "E_ITEM_LOCKED"
	ErrGuildItem        = "E_GUILD_ITEM"
	ErrStallListed      = "E_STALL_LISTED"
	ErrOfferCap         = "E_OFFER_CAP"
	ErrBagFull          = "E_BAG_FULL"

	// Session-fatal violations (whole trade aborts).
	ErrOverLimit  = "E_OVER_LIMIT"
	ErrNoFunds    = "E_NO_FUNDS"
	ErrRevalidate = "E_REVALIDATE"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:  {},
	ErrTradeBusy:        {},
	ErrInvalidTarget:    {},
	ErrBadRequest:       {},
	ErrRateLimit:        {},
	ErrNotParticipant:   {},
	ErrItemNotFound:     {},
	ErrDuplicateOffer:   {},
	ErrCounterpartOffer: {},
	ErrItemBound:        {},
	ErrItemSuspicious:   {},
	ErrItemLocked:       {},
	ErrGuildItem:        {},
	ErrStallListed:      {},
	ErrOfferCap:         {},
	ErrBagFull:          {},
	ErrOverLimit:        {},
	ErrNoFunds:          {},
	ErrRevalidate:       {},
	ErrInternal:         {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
