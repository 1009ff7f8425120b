package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	for _, code := range []string{
		ErrTradeBusy, ErrNotParticipant, ErrItemNotFound, ErrDuplicateOffer,
		ErrCounterpartOffer, ErrItemBound, ErrItemSuspicious, ErrItemLocked,
		ErrGuildItem, ErrStallListed, ErrOfferCap, ErrBagFull, ErrOverLimit,
		ErrNoFunds, ErrRevalidate,
	} {
		if !IsKnownCode(code) {
			t.Fatalf("expected known code: %s", code)
		}
	}
	if !IsKnownCode("") {
		t.Fatalf("empty code means success and is always known")
	}
	if IsKnownCode("E_MADE_UP") {
		t.Fatalf("unknown code accepted")
	}
}
