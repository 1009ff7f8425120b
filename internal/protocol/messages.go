package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	PlayerName      string     `json:"player_name"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	PlayerID        string      `json:"player_id"`
	Limits          TradeLimits `json:"limits"`
}

// TradeLimits tells the client the server-side caps so it can pre-validate.
type TradeLimits struct {
	MaxOfferItems int    `json:"max_offer_items"`
	MaxCurrency   uint64 `json:"max_currency"`
}

// Trade command ops.
const (
	OpOpenTrade  = "OPEN_TRADE"
	OpOfferItem  = "OFFER_ITEM"
	OpSetMoney   = "SET_MONEY"
	OpSetPremium = "SET_PREMIUM"
	OpAccept     = "ACCEPT"
	OpCancel     = "CANCEL"
)

// TRADE_CMD (client -> server): one negotiation action. Which fields are
// meaningful depends on Op; the schema enforces the shape per op.
type TradeCmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	Op              string `json:"op"`
	To              string `json:"to,omitempty"`      // OPEN_TRADE target
	ItemID          string `json:"item_id,omitempty"` // OFFER_ITEM
	Amount          uint64 `json:"amount,omitempty"`  // SET_MONEY / SET_PREMIUM
}

// EVENT (server -> client): wraps a protocol.Event for the wire.
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Event           Event  `json:"event"`
}
