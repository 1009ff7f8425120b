package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"tradewinds.gg/internal/economy/inventory"
	"tradewinds.gg/internal/economy/ledger"
	"tradewinds.gg/internal/protocol"
	"tradewinds.gg/internal/trade"
	"tradewinds.gg/internal/tuning"
)

const defaultBagSlots = 40

// Provision builds a fresh player's bag and wallet. The default gives an
// empty bag; deployments hook their persistence here.
type Provision func(name string) (*inventory.Bag, *ledger.Wallet)

type Server struct {
	broker *trade.Broker
	tune   tuning.Tuning
	log    *log.Logger

	provision Provision
	cmdSchema *jsonschema.Schema

	upgrader websocket.Upgrader

	nextPlayerNum atomic.Uint64

	mu      sync.Mutex
	players map[string]*Player
}

func NewServer(broker *trade.Broker, tune tuning.Tuning, logger *log.Logger, schemaPath string, provision Provision) (*Server, error) {
	schema, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", schemaPath, err)
	}
	if provision == nil {
		provision = func(string) (*inventory.Bag, *ledger.Wallet) {
			return inventory.NewBag(defaultBagSlots), ledger.NewWallet(0, 0)
		}
	}
	return &Server{
		broker:    broker,
		tune:      tune,
		log:       logger,
		provision: provision,
		cmdSchema: schema,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		players: make(map[string]*Player),
	}, nil
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		p := s.handshake(conn, r.RemoteAddr)
		if p == nil {
			return
		}
		s.log.Printf("join %s (%s) from %s", p.id, p.name, p.origin)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-p.out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeTradeCmd {
				continue
			}
			cmd, ok := s.decodeCmd(p, msg)
			if !ok {
				continue
			}
			s.dispatch(p, cmd)
		}

		// Cleanup: a gone participant must not leave a live session behind.
		s.broker.Drop(p.id)
		s.unregister(p.id)
		s.log.Printf("leave %s", p.id)
	}
}

func (s *Server) handshake(conn *websocket.Conn, remoteAddr string) *Player {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil || hello.Type != protocol.TypeHello {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version || hello.PlayerName == "" {
		return nil
	}

	bag, wallet := s.provision(hello.PlayerName)
	p := &Player{
		id:       fmt.Sprintf("P%06d", s.nextPlayerNum.Add(1)),
		name:     hello.PlayerName,
		origin:   remoteAddr,
		location: "plaza", // single-map reference server
		bag:      bag,
		wallet:   wallet,
		out:      make(chan []byte, 256),
		stall:    make(map[string]bool),
	}
	s.mu.Lock()
	s.players[p.id] = p
	s.mu.Unlock()

	welcome, _ := json.Marshal(protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        p.id,
		Limits: protocol.TradeLimits{
			MaxOfferItems: s.tune.Trade.MaxOfferItems,
			MaxCurrency:   s.tune.Trade.MaxCurrency,
		},
	})
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, welcome); err != nil {
		s.unregister(p.id)
		return nil
	}
	return p
}

// decodeCmd validates the raw frame against the TRADE_CMD schema before
// unmarshalling, so malformed shapes are rejected uniformly.
func (s *Server) decodeCmd(p *Player, msg []byte) (protocol.TradeCmdMsg, bool) {
	var raw any
	if err := json.Unmarshal(msg, &raw); err != nil {
		return protocol.TradeCmdMsg{}, false
	}
	if err := s.cmdSchema.Validate(raw); err != nil {
		p.Notify(protocol.Event{"type": "TRADE_RESULT", "ok": false, "code": protocol.ErrProtoBadRequest, "msg": "bad command frame"})
		return protocol.TradeCmdMsg{}, false
	}
	var cmd protocol.TradeCmdMsg
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return protocol.TradeCmdMsg{}, false
	}
	if cmd.ProtocolVersion != protocol.Version {
		p.Notify(protocol.Event{"type": "TRADE_RESULT", "op": cmd.Op, "ref": cmd.ReqID, "ok": false, "code": protocol.ErrBadRequest, "msg": "unsupported protocol version"})
		return protocol.TradeCmdMsg{}, false
	}
	return cmd, true
}

func (s *Server) dispatch(p *Player, cmd protocol.TradeCmdMsg) {
	reject := func(code, msg string) {
		p.Notify(protocol.Event{"type": "TRADE_RESULT", "op": cmd.Op, "ref": cmd.ReqID, "ok": false, "code": code, "msg": msg})
	}

	switch cmd.Op {
	case protocol.OpOpenTrade:
		target, ok := s.player(cmd.To)
		if !ok {
			reject(protocol.ErrInvalidTarget, "target not found")
			return
		}
		sess, err := s.broker.Open(p, target)
		if err != nil {
			var ce *trade.CodeError
			if errors.As(err, &ce) {
				reject(ce.Code, ce.Msg)
			} else {
				reject(protocol.ErrInternal, "open failed")
			}
			return
		}
		p.Notify(protocol.Event{"type": "TRADE_OPEN", "trade_id": sess.ID(), "with": target.id, "ref": cmd.ReqID})
		target.Notify(protocol.Event{"type": "TRADE_OPEN", "trade_id": sess.ID(), "with": p.id})

	case protocol.OpOfferItem, protocol.OpSetMoney, protocol.OpSetPremium:
		window := time.Duration(s.tune.RateLimits.OfferWindowMs) * time.Millisecond
		if !p.rateAllow(window, s.tune.RateLimits.OfferMax) {
			reject(protocol.ErrRateLimit, "too many offers")
			return
		}
		sess, ok := s.broker.Lookup(p.id)
		if !ok {
			reject(protocol.ErrNotParticipant, "not in a trade")
			return
		}
		switch cmd.Op {
		case protocol.OpOfferItem:
			sess.AddItem(p.id, cmd.ItemID)
		case protocol.OpSetMoney:
			sess.SetCurrency(p.id, trade.CurrencyMoney, cmd.Amount)
		case protocol.OpSetPremium:
			sess.SetCurrency(p.id, trade.CurrencyPremium, cmd.Amount)
		}

	case protocol.OpAccept:
		sess, ok := s.broker.Lookup(p.id)
		if !ok {
			reject(protocol.ErrNotParticipant, "not in a trade")
			return
		}
		sess.Accept(p.id)

	case protocol.OpCancel:
		sess, ok := s.broker.Lookup(p.id)
		if !ok {
			reject(protocol.ErrNotParticipant, "not in a trade")
			return
		}
		sess.Cancel(p.id)
	}
}

func (s *Server) player(id string) (*Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	return p, ok
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	delete(s.players, id)
	s.mu.Unlock()
}
