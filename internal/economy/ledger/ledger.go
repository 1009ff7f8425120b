// Package ledger is the reference two-currency wallet.
package ledger

import (
	"sync"

	"tradewinds.gg/internal/trade"
)

// Wallet holds a player's money and premium-currency balances.
type Wallet struct {
	mu      sync.Mutex
	money   uint64
	premium uint64
}

func NewWallet(money, premium uint64) *Wallet {
	return &Wallet{money: money, premium: premium}
}

func (w *Wallet) Balance(kind trade.Currency) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if kind == trade.CurrencyPremium {
		return w.premium
	}
	return w.money
}

// Debit removes amount from the balance. It reports false and changes
// nothing when the balance does not cover the amount; it never underflows.
func (w *Wallet) Debit(kind trade.Currency, amount uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if kind == trade.CurrencyPremium {
		if w.premium < amount {
			return false
		}
		w.premium -= amount
		return true
	}
	if w.money < amount {
		return false
	}
	w.money -= amount
	return true
}

func (w *Wallet) Credit(kind trade.Currency, amount uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if kind == trade.CurrencyPremium {
		w.premium += amount
		return
	}
	w.money += amount
}
