package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeedBalance is a test helper that sets a wallet balance directly when
// using the in-memory store.
func SeedBalance(s Store, walletID uuid.UUID, balance decimal.Decimal) {
	if mem, ok := s.(*MemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		w := mem.wallets[walletID]
		w.Balance = balance
		mem.wallets[walletID] = w
	}
}

// RemoveWallet is a test helper that deletes a wallet from the in-memory
// store, simulating a destination that vanishes between a charge being
// requested and settled.
func RemoveWallet(s Store, walletID uuid.UUID) {
	if mem, ok := s.(*MemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		delete(mem.wallets, walletID)
	}
}
