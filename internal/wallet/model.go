package wallet

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds one player's balance inside one game session. Balances are
// exact base-10 values with two fractional digits and never go negative;
// only the ledger engine mutates them.
type Wallet struct {
	ID            uuid.UUID
	Balance       decimal.Decimal
	UserID        uuid.UUID
	GameSessionID uuid.UUID
}
