package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType discriminates the kinds of money movement the engine records.
type TransactionType string

const (
	// TypePixTransfer moves money between two player wallets. It is the only
	// type that may start pending: a charge is requested first and a payer
	// binds to it later.
	TypePixTransfer TransactionType = "PIX_TRANSFER"
	// TypeBankCredit moves money from the bank into a wallet.
	TypeBankCredit TransactionType = "BANK_CREDIT"
	// TypeBankDebit moves money out of a wallet back to the bank. Created
	// pending against a session with no wallet bound until someone pays.
	TypeBankDebit TransactionType = "BANK_DEBIT"
	// TypeFine charges a wallet.
	TypeFine TransactionType = "FINE"
	// TypeBonus rewards a wallet.
	TypeBonus TransactionType = "BONUS"
	// TypeInitialCredit is the one-time starting credit for a wallet.
	TypeInitialCredit TransactionType = "INITIAL_CREDIT"
)

// Transaction is one ledger record. Once completed it is immutable: the
// wallet bindings and completion timestamp never change again.
type Transaction struct {
	ID            uuid.UUID
	Type          TransactionType
	FromWalletID  *uuid.UUID
	ToWalletID    *uuid.UUID
	Amount        decimal.Decimal
	Description   string
	IsCompleted   bool
	GameSessionID uuid.UUID
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// Pending reports whether the transaction still awaits settlement.
func (t Transaction) Pending() bool {
	return !t.IsCompleted
}

// InitialCreditAmount is the fixed starting credit every wallet may receive
// exactly once.
var InitialCreditAmount = decimal.New(150000, -2)

const initialCreditDescription = "Initial credit"

const maxDescriptionLen = 250
