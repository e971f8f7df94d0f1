package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boardbank/boardbank/internal/session"
	"github.com/boardbank/boardbank/internal/wallet"
)

var (
	// ErrNotFound signals a missing row inside a unit of work.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientFunds is the store-level backstop against a debit that
	// would drive a balance negative. The engine checks funds on the locked
	// row first, so this only fires if that check was skipped.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Store is the engine's persistence boundary. Within runs fn as one atomic
// unit: every write fn performs is either committed together or discarded
// together, and rows read for update stay locked until the unit ends so
// concurrent operations on the same wallet serialize.
type Store interface {
	Within(ctx context.Context, fn func(u UnitOfWork) error) error

	FindTransaction(ctx context.Context, id uuid.UUID) (Transaction, error)
	SessionTransactions(ctx context.Context, sessionID uuid.UUID) ([]Transaction, error)
	PendingSessionTransactions(ctx context.Context, sessionID uuid.UUID) ([]Transaction, error)
}

// UnitOfWork is the handle fn receives inside Store.Within. Credit and
// debit are the only balance mutations in the system and are reachable
// solely through here, so a balance change always shares its unit with the
// transaction record that explains it.
type UnitOfWork interface {
	WalletForUpdate(ctx context.Context, id uuid.UUID) (wallet.Wallet, error)
	CreditWallet(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	DebitWallet(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	Session(ctx context.Context, id uuid.UUID) (session.Session, error)

	TransactionForUpdate(ctx context.Context, id uuid.UUID, typ TransactionType) (Transaction, error)
	InsertTransaction(ctx context.Context, txn Transaction) error
	CompleteTransaction(ctx context.Context, txn Transaction) error
	HasInitialCredit(ctx context.Context, walletID uuid.UUID) (bool, error)
}
