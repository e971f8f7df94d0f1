package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boardbank/boardbank/internal/notification"
	"github.com/boardbank/boardbank/internal/wallet"
)

// Caller carries the identity attributes the surrounding request layer
// resolved for the current caller. The engine never looks identities up
// itself; banker authorization arrives here as a plain flag.
type Caller struct {
	UserID   uuid.UUID
	IsBanker bool
}

// Engine is the sole mutator of wallet balances and transaction records.
// Every operation validates against current store state, then performs all
// of its writes inside one atomic unit of the Store.
type Engine struct {
	store    Store
	logger   *slog.Logger
	notifier notification.Notifier
}

// NewEngine builds a ledger engine over the given store.
func NewEngine(store Store, logger *slog.Logger, notifier notification.Notifier) *Engine {
	return &Engine{store: store, logger: logger, notifier: notifier}
}

// TransferInput captures a direct wallet-to-wallet transfer.
type TransferInput struct {
	FromWalletID uuid.UUID
	ToWalletID   uuid.UUID
	Amount       decimal.Decimal
	Description  string
}

// RequestTransferInput captures a Pix charge: a pending transfer whose
// paying wallet is unknown at request time.
type RequestTransferInput struct {
	ToWalletID  uuid.UUID
	Amount      decimal.Decimal
	Description string
}

// BankDebitRequestInput captures a pending debit owed to the bank by a yet
// unspecified wallet of the session.
type BankDebitRequestInput struct {
	GameSessionID uuid.UUID
	Amount        decimal.Decimal
	Description   string
	Caller        Caller
}

// BankAdjustmentInput captures a one-sided banker movement against a single
// wallet (bank credit, bonus or fine).
type BankAdjustmentInput struct {
	WalletID    uuid.UUID
	Amount      decimal.Decimal
	Description string
	Caller      Caller
}

// Transfer debits the source, credits the destination and records the
// completed PixTransfer, all in one atomic unit. Validation stops at the
// first violated rule and leaves state untouched.
func (e *Engine) Transfer(ctx context.Context, input TransferInput) (Result, error) {
	res, err := e.run(ctx, "transfer completed", func(ctx context.Context, u UnitOfWork) (*Transaction, error) {
		if input.FromWalletID == uuid.Nil || input.ToWalletID == uuid.Nil {
			return nil, fail(KindValidation, "source and destination wallets are required")
		}
		from, to, err := lockPair(ctx, u, input.FromWalletID, input.ToWalletID)
		if err != nil {
			return nil, err
		}
		if from.ID == to.ID {
			return nil, fail(KindValidation, "source and destination wallets must differ")
		}
		if err := checkDescription(input.Description, true); err != nil {
			return nil, err
		}
		if from.GameSessionID != to.GameSessionID {
			return nil, fail(KindCrossSession, "wallets must belong to the same game session")
		}
		if err := checkActiveSession(ctx, u, from.GameSessionID); err != nil {
			return nil, err
		}
		if err := checkAmount(input.Amount); err != nil {
			return nil, err
		}
		if from.Balance.LessThan(input.Amount) {
			return nil, fail(KindInsufficientFunds, "insufficient funds in the source wallet")
		}

		if err := u.DebitWallet(ctx, from.ID, input.Amount); err != nil {
			return nil, err
		}
		if err := u.CreditWallet(ctx, to.ID, input.Amount); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		txn := Transaction{
			ID:            uuid.New(),
			Type:          TypePixTransfer,
			FromWalletID:  &from.ID,
			ToWalletID:    &to.ID,
			Amount:        input.Amount,
			Description:   input.Description,
			IsCompleted:   true,
			GameSessionID: from.GameSessionID,
			CreatedAt:     now,
			CompletedAt:   &now,
		}
		if err := u.InsertTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return &txn, nil
	})
	e.announceCredit(ctx, res)
	return res, err
}

// RequestTransfer records a pending Pix charge against the destination
// wallet. No balance moves until a payer settles it.
func (e *Engine) RequestTransfer(ctx context.Context, input RequestTransferInput) (Result, error) {
	return e.run(ctx, "transfer request created", func(ctx context.Context, u UnitOfWork) (*Transaction, error) {
		if input.ToWalletID == uuid.Nil {
			return nil, fail(KindValidation, "a destination wallet is required")
		}
		to, err := u.WalletForUpdate(ctx, input.ToWalletID)
		if errors.Is(err, ErrNotFound) {
			return nil, fail(KindNotFound, "destination wallet not found")
		}
		if err != nil {
			return nil, err
		}
		if err := checkAmount(input.Amount); err != nil {
			return nil, err
		}
		if err := checkDescription(input.Description, true); err != nil {
			return nil, err
		}
		if err := checkActiveSession(ctx, u, to.GameSessionID); err != nil {
			return nil, err
		}

		txn := Transaction{
			ID:            uuid.New(),
			Type:          TypePixTransfer,
			ToWalletID:    &to.ID,
			Amount:        input.Amount,
			Description:   input.Description,
			GameSessionID: to.GameSessionID,
			CreatedAt:     time.Now().UTC(),
		}
		if err := u.InsertTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return &txn, nil
	})
}

// Settle binds the paying wallet to a pending Pix charge and applies the
// movement: debit payer, credit destination, mark completed. If the
// destination wallet cannot be re-fetched the whole unit rolls back,
// including the already-applied debit.
func (e *Engine) Settle(ctx context.Context, transactionID, fromWalletID uuid.UUID) (Result, error) {
	res, err := e.run(ctx, "transfer settled", func(ctx context.Context, u UnitOfWork) (*Transaction, error) {
		txn, err := u.TransactionForUpdate(ctx, transactionID, TypePixTransfer)
		if errors.Is(err, ErrNotFound) {
			return nil, fail(KindNotFound, "transaction not found")
		}
		if err != nil {
			return nil, err
		}
		if txn.FromWalletID != nil {
			return nil, fail(KindStateConflict, "transaction already has a source wallet")
		}
		if txn.IsCompleted {
			return nil, fail(KindStateConflict, "transaction has already been completed")
		}
		from, err := u.WalletForUpdate(ctx, fromWalletID)
		if errors.Is(err, ErrNotFound) {
			return nil, fail(KindNotFound, "source wallet not found")
		}
		if err != nil {
			return nil, err
		}
		if txn.ToWalletID != nil && from.ID == *txn.ToWalletID {
			return nil, fail(KindValidation, "source and destination wallets must differ")
		}
		if from.Balance.LessThan(txn.Amount) {
			return nil, fail(KindInsufficientFunds, "insufficient funds in the source wallet")
		}
		if from.GameSessionID != txn.GameSessionID {
			return nil, fail(KindCrossSession, "the source wallet does not belong to the transaction's game session")
		}
		if err := checkActiveSession(ctx, u, from.GameSessionID); err != nil {
			return nil, err
		}

		if err := u.DebitWallet(ctx, from.ID, txn.Amount); err != nil {
			return nil, err
		}
		// Re-fetch the destination under lock; it may have vanished since
		// the charge was requested.
		to, err := u.WalletForUpdate(ctx, *txn.ToWalletID)
		if errors.Is(err, ErrNotFound) {
			return nil, fail(KindNotFound, "destination wallet not found")
		}
		if err != nil {
			return nil, err
		}
		if err := u.CreditWallet(ctx, to.ID, txn.Amount); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		txn.FromWalletID = &from.ID
		txn.IsCompleted = true
		txn.CompletedAt = &now
		if err := u.CompleteTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return &txn, nil
	})
	e.announceCredit(ctx, res)
	return res, err
}

// RequestBankDebit records a pending debit owed by the session with no
// wallet bound at all. Only the banker may raise one.
func (e *Engine) RequestBankDebit(ctx context.Context, input BankDebitRequestInput) (Result, error) {
	return e.run(ctx, "bank debit request created", func(ctx context.Context, u UnitOfWork) (*Transaction, error) {
		sess, err := u.Session(ctx, input.GameSessionID)
		if errors.Is(err, ErrNotFound) {
			return nil, fail(KindNotFound, "game session not found")
		}
		if err != nil {
			return nil, err
		}
		if err := checkBanker(input.Caller, "request a bank debit"); err != nil {
			return nil, err
		}
		if err := checkDescription(input.Description, true); err != nil {
			return nil, err
		}
		if err := checkAmount(input.Amount); err != nil {
			return nil, err
		}

		txn := Transaction{
			ID:            uuid.New(),
			Type:          TypeBankDebit,
			Amount:        input.Amount,
			Description:   input.Description,
			GameSessionID: sess.ID,
			CreatedAt:     time.Now().UTC(),
		}
		if err := u.InsertTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return &txn, nil
	})
}

// PayBankDebit settles a pending bank debit from the given wallet. The
// money leaves the game: there is no counterpart credit.
func (e *Engine) PayBankDebit(ctx context.Context, transactionID, fromWalletID uuid.UUID) (Result, error) {
	return e.run(ctx, "bank debit paid", func(ctx context.Context, u UnitOfWork) (*Transaction, error) {
		txn, err := u.TransactionForUpdate(ctx, transactionID, TypeBankDebit)
		if errors.Is(err, ErrNotFound) {
			return nil, fail(KindNotFound, "transaction not found")
		}
		if err != nil {
			return nil, err
		}
		if txn.IsCompleted {
			return nil, fail(KindStateConflict, "transaction has already been completed")
		}
		from, err := u.WalletForUpdate(ctx, fromWalletID)
		if errors.Is(err, ErrNotFound) {
			return nil, fail(KindNotFound, "source wallet not found")
		}
		if err != nil {
			return nil, err
		}
		if from.Balance.LessThan(txn.Amount) {
			return nil, fail(KindInsufficientFunds, "insufficient funds in the source wallet")
		}
		if from.GameSessionID != txn.GameSessionID {
			return nil, fail(KindCrossSession, "the source wallet does not belong to the transaction's game session")
		}
		if err := checkActiveSession(ctx, u, from.GameSessionID); err != nil {
			return nil, err
		}

		if err := u.DebitWallet(ctx, from.ID, txn.Amount); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		txn.FromWalletID = &from.ID
		txn.IsCompleted = true
		txn.CompletedAt = &now
		if err := u.CompleteTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return &txn, nil
	})
}

// ApplyInitialCredit grants the fixed starting credit to a wallet exactly
// once. A repeat attempt fails with KindAlreadyApplied, which callers may
// treat as a benign no-op.
func (e *Engine) ApplyInitialCredit(ctx context.Context, walletID uuid.UUID) (Result, error) {
	return e.run(ctx, "initial credit applied", func(ctx context.Context, u UnitOfWork) (*Transaction, error) {
		w, err := u.WalletForUpdate(ctx, walletID)
		if errors.Is(err, ErrNotFound) {
			return nil, fail(KindNotFound, "wallet not found")
		}
		if err != nil {
			return nil, err
		}
		credited, err := u.HasInitialCredit(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		if credited {
			return nil, fail(KindAlreadyApplied, "initial credit has already been applied")
		}

		if err := u.CreditWallet(ctx, w.ID, InitialCreditAmount); err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		txn := Transaction{
			ID:            uuid.New(),
			Type:          TypeInitialCredit,
			ToWalletID:    &w.ID,
			Amount:        InitialCreditAmount,
			Description:   initialCreditDescription,
			IsCompleted:   true,
			GameSessionID: w.GameSessionID,
			CreatedAt:     now,
			CompletedAt:   &now,
		}
		if err := u.InsertTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return &txn, nil
	})
}

// GrantBankCredit moves money from the bank into a wallet.
func (e *Engine) GrantBankCredit(ctx context.Context, input BankAdjustmentInput) (Result, error) {
	return e.bankAdjust(ctx, input, TypeBankCredit, "grant a bank credit", "bank credit granted")
}

// GrantBonus rewards a wallet with a bonus from the bank.
func (e *Engine) GrantBonus(ctx context.Context, input BankAdjustmentInput) (Result, error) {
	return e.bankAdjust(ctx, input, TypeBonus, "grant a bonus", "bonus granted")
}

// ImposeFine charges a wallet; the amount leaves the game.
func (e *Engine) ImposeFine(ctx context.Context, input BankAdjustmentInput) (Result, error) {
	return e.bankAdjust(ctx, input, TypeFine, "impose a fine", "fine imposed")
}

// bankAdjust records a one-sided, immediately completed banker movement.
// Credits bind the wallet as destination, fines bind it as source.
func (e *Engine) bankAdjust(ctx context.Context, input BankAdjustmentInput, typ TransactionType, action, successMsg string) (Result, error) {
	return e.run(ctx, successMsg, func(ctx context.Context, u UnitOfWork) (*Transaction, error) {
		w, err := u.WalletForUpdate(ctx, input.WalletID)
		if errors.Is(err, ErrNotFound) {
			return nil, fail(KindNotFound, "wallet not found")
		}
		if err != nil {
			return nil, err
		}
		if err := checkBanker(input.Caller, action); err != nil {
			return nil, err
		}
		if err := checkDescription(input.Description, false); err != nil {
			return nil, err
		}
		if err := checkAmount(input.Amount); err != nil {
			return nil, err
		}
		if err := checkActiveSession(ctx, u, w.GameSessionID); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		txn := Transaction{
			ID:            uuid.New(),
			Type:          typ,
			Amount:        input.Amount,
			Description:   input.Description,
			IsCompleted:   true,
			GameSessionID: w.GameSessionID,
			CreatedAt:     now,
			CompletedAt:   &now,
		}
		if typ == TypeFine {
			if w.Balance.LessThan(input.Amount) {
				return nil, fail(KindInsufficientFunds, "insufficient funds in the source wallet")
			}
			if err := u.DebitWallet(ctx, w.ID, input.Amount); err != nil {
				return nil, err
			}
			txn.FromWalletID = &w.ID
		} else {
			if err := u.CreditWallet(ctx, w.ID, input.Amount); err != nil {
				return nil, err
			}
			txn.ToWalletID = &w.ID
		}
		if err := u.InsertTransaction(ctx, txn); err != nil {
			return nil, err
		}
		return &txn, nil
	})
}

// Transaction retrieves a single ledger record.
func (e *Engine) Transaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return e.store.FindTransaction(ctx, id)
}

// SessionHistory lists the transactions of a session, newest first.
func (e *Engine) SessionHistory(ctx context.Context, sessionID uuid.UUID) ([]Transaction, error) {
	return e.store.SessionTransactions(ctx, sessionID)
}

// PendingCharges lists the session's open requests awaiting settlement.
func (e *Engine) PendingCharges(ctx context.Context, sessionID uuid.UUID) ([]Transaction, error) {
	return e.store.PendingSessionTransactions(ctx, sessionID)
}

// run executes fn inside one atomic unit, translating a business failure
// into a Failed result and letting infrastructure errors propagate.
func (e *Engine) run(ctx context.Context, successMsg string, fn func(ctx context.Context, u UnitOfWork) (*Transaction, error)) (Result, error) {
	var txn *Transaction
	err := e.store.Within(ctx, func(u UnitOfWork) error {
		t, err := fn(ctx, u)
		if err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		var f *failure
		if errors.As(err, &f) {
			return Failed(f.kind, f.message), nil
		}
		return Result{}, fmt.Errorf("ledger unit of work: %w", err)
	}
	if e.logger != nil {
		e.logger.Info("transaction recorded",
			"id", txn.ID.String(),
			"type", string(txn.Type),
			"amount", txn.Amount.StringFixed(2),
			"completed", txn.IsCompleted)
	}
	return Successful(txn, successMsg), nil
}

// announceCredit notifies the credited wallet after a committed transfer.
func (e *Engine) announceCredit(ctx context.Context, res Result) {
	if e.notifier == nil || !res.Success || res.Transaction == nil || res.Transaction.ToWalletID == nil {
		return
	}
	txn := res.Transaction
	_ = e.notifier.Send(ctx, notification.Message{
		Kind:     notification.KindTransferReceived,
		WalletID: txn.ToWalletID.String(),
		Body:     fmt.Sprintf("You received %s", txn.Amount.StringFixed(2)),
	})
}

// lockPair locks both wallets of a transfer in a deterministic id order so
// two opposing transfers cannot deadlock, then returns them as (from, to).
func lockPair(ctx context.Context, u UnitOfWork, fromID, toID uuid.UUID) (wallet.Wallet, wallet.Wallet, error) {
	if fromID == toID {
		w, err := u.WalletForUpdate(ctx, fromID)
		if errors.Is(err, ErrNotFound) {
			return wallet.Wallet{}, wallet.Wallet{}, fail(KindNotFound, "source wallet not found")
		}
		if err != nil {
			return wallet.Wallet{}, wallet.Wallet{}, err
		}
		return w, w, nil
	}

	first, second := fromID, toID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}
	loaded := make(map[uuid.UUID]wallet.Wallet, 2)
	for _, id := range []uuid.UUID{first, second} {
		w, err := u.WalletForUpdate(ctx, id)
		if errors.Is(err, ErrNotFound) {
			if id == fromID {
				return wallet.Wallet{}, wallet.Wallet{}, fail(KindNotFound, "source wallet not found")
			}
			return wallet.Wallet{}, wallet.Wallet{}, fail(KindNotFound, "destination wallet not found")
		}
		if err != nil {
			return wallet.Wallet{}, wallet.Wallet{}, err
		}
		loaded[id] = w
	}
	return loaded[fromID], loaded[toID], nil
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fail(KindValidation, "amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return fail(KindValidation, "amount must have at most two decimal places")
	}
	return nil
}

func checkDescription(description string, required bool) error {
	if required && strings.TrimSpace(description) == "" {
		return fail(KindValidation, "a description is required")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return fail(KindValidation, "description must be at most %d characters", maxDescriptionLen)
	}
	return nil
}

func checkBanker(c Caller, action string) error {
	if !c.IsBanker {
		return fail(KindValidation, "only the banker can %s", action)
	}
	return nil
}

func checkActiveSession(ctx context.Context, u UnitOfWork, sessionID uuid.UUID) error {
	sess, err := u.Session(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return fail(KindNotFound, "game session not found")
	}
	if err != nil {
		return err
	}
	if !sess.IsActive {
		return fail(KindSessionInactive, "the game session is closed")
	}
	return nil
}
