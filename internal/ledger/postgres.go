package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/boardbank/boardbank/internal/session"
	"github.com/boardbank/boardbank/internal/wallet"
)

// PostgresStore implements Store on PostgreSQL. Each unit of work is one
// database transaction; wallet rows are locked with SELECT ... FOR UPDATE so
// concurrent operations touching the same wallet serialize at the store.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Within runs fn inside one database transaction, committing only if fn
// returns nil.
func (s *PostgresStore) Within(ctx context.Context, fn func(u UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgUnit{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// FindTransaction fetches a single transaction by id.
func (s *PostgresStore) FindTransaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	row := s.db.QueryRow(ctx, selectTransaction+` WHERE id = $1`, id)
	return scanTransaction(row)
}

// SessionTransactions lists a session's transactions, newest first.
func (s *PostgresStore) SessionTransactions(ctx context.Context, sessionID uuid.UUID) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, selectTransaction+` WHERE game_session_id = $1 ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// PendingSessionTransactions lists a session's open requests.
func (s *PostgresStore) PendingSessionTransactions(ctx context.Context, sessionID uuid.UUID) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, selectTransaction+` WHERE game_session_id = $1 AND NOT is_completed ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

const selectTransaction = `SELECT id, type, from_wallet_id, to_wallet_id, amount::text,
        COALESCE(description, ''), is_completed, game_session_id, created_at, completed_at
        FROM transactions`

type pgUnit struct {
	tx pgx.Tx
}

func (u *pgUnit) WalletForUpdate(ctx context.Context, id uuid.UUID) (wallet.Wallet, error) {
	row := u.tx.QueryRow(ctx, `SELECT id, balance::text, user_id, game_session_id
        FROM wallets WHERE id = $1 FOR UPDATE`, id)
	var (
		w       wallet.Wallet
		balance string
	)
	if err := row.Scan(&w.ID, &balance, &w.UserID, &w.GameSessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return wallet.Wallet{}, ErrNotFound
		}
		return wallet.Wallet{}, err
	}
	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return wallet.Wallet{}, err
	}
	w.Balance = parsed
	return w, nil
}

func (u *pgUnit) CreditWallet(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	cmd, err := u.tx.Exec(ctx, `UPDATE wallets SET balance = balance + $2::numeric WHERE id = $1`,
		id, amount.StringFixed(2))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (u *pgUnit) DebitWallet(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	// The balance guard mirrors the engine's funds check on the locked row;
	// it keeps a missed check from ever writing a negative balance.
	cmd, err := u.tx.Exec(ctx, `UPDATE wallets SET balance = balance - $2::numeric
        WHERE id = $1 AND balance >= $2::numeric`, id, amount.StringFixed(2))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (u *pgUnit) Session(ctx context.Context, id uuid.UUID) (session.Session, error) {
	row := u.tx.QueryRow(ctx, `SELECT id, name, is_active, created_at, ended_at
        FROM game_sessions WHERE id = $1`, id)
	var s session.Session
	if err := row.Scan(&s.ID, &s.Name, &s.IsActive, &s.CreatedAt, &s.EndedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, ErrNotFound
		}
		return session.Session{}, err
	}
	return s, nil
}

func (u *pgUnit) TransactionForUpdate(ctx context.Context, id uuid.UUID, typ TransactionType) (Transaction, error) {
	row := u.tx.QueryRow(ctx, selectTransaction+` WHERE id = $1 AND type = $2 FOR UPDATE`, id, string(typ))
	return scanTransaction(row)
}

func (u *pgUnit) InsertTransaction(ctx context.Context, txn Transaction) error {
	_, err := u.tx.Exec(ctx, `INSERT INTO transactions
        (id, type, from_wallet_id, to_wallet_id, amount, description, is_completed, game_session_id, created_at, completed_at)
        VALUES ($1, $2, $3, $4, $5::numeric, NULLIF($6, ''), $7, $8, $9, $10)`,
		txn.ID, string(txn.Type), txn.FromWalletID, txn.ToWalletID, txn.Amount.StringFixed(2),
		txn.Description, txn.IsCompleted, txn.GameSessionID, txn.CreatedAt.UTC(), txn.CompletedAt)
	return err
}

func (u *pgUnit) CompleteTransaction(ctx context.Context, txn Transaction) error {
	// Guarded on is_completed so a completed record can never be rebound.
	cmd, err := u.tx.Exec(ctx, `UPDATE transactions
        SET from_wallet_id = $2, is_completed = TRUE, completed_at = $3
        WHERE id = $1 AND NOT is_completed`,
		txn.ID, txn.FromWalletID, txn.CompletedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (u *pgUnit) HasInitialCredit(ctx context.Context, walletID uuid.UUID) (bool, error) {
	var exists bool
	err := u.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions
        WHERE to_wallet_id = $1 AND type = $2)`, walletID, string(TypeInitialCredit)).Scan(&exists)
	return exists, err
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		txn    Transaction
		typ    string
		amount string
	)
	if err := row.Scan(&txn.ID, &typ, &txn.FromWalletID, &txn.ToWalletID, &amount,
		&txn.Description, &txn.IsCompleted, &txn.GameSessionID, &txn.CreatedAt, &txn.CompletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, err
	}
	txn.Type = TransactionType(typ)
	txn.Amount = parsed
	return txn, nil
}

func collectTransactions(rows pgx.Rows) ([]Transaction, error) {
	defer rows.Close()
	var txns []Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
