package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the wallet does not exist.
	ErrNotFound = errors.New("wallet not found")

	// ErrDuplicate indicates the player already owns a wallet in this session.
	ErrDuplicate = errors.New("player already has a wallet in this session")
)

// Repository persists wallets. Balance mutation is deliberately absent:
// balances change only through the ledger engine's atomic unit.
type Repository interface {
	Create(ctx context.Context, w Wallet) error
	Get(ctx context.Context, id uuid.UUID) (Wallet, error)
	GetByUser(ctx context.Context, userID, sessionID uuid.UUID) (Wallet, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Wallet, error)
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet. The (user_id, game_session_id) pair is unique.
func (r *PostgresRepository) Create(ctx context.Context, w Wallet) error {
	_, err := r.db.Exec(ctx, `INSERT INTO wallets (id, balance, user_id, game_session_id)
        VALUES ($1, $2::numeric, $3, $4)`, w.ID, w.Balance.StringFixed(2), w.UserID, w.GameSessionID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Get fetches a wallet by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT id, balance::text, user_id, game_session_id
        FROM wallets WHERE id = $1`, id)
	return scanWallet(row)
}

// GetByUser fetches the wallet a player owns within a session.
func (r *PostgresRepository) GetByUser(ctx context.Context, userID, sessionID uuid.UUID) (Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT id, balance::text, user_id, game_session_id
        FROM wallets WHERE user_id = $1 AND game_session_id = $2`, userID, sessionID)
	return scanWallet(row)
}

// ListBySession returns every wallet belonging to a session.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Wallet, error) {
	rows, err := r.db.Query(ctx, `SELECT id, balance::text, user_id, game_session_id
        FROM wallets WHERE game_session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w       Wallet
		balance string
	)
	if err := row.Scan(&w.ID, &balance, &w.UserID, &w.GameSessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return Wallet{}, err
	}
	w.Balance = parsed
	return w, nil
}
