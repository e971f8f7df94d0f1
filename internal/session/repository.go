package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the session does not exist.
	ErrNotFound = errors.New("game session not found")

	// ErrNameTaken indicates another session already uses the requested name.
	ErrNameTaken = errors.New("session name already in use")

	// ErrAlreadyEnded indicates the session was ended previously.
	ErrAlreadyEnded = errors.New("game session already ended")
)

// Repository persists game sessions.
type Repository interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id uuid.UUID) (Session, error)
	List(ctx context.Context) ([]Session, error)
	End(ctx context.Context, id uuid.UUID, endedAt time.Time) error
}

// PostgresRepository stores game sessions in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a session record. The name carries a unique constraint.
func (r *PostgresRepository) Create(ctx context.Context, s Session) error {
	_, err := r.db.Exec(ctx, `INSERT INTO game_sessions (id, name, is_active, created_at, ended_at)
        VALUES ($1, $2, $3, $4, $5)`, s.ID, s.Name, s.IsActive, s.CreatedAt.UTC(), s.EndedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrNameTaken
		}
		return err
	}
	return nil
}

// Get fetches a session by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Session, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, is_active, created_at, ended_at
        FROM game_sessions WHERE id = $1`, id)
	return scanSession(row)
}

// List returns every session ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]Session, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, is_active, created_at, ended_at
        FROM game_sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// End flips the session inactive and records when it closed. Ending an
// already-ended session is rejected so endedAt never moves.
func (r *PostgresRepository) End(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE game_sessions SET is_active = FALSE, ended_at = $2
        WHERE id = $1 AND is_active`, id, endedAt.UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyEnded
	}
	return nil
}

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	if err := row.Scan(&s.ID, &s.Name, &s.IsActive, &s.CreatedAt, &s.EndedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}
