package player

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the player does not exist.
var ErrNotFound = errors.New("player not found")

// Repository persists players.
type Repository interface {
	Create(ctx context.Context, p Player) error
	Get(ctx context.Context, id uuid.UUID) (Player, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Player, error)
}

// PostgresRepository stores players in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a player record.
func (r *PostgresRepository) Create(ctx context.Context, p Player) error {
	_, err := r.db.Exec(ctx, `INSERT INTO users (id, user_name, avatar_color, is_banker, game_session_id)
        VALUES ($1, $2, $3, $4, $5)`, p.ID, p.UserName, p.AvatarColor, p.IsBanker, p.GameSessionID)
	return err
}

// Get fetches a player by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Player, error) {
	row := r.db.QueryRow(ctx, `SELECT id, user_name, avatar_color, is_banker, game_session_id
        FROM users WHERE id = $1`, id)
	return scanPlayer(row)
}

// ListBySession returns every player within a session.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Player, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_name, avatar_color, is_banker, game_session_id
        FROM users WHERE game_session_id = $1 ORDER BY user_name`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func scanPlayer(row pgx.Row) (Player, error) {
	var p Player
	if err := row.Scan(&p.ID, &p.UserName, &p.AvatarColor, &p.IsBanker, &p.GameSessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Player{}, ErrNotFound
		}
		return Player{}, err
	}
	return p, nil
}
