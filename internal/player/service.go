package player

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boardbank/boardbank/internal/session"
	"github.com/boardbank/boardbank/internal/wallet"
)

const (
	minUserNameLen = 3
	maxUserNameLen = 50
)

var avatarColorPattern = regexp.MustCompile(`^#[A-Fa-f0-9]{6}$`)

// ErrSessionClosed indicates a join attempt against an ended session.
var ErrSessionClosed = errors.New("game session is closed")

// Service manages player enrollment. Joining a session creates the player
// and their zero-balance wallet; that wallet is the player's only one in
// the session and is never deleted.
type Service struct {
	repo     Repository
	sessions session.Repository
	wallets  wallet.Repository
}

// NewService builds a player service instance.
func NewService(repo Repository, sessions session.Repository, wallets wallet.Repository) *Service {
	return &Service{repo: repo, sessions: sessions, wallets: wallets}
}

// JoinInput captures the data required to enroll a player.
type JoinInput struct {
	GameSessionID uuid.UUID
	UserName      string
	AvatarColor   string
	IsBanker      bool
}

// Join enrolls a player into a session and provisions their wallet.
func (s *Service) Join(ctx context.Context, input JoinInput) (Player, wallet.Wallet, error) {
	if n := utf8.RuneCountInString(input.UserName); n < minUserNameLen || n > maxUserNameLen {
		return Player{}, wallet.Wallet{}, fmt.Errorf("user name must be between %d and %d characters", minUserNameLen, maxUserNameLen)
	}
	if !avatarColorPattern.MatchString(input.AvatarColor) {
		return Player{}, wallet.Wallet{}, fmt.Errorf("avatar color must be a #RRGGBB value")
	}

	sess, err := s.sessions.Get(ctx, input.GameSessionID)
	if err != nil {
		return Player{}, wallet.Wallet{}, err
	}
	if !sess.IsActive {
		return Player{}, wallet.Wallet{}, ErrSessionClosed
	}

	p := Player{
		ID:            uuid.New(),
		UserName:      input.UserName,
		AvatarColor:   input.AvatarColor,
		IsBanker:      input.IsBanker,
		GameSessionID: sess.ID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Player{}, wallet.Wallet{}, err
	}

	w := wallet.Wallet{
		ID:            uuid.New(),
		Balance:       decimal.Zero,
		UserID:        p.ID,
		GameSessionID: sess.ID,
	}
	if err := s.wallets.Create(ctx, w); err != nil {
		return Player{}, wallet.Wallet{}, err
	}

	return p, w, nil
}

// Get retrieves a player by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Player, error) {
	return s.repo.Get(ctx, id)
}

// ListBySession returns the players seated at a session.
func (s *Service) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Player, error) {
	return s.repo.ListBySession(ctx, sessionID)
}
