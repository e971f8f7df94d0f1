package session

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	minNameLen = 3
	maxNameLen = 20
)

// Service exposes session lifecycle operations. Ending a session is the only
// transition: once ended it never reopens, and the ledger refuses to move
// money inside it.
type Service struct {
	repo Repository
}

// NewService builds a session service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create provisions a new active session.
func (s *Service) Create(ctx context.Context, name string) (Session, error) {
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return Session{}, fmt.Errorf("session name must be between %d and %d characters", minNameLen, maxNameLen)
	}

	sess := Session{
		ID:        uuid.New(),
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get retrieves a session by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Session, error) {
	return s.repo.Get(ctx, id)
}

// List returns all sessions.
func (s *Service) List(ctx context.Context) ([]Session, error) {
	return s.repo.List(ctx)
}

// End closes the session, freezing its economy.
func (s *Service) End(ctx context.Context, id uuid.UUID) (Session, error) {
	if err := s.repo.End(ctx, id, time.Now().UTC()); err != nil {
		return Session{}, err
	}
	return s.repo.Get(ctx, id)
}
