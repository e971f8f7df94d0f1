package player

import "github.com/google/uuid"

// Player is a participant in one game session. The banker flag marks the
// session's designated banker; the ledger engine receives it as an explicit
// caller attribute rather than reading it itself.
type Player struct {
	ID            uuid.UUID
	UserName      string
	AvatarColor   string
	IsBanker      bool
	GameSessionID uuid.UUID
}
