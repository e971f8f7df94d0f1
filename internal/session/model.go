package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the lifecycle container for one table of players. Its active
// flag gates every money movement in the ledger.
type Session struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
	EndedAt   *time.Time
}
