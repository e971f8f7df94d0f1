package player_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/boardbank/boardbank/internal/ledger"
	"github.com/boardbank/boardbank/internal/player"
	"github.com/boardbank/boardbank/internal/session"
	"github.com/boardbank/boardbank/internal/wallet"
)

func newService(t *testing.T) (*player.Service, *ledger.MemoryStore, session.Session) {
	t.Helper()
	store := ledger.NewMemoryStore()
	svc := player.NewService(store.Players(), store.Sessions(), store.Wallets())

	sess := session.Session{ID: uuid.New(), Name: "game night", IsActive: true, CreatedAt: time.Now().UTC()}
	if err := store.Sessions().Create(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return svc, store, sess
}

func TestJoinCreatesPlayerAndWallet(t *testing.T) {
	svc, store, sess := newService(t)
	ctx := context.Background()

	p, w, err := svc.Join(ctx, player.JoinInput{
		GameSessionID: sess.ID,
		UserName:      "alice",
		AvatarColor:   "#FF8800",
		IsBanker:      true,
	})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !p.IsBanker {
		t.Error("banker flag not carried over")
	}
	if p.GameSessionID != sess.ID {
		t.Errorf("player session = %s, want %s", p.GameSessionID, sess.ID)
	}
	if w.UserID != p.ID || w.GameSessionID != sess.ID {
		t.Errorf("wallet bound to %s/%s, want %s/%s", w.UserID, w.GameSessionID, p.ID, sess.ID)
	}
	if !w.Balance.IsZero() {
		t.Errorf("new wallet balance = %s, want 0", w.Balance)
	}

	got, err := store.Wallets().GetByUser(ctx, p.ID, sess.ID)
	if err != nil {
		t.Fatalf("wallet lookup: %v", err)
	}
	if got.ID != w.ID {
		t.Errorf("stored wallet id = %s, want %s", got.ID, w.ID)
	}
}

func TestJoinValidation(t *testing.T) {
	svc, _, sess := newService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input player.JoinInput
	}{
		{"short user name", player.JoinInput{GameSessionID: sess.ID, UserName: "ab", AvatarColor: "#FF8800"}},
		{"bad color", player.JoinInput{GameSessionID: sess.ID, UserName: "alice", AvatarColor: "orange"}},
		{"missing hash", player.JoinInput{GameSessionID: sess.ID, UserName: "alice", AvatarColor: "FF8800"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.Join(ctx, tc.input); err == nil {
				t.Error("invalid input was accepted")
			}
		})
	}
}

func TestJoinUnknownSession(t *testing.T) {
	svc, _, _ := newService(t)

	_, _, err := svc.Join(context.Background(), player.JoinInput{
		GameSessionID: uuid.New(), UserName: "alice", AvatarColor: "#FF8800",
	})
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Join error = %v, want session.ErrNotFound", err)
	}
}

func TestJoinClosedSession(t *testing.T) {
	svc, store, sess := newService(t)
	ctx := context.Background()

	if err := store.Sessions().End(ctx, sess.ID, time.Now().UTC()); err != nil {
		t.Fatalf("end session: %v", err)
	}

	_, _, err := svc.Join(ctx, player.JoinInput{
		GameSessionID: sess.ID, UserName: "alice", AvatarColor: "#FF8800",
	})
	if !errors.Is(err, player.ErrSessionClosed) {
		t.Fatalf("Join error = %v, want ErrSessionClosed", err)
	}
}

func TestJoinTwiceSameSession(t *testing.T) {
	svc, store, sess := newService(t)
	ctx := context.Background()

	p, _, err := svc.Join(ctx, player.JoinInput{
		GameSessionID: sess.ID, UserName: "alice", AvatarColor: "#FF8800",
	})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	// A second wallet for the same user in the same session is refused at
	// the repository level.
	err = store.Wallets().Create(ctx, wallet.Wallet{
		ID: uuid.New(), UserID: p.ID, GameSessionID: sess.ID,
	})
	if !errors.Is(err, wallet.ErrDuplicate) {
		t.Fatalf("duplicate wallet error = %v, want ErrDuplicate", err)
	}
}
