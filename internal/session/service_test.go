package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/boardbank/boardbank/internal/ledger"
	"github.com/boardbank/boardbank/internal/session"
)

func TestCreateValidatesName(t *testing.T) {
	svc := session.NewService(ledger.NewMemoryStore().Sessions())
	ctx := context.Background()

	for _, name := range []string{"", "ab", strings.Repeat("x", 21)} {
		if _, err := svc.Create(ctx, name); err == nil {
			t.Errorf("Create(%q) accepted an invalid name", name)
		}
	}

	sess, err := svc.Create(ctx, "game night")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !sess.IsActive {
		t.Error("new session is not active")
	}
	if sess.EndedAt != nil {
		t.Error("new session already has an end time")
	}
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc := session.NewService(ledger.NewMemoryStore().Sessions())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "game night"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "game night"); !errors.Is(err, session.ErrNameTaken) {
		t.Fatalf("duplicate Create error = %v, want ErrNameTaken", err)
	}
}

func TestEndIsPermanent(t *testing.T) {
	svc := session.NewService(ledger.NewMemoryStore().Sessions())
	ctx := context.Background()

	sess, err := svc.Create(ctx, "game night")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ended, err := svc.End(ctx, sess.ID)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if ended.IsActive {
		t.Error("ended session still active")
	}
	if ended.EndedAt == nil {
		t.Error("ended session has no end time")
	}

	if _, err := svc.End(ctx, sess.ID); !errors.Is(err, session.ErrAlreadyEnded) {
		t.Fatalf("second End error = %v, want ErrAlreadyEnded", err)
	}
}
