package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boardbank/boardbank/internal/session"
	"github.com/boardbank/boardbank/internal/wallet"
)

func TestMemoryStoreRollsBackFailedUnit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	w := wallet.Wallet{ID: uuid.New(), UserID: uuid.New(), GameSessionID: uuid.New()}
	if err := store.Wallets().Create(ctx, w); err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	boom := errors.New("boom")
	err := store.Within(ctx, func(u UnitOfWork) error {
		if err := u.CreditWallet(ctx, w.ID, decimal.NewFromInt(100)); err != nil {
			return err
		}
		if err := u.InsertTransaction(ctx, Transaction{ID: uuid.New(), Type: TypeBonus, GameSessionID: w.GameSessionID}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Within error = %v, want boom", err)
	}

	got, err := store.Wallets().Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if !got.Balance.IsZero() {
		t.Errorf("balance = %s after rollback, want 0", got.Balance)
	}
	txns, err := store.SessionTransactions(ctx, w.GameSessionID)
	if err != nil {
		t.Fatalf("session transactions: %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("got %d transactions after rollback, want none", len(txns))
	}
}

func TestMemoryStoreCommitsSuccessfulUnit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	w := wallet.Wallet{ID: uuid.New(), UserID: uuid.New(), GameSessionID: uuid.New()}
	if err := store.Wallets().Create(ctx, w); err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	err := store.Within(ctx, func(u UnitOfWork) error {
		return u.CreditWallet(ctx, w.ID, decimal.NewFromInt(42))
	})
	if err != nil {
		t.Fatalf("Within: %v", err)
	}

	got, _ := store.Wallets().Get(ctx, w.ID)
	if !got.Balance.Equal(decimal.NewFromInt(42)) {
		t.Errorf("balance = %s, want 42", got.Balance)
	}
}

func TestMemUnitDebitGuardsBalance(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	w := wallet.Wallet{ID: uuid.New(), UserID: uuid.New(), GameSessionID: uuid.New()}
	if err := store.Wallets().Create(ctx, w); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	SeedBalance(store, w.ID, decimal.NewFromInt(10))

	err := store.Within(ctx, func(u UnitOfWork) error {
		return u.DebitWallet(ctx, w.ID, decimal.NewFromInt(11))
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Within error = %v, want ErrInsufficientFunds", err)
	}
}

func TestMemorySessionRepository(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := store.Sessions()

	sess := session.Session{ID: uuid.New(), Name: "tuesday", IsActive: true, CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := session.Session{ID: uuid.New(), Name: "tuesday", IsActive: true, CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, dup); !errors.Is(err, session.ErrNameTaken) {
		t.Fatalf("duplicate name error = %v, want ErrNameTaken", err)
	}

	if err := repo.End(ctx, sess.ID, time.Now().UTC()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := repo.End(ctx, sess.ID, time.Now().UTC()); !errors.Is(err, session.ErrAlreadyEnded) {
		t.Fatalf("second end error = %v, want ErrAlreadyEnded", err)
	}

	got, err := repo.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsActive || got.EndedAt == nil {
		t.Errorf("session not marked ended: %+v", got)
	}
}

func TestMemoryWalletRepositoryUniquePerSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := store.Wallets()

	userID, sessionID := uuid.New(), uuid.New()
	if err := repo.Create(ctx, wallet.Wallet{ID: uuid.New(), UserID: userID, GameSessionID: sessionID}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(ctx, wallet.Wallet{ID: uuid.New(), UserID: userID, GameSessionID: sessionID})
	if !errors.Is(err, wallet.ErrDuplicate) {
		t.Fatalf("duplicate wallet error = %v, want ErrDuplicate", err)
	}

	if _, err := repo.GetByUser(ctx, userID, sessionID); err != nil {
		t.Fatalf("get by user: %v", err)
	}
}
