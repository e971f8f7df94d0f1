package ledger

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boardbank/boardbank/internal/player"
	"github.com/boardbank/boardbank/internal/session"
	"github.com/boardbank/boardbank/internal/wallet"
)

// MemoryStore is an in-memory database for tests and dev mode. It implements
// the ledger Store plus the session, player and wallet repositories, so a
// single instance backs every service the way one PostgreSQL schema would.
//
// A unit of work holds the store mutex for its whole duration: concurrent
// operations are serialized, and a failed unit restores the pre-unit
// snapshot so no partial effect survives.
type MemoryStore struct {
	mu           sync.Mutex
	sessions     map[uuid.UUID]session.Session
	players      map[uuid.UUID]player.Player
	wallets      map[uuid.UUID]wallet.Wallet
	transactions map[uuid.UUID]Transaction
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[uuid.UUID]session.Session),
		players:      make(map[uuid.UUID]player.Player),
		wallets:      make(map[uuid.UUID]wallet.Wallet),
		transactions: make(map[uuid.UUID]Transaction),
	}
}

// Within runs fn atomically against the store. On error every map is
// restored to its pre-unit state.
func (s *MemoryStore) Within(_ context.Context, fn func(u UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapSessions := maps.Clone(s.sessions)
	snapWallets := maps.Clone(s.wallets)
	snapTransactions := maps.Clone(s.transactions)

	if err := fn(&memUnit{store: s}); err != nil {
		s.sessions = snapSessions
		s.wallets = snapWallets
		s.transactions = snapTransactions
		return err
	}
	return nil
}

// FindTransaction fetches a single transaction by id.
func (s *MemoryStore) FindTransaction(_ context.Context, id uuid.UUID) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return txn, nil
}

// SessionTransactions lists a session's transactions, newest first.
func (s *MemoryStore) SessionTransactions(_ context.Context, sessionID uuid.UUID) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var txns []Transaction
	for _, txn := range s.transactions {
		if txn.GameSessionID == sessionID {
			txns = append(txns, txn)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].CreatedAt.After(txns[j].CreatedAt) })
	return txns, nil
}

// PendingSessionTransactions lists a session's open requests.
func (s *MemoryStore) PendingSessionTransactions(_ context.Context, sessionID uuid.UUID) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var txns []Transaction
	for _, txn := range s.transactions {
		if txn.GameSessionID == sessionID && !txn.IsCompleted {
			txns = append(txns, txn)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].CreatedAt.Before(txns[j].CreatedAt) })
	return txns, nil
}

// memUnit mutates the store directly; the Within mutex already serializes it.
type memUnit struct {
	store *MemoryStore
}

func (u *memUnit) WalletForUpdate(_ context.Context, id uuid.UUID) (wallet.Wallet, error) {
	w, ok := u.store.wallets[id]
	if !ok {
		return wallet.Wallet{}, ErrNotFound
	}
	return w, nil
}

func (u *memUnit) CreditWallet(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	w, ok := u.store.wallets[id]
	if !ok {
		return ErrNotFound
	}
	w.Balance = w.Balance.Add(amount)
	u.store.wallets[id] = w
	return nil
}

func (u *memUnit) DebitWallet(_ context.Context, id uuid.UUID, amount decimal.Decimal) error {
	w, ok := u.store.wallets[id]
	if !ok {
		return ErrNotFound
	}
	if w.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	w.Balance = w.Balance.Sub(amount)
	u.store.wallets[id] = w
	return nil
}

func (u *memUnit) Session(_ context.Context, id uuid.UUID) (session.Session, error) {
	sess, ok := u.store.sessions[id]
	if !ok {
		return session.Session{}, ErrNotFound
	}
	return sess, nil
}

func (u *memUnit) TransactionForUpdate(_ context.Context, id uuid.UUID, typ TransactionType) (Transaction, error) {
	txn, ok := u.store.transactions[id]
	if !ok || txn.Type != typ {
		return Transaction{}, ErrNotFound
	}
	return txn, nil
}

func (u *memUnit) InsertTransaction(_ context.Context, txn Transaction) error {
	u.store.transactions[txn.ID] = txn
	return nil
}

func (u *memUnit) CompleteTransaction(_ context.Context, txn Transaction) error {
	existing, ok := u.store.transactions[txn.ID]
	if !ok || existing.IsCompleted {
		return ErrNotFound
	}
	u.store.transactions[txn.ID] = txn
	return nil
}

func (u *memUnit) HasInitialCredit(_ context.Context, walletID uuid.UUID) (bool, error) {
	for _, txn := range u.store.transactions {
		if txn.Type == TypeInitialCredit && txn.ToWalletID != nil && *txn.ToWalletID == walletID {
			return true, nil
		}
	}
	return false, nil
}

// Sessions returns a session.Repository view over the store.
func (s *MemoryStore) Sessions() session.Repository { return memSessions{store: s} }

// Players returns a player.Repository view over the store.
func (s *MemoryStore) Players() player.Repository { return memPlayers{store: s} }

// Wallets returns a wallet.Repository view over the store.
func (s *MemoryStore) Wallets() wallet.Repository { return memWallets{store: s} }

type memSessions struct {
	store *MemoryStore
}

func (r memSessions) Create(_ context.Context, sess session.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.sessions {
		if existing.Name == sess.Name {
			return session.ErrNameTaken
		}
	}
	r.store.sessions[sess.ID] = sess
	return nil
}

func (r memSessions) Get(_ context.Context, id uuid.UUID) (session.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sess, ok := r.store.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (r memSessions) List(_ context.Context) ([]session.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sessions := make([]session.Session, 0, len(r.store.sessions))
	for _, sess := range r.store.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	return sessions, nil
}

func (r memSessions) End(_ context.Context, id uuid.UUID, endedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sess, ok := r.store.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	if !sess.IsActive {
		return session.ErrAlreadyEnded
	}
	sess.IsActive = false
	sess.EndedAt = &endedAt
	r.store.sessions[id] = sess
	return nil
}

type memPlayers struct {
	store *MemoryStore
}

func (r memPlayers) Create(_ context.Context, p player.Player) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.players[p.ID] = p
	return nil
}

func (r memPlayers) Get(_ context.Context, id uuid.UUID) (player.Player, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.players[id]
	if !ok {
		return player.Player{}, player.ErrNotFound
	}
	return p, nil
}

func (r memPlayers) ListBySession(_ context.Context, sessionID uuid.UUID) ([]player.Player, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var players []player.Player
	for _, p := range r.store.players {
		if p.GameSessionID == sessionID {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].UserName < players[j].UserName })
	return players, nil
}

type memWallets struct {
	store *MemoryStore
}

func (r memWallets) Create(_ context.Context, w wallet.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.wallets {
		if existing.UserID == w.UserID && existing.GameSessionID == w.GameSessionID {
			return wallet.ErrDuplicate
		}
	}
	r.store.wallets[w.ID] = w
	return nil
}

func (r memWallets) Get(_ context.Context, id uuid.UUID) (wallet.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.wallets[id]
	if !ok {
		return wallet.Wallet{}, wallet.ErrNotFound
	}
	return w, nil
}

func (r memWallets) GetByUser(_ context.Context, userID, sessionID uuid.UUID) (wallet.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, w := range r.store.wallets {
		if w.UserID == userID && w.GameSessionID == sessionID {
			return w, nil
		}
	}
	return wallet.Wallet{}, wallet.ErrNotFound
}

func (r memWallets) ListBySession(_ context.Context, sessionID uuid.UUID) ([]wallet.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var wallets []wallet.Wallet
	for _, w := range r.store.wallets {
		if w.GameSessionID == sessionID {
			wallets = append(wallets, w)
		}
	}
	sort.Slice(wallets, func(i, j int) bool {
		return bytesLess(wallets[i].ID, wallets[j].ID)
	})
	return wallets, nil
}

func bytesLess(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
