package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/persistence"
)

type unitKey struct{}

// Store is an in-process ledger store implementing persistence.UnitOfWork.
// A unit of work holds the store lock from Begin until Commit or Rollback, so
// units are fully serialised; Rollback replays an undo log.
type Store struct {
	mu sync.Mutex

	users           map[string]*entity.User // by id, without wallets
	usersByExternal map[string]string       // external id -> id
	walletsByUser   map[string][]string     // user id -> wallet ids, creation order
	wallets         map[string]*walletRecord
	transactions    map[string][]*entity.Transaction // wallet id -> entries, append order
}

type walletRecord struct {
	id        string
	userID    string
	balance   int64
	createdAt time.Time
	updatedAt time.Time
}

type unit struct {
	undo []func()
	done bool
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:           make(map[string]*entity.User),
		usersByExternal: make(map[string]string),
		walletsByUser:   make(map[string][]string),
		wallets:         make(map[string]*walletRecord),
		transactions:    make(map[string][]*entity.Transaction),
	}
}

// Begin takes the store lock and returns a context carrying the unit
func (s *Store) Begin(ctx context.Context) (context.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return context.WithValue(ctx, unitKey{}, &unit{}), nil
}

// Commit keeps the writes of the unit and releases the store lock
func (s *Store) Commit(ctx context.Context) error {
	u, ok := unitFrom(ctx)
	if !ok {
		return errors.New("commit called outside of a unit of work")
	}
	if u.done {
		return nil
	}
	u.done = true
	s.mu.Unlock()
	return nil
}

// Rollback undoes the writes of the unit and releases the store lock
func (s *Store) Rollback(ctx context.Context) error {
	u, ok := unitFrom(ctx)
	if !ok {
		return errors.New("rollback called outside of a unit of work")
	}
	if u.done {
		return nil
	}
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.done = true
	s.mu.Unlock()
	return nil
}

// GetUserRepository returns a user repository bound to ctx's unit, if any
func (s *Store) GetUserRepository(ctx context.Context) persistence.UserRepository {
	return &userRepository{store: s, ctx: ctx}
}

// GetWalletRepository returns a wallet repository bound to ctx's unit, if any
func (s *Store) GetWalletRepository(ctx context.Context) persistence.WalletRepository {
	return &walletRepository{store: s, ctx: ctx}
}

// GetTransactionRepository returns a transaction repository bound to ctx's unit, if any
func (s *Store) GetTransactionRepository(ctx context.Context) persistence.TransactionRepository {
	return &transactionRepository{store: s, ctx: ctx}
}

func unitFrom(ctx context.Context) (*unit, bool) {
	u, ok := ctx.Value(unitKey{}).(*unit)
	return u, ok
}

// run executes fn under the store lock. Inside a unit the lock is already held
// and writes register their undo step; outside a unit each call is atomic on its own.
func (s *Store) run(ctx context.Context, fn func(onUndo func(func())) error) error {
	if u, ok := unitFrom(ctx); ok && !u.done {
		return fn(func(undo func()) { u.undo = append(u.undo, undo) })
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(func(func()) {})
}

func (s *Store) userCopy(id string) *entity.User {
	u := *s.users[id]
	u.Wallets = nil
	return &u
}

func (r *walletRecord) toEntity() *entity.Wallet {
	return entity.RestoreWallet(r.id, r.userID, r.balance, r.createdAt, r.updatedAt)
}

// history returns a copy of the wallet's entries, newest first
func (s *Store) history(walletID string) []*entity.Transaction {
	entries := s.transactions[walletID]
	out := make([]*entity.Transaction, 0, len(entries))
	for _, tx := range entries {
		c := *tx
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

type userRepository struct {
	store *Store
	ctx   context.Context
}

func (r *userRepository) GetByExternalID(_ context.Context, externalID string) (*entity.User, error) {
	var user *entity.User
	err := r.store.run(r.ctx, func(func(func())) error {
		id, ok := r.store.usersByExternal[externalID]
		if !ok {
			return errs.ErrUserNotFound
		}
		user = r.store.userCopy(id)
		return nil
	})
	return user, err
}

func (r *userRepository) GetWithWallets(_ context.Context, externalID string) (*entity.User, error) {
	var user *entity.User
	err := r.store.run(r.ctx, func(func(func())) error {
		id, ok := r.store.usersByExternal[externalID]
		if !ok {
			return errs.ErrUserNotFound
		}
		user = r.store.userCopy(id)
		for _, walletID := range r.store.walletsByUser[id] {
			wallet := r.store.wallets[walletID].toEntity()
			wallet.Transactions = r.store.history(walletID)
			user.Wallets = append(user.Wallets, wallet)
		}
		return nil
	})
	return user, err
}

func (r *userRepository) Create(_ context.Context, user *entity.User) error {
	return r.store.run(r.ctx, func(onUndo func(func())) error {
		if _, exists := r.store.usersByExternal[user.ExternalID]; exists {
			return errs.ErrDuplicateUser
		}
		if _, exists := r.store.users[user.ID]; exists {
			return errs.ErrDuplicateUser
		}

		stored := *user
		stored.Wallets = nil
		r.store.users[user.ID] = &stored
		r.store.usersByExternal[user.ExternalID] = user.ID

		onUndo(func() {
			delete(r.store.users, user.ID)
			delete(r.store.usersByExternal, user.ExternalID)
		})
		return nil
	})
}

type walletRepository struct {
	store *Store
	ctx   context.Context
}

func (r *walletRepository) Create(_ context.Context, wallet *entity.Wallet) error {
	return r.store.run(r.ctx, func(onUndo func(func())) error {
		if _, ok := r.store.users[wallet.UserID]; !ok {
			return errs.ErrUserNotFound
		}
		if _, exists := r.store.wallets[wallet.ID]; exists {
			return errs.ErrConflict
		}

		r.store.wallets[wallet.ID] = &walletRecord{
			id:        wallet.ID,
			userID:    wallet.UserID,
			balance:   wallet.Balance(),
			createdAt: wallet.CreatedAt,
			updatedAt: wallet.UpdatedAt,
		}
		previous := r.store.walletsByUser[wallet.UserID]
		r.store.walletsByUser[wallet.UserID] = append(previous[:len(previous):len(previous)], wallet.ID)

		onUndo(func() {
			delete(r.store.wallets, wallet.ID)
			if len(previous) == 0 {
				delete(r.store.walletsByUser, wallet.UserID)
				return
			}
			r.store.walletsByUser[wallet.UserID] = previous
		})
		return nil
	})
}

func (r *walletRepository) GetByID(_ context.Context, id string) (*entity.Wallet, error) {
	var wallet *entity.Wallet
	err := r.store.run(r.ctx, func(func(func())) error {
		record, ok := r.store.wallets[id]
		if !ok {
			return errs.ErrWalletNotFound
		}
		wallet = record.toEntity()
		return nil
	})
	return wallet, err
}

// GetForUpdate is GetByID: inside a unit the whole store is already locked
func (r *walletRepository) GetForUpdate(ctx context.Context, id string) (*entity.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *walletRepository) ListByUserID(_ context.Context, userID string) ([]*entity.Wallet, error) {
	var wallets []*entity.Wallet
	err := r.store.run(r.ctx, func(func(func())) error {
		for _, id := range r.store.walletsByUser[userID] {
			wallets = append(wallets, r.store.wallets[id].toEntity())
		}
		return nil
	})
	return wallets, err
}

func (r *walletRepository) UpdateBalance(_ context.Context, id string, expected, balance int64, updatedAt time.Time) error {
	return r.store.run(r.ctx, func(onUndo func(func())) error {
		record, ok := r.store.wallets[id]
		if !ok {
			return errs.ErrWalletNotFound
		}
		if record.balance != expected {
			return errs.ErrConflict
		}
		if balance < 0 {
			return errs.ErrInsufficientFunds
		}

		previous := *record
		record.balance = balance
		record.updatedAt = updatedAt

		onUndo(func() { *record = previous })
		return nil
	})
}

type transactionRepository struct {
	store *Store
	ctx   context.Context
}

func (r *transactionRepository) Append(_ context.Context, tx *entity.Transaction) error {
	return r.store.run(r.ctx, func(onUndo func(func())) error {
		if _, ok := r.store.wallets[tx.WalletID]; !ok {
			return errs.ErrWalletNotFound
		}
		if tx.Amount <= 0 {
			return errs.ErrInvalidAmount
		}

		stored := *tx
		previous := r.store.transactions[tx.WalletID]
		r.store.transactions[tx.WalletID] = append(previous[:len(previous):len(previous)], &stored)

		onUndo(func() {
			if len(previous) == 0 {
				delete(r.store.transactions, tx.WalletID)
				return
			}
			r.store.transactions[tx.WalletID] = previous
		})
		return nil
	})
}

func (r *transactionRepository) ListByWalletID(_ context.Context, walletID string) ([]*entity.Transaction, error) {
	var history []*entity.Transaction
	err := r.store.run(r.ctx, func(func(func())) error {
		history = r.store.history(walletID)
		return nil
	})
	return history, err
}
