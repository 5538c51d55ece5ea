package balance

import (
	"sync"
)

// WalletSerializer queues balance writes per wallet inside one process so that
// concurrent requests for a wallet do not pile up on its database row lock.
// Storage-level locking still guarantees correctness across processes.
type WalletSerializer struct {
	mu    sync.Mutex
	locks map[string]*walletLock
}

type walletLock struct {
	mu   sync.Mutex
	refs int
}

// NewWalletSerializer creates an empty serializer
func NewWalletSerializer() *WalletSerializer {
	return &WalletSerializer{locks: make(map[string]*walletLock)}
}

// Lock blocks until the caller holds the wallet and returns the release func.
// A nil serializer returns a no-op release.
func (s *WalletSerializer) Lock(walletID string) func() {
	if s == nil {
		return func() {}
	}

	s.mu.Lock()
	lock, ok := s.locks[walletID]
	if !ok {
		lock = &walletLock{}
		s.locks[walletID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, walletID)
		}
		s.mu.Unlock()
	}
}

// Active returns the number of wallets currently held or waited on
func (s *WalletSerializer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
