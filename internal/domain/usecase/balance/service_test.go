package balance

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/usecase"
	applogger "github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/memory"
	timeadapter "github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/time"
	cachemocks "github.com/amirhossein-jamali/wallet-ledger/mocks/port/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store *memory.Store, opts ...Option) *Service {
	return NewService(store, timeadapter.NewRealTimeProvider(), applogger.NewNoopLogger(), opts...)
}

func seedWallet(t *testing.T, store *memory.Store, initial int64) *entity.Wallet {
	t.Helper()
	tp := timeadapter.NewRealTimeProvider()
	ctx := context.Background()

	user, err := entity.NewUser("ext-"+uuid.NewString(), "", "", tp)
	require.NoError(t, err)
	wallet, err := entity.NewWallet(user.ID, initial, tp)
	require.NoError(t, err)

	require.NoError(t, store.GetUserRepository(ctx).Create(ctx, user))
	require.NoError(t, store.GetWalletRepository(ctx).Create(ctx, wallet))
	return wallet
}

// assertLedgerInvariant checks balance == initial + receives - sends and balance >= 0
func assertLedgerInvariant(t *testing.T, store *memory.Store, walletID string, initial int64) {
	t.Helper()
	ctx := context.Background()

	wallet, err := store.GetWalletRepository(ctx).GetByID(ctx, walletID)
	require.NoError(t, err)
	history, err := store.GetTransactionRepository(ctx).ListByWalletID(ctx, walletID)
	require.NoError(t, err)

	expected := initial
	for _, tx := range history {
		expected += tx.Delta()
	}
	assert.Equal(t, expected, wallet.Balance(), "balance must equal the net of its transactions")
	assert.GreaterOrEqual(t, wallet.Balance(), int64(0))
}

func send(walletID string, amount int64, category string) usecase.ApplyTransactionRequest {
	return usecase.ApplyTransactionRequest{WalletID: walletID, Kind: entity.KindSend, Amount: amount, Category: category}
}

func receive(walletID string, amount int64, category string) usecase.ApplyTransactionRequest {
	return usecase.ApplyTransactionRequest{WalletID: walletID, Kind: entity.KindReceive, Amount: amount, Category: category}
}

func TestApplyTransaction_SendThenOverdraw(t *testing.T) {
	store := memory.NewStore()
	wallet := seedWallet(t, store, 10000)
	service := newTestService(store)
	ctx := context.Background()

	result, err := service.ApplyTransaction(ctx, send(wallet.ID, 4000, "food"))
	require.NoError(t, err)
	assert.Equal(t, int64(6000), result.Wallet.Balance())
	assert.Equal(t, entity.KindSend, result.Transaction.Kind)
	assert.Equal(t, int64(4000), result.Transaction.Amount)
	assert.Equal(t, "food", result.Transaction.Category)

	_, err = service.ApplyTransaction(ctx, send(wallet.ID, 10000, "rent"))
	require.Error(t, err)
	assert.True(t, errs.IsInsufficientFundsError(err))

	stored, err := store.GetWalletRepository(ctx).GetByID(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), stored.Balance())

	history, err := store.GetTransactionRepository(ctx).ListByWalletID(ctx, wallet.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.Transaction.ID, history[0].ID)

	assertLedgerInvariant(t, store, wallet.ID, 10000)
}

func TestApplyTransaction_Rejections(t *testing.T) {
	store := memory.NewStore()
	wallet := seedWallet(t, store, 500)
	service := newTestService(store)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     usecase.ApplyTransactionRequest
		wantErr error
	}{
		{"zero amount", send(wallet.ID, 0, ""), errs.ErrInvalidAmount},
		{"negative amount", receive(wallet.ID, -10, ""), errs.ErrInvalidAmount},
		{"unknown kind", usecase.ApplyTransactionRequest{WalletID: wallet.ID, Kind: "refund", Amount: 10}, errs.ErrInvalidKind},
		{"missing wallet id", send("", 10, ""), errs.ErrInvalidInput},
		{"wallet does not exist", send(uuid.NewString(), 10, ""), errs.ErrWalletNotFound},
		{"overdraw", send(wallet.ID, 501, ""), errs.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.ApplyTransaction(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}

	history, err := store.GetTransactionRepository(ctx).ListByWalletID(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "rejected requests must not leave entries behind")
	assertLedgerInvariant(t, store, wallet.ID, 500)
}

func TestApplyTransaction_LedgerInvariantHoldsForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 5; run++ {
		store := memory.NewStore()
		initial := rng.Int63n(5000)
		wallet := seedWallet(t, store, initial)
		service := newTestService(store)

		for i := 0; i < 60; i++ {
			amount := rng.Int63n(2000) + 1
			req := receive(wallet.ID, amount, "salary")
			if rng.Intn(2) == 0 {
				req = send(wallet.ID, amount, "food")
			}

			_, err := service.ApplyTransaction(context.Background(), req)
			if err != nil {
				require.True(t, errs.IsInsufficientFundsError(err), "unexpected error: %v", err)
			}
		}

		assertLedgerInvariant(t, store, wallet.ID, initial)
	}
}

func TestApplyTransaction_HistoryIsNewestFirst(t *testing.T) {
	store := memory.NewStore()
	wallet := seedWallet(t, store, 0)
	service := newTestService(store)
	ctx := context.Background()

	var inserted []string
	for i := 0; i < 20; i++ {
		result, err := service.ApplyTransaction(ctx, receive(wallet.ID, int64(i+1), "tip"))
		require.NoError(t, err)
		inserted = append(inserted, result.Transaction.ID)
	}

	history, err := store.GetTransactionRepository(ctx).ListByWalletID(ctx, wallet.ID)
	require.NoError(t, err)
	require.Len(t, history, len(inserted))

	for i, tx := range history {
		assert.Equal(t, inserted[len(inserted)-1-i], tx.ID)
		if i > 0 {
			assert.True(t, history[i-1].CreatedAt.After(tx.CreatedAt), "creation times must strictly decrease")
		}
	}
}

func TestApplyTransaction_ConcurrentWithdrawals(t *testing.T) {
	const (
		balance  = int64(1000)
		amount   = int64(300)
		requests = 10
	)

	for name, opts := range map[string][]Option{
		"store locking only":     nil,
		"with wallet serializer": {WithSerializer(NewWalletSerializer())},
	} {
		t.Run(name, func(t *testing.T) {
			store := memory.NewStore()
			wallet := seedWallet(t, store, balance)
			service := newTestService(store, opts...)

			var (
				wg            sync.WaitGroup
				mu            sync.Mutex
				succeeded     int
				insufficient  int
				unexpectedErr []error
			)
			for i := 0; i < requests; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := service.ApplyTransaction(context.Background(), send(wallet.ID, amount, "cash"))

					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						succeeded++
					case errs.IsInsufficientFundsError(err):
						insufficient++
					default:
						unexpectedErr = append(unexpectedErr, err)
					}
				}()
			}
			wg.Wait()

			require.Empty(t, unexpectedErr)
			assert.Equal(t, int(balance/amount), succeeded)
			assert.Equal(t, requests-int(balance/amount), insufficient)

			stored, err := store.GetWalletRepository(context.Background()).GetByID(context.Background(), wallet.ID)
			require.NoError(t, err)
			assert.Equal(t, balance-(balance/amount)*amount, stored.Balance())
			assertLedgerInvariant(t, store, wallet.ID, balance)
		})
	}
}

func TestSetBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("raising the balance records a receive adjustment", func(t *testing.T) {
		store := memory.NewStore()
		wallet := seedWallet(t, store, 6000)
		service := newTestService(store)

		result, err := service.SetBalance(ctx, wallet.ID, 10000)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), result.Wallet.Balance())
		require.NotNil(t, result.Adjustment)
		assert.Equal(t, entity.KindReceive, result.Adjustment.Kind)
		assert.Equal(t, int64(4000), result.Adjustment.Amount)
		assert.Equal(t, entity.CategoryAdjustment, result.Adjustment.Category)
		assertLedgerInvariant(t, store, wallet.ID, 6000)
	})

	t.Run("lowering the balance records a send adjustment", func(t *testing.T) {
		store := memory.NewStore()
		wallet := seedWallet(t, store, 6000)
		service := newTestService(store)

		result, err := service.SetBalance(ctx, wallet.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.Wallet.Balance())
		require.NotNil(t, result.Adjustment)
		assert.Equal(t, entity.KindSend, result.Adjustment.Kind)
		assert.Equal(t, int64(6000), result.Adjustment.Amount)
		assertLedgerInvariant(t, store, wallet.ID, 6000)
	})

	t.Run("unchanged balance records nothing", func(t *testing.T) {
		store := memory.NewStore()
		wallet := seedWallet(t, store, 6000)
		service := newTestService(store)

		result, err := service.SetBalance(ctx, wallet.ID, 6000)
		require.NoError(t, err)
		assert.Nil(t, result.Adjustment)
		assert.Equal(t, int64(6000), result.Wallet.Balance())

		history, err := store.GetTransactionRepository(ctx).ListByWalletID(ctx, wallet.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("negative balance is rejected", func(t *testing.T) {
		service := newTestService(memory.NewStore())
		_, err := service.SetBalance(ctx, uuid.NewString(), -1)
		assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	})

	t.Run("missing wallet is not found", func(t *testing.T) {
		service := newTestService(memory.NewStore())
		_, err := service.SetBalance(ctx, uuid.NewString(), 100)
		assert.ErrorIs(t, err, errs.ErrWalletNotFound)
	})
}

func TestApplyTransaction_InvalidatesCachedViews(t *testing.T) {
	store := memory.NewStore()
	wallet := seedWallet(t, store, 0)
	cache := cachemocks.NewMockViewCache(t)
	cache.On("InvalidateWallet", context.Background(), wallet.ID).Return(nil).Once()

	service := newTestService(store, WithViewCache(cache))

	_, err := service.ApplyTransaction(context.Background(), receive(wallet.ID, 100, ""))
	require.NoError(t, err)

	// rejected writes leave the cache alone
	_, err = service.ApplyTransaction(context.Background(), send(wallet.ID, 1000, ""))
	require.Error(t, err)
}
