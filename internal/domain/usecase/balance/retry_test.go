package balance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	applogger "github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/logger"
	coremocks "github.com/amirhossein-jamali/wallet-ledger/mocks/port/core"
	persistencemocks "github.com/amirhossein-jamali/wallet-ledger/mocks/port/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type txKey struct{}

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

type mockedStore struct {
	uow     *persistencemocks.MockUnitOfWork
	wallets *persistencemocks.MockWalletRepository
	entries *persistencemocks.MockTransactionRepository
	txCtx   context.Context
}

func newMockedStore(t *testing.T) *mockedStore {
	m := &mockedStore{
		uow:     persistencemocks.NewMockUnitOfWork(t),
		wallets: persistencemocks.NewMockWalletRepository(t),
		entries: persistencemocks.NewMockTransactionRepository(t),
		txCtx:   context.WithValue(context.Background(), txKey{}, "tx"),
	}
	m.uow.On("GetWalletRepository", m.txCtx).Return(m.wallets).Maybe()
	m.uow.On("GetTransactionRepository", m.txCtx).Return(m.entries).Maybe()
	return m
}

func fixedClock(t *testing.T) *coremocks.MockTimeProvider {
	tp := coremocks.NewMockTimeProvider(t)
	tp.On("Now").Return(fixedNow).Maybe()
	return tp
}

func TestApplyTransaction_RetriesOnConflict(t *testing.T) {
	store := newMockedStore(t)
	metrics := coremocks.NewMockMetrics(t)

	store.uow.On("Begin", mock.Anything).Return(store.txCtx, nil).Times(3)
	for i := 0; i < 3; i++ {
		store.wallets.On("GetForUpdate", store.txCtx, "w1").
			Return(entity.RestoreWallet("w1", "u1", 1000, fixedNow, fixedNow), nil).Once()
	}
	store.wallets.On("UpdateBalance", store.txCtx, "w1", int64(1000), int64(700), mock.Anything).
		Return(errs.ErrConflict).Twice()
	store.wallets.On("UpdateBalance", store.txCtx, "w1", int64(1000), int64(700), mock.Anything).
		Return(nil).Once()
	store.entries.On("Append", store.txCtx, mock.AnythingOfType("*entity.Transaction")).Return(nil).Once()
	store.uow.On("Rollback", store.txCtx).Return(nil).Twice()
	store.uow.On("Commit", store.txCtx).Return(nil).Once()

	metrics.On("ObserveRetry", operationApply).Twice()
	metrics.On("ObserveTransaction", "send", "applied").Once()

	service := NewService(store.uow, fixedClock(t), applogger.NewNoopLogger(),
		WithMetrics(metrics),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3}),
	)

	result, err := service.ApplyTransaction(context.Background(), send("w1", 300, "bills"))
	require.NoError(t, err)
	assert.Equal(t, int64(700), result.Wallet.Balance())
	assert.Equal(t, fixedNow.Add(time.Microsecond), result.Transaction.CreatedAt)
}

func TestApplyTransaction_ConflictRetriesExhausted(t *testing.T) {
	store := newMockedStore(t)
	metrics := coremocks.NewMockMetrics(t)

	store.uow.On("Begin", mock.Anything).Return(store.txCtx, nil).Twice()
	store.wallets.On("GetForUpdate", store.txCtx, "w1").Return(nil, errs.ErrConflict).Twice()
	store.uow.On("Rollback", store.txCtx).Return(nil).Twice()

	metrics.On("ObserveRetry", operationApply).Once()
	metrics.On("ObserveTransaction", "receive", "conflict").Once()

	service := NewService(store.uow, fixedClock(t), applogger.NewNoopLogger(),
		WithMetrics(metrics),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 2}),
	)

	_, err := service.ApplyTransaction(context.Background(), receive("w1", 300, ""))
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestApplyTransaction_StorageUnavailableIsNotRetried(t *testing.T) {
	store := newMockedStore(t)
	store.uow.On("Begin", mock.Anything).Return(nil, errs.ErrStorageUnavailable).Once()

	service := NewService(store.uow, fixedClock(t), applogger.NewNoopLogger(),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 5}),
	)

	_, err := service.ApplyTransaction(context.Background(), send("w1", 300, ""))
	assert.ErrorIs(t, err, errs.ErrStorageUnavailable)
}

func TestApplyTransaction_AppendFailureRollsBack(t *testing.T) {
	store := newMockedStore(t)
	appendErr := errors.New("disk full")

	store.uow.On("Begin", mock.Anything).Return(store.txCtx, nil).Once()
	store.wallets.On("GetForUpdate", store.txCtx, "w1").
		Return(entity.RestoreWallet("w1", "u1", 1000, fixedNow, fixedNow), nil).Once()
	store.wallets.On("UpdateBalance", store.txCtx, "w1", int64(1000), int64(1300), mock.Anything).Return(nil).Once()
	store.entries.On("Append", store.txCtx, mock.Anything).Return(appendErr).Once()
	store.uow.On("Rollback", store.txCtx).Return(nil).Once()

	service := NewService(store.uow, fixedClock(t), applogger.NewNoopLogger())

	_, err := service.ApplyTransaction(context.Background(), receive("w1", 300, ""))
	assert.ErrorIs(t, err, appendErr)
	store.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestApplyTransaction_ValidationNeverTouchesStorage(t *testing.T) {
	uow := persistencemocks.NewMockUnitOfWork(t)
	service := NewService(uow, fixedClock(t), applogger.NewNoopLogger())

	_, err := service.ApplyTransaction(context.Background(), send("w1", 0, ""))
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	uow.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestApplyTransaction_CancelledDuringBackoff(t *testing.T) {
	store := newMockedStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp := fixedClock(t)
	never := make(chan time.Time)
	tp.On("After", mock.AnythingOfType("time.Duration")).Return((<-chan time.Time)(never)).Once()

	store.uow.On("Begin", mock.Anything).Return(store.txCtx, nil).Once()
	store.wallets.On("GetForUpdate", store.txCtx, "w1").
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, errs.ErrConflict).Once()
	store.uow.On("Rollback", store.txCtx).Return(nil).Once()

	service := NewService(store.uow, tp, applogger.NewNoopLogger(),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: time.Second}),
	)

	_, err := service.ApplyTransaction(ctx, send("w1", 100, ""))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryPolicyBackoff(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}

	assert.Equal(t, 10*time.Millisecond, policy.backoff(0))
	assert.Equal(t, 20*time.Millisecond, policy.backoff(1))
	assert.Equal(t, 40*time.Millisecond, policy.backoff(2))
	assert.Equal(t, 50*time.Millisecond, policy.backoff(3))
	assert.Equal(t, 50*time.Millisecond, policy.backoff(62))

	assert.Zero(t, RetryPolicy{}.backoff(3))

	jittered := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, JitterFactor: 0.5}
	for i := 0; i < 20; i++ {
		d := jittered.backoff(0)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
