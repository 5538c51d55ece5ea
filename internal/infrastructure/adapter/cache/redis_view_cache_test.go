package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func setupCache(t *testing.T) (*RedisViewCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisViewCache(client, "test", time.Minute), mr
}

func sampleUser() *entity.User {
	wallet := entity.RestoreWallet("w1", "u1", 6000, created, created.Add(2*time.Second))
	wallet.Transactions = []*entity.Transaction{
		{ID: "t2", WalletID: "w1", Kind: entity.KindSend, Amount: 4000, Category: "food", CreatedAt: created.Add(2 * time.Second)},
		{ID: "t1", WalletID: "w1", Kind: entity.KindReceive, Amount: 10000, Category: "salary", CreatedAt: created.Add(time.Second)},
	}
	return &entity.User{
		ID:          "u1",
		ExternalID:  "user_abc",
		Email:       "a@example.com",
		DisplayName: "alice",
		CreatedAt:   created,
		UpdatedAt:   created,
		Wallets:     []*entity.Wallet{wallet},
	}
}

func TestRedisViewCache_UserView(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	_, ok, err := cache.GetUserView(ctx, "user_abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetUserView(ctx, sampleUser(), 0))
	assert.Equal(t, time.Minute, mr.TTL("test:user:ext:user_abc"))
	assert.Equal(t, time.Minute, mr.TTL("test:wallet-owner:w1"))
	owner, err := mr.Get("test:wallet-owner:w1")
	require.NoError(t, err)
	assert.Equal(t, "user_abc", owner)

	user, ok, err := cache.GetUserView(ctx, "user_abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "alice", user.DisplayName)
	require.Len(t, user.Wallets, 1)
	assert.Equal(t, int64(6000), user.Wallets[0].Balance())
	require.Len(t, user.Wallets[0].Transactions, 2)
	assert.Equal(t, "t2", user.Wallets[0].Transactions[0].ID)
	assert.Equal(t, entity.KindSend, user.Wallets[0].Transactions[0].Kind)
	assert.True(t, created.Add(2*time.Second).Equal(user.Wallets[0].Transactions[0].CreatedAt))
}

func TestRedisViewCache_History(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetHistory(ctx, "w1", []*entity.Transaction{}, 0))
	history, ok, err := cache.GetHistory(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, history)
	assert.Empty(t, history)

	require.NoError(t, cache.SetHistory(ctx, "w1", sampleUser().Wallets[0].Transactions, 0))
	history, ok, err = cache.GetHistory(ctx, "w1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, history, 2)
	assert.Equal(t, int64(4000), history[0].Amount)
}

func TestRedisViewCache_InvalidateWallet(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetUserView(ctx, sampleUser(), 0))
	require.NoError(t, cache.SetHistory(ctx, "w1", sampleUser().Wallets[0].Transactions, 0))

	require.NoError(t, cache.InvalidateWallet(ctx, "w1"))
	assert.False(t, mr.Exists("test:history:w1"))
	assert.False(t, mr.Exists("test:user:ext:user_abc"))

	generation, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), generation)

	// unknown wallets only advance the generation
	require.NoError(t, cache.InvalidateWallet(ctx, "missing"))
	generation, err = cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), generation)
}

func TestRedisViewCache_SnapshotOlderThanInvalidationIsDropped(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	// a reader takes the generation and loads the store before a write commits
	before, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, before)

	// the write commits and invalidates
	require.NoError(t, cache.InvalidateWallet(ctx, "w1"))

	// the reader's snapshot arrives late and must not be stored
	require.NoError(t, cache.SetUserView(ctx, sampleUser(), before))
	require.NoError(t, cache.SetHistory(ctx, "w1", sampleUser().Wallets[0].Transactions, before))
	assert.False(t, mr.Exists("test:user:ext:user_abc"))
	assert.False(t, mr.Exists("test:wallet-owner:w1"))
	assert.False(t, mr.Exists("test:history:w1"))

	// a reader that started after the invalidation fills the cache
	after, err := cache.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.SetHistory(ctx, "w1", sampleUser().Wallets[0].Transactions, after))
	assert.True(t, mr.Exists("test:history:w1"))
	assert.Equal(t, time.Minute, mr.TTL("test:history:w1"))
}

func TestRedisViewCache_Expiry(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetHistory(ctx, "w1", nil, 0))
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.GetHistory(ctx, "w1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisViewCache_ErrorsWhenRedisIsDown(t *testing.T) {
	cache, mr := setupCache(t)
	mr.Close()

	_, _, err := cache.GetUserView(context.Background(), "user_abc")
	assert.Error(t, err)
	assert.Error(t, cache.InvalidateWallet(context.Background(), "w1"))
	_, err = cache.Generation(context.Background())
	assert.Error(t, err)
}
