package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	"github.com/redis/go-redis/v9"
)

// RedisViewCache implements cache.ViewCache in Redis.
//
// Keys:
//
//	<prefix>:user:ext:<externalID>      user view snapshot
//	<prefix>:history:<walletID>         wallet history snapshot
//	<prefix>:wallet-owner:<walletID>    external id owning the wallet
//	<prefix>:views:generation           bumped by every invalidation
//
// Snapshots are written by a script that compares the generation first, so a
// reader that loaded the store before a commit cannot store its view after the
// commit's invalidation.
type RedisViewCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisViewCache creates a cache whose entries expire after ttl
func NewRedisViewCache(client *redis.Client, prefix string, ttl time.Duration) *RedisViewCache {
	return &RedisViewCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisViewCache) userKey(externalID string) string {
	return c.prefix + ":user:ext:" + externalID
}

func (c *RedisViewCache) historyKey(walletID string) string {
	return c.prefix + ":history:" + walletID
}

func (c *RedisViewCache) generationKey() string {
	return c.prefix + ":views:generation"
}

func (c *RedisViewCache) ownerKey(walletID string) string {
	return c.prefix + ":wallet-owner:" + walletID
}

// setIfCurrent stores ARGV[3..] under KEYS[2..] with a PX ttl of ARGV[2] only
// while the counter at KEYS[1] still equals ARGV[1]
var setIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
for i = 2, #KEYS do
	redis.call('SET', KEYS[i], ARGV[i + 1], 'PX', ARGV[2])
end
return 1
`)

// Generation returns the current invalidation counter, 0 before the first write
func (c *RedisViewCache) Generation(ctx context.Context) (int64, error) {
	generation, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return generation, err
}

func (c *RedisViewCache) store(ctx context.Context, generation int64, entries map[string]any) error {
	keys := []string{c.generationKey()}
	args := []any{strconv.FormatInt(generation, 10), c.ttl.Milliseconds()}
	for key, value := range entries {
		keys = append(keys, key)
		args = append(args, value)
	}
	return setIfCurrent.Run(ctx, c.client, keys, args...).Err()
}

// GetUserView returns the cached view for externalID
func (c *RedisViewCache) GetUserView(ctx context.Context, externalID string) (*entity.User, bool, error) {
	var record userRecord
	ok, err := c.get(ctx, c.userKey(externalID), &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record.toEntity(), true, nil
}

// SetUserView stores the view and remembers which user owns each wallet
func (c *RedisViewCache) SetUserView(ctx context.Context, user *entity.User, generation int64) error {
	payload, err := json.Marshal(newUserRecord(user))
	if err != nil {
		return err
	}

	entries := map[string]any{c.userKey(user.ExternalID): string(payload)}
	for _, wallet := range user.Wallets {
		entries[c.ownerKey(wallet.ID)] = user.ExternalID
	}
	return c.store(ctx, generation, entries)
}

// GetHistory returns the cached history of a wallet
func (c *RedisViewCache) GetHistory(ctx context.Context, walletID string) ([]*entity.Transaction, bool, error) {
	var records []transactionRecord
	ok, err := c.get(ctx, c.historyKey(walletID), &records)
	if err != nil || !ok {
		return nil, false, err
	}
	return transactionEntities(records), true, nil
}

// SetHistory stores the history of a wallet
func (c *RedisViewCache) SetHistory(ctx context.Context, walletID string, history []*entity.Transaction, generation int64) error {
	payload, err := json.Marshal(newTransactionRecords(history))
	if err != nil {
		return err
	}
	return c.store(ctx, generation, map[string]any{c.historyKey(walletID): string(payload)})
}

// InvalidateWallet advances the generation and drops the wallet history and,
// when known, its owner's view
func (c *RedisViewCache) InvalidateWallet(ctx context.Context, walletID string) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return err
	}

	keys := []string{c.historyKey(walletID)}

	owner, err := c.client.Get(ctx, c.ownerKey(walletID)).Result()
	switch {
	case err == nil:
		keys = append(keys, c.userKey(owner))
	case !errors.Is(err, redis.Nil):
		return err
	}

	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisViewCache) get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}
